package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/robotalks/linebot/pkg/drive"
	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/sensor"
)

// Config defines the dimensions and dynamics of the bot.
type Config struct {
	// WheelBase is the distance between wheels in mm.
	WheelBase float64 `yaml:"wheel_base"`
	// MaxSpeed of a wheel (mm/s) at full duty.
	MaxSpeed float64 `yaml:"max_speed"`
	// Accel limits the change of wheel speed (mm/s^2), 0 is unlimited.
	Accel float64 `yaml:"accel"`
	// SensorOffset is how far the sensors are ahead of the axle in mm.
	SensorOffset float64 `yaml:"sensor_offset"`
	// SensorSpacing is the lateral distance between adjacent sensors in mm.
	SensorSpacing float64 `yaml:"sensor_spacing"`
	// ConversionTime is the simulated time of one conversion.
	ConversionTime time.Duration `yaml:"conversion_time"`
	// Step is the integration step.
	Step time.Duration `yaml:"step"`
	// RealTime paces the simulation with the wall clock.
	RealTime bool `yaml:"real_time"`
}

// DefaultConfig returns the default config of the bot.
func DefaultConfig() Config {
	return Config{
		WheelBase:      100,
		MaxSpeed:       300,
		Accel:          400,
		SensorOffset:   60,
		SensorSpacing:  14,
		ConversionTime: time.Millisecond,
		Step:           time.Millisecond,
	}
}

// Bot is a differential-drive bot on a course. It implements hal.Board:
// conversions read the course under the sensors, the direction port and
// duty registers drive the wheels, and time only passes with conversions
// and delays.
type Bot struct {
	Config Config
	Course *Course

	lock     sync.Mutex
	pose     Pose2D
	speed    [2]float64
	duty     [2]uint8
	port     byte
	channel  int
	now      time.Time
	odometer float64
}

// NewBot creates a Bot placed at the start of the course.
func NewBot(conf Config, course *Course) *Bot {
	return &Bot{
		Config:  conf,
		Course:  course,
		pose:    course.Start.Pose(),
		channel: -1,
		now:     time.Unix(0, 0),
	}
}

// Pose returns the current pose.
func (b *Bot) Pose() Pose2D {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.pose
}

// SetPose places the bot and stops the wheels.
func (b *Bot) SetPose(pose Pose2D) {
	b.lock.Lock()
	b.pose, b.speed = pose, [2]float64{}
	b.lock.Unlock()
}

// Speed returns current wheel speeds in mm/s.
func (b *Bot) Speed() (left, right float64) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.speed[0], b.speed[1]
}

// Odometer returns the distance travelled by the axle center.
func (b *Bot) Odometer() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.odometer
}

// SensorPos returns where a sensor channel looks at, ok is false if the
// channel has no sensor.
func (b *Bot) SensorPos(ch uint8) (Pos2D, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.sensorPos(ch)
}

// OnEndPad tells if the center sensor is over the end pad.
func (b *Bot) OnEndPad() bool {
	p, _ := b.SensorPos(sensor.ChannelCenter)
	return b.Course.OnEndPad(p)
}

// StartConversion implements hal.Converter.
func (b *Bot) StartConversion(ch uint8) error {
	b.lock.Lock()
	b.channel = int(ch & 0x07)
	b.advance(b.Config.ConversionTime)
	b.lock.Unlock()
	b.pace(b.Config.ConversionTime)
	return nil
}

// ConversionReady implements hal.Converter.
func (b *Bot) ConversionReady() (bool, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.channel >= 0, nil
}

// ConversionResult implements hal.Converter.
func (b *Bot) ConversionResult() (uint8, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.channel < 0 {
		return 0, hal.ErrNoConversion
	}
	p, ok := b.sensorPos(uint8(b.channel))
	b.channel = -1
	if !ok {
		return 0xff, nil
	}
	return b.Course.Reflectance(p), nil
}

// SetDuty implements hal.PWM.
func (b *Bot) SetDuty(ch hal.PWMChannel, duty uint8) error {
	b.lock.Lock()
	b.duty[ch&1] = duty
	b.lock.Unlock()
	return nil
}

// ReadPort implements hal.Port.
func (b *Bot) ReadPort() (byte, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.port, nil
}

// WritePort implements hal.Port.
func (b *Bot) WritePort(v byte) error {
	b.lock.Lock()
	b.port = v
	b.lock.Unlock()
	return nil
}

// Delay implements hal.Delayer.
func (b *Bot) Delay(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.lock.Lock()
	b.advance(d)
	b.lock.Unlock()
	if b.Config.RealTime {
		return hal.Sleeper{}.Delay(ctx, d)
	}
	return nil
}

// Now implements hal.Clock.
func (b *Bot) Now() time.Time {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.now
}

func (b *Bot) pace(d time.Duration) {
	if b.Config.RealTime && d > 0 {
		time.Sleep(d)
	}
}

func (b *Bot) sensorPos(ch uint8) (Pos2D, bool) {
	var lateral float64
	switch ch {
	case sensor.ChannelLeft:
		lateral = b.Config.SensorSpacing
	case sensor.ChannelCenter:
	case sensor.ChannelRight:
		lateral = -b.Config.SensorSpacing
	default:
		return Pos2D{}, false
	}
	return b.pose.Offset(b.Config.SensorOffset, lateral), true
}

func (b *Bot) advance(d time.Duration) {
	step := b.Config.Step
	if step <= 0 {
		step = time.Millisecond
	}
	for d > 0 {
		dt := step
		if d < dt {
			dt = d
		}
		b.integrate(dt.Seconds())
		b.now = b.now.Add(dt)
		d -= dt
	}
}

func (b *Bot) integrate(secs float64) {
	left, right := drive.Direction(b.port & drive.DirectionMask).Wheels()
	targets := [2]float64{
		float64(left) * float64(b.duty[0]) / 255 * b.Config.MaxSpeed,
		float64(right) * float64(b.duty[1]) / 255 * b.Config.MaxSpeed,
	}
	for n, target := range targets {
		b.speed[n] = approach(b.speed[n], target, b.Config.Accel*secs)
	}
	v := (b.speed[0] + b.speed[1]) / 2
	if b.Config.WheelBase > 0 {
		b.pose.Orientation = b.pose.Orientation.AddRadians((b.speed[1] - b.speed[0]) / b.Config.WheelBase * secs)
	}
	b.pose.OffsetBy(b.pose.Orientation.Project(v * secs))
	b.odometer += math.Abs(v * secs)
}

func approach(v, target, maxDelta float64) float64 {
	if maxDelta <= 0 {
		return target
	}
	if v < target {
		return math.Min(target, v+maxDelta)
	}
	return math.Max(target, v-maxDelta)
}

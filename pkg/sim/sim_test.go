package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/linebot/pkg/decision"
	"github.com/robotalks/linebot/pkg/drive"
	"github.com/robotalks/linebot/pkg/sensor"
)

func TestAngle(t *testing.T) {
	assert.InDelta(t, 90, AngleFromDegrees(450).Degrees(), 1e-9)
	assert.InDelta(t, -90, AngleFromDegrees(270).Degrees(), 1e-9)
	assert.InDelta(t, 110, AngleFromDegrees(100).AddDegrees(10).Degrees(), 1e-9)
	assert.InDelta(t, -170, AngleFromDegrees(170).AddDegrees(20).Degrees(), 1e-9)
	p := AngleFromDegrees(90).Project(2)
	assert.InDelta(t, 0, p.X, 1e-9)
	assert.InDelta(t, 2, p.Y, 1e-9)

	pose := Pose2D{Pos2D: Pos2D{X: 1, Y: 1}}
	p = pose.Offset(10, 3)
	assert.InDelta(t, 11, p.X, 1e-9)
	assert.InDelta(t, 4, p.Y, 1e-9)
}

func TestCourse(t *testing.T) {
	c, err := ParseCourse([]byte(`
name: corner
line_width: 10
points:
  - {x: 0, y: 0}
  - {x: 100, y: 0}
  - {x: 100, y: 100}
end_pad: {x: 80, y: 100, cx: 40, cy: 30}
start: {x: -20, y: 0, heading: 0}
`))
	require.NoError(t, err)
	assert.Equal(t, DefaultDark, c.Dark)
	assert.Equal(t, DefaultBright, c.Bright)
	assert.True(t, c.OnLine(Pos2D{X: 50, Y: 4}))
	assert.False(t, c.OnLine(Pos2D{X: 50, Y: 6}))
	assert.True(t, c.OnLine(Pos2D{X: 104, Y: 50}))
	assert.True(t, c.OnEndPad(Pos2D{X: 85, Y: 125}))
	assert.Equal(t, c.Dark, c.Reflectance(Pos2D{X: 115, Y: 129}))
	assert.Equal(t, c.Bright, c.Reflectance(Pos2D{X: 50, Y: 50}))
	assert.Equal(t, Pose2D{Pos2D: Pos2D{X: -20}}, c.Start.Pose())

	_, err = ParseCourse([]byte(`points: [{x: 1, y: 1}]`))
	require.Error(t, err)
	_, err = LoadCourse("/nonexistent/course.yaml")
	require.Error(t, err)
}

func TestBotKinematics(t *testing.T) {
	conf := DefaultConfig()
	conf.Accel = 0
	bot := NewBot(conf, StraightCourse(1000))
	ctx := context.Background()

	a := drive.NewActuator(bot, bot)
	require.NoError(t, a.Execute(drive.Command{Direction: drive.Forward, LeftDuty: 255, RightDuty: 255}))
	require.NoError(t, bot.Delay(ctx, time.Second))
	pose := bot.Pose()
	assert.InDelta(t, 240, pose.X, 1e-6)
	assert.InDelta(t, 0, pose.Y, 1e-6)
	assert.InDelta(t, 300, bot.Odometer(), 1e-6)
	assert.Equal(t, time.Unix(1, 0), bot.Now())

	// spin in place: half a turn takes Pi*WheelBase/2 at each wheel
	require.NoError(t, a.Apply(drive.Left))
	secs := math.Pi * conf.WheelBase / 2 / conf.MaxSpeed
	require.NoError(t, bot.Delay(ctx, time.Duration(secs*float64(time.Second))))
	pose = bot.Pose()
	assert.InDelta(t, 180, math.Abs(pose.Orientation.Degrees()), 0.5)
	assert.InDelta(t, 240, pose.X, 0.5)

	l, r := bot.Speed()
	assert.Equal(t, -conf.MaxSpeed, l)
	assert.Equal(t, conf.MaxSpeed, r)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	require.Equal(t, context.Canceled, bot.Delay(cctx, time.Second))
}

func TestBotSensors(t *testing.T) {
	bot := NewBot(DefaultConfig(), StraightCourse(1000))
	sampler := sensor.NewSampler(bot)

	r, err := sampler.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sensor.Reading{Left: DefaultBright, Center: DefaultDark, Right: DefaultBright}, r)
	assert.Equal(t, time.Unix(0, 0).Add(3*time.Millisecond), bot.Now())

	_, ok := bot.SensorPos(0)
	assert.False(t, ok)
	v, err := sampler.Read(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), v)

	bot.SetPose(Pose2D{Pos2D: Pos2D{X: 1000}})
	r, err = sampler.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sensor.Reading{Left: DefaultDark, Center: DefaultDark, Right: DefaultDark}, r)
	assert.True(t, bot.OnEndPad())
}

func followLine(t *testing.T, course *Course, maxIterations int) (*Bot, *decision.Engine) {
	bot := NewBot(DefaultConfig(), course)
	sampler := sensor.NewSampler(bot)
	classifier := sensor.NewClassifier()
	engine := decision.NewEngine(drive.NewActuator(bot, bot), sampler, classifier, bot)
	ctx := context.Background()
	for n := 0; n < maxIterations; n++ {
		r, err := sampler.Sample(ctx)
		require.NoError(t, err)
		out, err := engine.Decide(ctx, classifier.Classify(r))
		if err != nil {
			require.True(t, decision.IsUnhandled(err), "unexpected error %v", err)
		}
		if pos, _ := bot.SensorPos(sensor.ChannelCenter); pos.X < course.Points[1].X {
			require.Less(t, math.Abs(pos.Y), course.LineWidth, "lost the line at %v", pos)
		}
		if out.Rule == decision.RuleEndOfCourse {
			return bot, engine
		}
	}
	t.Fatalf("end of course not reached after %d iterations", maxIterations)
	return nil, nil
}

func TestFollowStraightLine(t *testing.T) {
	testCases := []struct {
		name    string
		offset  float64
		heading float64
	}{
		{"centered", 0, 0},
		{"offset left", 3, 2},
		{"offset right", -4, -3},
		{"heading off", 6, 5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			course := StraightCourse(600)
			course.Start.Y, course.Start.Heading = tc.offset, tc.heading
			bot, engine := followLine(t, course, 5000)

			assert.True(t, bot.OnEndPad())
			port, err := bot.ReadPort()
			require.NoError(t, err)
			assert.Equal(t, drive.Stop, drive.Direction(port&drive.DirectionMask))
			stats := engine.Stats()
			assert.Equal(t, uint64(1), stats.Fired[decision.RuleEndOfCourse])
			assert.NotZero(t, stats.Fired[decision.RuleStraight])
			assert.Zero(t, stats.Unhandled)
		})
	}
}

func TestLostAtStartStaysPut(t *testing.T) {
	course := StraightCourse(600)
	course.Start.Y = 50
	bot := NewBot(DefaultConfig(), course)
	sampler := sensor.NewSampler(bot)
	classifier := sensor.NewClassifier()
	engine := decision.NewEngine(drive.NewActuator(bot, bot), sampler, classifier, bot)

	for n := 0; n < 3; n++ {
		r, err := sampler.Sample(context.Background())
		require.NoError(t, err)
		out, err := engine.Decide(context.Background(), classifier.Classify(r))
		require.NoError(t, err)
		require.Equal(t, decision.RuleReacquire, out.Rule)
	}
	// duty was never set, so forward doesn't move
	assert.Equal(t, course.Start.Pose(), bot.Pose())
	assert.Zero(t, bot.Odometer())
}

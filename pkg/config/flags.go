package config

import (
	"flag"
	"os"
	"strconv"
)

var (
	defaultConfig = *Default()
	configFile    string
)

func init() {
	if val := os.Getenv("LINEBOT_CONFIG"); val != "" {
		configFile = val
	}
	if val := os.Getenv("LINEBOT_BACKEND"); val != "" {
		defaultConfig.Backend = val
	}
	if val := os.Getenv("LINEBOT_SERIAL_PORT"); val != "" {
		defaultConfig.Serial.Port = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "Configuration file (YAML), flags override its values")
	bindFlags(flag.CommandLine, &defaultConfig)
}

func bindFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.Backend, "backend", c.Backend, "Board backend: serial or sim")
	fs.StringVar(&c.Serial.Port, "serial-port", c.Serial.Port, "Serial port of the board")
	fs.IntVar(&c.Serial.BaudRate, "serial-baud", c.Serial.BaudRate, "Serial baud rate")
	fs.DurationVar(&c.Serial.Timeout, "serial-timeout", c.Serial.Timeout, "Timeout of a board request")
	fs.Var((*uint8Value)(&c.Sensor.Threshold), "threshold", "Reading at or below which a sensor is on the line")
	fs.DurationVar(&c.Sensor.Timeout, "sensor-timeout", c.Sensor.Timeout, "Timeout of a conversion, 0 waits forever")
	fs.DurationVar(&c.Sensor.PollInterval, "sensor-poll", c.Sensor.PollInterval, "Interval between conversion polls")
	fs.StringVar(&c.Control.Mode, "mode", c.Control.Mode, "Control mode: blocking or timed")
	fs.DurationVar(&c.Control.Interval, "interval", c.Control.Interval, "Interval between iterations, 0 runs back-to-back")
	fs.StringVar(&c.Sim.Course, "sim-course", c.Sim.Course, "Course file of the simulator")
	fs.BoolVar(&c.Sim.Bot.RealTime, "sim-realtime", c.Sim.Bot.RealTime, "Pace the simulator with wall clock")
	fs.BoolVar(&c.Display.Enabled, "display", c.Display.Enabled, "Log the debug display")
}

// CommandLine gets the config bound to command line flags.
func CommandLine() *Config {
	return &defaultConfig
}

// NewConfig creates the configuration: defaults, then the config file
// if specified, then the flags set on command line.
func NewConfig() (*Config, error) {
	return newConfig(flag.CommandLine, configFile)
}

func newConfig(fs *flag.FlagSet, filename string) (*Config, error) {
	if filename == "" {
		conf := defaultConfig
		return &conf, nil
	}
	conf, err := Load(filename)
	if err != nil {
		return nil, err
	}
	overlay := flag.NewFlagSet("overlay", flag.ContinueOnError)
	bindFlags(overlay, conf)
	var setErr error
	fs.Visit(func(f *flag.Flag) {
		if overlay.Lookup(f.Name) != nil && setErr == nil {
			setErr = overlay.Set(f.Name, f.Value.String())
		}
	})
	if setErr != nil {
		return nil, setErr
	}
	return conf, nil
}

type uint8Value uint8

func (v *uint8Value) String() string {
	if v == nil {
		return "0"
	}
	return strconv.Itoa(int(*v))
}

func (v *uint8Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return err
	}
	*v = uint8Value(n)
	return nil
}

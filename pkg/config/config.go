// Package config holds the configuration of the line follower.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/linebot/pkg/link"
	"github.com/robotalks/linebot/pkg/sensor"
	"github.com/robotalks/linebot/pkg/sim"
)

// Backends.
const (
	BackendSerial = "serial"
	BackendSim    = "sim"
)

// Control modes.
const (
	ModeBlocking = "blocking"
	ModeTimed    = "timed"
)

// Config represents the application configuration.
type Config struct {
	// Backend selects the board: serial or sim.
	Backend string        `yaml:"backend"`
	Serial  SerialConfig  `yaml:"serial"`
	Sensor  SensorConfig  `yaml:"sensor"`
	Control ControlConfig `yaml:"control"`
	Sim     SimConfig     `yaml:"sim"`
	Display DisplayConfig `yaml:"display"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string        `yaml:"port"`
	BaudRate int           `yaml:"baud_rate"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SensorConfig contains sensor sampling parameters.
type SensorConfig struct {
	Threshold uint8 `yaml:"threshold"`
	// Timeout of one conversion, 0 waits forever.
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// ControlConfig contains control loop parameters.
type ControlConfig struct {
	// Mode is blocking (delays block the loop) or timed.
	Mode string `yaml:"mode"`
	// Interval between iterations, 0 runs back-to-back.
	Interval time.Duration `yaml:"interval"`
}

// SimConfig contains simulator parameters.
type SimConfig struct {
	// Course is a course file, a straight course is used if empty.
	Course string `yaml:"course"`
	// Length of the straight course in mm.
	Length float64    `yaml:"length"`
	Bot    sim.Config `yaml:"bot"`
}

// DisplayConfig contains debug display options.
type DisplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Banner  string `yaml:"banner"`
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendSerial,
		Serial: SerialConfig{
			Port:     "/dev/ttyUSB0",
			BaudRate: link.DefaultBaudRate,
			Timeout:  link.DefaultTimeout,
		},
		Sensor: SensorConfig{
			Threshold: sensor.DefaultThreshold,
		},
		Control: ControlConfig{
			Mode: ModeBlocking,
		},
		Sim: SimConfig{
			Length: 1000,
			Bot:    sim.DefaultConfig(),
		},
		Display: DisplayConfig{
			Banner: "LINE FOLLOWER",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, default values are used.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.ensureDefaults()
	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func (c *Config) ensureDefaults() {
	def := Default()

	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.Timeout == 0 {
		c.Serial.Timeout = def.Serial.Timeout
	}
	if c.Control.Mode == "" {
		c.Control.Mode = def.Control.Mode
	}
	if c.Sim.Length == 0 {
		c.Sim.Length = def.Sim.Length
	}
	if c.Sim.Bot.MaxSpeed == 0 {
		c.Sim.Bot.MaxSpeed = def.Sim.Bot.MaxSpeed
	}
	if c.Sim.Bot.WheelBase == 0 {
		c.Sim.Bot.WheelBase = def.Sim.Bot.WheelBase
	}
	if c.Sim.Bot.SensorSpacing == 0 {
		c.Sim.Bot.SensorSpacing = def.Sim.Bot.SensorSpacing
	}
	if c.Sim.Bot.Step == 0 {
		c.Sim.Bot.Step = def.Sim.Bot.Step
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSerial:
		if c.Serial.Port == "" {
			return fmt.Errorf("serial port is required")
		}
	case BackendSim:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	switch c.Control.Mode {
	case ModeBlocking, ModeTimed:
	default:
		return fmt.Errorf("unknown control mode %q", c.Control.Mode)
	}
	if c.Control.Interval < 0 || c.Sensor.Timeout < 0 || c.Sensor.PollInterval < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// Classifier creates the sensor classifier.
func (c *Config) Classifier() sensor.Classifier {
	return sensor.Classifier{Threshold: c.Sensor.Threshold}
}

// Course loads the simulated course.
func (c *Config) Course() (*sim.Course, error) {
	if c.Sim.Course == "" {
		return sim.StraightCourse(c.Sim.Length), nil
	}
	return sim.LoadCourse(c.Sim.Course)
}

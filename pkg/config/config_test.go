package config

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/linebot/pkg/control"
	"github.com/robotalks/linebot/pkg/display"
	"github.com/robotalks/linebot/pkg/sensor"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendSerial, cfg.Backend)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, sensor.DefaultThreshold, cfg.Sensor.Threshold)
	assert.Zero(t, cfg.Sensor.Timeout)
	assert.Equal(t, ModeBlocking, cfg.Control.Mode)
	assert.Equal(t, uint8(16), cfg.Classifier().Threshold)

	course, err := cfg.Course()
	require.NoError(t, err)
	assert.Equal(t, "straight", course.Name)
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	filename := filepath.Join(dir, "linebot.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(`
backend: sim
sensor:
  threshold: 40
  timeout: 5ms
control:
  mode: timed
sim:
  bot:
    max_speed: 500
`), 0644))
	cfg, err = Load(filename)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendSim, cfg.Backend)
	assert.Equal(t, uint8(40), cfg.Sensor.Threshold)
	assert.Equal(t, 5*time.Millisecond, cfg.Sensor.Timeout)
	assert.Equal(t, ModeTimed, cfg.Control.Mode)
	assert.Equal(t, 500.0, cfg.Sim.Bot.MaxSpeed)
	assert.Equal(t, Default().Sim.Bot.WheelBase, cfg.Sim.Bot.WheelBase)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)

	saved := filepath.Join(dir, "saved.yaml")
	require.NoError(t, cfg.Save(saved))
	reloaded, err := Load(saved)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)

	require.NoError(t, os.WriteFile(filename, []byte("backend: ["), 0644))
	_, err = Load(filename)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "usb" }},
		{"no serial port", func(c *Config) { c.Serial.Port = "" }},
		{"unknown mode", func(c *Config) { c.Control.Mode = "fast" }},
		{"negative interval", func(c *Config) { c.Control.Interval = -time.Second }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "linebot.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("backend: sim\nsensor: {threshold: 40}\n"), 0644))

	base := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	bindFlags(fs, base)
	require.NoError(t, fs.Parse([]string{"-threshold", "0x20", "-mode", "timed"}))
	assert.Equal(t, uint8(32), base.Sensor.Threshold)

	cfg, err := newConfig(fs, filename)
	require.NoError(t, err)
	assert.Equal(t, BackendSim, cfg.Backend)
	assert.Equal(t, uint8(32), cfg.Sensor.Threshold)
	assert.Equal(t, ModeTimed, cfg.Control.Mode)

	require.Error(t, fs.Parse([]string{"-threshold", "300"}))
}

func TestSimBackend(t *testing.T) {
	cfg := Default()
	cfg.Backend = BackendSim
	cfg.Control.Mode = ModeTimed
	cfg.Sensor.Timeout = 3 * time.Millisecond
	cfg.Display.Enabled = true

	ctx, cancel := context.WithCancel(context.Background())
	backend, err := cfg.OpenBackend(ctx)
	require.NoError(t, err)
	require.NotNil(t, backend.Bot)
	assert.Nil(t, backend.Link)

	ctl, err := cfg.NewController(backend.Board)
	require.NoError(t, err)
	assert.Equal(t, control.Timed, ctl.Mode())
	assert.Equal(t, 3*time.Millisecond, ctl.Sampler.Timeout)
	assert.IsType(t, &display.LCD{}, ctl.Display)
	assert.Equal(t, "LINE FOLLOWER", ctl.Banner)

	cancel()
	assert.Equal(t, context.Canceled, backend.Run(ctx))
	assert.NoError(t, backend.Close())

	cfg.Backend = "usb"
	_, err = cfg.OpenBackend(context.Background())
	assert.Error(t, err)
}

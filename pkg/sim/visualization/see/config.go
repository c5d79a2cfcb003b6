package see

import (
	"flag"
	"os"

	"github.com/robotalks/linebot/pkg/sim"
)

// Config represents configuration for see.
type Config struct {
	Enabled bool
	// Every reports once per that many loop iterations.
	Every uint64
}

var defaultConfig = Config{
	Every: 20,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&defaultConfig.Enabled, "see", defaultConfig.Enabled, "Print simulation state for visualization")
	flag.Uint64Var(&defaultConfig.Every, "see-every", defaultConfig.Every, "Loop iterations between visualization reports")
}

// NewConfig creates a default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewAdapter creates adapter from config, writing to stdout.
func (c *Config) NewAdapter(bot *sim.Bot) *Adapter {
	return NewAdapter(c, bot, os.Stdout)
}


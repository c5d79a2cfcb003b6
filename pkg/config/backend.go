package config

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/control"
	"github.com/robotalks/linebot/pkg/display"
	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/link"
	"github.com/robotalks/linebot/pkg/sim"
)

// Backend is an opened board.
type Backend struct {
	Board hal.Board
	// Link is set for the serial backend, it must be running for the
	// board to respond.
	Link *link.Client
	// Bot is set for the sim backend.
	Bot *sim.Bot
}

// OpenBackend opens the configured board. Board requests are abandoned
// once ctx is done.
func (c *Config) OpenBackend(ctx context.Context) (*Backend, error) {
	switch c.Backend {
	case BackendSerial:
		client, err := link.DialSerial(c.Serial.Port, c.Serial.BaudRate)
		if err != nil {
			return nil, err
		}
		client.Timeout = c.Serial.Timeout
		glog.Infof("board on %s at %d baud", c.Serial.Port, c.Serial.BaudRate)
		return &Backend{Board: link.NewBoard(ctx, client), Link: client}, nil
	case BackendSim:
		course, err := c.Course()
		if err != nil {
			return nil, err
		}
		glog.Infof("simulated board on course %q", course.Name)
		bot := sim.NewBot(c.Sim.Bot, course)
		return &Backend{Board: bot, Bot: bot}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", c.Backend)
}

// Run implements Runnable, serving the link until ctx is done.
func (b *Backend) Run(ctx context.Context) error {
	if b.Link != nil {
		return b.Link.Run(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

// Close releases the board.
func (b *Backend) Close() error {
	if b.Link != nil {
		return b.Link.Close()
	}
	return nil
}

// NewController creates the control loop controller for board.
func (c *Config) NewController(board hal.Board) (*control.Controller, error) {
	mode, err := control.ParseMode(c.Control.Mode)
	if err != nil {
		return nil, err
	}
	ctl := control.New(board, c.Classifier(), mode)
	ctl.Sampler.Timeout = c.Sensor.Timeout
	ctl.Sampler.PollInterval = c.Sensor.PollInterval
	if c.Display.Enabled {
		ctl.Display = display.NewLCD(display.LogWriter{Level: 0})
		ctl.Banner = c.Display.Banner
	}
	return ctl, nil
}

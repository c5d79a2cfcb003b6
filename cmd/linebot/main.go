package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/config"
	"github.com/robotalks/linebot/pkg/control"
	"github.com/robotalks/linebot/pkg/decision"
	fx "github.com/robotalks/linebot/pkg/framework"
	"github.com/robotalks/linebot/pkg/sim/visualization/see"
)

func init() {
	config.SetupFlags()
	see.SetupFlags()
}

func finished(ctl *control.Controller) bool {
	last := ctl.Stats().Last
	return last.Rule == decision.RuleEndOfCourse && last.Rechecked
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := config.NewConfig()
	if err != nil {
		glog.Exitf("config: %v", err)
	}
	if err := conf.Validate(); err != nil {
		glog.Exitf("config: %v", err)
	}

	// board requests outlive the loop so the motors can be stopped.
	ioCtx, ioCancel := context.WithCancel(context.Background())
	defer ioCancel()
	backend, err := conf.OpenBackend(ioCtx)
	if err != nil {
		glog.Exitf("open %s backend: %v", conf.Backend, err)
	}
	backendDone := make(chan error, 1)
	go func() {
		backendDone <- backend.Run(ioCtx)
	}()

	ctl, err := conf.NewController(backend.Board)
	if err != nil {
		glog.Exitf("controller: %v", err)
	}
	loop := fx.NewLoop().Add(ctl)
	loop.Interval = conf.Control.Interval
	if backend.Bot != nil {
		loop.Clock = backend.Bot
		if vis := see.NewConfig(); vis.Enabled {
			loop.Add(vis.NewAdapter(backend.Bot))
		}
	}

	glog.Infof("following line, %s mode, threshold %d", ctl.Mode(), conf.Sensor.Threshold)
	err = fx.NewRunner().HandleSignals().Go(
		fx.NamedRun("loop", fx.RunFunc(func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			if backend.Bot != nil {
				loop.AddController(fx.PrLvPostProc, fx.ControlFunc(func(fx.ControlContext) error {
					if finished(ctl) {
						glog.Info("end of course reached")
						cancel()
					}
					return nil
				}))
			}
			return loop.Run(ctx)
		})),
		fx.NamedRun("backend", fx.RunFunc(func(ctx context.Context) error {
			select {
			case err := <-backendDone:
				return fmt.Errorf("backend stopped: %w", err)
			case <-ctx.Done():
				return ctx.Err()
			}
		})),
	).Wait()

	if serr := ctl.Stop(); serr != nil {
		glog.Warningf("stop motors: %v", serr)
	}
	ioCancel()
	backend.Close()

	stats := ctl.Stats()
	glog.Infof("%d iterations, %d timeouts, %d faults, %d unhandled, last %s %s",
		stats.Iterations, stats.Timeouts, stats.Faults, stats.Decisions.Unhandled,
		stats.Last.Rule, stats.Last.Command)
	if backend.Bot != nil {
		pose := backend.Bot.Pose()
		glog.Infof("bot at (%.1f, %.1f), odometer %.1fmm", pose.X, pose.Y, backend.Bot.Odometer())
	}
	if err != nil {
		glog.Exitf("%v", err)
	}
}

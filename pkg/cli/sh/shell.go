package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/bench"
	"github.com/robotalks/linebot/pkg/config"
)

// Shell provides ishell backed interactive bench.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Config  *config.Config
	Backend *config.Backend
	Bench   *bench.Bench

	ctx    context.Context
	cancel func()
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool

	commands []*ishell.Cmd
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *config.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", conf.Backend))
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Context returns the context board requests run in.
func (s *Shell) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// MustBeOpen wraps command func requires an opened board.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Bench == nil {
			c.Err(fmt.Errorf("board not open"))
			return
		}
		fn(c)
	}
}

// Print prints v as JSON when requested, otherwise text.
func Print(c *ishell.Context, v interface{}, text string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// Open opens the configured backend and serves it in background.
func (s *Shell) Open() error {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	backend, err := s.Config.OpenBackend(s.ctx)
	if err != nil {
		s.cancel()
		return err
	}
	go func() {
		if err := backend.Run(s.ctx); err != nil && s.ctx.Err() == nil {
			glog.Errorf("backend stopped: %v", err)
		}
	}()
	s.Backend = backend
	s.Bench = bench.New(backend.Board, s.Config.Classifier())
	s.Bench.Sampler.Timeout = s.Config.Sensor.Timeout
	s.Bench.Sampler.PollInterval = s.Config.Sensor.PollInterval
	return nil
}

// Close stops the motors and closes the backend.
func (s *Shell) Close() {
	if s.Bench != nil {
		if err := s.Bench.Stop(); err != nil {
			glog.Warningf("stop motors: %v", err)
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.Backend != nil {
		s.Backend.Close()
	}
	s.Bench, s.Backend = nil, nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if err := s.Open(); err != nil {
		log.Fatalf("open %s backend failed: %v", s.Config.Backend, err)
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := config.NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	if err := conf.Validate(); err != nil {
		log.Fatalln(err)
	}
	New(conf).Run(flag.Args()...)
}

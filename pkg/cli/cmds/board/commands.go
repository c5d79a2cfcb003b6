package board

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/linebot/pkg/cli/sh"
	"github.com/robotalks/linebot/pkg/drive"
	"github.com/robotalks/linebot/pkg/link"
)

type sampleResult struct {
	Left, Center, Right uint8
	OnLine              [3]bool
}

type statusResult struct {
	Direction string
	LeftDuty  uint8
	RightDuty uint8
	Port      byte
}

func parseUint8(s, what string) (uint8, error) {
	val, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("Invalid %s: %v", what, err)
	}
	return uint8(val), nil
}

var (
	// SampleCmd samples the three sensors.
	SampleCmd = ishell.Cmd{
		Name:    "sample",
		Aliases: []string{"s"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			r, state, err := s.Bench.Sample(s.Context())
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, sampleResult{
				Left: r.Left, Center: r.Center, Right: r.Right,
				OnLine: [3]bool{state.Left, state.Center, state.Right},
			}, fmt.Sprintf("%s %s", r, state))
		}),
	}

	// ReadCmd converts a single ADC channel.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "CHANNEL",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("CHANNEL required"))
				return
			}
			ch, err := parseUint8(c.Args[0], "CHANNEL")
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			v, err := s.Bench.Read(s.Context(), ch)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, v, strconv.Itoa(int(v)))
		}),
	}

	// DriveCmd applies a direction.
	DriveCmd = ishell.Cmd{
		Name:    "drive",
		Aliases: []string{"d"},
		Help:    "DIRECTION (stop, forward, left, right, soft_left, soft_right, back)",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("DIRECTION required"))
				return
			}
			if err := sh.ShellFrom(c).Bench.Drive(c.Args[0]); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, "OK", "OK")
		}),
	}

	// DutyCmd sets the motor duties.
	DutyCmd = ishell.Cmd{
		Name:    "duty",
		Aliases: []string{"pwm"},
		Help:    "LEFT RIGHT",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("LEFT and RIGHT required"))
				return
			}
			left, err := parseUint8(c.Args[0], "LEFT")
			if err != nil {
				c.Err(err)
				return
			}
			right, err := parseUint8(c.Args[1], "RIGHT")
			if err != nil {
				c.Err(err)
				return
			}
			if err := sh.ShellFrom(c).Bench.Actuator.SetDuty(left, right); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, "OK", "OK")
		}),
	}

	// StopCmd stops both motors.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"x"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if err := sh.ShellFrom(c).Bench.Stop(); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, "OK", "OK")
		}),
	}

	// StatusCmd shows the motion output.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			cmd, port, err := sh.ShellFrom(c).Bench.Status()
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, statusResult{
				Direction: drive.Direction(port & drive.DirectionMask).String(),
				LeftDuty:  cmd.LeftDuty,
				RightDuty: cmd.RightDuty,
				Port:      port,
			}, fmt.Sprintf("%s port=0x%02x", cmd, port))
		}),
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"p"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := link.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ports == nil {
				ports = []string{}
			}
			if sh.ShellFrom(c).OutputJSON {
				sh.Print(c, ports, "")
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, p := range ports {
				c.Println(p)
			}
		},
	}
)

func init() {
	sh.AddCmds(
		&SampleCmd,
		&ReadCmd,
		&DriveCmd,
		&DutyCmd,
		&StopCmd,
		&StatusCmd,
		&PortsCmd,
	)
}

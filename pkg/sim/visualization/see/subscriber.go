// Package see is the adapter to visualize a simulated course in
// github.com/robotalks/see.
package see

import (
	"encoding/json"
	"fmt"
	"io"

	fx "github.com/robotalks/linebot/pkg/framework"
	"github.com/robotalks/linebot/pkg/sensor"
	"github.com/robotalks/linebot/pkg/sim"
)

// Object IDs.
const (
	IDLine   = "line"
	IDEndPad = "end-pad"
	IDBot    = "bot"
)

var sensorIDs = map[uint8]string{
	sensor.ChannelLeft:   "sensor-left",
	sensor.ChannelCenter: "sensor-center",
	sensor.ChannelRight:  "sensor-right",
}

// Adapter is the visualization adapter to visualize using
// github.com/robotalks/see.
type Adapter struct {
	Config *Config
	Bot    *sim.Bot
	Writer io.Writer

	initial bool
}

// NewAdapter creates the adapter.
func NewAdapter(config *Config, bot *sim.Bot, w io.Writer) *Adapter {
	return &Adapter{
		Config:  config,
		Bot:     bot,
		Writer:  w,
		initial: true,
	}
}

// AddToLoop implements LoopAdder.
func (a *Adapter) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(a.ReportChanges))
}

// ReportChanges is a controller to report changes.
func (a *Adapter) ReportChanges(cc fx.ControlContext) error {
	var msgs []Message
	if a.initial {
		msgs = a.courseMessages()
		a.initial = false
	} else if every := a.Config.Every; every > 1 && cc.Iteration()%every != 0 {
		return nil
	}
	msgs = append(msgs, a.botMessages()...)
	encoded, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.Writer, string(encoded))
	return err
}

func (a *Adapter) courseMessages() []Message {
	course := a.Bot.Course
	line := &Object{ID: IDLine, Type: "line", Width: course.LineWidth}
	for _, p := range course.Points {
		line.Points = append(line.Points, Pos{X: p.X, Y: p.Y})
	}
	msgs := []Message{{Action: ActionReset}, objectMessage(line)}
	if pad := course.EndPad; !pad.Empty() {
		msgs = append(msgs, objectMessage(&Object{
			ID:   IDEndPad,
			Type: "pad",
			Rect: &Rect{X: pad.X, Y: pad.Y, W: pad.CX, H: pad.CY},
		}))
	}
	return msgs
}

func (a *Adapter) botMessages() []Message {
	pose := a.Bot.Pose()
	msgs := []Message{objectMessage(&Object{
		ID:     IDBot,
		Type:   "bot",
		Origin: &Pos{X: pose.X, Y: pose.Y},
		Radius: a.Bot.Config.WheelBase / 2,
		Rotate: pose.Orientation.Degrees(),
	})}
	for _, ch := range []uint8{sensor.ChannelLeft, sensor.ChannelCenter, sensor.ChannelRight} {
		pos, _ := a.Bot.SensorPos(ch)
		style := "off"
		if a.Bot.Course.OnLine(pos) {
			style = "on"
		}
		msgs = append(msgs, objectMessage(&Object{
			ID:     sensorIDs[ch],
			Type:   "sensor",
			Origin: &Pos{X: pos.X, Y: pos.Y},
			Radius: 2,
			Style:  style,
		}))
	}
	return msgs
}

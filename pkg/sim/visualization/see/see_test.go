package see

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/linebot/pkg/framework"
	"github.com/robotalks/linebot/pkg/sim"
)

type testControlContext struct {
	seq uint64
}

func (c *testControlContext) Context() context.Context { return context.Background() }
func (c *testControlContext) Time() time.Time          { return time.Time{} }
func (c *testControlContext) Iteration() uint64        { return c.seq }
func (c *testControlContext) PriorityLevel() int       { return fx.PrLvPostProc }
func (c *testControlContext) TriggerNext()             {}

type decodedMessage struct {
	Action string                 `json:"action"`
	Object map[string]interface{} `json:"object"`
}

func decodeLines(t *testing.T, out string) [][]decodedMessage {
	var res [][]decodedMessage
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var msgs []decodedMessage
		require.NoError(t, json.Unmarshal([]byte(line), &msgs))
		res = append(res, msgs)
	}
	return res
}

func TestReportChanges(t *testing.T) {
	bot := sim.NewBot(sim.DefaultConfig(), sim.StraightCourse(600))
	var buf bytes.Buffer
	a := NewAdapter(&Config{Enabled: true, Every: 10}, bot, &buf)
	cc := &testControlContext{seq: 1}

	require.NoError(t, a.ReportChanges(cc))
	for cc.seq = 2; cc.seq < 10; cc.seq++ {
		require.NoError(t, a.ReportChanges(cc))
	}
	require.NoError(t, a.ReportChanges(cc))

	reports := decodeLines(t, buf.String())
	require.Len(t, reports, 2)

	first := reports[0]
	require.Len(t, first, 7)
	assert.Equal(t, ActionReset, first[0].Action)
	assert.Equal(t, IDLine, first[1].Object["id"])
	assert.Equal(t, 20.0, first[1].Object["width"])
	assert.Equal(t, IDEndPad, first[2].Object["id"])
	assert.Equal(t, map[string]interface{}{"x": 600.0, "y": -100.0, "w": 150.0, "h": 200.0}, first[2].Object["rect"])
	assert.Equal(t, IDBot, first[3].Object["id"])
	assert.Equal(t, map[string]interface{}{"x": -60.0, "y": 0.0}, first[3].Object["origin"])
	assert.Equal(t, "off", first[4].Object["style"])
	assert.Equal(t, "on", first[5].Object["style"])
	assert.Equal(t, "off", first[6].Object["style"])

	second := reports[1]
	require.Len(t, second, 4)
	assert.Equal(t, IDBot, second[0].Object["id"])
}

func TestAddToLoop(t *testing.T) {
	bot := sim.NewBot(sim.DefaultConfig(), sim.StraightCourse(600))
	var buf bytes.Buffer
	loop := fx.NewLoop()
	loop.Clock = bot
	loop.Add(NewAdapter(&Config{Every: 1}, bot, &buf))
	ctx, cancel := context.WithCancel(context.Background())
	loop.AddController(fx.PrLvSense, fx.ControlFunc(func(cc fx.ControlContext) error {
		if cc.Iteration() > 3 {
			cancel()
		}
		return nil
	}))
	require.Equal(t, context.Canceled, loop.Run(ctx))
	assert.GreaterOrEqual(t, len(decodeLines(t, buf.String())), 3)
}

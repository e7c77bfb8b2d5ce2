package controller

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"wheelly/protocol"
	"wheelly/radar"
)

// fakeSource is a Source test double that records every Send and lets the
// test script exactly what messages Tick returns, to exercise
// Controller's refresh cadence and contact-halt logic independent of the
// physics simulator.
type fakeSource struct {
	sent     []string
	messages [][]protocol.Message
	tickN    int
	closed   bool
}

func (f *fakeSource) Send(line string) error {
	f.sent = append(f.sent, line)
	return nil
}

func (f *fakeSource) Tick(nowMs int64) ([]protocol.Message, []error) {
	var out []protocol.Message
	if f.tickN < len(f.messages) {
		out = f.messages[f.tickN]
	}
	f.tickN++
	return out, nil
}

func (f *fakeSource) Close() error { f.closed = true; return nil }

func contactsMsg(front, rear bool, simTime int64) protocol.Message {
	return protocol.Message{Contacts: &protocol.ContactsMessage{FrontClear: front, RearClear: rear, SimulationTime: simTime}}
}

func TestControllerHaltsImmediatelyOnContactBlocked(t *testing.T) {
	Convey("Given a controller with a pending move command", t, func() {
		src := &fakeSource{}
		c := New(Spec{IntervalMs: 10, CommandIntervalMs: 600}, src, nil)
		c.SetCommand(Command{Kind: CommandMove, DeadlineMs: 5000, DirCode: protocol.DirForward})
		c.Tick()
		So(src.sent, ShouldContain, protocol.EncodeMove(5000, protocol.DirForward))

		Convey("a front-contact message forces an immediate halt send", func() {
			src.messages = [][]protocol.Message{nil, {contactsMsg(false, true, 10)}}
			c.Tick()
			c.Tick()

			status := c.Status()
			So(status.FrontClear, ShouldBeFalse)
			So(src.sent[len(src.sent)-1], ShouldEqual, protocol.EncodeHalt())
		})
	})
}

func TestControllerRefreshesCommandEveryCommandInterval(t *testing.T) {
	Convey("Given a controller ticking at 10ms with a 30ms command interval", t, func() {
		src := &fakeSource{}
		c := New(Spec{IntervalMs: 10, CommandIntervalMs: 30}, src, nil)
		c.SetCommand(Command{Kind: CommandHalt})

		for i := 0; i < 5; i++ {
			c.Tick()
		}

		Convey("halt is resent at least twice across 50ms of ticks", func() {
			count := 0
			for _, s := range src.sent {
				if s == protocol.EncodeHalt() {
					count++
				}
			}
			So(count, ShouldBeGreaterThanOrEqualTo, 2)
		})
	})
}

func TestControllerProjectsFreshEchoIntoRadar(t *testing.T) {
	Convey("Given a controller with a radar map and a motion message bearing a fresh echo", t, func() {
		src := &fakeSource{}
		radarMap := radar.NewRadarMap(4.5, 4.5, 0.5, 0.1, 5000)
		c := New(Spec{IntervalMs: 10}, src, radarMap)

		src.messages = [][]protocol.Message{{
			{Motion: &protocol.MotionMessage{
				X: 0, Y: 0, Heading: 0, SensorDir: 0, EchoDistance: 1.0, SimulationTime: 10,
			}},
		}}
		c.Tick()

		Convey("a sector ahead of the robot becomes filled", func() {
			w, h := radarMap.Dims()
			filledSomewhere := false
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					sec, _ := radarMap.At(x, y)
					if sec.Filled {
						filledSomewhere = true
					}
				}
			}
			So(filledSomewhere, ShouldBeTrue)
		})
	})
}

package controller

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"wheelly/protocol"
	"wheelly/simulator"
	"wheelly/transport"
)

// Source is whatever the controller ticks against: the real robot over a
// socket, or the in-process simulator. Both are driven by the same encoded
// command lines and produce the same decoded Messages, per spec §4.1's
// "poll the robot (real or simulated)".
type Source interface {
	// Send transmits one already-encoded command line (see protocol's
	// Encode* functions).
	Send(line string) error
	// Tick advances the source by one controller interval and returns any
	// messages produced since the previous call, plus any ProtocolFormat
	// errors encountered decoding dropped lines (per spec §7, these are
	// never fatal).
	Tick(nowMs int64) ([]protocol.Message, []error)
	Close() error
}

// desiredHeadingFromDir translates a relative direction code into an
// absolute world heading, given the robot's current heading. DirBack and
// its diagonals point the simulator at the corresponding absolute bearing;
// the physics model (simulator.World.Step) only ever drives forward along
// the resulting heading, so a "back" command turns the robot around rather
// than reversing in place — a simplification over the firmware's true
// reverse-drive behavior, noted in DESIGN.md.
func desiredHeadingFromDir(currentHeadingDeg float64, dir protocol.DirCode) float64 {
	switch dir {
	case protocol.DirForward:
		return currentHeadingDeg
	case protocol.DirForwardRight:
		return currentHeadingDeg - 45
	case protocol.DirRight:
		return currentHeadingDeg - 90
	case protocol.DirBackRight:
		return currentHeadingDeg - 135
	case protocol.DirBack:
		return currentHeadingDeg + 180
	case protocol.DirBackLeft:
		return currentHeadingDeg + 135
	case protocol.DirLeft:
		return currentHeadingDeg + 90
	case protocol.DirForwardLeft:
		return currentHeadingDeg + 45
	default:
		return currentHeadingDeg
	}
}

// SimSource drives a simulator.World in-process, parsing the same command
// lines the real firmware would accept and emitting the same decoded
// Messages at the same telemetry cadence, per spec §4.2's "message cadence".
type SimSource struct {
	world *simulator.World
	clock *simulator.Clock
	dtMs  int64

	remoteTimeMs int64

	moving         bool
	moveDeadlineMs int64
	dir            protocol.DirCode
}


// NewSimSource builds a SimSource over world, ticking in steps of dtMs and
// emitting motion/proxy telemetry at the given intervals (0 = defaults).
func NewSimSource(world *simulator.World, dtMs, motionIntervalMs, proxyIntervalMs int64) *SimSource {
	return &SimSource{
		world: world,
		clock: simulator.NewClock(0, motionIntervalMs, proxyIntervalMs),
		dtMs:  dtMs,
	}
}

// Send parses one encoded command line, mirroring the firmware's own
// command parser.
func (s *SimSource) Send(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("controller: empty command")
	}
	switch fields[0] {
	case "ha":
		s.moving = false
	case "mt":
		if len(fields) != 3 {
			return fmt.Errorf("controller: bad mt command %q", line)
		}
		deadline, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return err
		}
		dirCode, err := strconv.Atoi(fields[2])
		if err != nil {
			return err
		}
		s.moveDeadlineMs = deadline
		s.dir = protocol.DirCode(dirCode)
		s.moving = true
	case "sc":
		if len(fields) != 2 {
			return fmt.Errorf("controller: bad sc command %q", line)
		}
		deg, err := strconv.Atoi(fields[1])
		if err != nil {
			return err
		}
		s.world.SensorDir = float64(deg)
	case "qs", "ck":
		// no-op: the next Tick always reports current telemetry.
	default:
		return fmt.Errorf("controller: unknown command %q", line)
	}
	return nil
}

// Tick advances the simulated world by dtMs and returns any telemetry due
// this tick, per spec §4.1 steps 1-3 and §4.2's message cadence.
func (s *SimSource) Tick(nowMs int64) ([]protocol.Message, []error) {
	dt := float64(s.dtMs) / 1000
	s.remoteTimeMs += s.dtMs

	var contacts simulator.Contacts
	var contactsChanged bool
	if s.moving && s.remoteTimeMs <= s.moveDeadlineMs {
		desired := desiredHeadingFromDir(s.world.Body.HeadingDeg, s.dir)
		contacts, contactsChanged = s.world.Step(dt, desired)
	} else {
		s.moving = false
		s.world.Halt()
		contacts = s.world.Contacts
	}
	if !contacts.FrontClear || !contacts.RearClear {
		s.moving = false
	}

	s.clock.Advance(s.dtMs)

	var msgs []protocol.Message
	if s.clock.MotionDue() {
		m := s.world.MotionMessage(s.remoteTimeMs, nowMs)
		msgs = append(msgs, protocol.Message{Motion: &m})
	}
	if s.clock.ProxyDue() {
		p := s.world.ProxyMessage(s.remoteTimeMs, nowMs)
		msgs = append(msgs, protocol.Message{Proxy: &p})
	}
	if contactsChanged {
		c := s.world.ContactsMessage(s.remoteTimeMs, nowMs)
		msgs = append(msgs, protocol.Message{Contacts: &c})
	}
	return msgs, nil
}

// Close is a no-op for the in-process simulator.
func (s *SimSource) Close() error { return nil }

// SocketSource drives the real robot over a reconnecting transport.Socket,
// decoding each received line and tagging it with the controller's local
// clock, per spec §4.1's "reliable socket".
type SocketSource struct {
	socket *transport.Socket
}

// NewSocketSource wraps an already-dialled transport.Socket.
func NewSocketSource(socket *transport.Socket) *SocketSource {
	return &SocketSource{socket: socket}
}

func (s *SocketSource) Send(line string) error { return s.socket.Send(line) }

// Tick drains every line buffered since the previous call, decoding each
// one; malformed lines are dropped per spec §7's ProtocolFormat policy and
// reported back as errors for the caller to log.
func (s *SocketSource) Tick(nowMs int64) ([]protocol.Message, []error) {
	var msgs []protocol.Message
	var errs []error
	now := time.UnixMilli(nowMs)
	clock := protocol.IdentityClockConverter()
	for {
		select {
		case line := <-s.socket.Lines():
			msg, err := protocol.Decode(line, now)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			switch {
			case msg.Motion != nil:
				msg.Motion.SimulationTime = clock.ToSimulationTime(msg.Motion.RemoteTime)
			case msg.Proxy != nil:
				msg.Proxy.SimulationTime = clock.ToSimulationTime(msg.Proxy.RemoteTime)
			case msg.Contacts != nil:
				msg.Contacts.SimulationTime = clock.ToSimulationTime(msg.Contacts.RemoteTime)
			}
			msgs = append(msgs, msg)
		default:
			return msgs, errs
		}
	}
}

func (s *SocketSource) Close() error {
	s.socket.Close()
	return nil
}

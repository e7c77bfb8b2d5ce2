package controller

import (
	"sync/atomic"
	"time"

	"wheelly/protocol"
	"wheelly/radar"
)

// CommandKind tags the shape of a pending Command.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandHalt
	CommandMove
	CommandScan
)

// Command is the controller's notion of the agent's currently pending
// action, refreshed onto the wire every CommandIntervalMs per spec §4.1
// step 4, regardless of whether the agent has changed it since.
type Command struct {
	Kind       CommandKind
	DeadlineMs int64 // for CommandMove: robot-relative deadline
	DirCode    protocol.DirCode
	ScanDeg    int
}

// Controller owns RobotStatus, the RadarMap, and the outgoing command
// queue, and drives the fixed-interval tick described in spec §4.1,
// generalizing the teacher's single-goroutine tick-loop idiom
// (tabular/main.go's runApp orchestration) to a ticking Controller type.
type Controller struct {
	spec   Spec
	source Source
	radar  *radar.RadarMap

	status atomic.Value // always holds a *RobotStatus

	nowMs int64

	pending           Command
	lastCommandSentMs int64

	onFormatError func(error)
}

// New builds a Controller over source, projecting echoes into radarMap
// (which may be nil, in which case no projection happens).
func New(spec Spec, source Source, radarMap *radar.RadarMap) *Controller {
	c := &Controller{
		spec:   spec.WithDefaults(),
		source: source,
		radar:  radarMap,
	}
	c.status.Store(&RobotStatus{FrontClear: true, RearClear: true})
	return c
}

// OnFormatError registers a callback invoked for every dropped malformed
// line surfaced by the source, per spec §7's "log and drop" policy for
// ProtocolFormat. May be left nil.
func (c *Controller) OnFormatError(fn func(error)) { c.onFormatError = fn }

// Status returns the latest RobotStatus snapshot. Safe for concurrent use.
func (c *Controller) Status() RobotStatus { return *c.status.Load().(*RobotStatus) }

// RadarMap returns the controller's RadarMap.
func (c *Controller) RadarMap() *radar.RadarMap { return c.radar }

// SetCommand replaces the agent's pending command; the next Tick sends it
// (unless a contact forces a halt), after which it is resent every
// CommandIntervalMs.
func (c *Controller) SetCommand(cmd Command) {
	c.pending = cmd
	c.lastCommandSentMs = -1 << 62 // force an immediate refresh on the next Tick
}

// Tick runs one fixed-interval iteration of spec §4.1's five steps. It
// returns nothing: malformed lines are handed to OnFormatError, and send
// errors from the source are ignored.
func (c *Controller) Tick() {
	c.nowMs += c.spec.IntervalMs

	msgs, errs := c.source.Tick(c.nowMs)
	if c.onFormatError != nil {
		for _, err := range errs {
			c.onFormatError(err)
		}
	}

	status := c.Status()
	for _, msg := range msgs {
		status = c.applyMessage(status, msg)
	}
	c.status.Store(&status)

	if !status.FrontClear || !status.RearClear {
		c.pending = Command{Kind: CommandHalt}
		c.source.Send(protocol.EncodeHalt())
		c.lastCommandSentMs = c.nowMs
		return
	}

	c.refreshCommand()
}

func (c *Controller) applyMessage(status RobotStatus, msg protocol.Message) RobotStatus {
	switch {
	case msg.Motion != nil:
		status = fromMotion(status, *msg.Motion)
		c.projectEcho(status)
	case msg.Proxy != nil:
		status = fromProxy(status, *msg.Proxy)
	case msg.Contacts != nil:
		status = fromContacts(status, *msg.Contacts)
	}
	return status
}

// projectEcho implements spec §4.1 step 3: if the last echo is fresh,
// project a SensorSignal into the RadarMap from the robot's current pose.
func (c *Controller) projectEcho(status RobotStatus) {
	if c.radar == nil || status.EchoDistance <= 0 {
		return
	}
	sig := radar.SensorSignal{
		X:         status.X,
		Y:         status.Y,
		Dir:       float64(status.HeadingDeg + status.SensorDirDeg),
		Distance:  status.EchoDistance,
		IsEcho:    true,
		Timestamp: status.SimulationTime,
	}
	c.radar.Update(sig, 0)
}

// refreshCommand implements spec §4.1 step 4: it sends the single pending
// command (ha, mt or sc) once CommandIntervalMs has elapsed since the last
// send, even without change, to honour the firmware's motion-deadline
// watchdog.
func (c *Controller) refreshCommand() {
	due := c.nowMs-c.lastCommandSentMs >= c.spec.CommandIntervalMs

	switch c.pending.Kind {
	case CommandHalt:
		if due {
			c.source.Send(protocol.EncodeHalt())
			c.lastCommandSentMs = c.nowMs
		}
	case CommandMove:
		if due {
			c.source.Send(protocol.EncodeMove(c.pending.DeadlineMs, c.pending.DirCode))
			c.lastCommandSentMs = c.nowMs
		}
	case CommandScan:
		if due {
			c.source.Send(protocol.EncodeScan(c.pending.ScanDeg))
			c.lastCommandSentMs = c.nowMs
		}
	}
}

// ReadStatus implements spec §4.1's reaction loop: tick the controller
// repeatedly until the status's SimulationTime has advanced at least
// reactionIntervalMs past t0, then return it. This is the atomic unit of
// RL interaction.
func (c *Controller) ReadStatus(t0 int64) RobotStatus {
	deadline := t0 + c.spec.ReactionIntervalMs
	status := c.Status()
	for status.SimulationTime < deadline {
		c.Tick()
		status = c.Status()
	}
	return status
}

// Shutdown flushes a final halt, per spec §5's cancellation contract.
func (c *Controller) Shutdown() error {
	c.source.Send(protocol.EncodeHalt())
	return c.source.Close()
}

// IntervalMs returns the configured tick interval, for callers pacing
// Tick() against a time.Ticker when driving a real robot (the simulator
// path, and tests, call Tick directly for determinism).
func (c *Controller) IntervalMs() time.Duration {
	return time.Duration(c.spec.IntervalMs) * time.Millisecond
}

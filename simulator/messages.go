package simulator

import "wheelly/protocol"

// Clock tracks the simulator's own notion of elapsed time, in milliseconds,
// and the cadence at which motion and proximity readings are due.
type Clock struct {
	NowMs        int64
	motionEvery  int64
	proxyEvery   int64
	nextMotionAt int64
	nextProxyAt  int64
}

// DefaultMotionIntervalMs and DefaultProxyIntervalMs match the firmware's
// nominal telemetry cadence referenced by spec §4.2/§6.
const (
	DefaultMotionIntervalMs = 500
	DefaultProxyIntervalMs  = 500
)

// NewClock starts a Clock at t0 with the given telemetry intervals; zero
// intervals fall back to the defaults.
func NewClock(t0 int64, motionIntervalMs, proxyIntervalMs int64) *Clock {
	if motionIntervalMs <= 0 {
		motionIntervalMs = DefaultMotionIntervalMs
	}
	if proxyIntervalMs <= 0 {
		proxyIntervalMs = DefaultProxyIntervalMs
	}
	return &Clock{
		NowMs:        t0,
		motionEvery:  motionIntervalMs,
		proxyEvery:   proxyIntervalMs,
		nextMotionAt: t0,
		nextProxyAt:  t0,
	}
}

// Advance moves the clock forward by dtMs.
func (c *Clock) Advance(dtMs int64) { c.NowMs += dtMs }

// MotionDue reports whether a MotionMessage is due, and if so advances the
// internal schedule.
func (c *Clock) MotionDue() bool {
	if c.NowMs < c.nextMotionAt {
		return false
	}
	c.nextMotionAt = c.NowMs + c.motionEvery
	return true
}

// ProxyDue reports whether a ProxyMessage is due, and if so advances the
// internal schedule.
func (c *Clock) ProxyDue() bool {
	if c.NowMs < c.nextProxyAt {
		return false
	}
	c.nextProxyAt = c.NowMs + c.proxyEvery
	return true
}

// MotionMessage renders the world's current body state as a wire
// protocol.MotionMessage at the given remote/simulation time.
func (w *World) MotionMessage(remoteTimeMs, simTimeMs int64) protocol.MotionMessage {
	echoDist, isEcho := w.Sense()
	return protocol.MotionMessage{
		RemoteTime:     remoteTimeMs,
		SimulationTime: simTimeMs,
		X:              w.Body.X,
		Y:              w.Body.Y,
		Heading:        int(headingErrorDeg(0, w.Body.HeadingDeg)),
		LeftSpeed:      w.Body.LeftSpeed,
		RightSpeed:     w.Body.RightSpeed,
		MotionStopped:  w.Body.MotionStopped,
		SensorDir:      int(w.SensorDir),
		EchoDistance:   boolEcho(echoDist, isEcho),
	}
}

func boolEcho(dist float64, isEcho bool) float64 {
	if !isEcho {
		return 0
	}
	return dist
}

// ProxyMessage renders the world's current range-finder reading as a wire
// protocol.ProxyMessage. XPulses/YPulses report the body's position
// converted to encoder-pulse units, matching the firmware's odometry frame.
func (w *World) ProxyMessage(remoteTimeMs, simTimeMs int64) protocol.ProxyMessage {
	dist, isEcho := w.Sense()
	delayMs := 0.0
	if isEcho {
		const speedOfSoundMPerMs = 0.343
		delayMs = dist / speedOfSoundMPerMs
	}
	return protocol.ProxyMessage{
		RemoteTime:     remoteTimeMs,
		SimulationTime: simTimeMs,
		SensorDir:      int(w.SensorDir),
		EchoDelay:      delayMs,
		XPulses:        w.Body.X / DistancePerPulse,
		YPulses:        w.Body.Y / DistancePerPulse,
		EchoYaw:        w.Body.HeadingDeg + w.SensorDir,
	}
}

// ContactsMessage renders the world's current contact state as a wire
// protocol.ContactsMessage.
func (w *World) ContactsMessage(remoteTimeMs, simTimeMs int64) protocol.ContactsMessage {
	return protocol.ContactsMessage{
		RemoteTime:     remoteTimeMs,
		SimulationTime: simTimeMs,
		FrontClear:     w.Contacts.FrontClear,
		RearClear:      w.Contacts.RearClear,
	}
}

package protocol

// ClockConverter is an immutable affine map from the robot's remote clock
// (milliseconds, as carried on the wire) to our local simulation clock:
// simulationTime = Scale*remoteTime + Offset. A converter is replaced
// atomically on resync; it is never mutated in place.
type ClockConverter struct {
	Scale  float64
	Offset float64
}

// IdentityClockConverter is used before the first successful "ck" round
// trip: simulation time tracks remote time directly.
func IdentityClockConverter() ClockConverter {
	return ClockConverter{Scale: 1, Offset: 0}
}

// ToSimulationTime maps a remote clock reading to simulation time (ms).
func (c ClockConverter) ToSimulationTime(remoteMs int64) int64 {
	return int64(c.Scale*float64(remoteMs) + c.Offset)
}

// FitClockConverter fits a new converter from a round-trip sample: a "ck"
// command sent at localSendMs (our clock) answered with the robot's
// remoteMs reading, received back at localRecvMs. The round-trip delay is
// assumed symmetric, so the robot's clock reading remoteMs is assumed to
// correspond to the midpoint of our local send/receive window.
func FitClockConverter(localSendMs, remoteMs, localRecvMs int64) ClockConverter {
	mid := float64(localSendMs+localRecvMs) / 2
	// Local millisecond ticks advance 1:1 with remote ticks in this model;
	// only the offset is fit per round trip, since both clocks are assumed
	// to run at the same nominal rate (no drift compensation).
	return ClockConverter{Scale: 1, Offset: mid - float64(remoteMs)}
}

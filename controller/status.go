// Package controller implements the fixed-interval robot control loop of
// spec §4.1/§5: it polls a robot (real or simulated), maintains the radar
// map and the latest RobotStatus, and exposes an observation/action
// interface the reaction loop uses to drive an agent, generalizing the
// teacher's single-goroutine "orchestrationLoop" tick style from
// tabular/main.go's runApp into a ticking Controller type.
package controller

import "wheelly/protocol"

// RobotStatus is the immutable per-tick snapshot of spec §3: replaced,
// never mutated in place, and read by any number of goroutines concurrently
// via Controller.Status.
type RobotStatus struct {
	X, Y           float64 // metres
	HeadingDeg     int     // normalised to (-180, 180]
	SensorDirDeg   int     // clipped to [-90, 90]
	EchoDistance   float64 // metres; 0 means no echo
	LeftSpeed      float64 // pulses/s
	RightSpeed     float64 // pulses/s
	MotionStopped  bool
	FrontClear     bool
	RearClear      bool
	SimulationTime int64 // ms
	ResetTime      int64 // ms
}

// fromMotion folds a decoded "st" composite MotionMessage into a
// RobotStatus, keeping every other field from the previous snapshot.
func fromMotion(prev RobotStatus, m protocol.MotionMessage) RobotStatus {
	next := prev
	next.X = m.X
	next.Y = m.Y
	next.HeadingDeg = m.Heading
	next.LeftSpeed = m.LeftSpeed
	next.RightSpeed = m.RightSpeed
	next.MotionStopped = m.MotionStopped
	next.SensorDirDeg = m.SensorDir
	next.EchoDistance = m.EchoDistance
	next.SimulationTime = m.SimulationTime
	return next
}

// fromProxy folds a decoded standalone ProxyMessage into a RobotStatus.
// Only its sensor direction and simulation time are kept; its echo-delay
// and position fields are not used, and radar projection happens only on
// the composite "st" line, which remains the sole source of EchoDistance.
func fromProxy(prev RobotStatus, m protocol.ProxyMessage) RobotStatus {
	next := prev
	next.SensorDirDeg = m.SensorDir
	next.SimulationTime = m.SimulationTime
	return next
}

// fromContacts folds a decoded ContactsMessage into a RobotStatus.
func fromContacts(prev RobotStatus, m protocol.ContactsMessage) RobotStatus {
	next := prev
	next.FrontClear = m.FrontClear
	next.RearClear = m.RearClear
	next.SimulationTime = m.SimulationTime
	return next
}

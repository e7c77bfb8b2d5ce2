// Package simulator implements a deterministic 2-D rigid-body simulation of
// the robot: differential-drive kinematics under force/torque control,
// contact detection against a grid of static obstacles, and a directional
// range-finder sensor with noise. It stands in for the real robot behind the
// same protocol.MotionMessage/ProxyMessage/ContactsMessage contract the
// transport package produces from the wire.
package simulator

// Physical constants for the simulated robot body.
const (
	RobotRadius = 0.15  // metres
	RobotMass   = 0.785 // kg
	Track       = 0.136 // metres between the two wheel contact points

	DistancePerPulse = 0.0037 // metres travelled per encoder pulse
	MaxPPS           = 60.0   // pulses/s, the firmware's hard wheel-speed ceiling

	MaxForce  = 2.0 // Newtons
	MaxTorque = 0.5 // N·m

	ObstacleSize = 0.3 // metres, static obstacle square footprint side

	MaxSensorDistance       = 3.0 // metres, range-finder cutoff
	SensorReceptiveAngleDeg = 5.0 // half-angle cone for an obstacle to register

	ContactConeDeg = 89.5 // half-angle cone for front/rear contact classification

	// VelocityIterations/PositionIterations name the impulse-solver budget
	// per spec §4.2; this implementation integrates the single dynamic body
	// analytically each step, so they exist only as documented constants a
	// reader of the spec can match against -- no off-the-shelf physics
	// engine is wired (see DESIGN.md).
	VelocityIterations = 10
	PositionIterations = 10
)

// Params are the per-session tunables for one simulated robot.
type Params struct {
	MaxAngularSpeed float64 // deg/s, the ω* clip bound
	MaxForwardSpeed float64 // m/s, full-speed forward target at Δψ=0
	ErrSensor       float64 // stdev of multiplicative Gaussian noise on force/sensor range
	ErrSigma        float64 // stdev of multiplicative Gaussian noise on torque
}

// DefaultParams returns reasonable defaults for development and tests.
func DefaultParams() Params {
	return Params{
		MaxAngularSpeed: 90, // deg/s
		MaxForwardSpeed: 0.3,
		ErrSensor:       0.02,
		ErrSigma:        0.02,
	}
}

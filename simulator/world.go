package simulator

import (
	"math"
	"math/rand"

	"wheelly/radar"
)

// Contacts is the robot's current front/rear bump-sensor state.
type Contacts struct {
	FrontClear bool
	RearClear  bool
}

// World is a single simulated robot body moving through a static
// radar.ObstacleMap.
type World struct {
	obstacles *radar.ObstacleMap
	rng       *rand.Rand
	params    Params

	Body      Body
	Contacts  Contacts
	SensorDir float64 // degrees, [-90,90]
}

// NewWorld constructs a world with the robot at the origin, heading 0,
// sensors clear, seeded explicitly (never the global rand source, per
// spec §9's "global mutable singletons become explicit context objects").
func NewWorld(obstacles *radar.ObstacleMap, params Params, seed int64) *World {
	return &World{
		obstacles: obstacles,
		rng:       rand.New(rand.NewSource(seed)),
		params:    params,
		Contacts:  Contacts{FrontClear: true, RearClear: true},
	}
}

// Step advances the simulation by dt seconds toward desiredHeadingDeg,
// per the seven steps of spec §4.2. It returns the contact state observed
// after integration, and whether it changed from the prior step (for
// ContactsMessage emission cadence).
func (w *World) Step(dt, desiredHeadingDeg float64) (contacts Contacts, changed bool) {
	b := &w.Body

	// 1. heading error.
	deltaPsi := headingErrorDeg(b.HeadingDeg, desiredHeadingDeg)

	// 2. angular velocity setpoint: ramp over the first 10°, clipped to ±max.
	omegaTarget := clip(linearRamp(deltaPsi, 10, w.params.MaxAngularSpeed), w.params.MaxAngularSpeed)

	// 3. forward speed setpoint: full speed at Δψ=0, ramps to zero over 30°.
	absErr := math.Abs(deltaPsi)
	speedFrac := 1 - clamp01(absErr/30)
	forwardTarget := w.params.MaxForwardSpeed * speedFrac

	// 4. decompose into wheel speeds, clipped to MAX_PPS.
	left, right := wheelSpeedsPPS(forwardTarget, omegaTarget)
	b.LeftSpeed, b.RightSpeed = left, right

	// 5. forward velocity from wheel speeds; force toward it, clipped, noisy.
	vActual := b.LinearVelocity
	vFromWheels := (left + right) / 2 * DistancePerPulse
	force := clip(RobotMass*(vFromWheels-vActual)/dt, MaxForce)
	force *= 1 + w.params.ErrSensor*w.rng.NormFloat64()
	accel := force / RobotMass
	b.LinearVelocity += accel * dt

	// 6. torque toward the angular setpoint, clipped, noisy.
	omegaActual := b.AngularVelocity
	momentOfInertia := RobotMass * RobotRadius * RobotRadius / 2
	torque := clip(momentOfInertia*(omegaTarget-omegaActual)/dt, MaxTorque)
	torque *= 1 + w.params.ErrSigma*w.rng.NormFloat64()
	angularAccel := torque / momentOfInertia
	b.AngularVelocity += angularAccel * dt

	// 7. advance the body.
	b.HeadingDeg += b.AngularVelocity * dt
	headingRad := b.HeadingDeg * math.Pi / 180
	b.X += b.LinearVelocity * math.Cos(headingRad) * dt
	b.Y += b.LinearVelocity * math.Sin(headingRad) * dt

	return w.checkContacts()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// checkContacts checks every obstacle within contact range and classifies
// each as front or rear relative to the robot's heading, per
// spec §4.2's beginContact/endContact handling. On any contact the
// corresponding sensor flag is cleared (false) and the body is halted.
func (w *World) checkContacts() (Contacts, bool) {
	before := w.Contacts
	threshold := RobotRadius + ObstacleSize/2

	front, rear := true, true
	for _, obs := range w.obstacles.Obstacles() {
		dx := obs.X - w.Body.X
		dy := obs.Y - w.Body.Y
		dist := math.Hypot(dx, dy)
		if dist > threshold {
			continue
		}
		bearing := math.Atan2(dy, dx) * 180 / math.Pi
		rel := headingErrorDeg(w.Body.HeadingDeg, bearing)
		switch {
		case math.Abs(rel) <= ContactConeDeg:
			front = false
		case math.Abs(rel) >= 180-ContactConeDeg:
			rear = false
		}
	}

	w.Contacts = Contacts{FrontClear: front, RearClear: rear}
	if !front || !rear {
		w.Body.LinearVelocity = 0
		w.Body.AngularVelocity = 0
		w.Body.LeftSpeed = 0
		w.Body.RightSpeed = 0
		w.Body.MotionStopped = true
	}

	changed := before != w.Contacts
	return w.Contacts, changed
}

// Sense computes the directional range-finder reading for the current
// sensor direction, per spec §4.2: nearest obstacle within
// SensorReceptiveAngleDeg of the ray and within MaxSensorDistance,
// reported as Euclidean distance minus half the obstacle grid size, plus
// Gaussian noise, clamped to [0, MaxSensorDistance] with 0 meaning no echo.
func (w *World) Sense() (distance float64, isEcho bool) {
	rayDeg := w.Body.HeadingDeg + w.SensorDir
	rayRad := rayDeg * math.Pi / 180

	best := math.Inf(1)
	found := false
	for _, obs := range w.obstacles.Obstacles() {
		dx := obs.X - w.Body.X
		dy := obs.Y - w.Body.Y
		dist := math.Hypot(dx, dy)
		if dist > MaxSensorDistance || dist == 0 {
			continue
		}
		bearing := math.Atan2(dy, dx)
		delta := angleDiffRad(bearing, rayRad)
		if math.Abs(delta)*180/math.Pi > SensorReceptiveAngleDeg {
			continue
		}
		if dist < best {
			best = dist
			found = true
		}
	}

	if !found {
		return 0, false
	}

	reading := best - w.obstacles.CellSize()/2
	reading += reading * w.params.ErrSensor * w.rng.NormFloat64()
	if reading < 0 {
		reading = 0
	}
	if reading > MaxSensorDistance {
		reading = MaxSensorDistance
	}
	if reading == 0 {
		return 0, false
	}
	return reading, true
}

func angleDiffRad(a, b float64) float64 {
	d := a - b
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}

package controller

import (
	"wheelly/simulator"
	"wheelly/tensor"
)

// ObservationEncoder turns a RobotStatus into the fixed-size observation
// row vector an agent's network expects. Pluggable per spec §4.5's
// optional InputProcessor pipeline; DefaultObservationEncoder is a
// reasonable default over the fields RobotStatus exposes.
type ObservationEncoder func(RobotStatus) *tensor.Array

// RewardFunc computes the scalar reward attributed to the transition from
// prev to next. The spec leaves reward shaping to the deployment; this
// package only fixes the environment contract around it.
type RewardFunc func(prev, next RobotStatus) float32

// DefaultObservationEncoder encodes (x, y, heading, sensorDir, echoDistance,
// frontClear, rearClear) as a 1x7 row, normalizing angles to [-1,1] and
// echo distance to [0,1] over simulator.MaxSensorDistance.
func DefaultObservationEncoder(s RobotStatus) *tensor.Array {
	clear := func(b bool) float32 {
		if b {
			return 1
		}
		return 0
	}
	obs := tensor.New(1, 7)
	obs.Set(0, 0, float32(s.X))
	obs.Set(0, 1, float32(s.Y))
	obs.Set(0, 2, float32(s.HeadingDeg)/180)
	obs.Set(0, 3, float32(s.SensorDirDeg)/90)
	obs.Set(0, 4, float32(s.EchoDistance/simulator.MaxSensorDistance))
	obs.Set(0, 5, clear(s.FrontClear))
	obs.Set(0, 6, clear(s.RearClear))
	return obs
}

// Environment ties a Controller's reaction loop to an agent's
// observation/action interface, per spec §4.1's "Environment samples
// observation vector → Agent picks action → Controller emits command".
type Environment struct {
	controller *Controller
	encode     ObservationEncoder
	reward     RewardFunc
}

// NewEnvironment builds an Environment over controller. A nil encode or
// reward falls back to DefaultObservationEncoder or a zero reward,
// respectively.
func NewEnvironment(controller *Controller, encode ObservationEncoder, reward RewardFunc) *Environment {
	if encode == nil {
		encode = DefaultObservationEncoder
	}
	if reward == nil {
		reward = func(RobotStatus, RobotStatus) float32 { return 0 }
	}
	return &Environment{controller: controller, encode: encode, reward: reward}
}

// Reset returns the observation for the controller's current status,
// without advancing the reaction loop.
func (e *Environment) Reset() *tensor.Array {
	return e.encode(e.controller.Status())
}

// Step applies cmd, runs the reaction loop to the next decision boundary,
// and returns the resulting (nextObservation, reward), per spec §4.1's
// reaction loop definition of "the atomic unit of RL interaction".
func (e *Environment) Step(cmd Command) (nextObs *tensor.Array, reward float32) {
	prev := e.controller.Status()
	e.controller.SetCommand(cmd)
	next := e.controller.ReadStatus(prev.SimulationTime)
	return e.encode(next), e.reward(prev, next)
}

// Controller exposes the underlying Controller, e.g. for shutdown.
func (e *Environment) Controller() *Controller { return e.controller }

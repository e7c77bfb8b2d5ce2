package controller

import (
	"fmt"

	"wheelly/radar"
	"wheelly/simulator"
	"wheelly/transport"
)

// RobotSpec selects and configures which Source the controller drives —
// an in-process simulator, or the real robot over TCP — per spec §6's
// robot.yml.
type RobotSpec struct {
	Schema  string `yaml:"$schema"`
	Mode    string `yaml:"mode"` // "simulated" | "real"
	Address string `yaml:"address"`

	DtMs            int64   `yaml:"dtMs"`
	MaxAngularSpeed float64 `yaml:"maxAngularSpeed"`
	MaxForwardSpeed float64 `yaml:"maxForwardSpeed"`
	ErrSensor       float64 `yaml:"errSensor"`
	ErrSigma        float64 `yaml:"errSigma"`
	Seed            int64   `yaml:"seed"`
}

// UnknownModeError reports a RobotSpec.Mode this package doesn't know how
// to build a Source for.
type UnknownModeError struct{ Mode string }

func (e *UnknownModeError) Error() string { return fmt.Sprintf("controller: unknown robot mode %q", e.Mode) }

// BuildSource constructs the Source and RadarMap named by robotSpec and
// envSpec: a SimSource over a freshly seeded simulator.World populated
// with envSpec's static obstacles, or a SocketSource dialled at
// robotSpec.Address.
func BuildSource(robotSpec RobotSpec, envSpec EnvSpec) (Source, *radar.RadarMap, error) {
	radarMap := radar.NewRadarMap(envSpec.WorldWidth, envSpec.WorldHeight, envSpec.GridSize, envSpec.ReceptiveDistance, envSpec.EchoPersistenceMs)

	switch robotSpec.Mode {
	case "real":
		socket := transport.Dial(robotSpec.Address)
		return NewSocketSource(socket), radarMap, nil
	case "", "simulated":
		obstacles := radar.NewObstacleMap(envSpec.WorldWidth, envSpec.WorldHeight, envSpec.GridSize)
		for _, o := range envSpec.Obstacles {
			obstacles.Place(o[0], o[1])
		}
		params := simulator.Params{
			MaxAngularSpeed: robotSpec.MaxAngularSpeed,
			MaxForwardSpeed: robotSpec.MaxForwardSpeed,
			ErrSensor:       robotSpec.ErrSensor,
			ErrSigma:        robotSpec.ErrSigma,
		}
		world := simulator.NewWorld(obstacles, params, robotSpec.Seed)
		dtMs := robotSpec.DtMs
		if dtMs <= 0 {
			dtMs = 10
		}
		src := NewSimSource(world, dtMs, envSpec.MotionIntervalMs, envSpec.ProxyIntervalMs)
		return src, radarMap, nil
	default:
		return nil, nil, &UnknownModeError{Mode: robotSpec.Mode}
	}
}

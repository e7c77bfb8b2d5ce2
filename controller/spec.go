package controller

// Spec configures the controller's tick cadence, per spec §4.1/§6's
// controller.yml.
type Spec struct {
	Schema             string `yaml:"$schema"`
	IntervalMs         int64  `yaml:"intervalMs"`
	CommandIntervalMs  int64  `yaml:"commandIntervalMs"`
	ReactionIntervalMs int64  `yaml:"reactionIntervalMs"`
}

// WithDefaults returns a copy of s with spec §4.1's defaults (10ms tick,
// 600ms command refresh, 300ms reaction interval) applied to zero fields.
func (s Spec) WithDefaults() Spec {
	if s.IntervalMs <= 0 {
		s.IntervalMs = 10
	}
	if s.CommandIntervalMs <= 0 {
		s.CommandIntervalMs = 600
	}
	if s.ReactionIntervalMs <= 0 {
		s.ReactionIntervalMs = 300
	}
	return s
}

// EnvSpec configures the simulated world and radar map, per spec §6's
// env.yml (the "environment" collaborator named in §1's out-of-scope list
// is the GUI; the physics/radar environment config itself is in-scope).
type EnvSpec struct {
	Schema             string      `yaml:"$schema"`
	WorldWidth         float64     `yaml:"worldWidth"`
	WorldHeight        float64     `yaml:"worldHeight"`
	GridSize           float64     `yaml:"gridSize"`
	ReceptiveDistance  float64     `yaml:"receptiveDistance"`
	MinSignalDistance  float64     `yaml:"minSignalDistance"`
	EchoPersistenceMs  int64       `yaml:"echoPersistenceMs"`
	MotionIntervalMs   int64       `yaml:"motionIntervalMs"`
	ProxyIntervalMs    int64       `yaml:"proxyIntervalMs"`
	Obstacles          [][2]float64 `yaml:"obstacles"`
	Seed               int64       `yaml:"seed"`
}

package fsm

import "fmt"

// StateSpec is one declarative state entry of a machine's YAML definition,
// loaded via config.LoadSelected[MachineSpec], per spec §4.6's "declarative
// states/transitions loaded via config".
type StateSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // "halt" | "moveTo" | "explore" | "autoScan"

	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	StopDistance float64 `yaml:"stopDistance"`

	MinDir          int   `yaml:"minDir"`
	MaxDir          int   `yaml:"maxDir"`
	SensorDirNumber int   `yaml:"sensorDirNumber"`
	ScanIntervalMs  int64 `yaml:"scanIntervalMs"`

	TimeoutMs int64 `yaml:"timeoutMs"`
}

// TransitionSpec is one declarative edge of a machine's YAML definition.
type TransitionSpec struct {
	From  string `yaml:"from"`
	Token string `yaml:"token"`
	To    string `yaml:"to"`
}

// MachineSpec is the YAML shape of an fsm machine definition (e.g. the
// agent.yml fallback policy section), consumed by Build.
type MachineSpec struct {
	Schema      string           `yaml:"$schema"`
	Initial     string           `yaml:"initial"`
	States      []StateSpec      `yaml:"states"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

// UnknownStateTypeError reports a StateSpec.Type this package doesn't know
// how to build.
type UnknownStateTypeError struct{ Type string }

func (e *UnknownStateTypeError) Error() string {
	return fmt.Sprintf("fsm: unknown state type %q", e.Type)
}

// Build materializes a Machine from a declarative MachineSpec, instantiating
// each StateSpec's built-in State implementation by Type.
func Build(spec *MachineSpec) (*Machine, error) {
	states := make([]State, 0, len(spec.States))
	timeouts := make(map[string]int64, len(spec.States))

	for _, ss := range spec.States {
		state, err := buildState(ss)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
		if ss.TimeoutMs > 0 {
			timeouts[ss.Name] = ss.TimeoutMs
		}
	}

	transitions := make([]Transition, 0, len(spec.Transitions))
	for _, ts := range spec.Transitions {
		transitions = append(transitions, Transition{From: ts.From, Token: ExitToken(ts.Token), To: ts.To})
	}

	return NewMachine(states, transitions, timeouts, spec.Initial), nil
}

func buildState(ss StateSpec) (State, error) {
	switch ss.Type {
	case "halt":
		return &namedState{State: NewHalt(), name: ss.Name}, nil
	case "moveTo":
		return &namedState{State: NewMoveTo(ss.X, ss.Y, ss.StopDistance), name: ss.Name}, nil
	case "explore":
		return &namedState{State: NewExplore(), name: ss.Name}, nil
	case "autoScan":
		return &namedState{
			State: NewAutoScan(ss.MinDir, ss.MaxDir, ss.SensorDirNumber, ss.ScanIntervalMs),
			name:  ss.Name,
		}, nil
	default:
		return nil, &UnknownStateTypeError{Type: ss.Type}
	}
}

// namedState lets a single built-in State type be instantiated multiple
// times under distinct configured names (e.g. two differently parameterized
// moveTo states in the same machine).
type namedState struct {
	State
	name string
}

func (n *namedState) Name() string { return n.name }

package fsm

// Transition maps one (state, exitToken) edge to the next state's name.
type Transition struct {
	From  string
	Token ExitToken
	To    string
}

// Machine drives a set of named States through a declarative transition
// table, mirroring the teacher's grid_world "switch target.CellType"
// dispatch generalized to "switch exitToken", per spec §4.6.
type Machine struct {
	states      map[string]State
	transitions map[string]map[ExitToken]string
	timeouts    map[string]int64 // state name -> watchdog duration in ms, 0 = none

	current   string
	enteredAt int64
	started   bool
}

// NewMachine builds a Machine over states, with transitions wiring states
// together by exit token and an optional per-state watchdog timeoutMs
// (a state with no entry in timeouts never times out).
func NewMachine(states []State, transitions []Transition, timeouts map[string]int64, initial string) *Machine {
	m := &Machine{
		states:      make(map[string]State, len(states)),
		transitions: make(map[string]map[ExitToken]string),
		timeouts:    timeouts,
		current:     initial,
	}
	if m.timeouts == nil {
		m.timeouts = make(map[string]int64)
	}
	for _, s := range states {
		m.states[s.Name()] = s
		s.OnInit()
	}
	for _, t := range transitions {
		if m.transitions[t.From] == nil {
			m.transitions[t.From] = make(map[ExitToken]string)
		}
		m.transitions[t.From][t.Token] = t.To
	}
	return m
}

// Current returns the name of the machine's active state.
func (m *Machine) Current() string { return m.current }

// Step runs one tick: the active state's Step (unless a watchdog timeout
// has fired first), then follows any transition matching the resulting
// exit token. A token with no matching edge leaves the machine in its
// current state, returning the state's own RobotCommand unchanged.
func (m *Machine) Step(obs Observation) RobotCommand {
	if !m.started {
		m.states[m.current].OnEntry()
		m.enteredAt = obs.SimulationTime
		m.started = true
	}

	token, cmd := m.watchdogOrStep(obs)

	next, ok := m.transitions[m.current][token]
	if !ok || next == m.current {
		return cmd
	}

	m.states[m.current].OnExit()
	m.current = next
	m.states[m.current].OnEntry()
	m.enteredAt = obs.SimulationTime
	return cmd
}

func (m *Machine) watchdogOrStep(obs Observation) (ExitToken, RobotCommand) {
	if d, ok := m.timeouts[m.current]; ok && d > 0 && obs.SimulationTime-m.enteredAt >= d {
		_, cmd := m.states[m.current].Step(obs)
		return Timeout, cmd
	}
	return m.states[m.current].Step(obs)
}

package agent

import (
	"math/rand"

	"wheelly/kpi"
	"wheelly/network"
	"wheelly/tensor"
)

// step is one recorded trajectory transition, per spec §3's
// "(observation, action_mask_per_head, reward, next_observation)".
type step struct {
	obs         *tensor.Array
	actionMasks map[string]*tensor.Array
	reward      float32
	nextObs     *tensor.Array
}

// Agent is the TD(λ) actor-critic learner of spec §4.5: a network built
// from Spec, a fixed-length trajectory buffer, and the running scalar
// avgReward the training algorithm updates in place.
type Agent struct {
	spec *Spec
	net  *network.Network
	rng  *rand.Rand
	sink kpi.Sink

	avgReward atomicReward

	trajectory []step

	savingStepCounter int
	backedUp          bool
}

// New builds a fresh agent from spec, with a freshly initialized network.
// sink may be nil, in which case training emits no KPI records.
func New(spec *Spec, sink kpi.Sink) (*Agent, error) {
	rng := rand.New(rand.NewSource(spec.Seed))
	net, err := buildNetwork(spec, rng)
	if err != nil {
		return nil, err
	}
	return &Agent{spec: spec, net: net, rng: rng, sink: sink}, nil
}

// Act runs a forward pass over obs and samples one class per action head
// from its softmax output, using the agent's own RNG (never the global
// source, per spec §9).
func (a *Agent) Act(obs *tensor.Array) map[string]int {
	a.net.SetInput("obs", obs)
	choices := make(map[string]int, len(a.spec.Actions))
	for _, action := range a.spec.Actions {
		probs := a.net.Forward(actionNode(action.Name))
		choices[action.Name] = sampleCategorical(a.rng, probs)
	}
	return choices
}

func sampleCategorical(rng *rand.Rand, probs *tensor.Array) int {
	r := rng.Float32()
	var cum float32
	for c := 0; c < probs.Cols; c++ {
		cum += probs.At(0, c)
		if r <= cum {
			return c
		}
	}
	return probs.Cols - 1
}

// ActionMask builds a one-hot row vector selecting class, sized for the
// named head.
func (a *Agent) ActionMask(head string, class int) *tensor.Array {
	for _, action := range a.spec.Actions {
		if action.Name == head {
			m := tensor.New(1, action.NumValues)
			m.Set(0, class, 1)
			return m
		}
	}
	return tensor.New(1, 0)
}

// Observe appends one trajectory step. When the trajectory reaches
// numSteps, it trains on the whole trajectory, clears it, and possibly
// autosaves, per spec §4.5's observe(result).
func (a *Agent) Observe(obs *tensor.Array, actionMasks map[string]*tensor.Array, reward float32, nextObs *tensor.Array) error {
	a.trajectory = append(a.trajectory, step{obs: obs, actionMasks: actionMasks, reward: reward, nextObs: nextObs})
	if len(a.trajectory) < a.spec.NumSteps {
		return nil
	}

	if err := a.train(); err != nil {
		return err
	}
	a.trajectory = a.trajectory[:0]
	return nil
}

// AvgReward returns the agent's current running average reward. Safe to
// call concurrently with the training loop.
func (a *Agent) AvgReward() float32 { return a.avgReward.Load() }

// Network exposes the underlying network, e.g. for model persistence.
func (a *Agent) Network() *network.Network { return a.net }

// AttachSink sets (or replaces) the agent's KPI sink. Load builds an agent
// with no sink, since model reconstruction doesn't know which one to use;
// callers attach one afterward.
func (a *Agent) AttachSink(sink kpi.Sink) { a.sink = sink }

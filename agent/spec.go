// Package agent implements the TD(λ) actor-critic learner: a network
// built from a small declarative Spec, a trajectory buffer, and the
// mini-batch training algorithm of spec §4.5. It generalizes the teacher's
// reinforcement.Train/TrainingConfig shape — a config-driven training loop
// emitting progress via a callback — from streamed Monte-Carlo episodes
// over a grid world to a fixed-length trajectory of actor-critic steps
// over an arbitrary observation vector, with the teacher's progressFn
// hook generalized to a pluggable kpi.Sink.
package agent

import "wheelly/network"

// ActionSpec names one categorical action head and its output width.
type ActionSpec struct {
	Name      string `yaml:"name"`
	NumValues int    `yaml:"numValues"`
}

// Spec is the agent's declarative configuration, loaded via
// config.LoadSelected[Spec] from agent.yml, generalizing the teacher's
// TrainingConfig (HyperParams/Algorithm/TrainingDeadline) into the fields
// spec §4.5 actually names.
type Spec struct {
	Schema string `yaml:"$schema"`

	StateSize int          `yaml:"stateSize"`
	Actions   []ActionSpec `yaml:"actions"`
	Network   []LayerSpec  `yaml:"network"`

	RewardAlpha float32            `yaml:"rewardAlpha"`
	Alphas      map[string]float32 `yaml:"alphas"` // per head, plus "critic"
	Lambda      float32            `yaml:"lambda"`

	NumSteps  int `yaml:"numSteps"`
	NumEpochs int `yaml:"numEpochs"`
	BatchSize int `yaml:"batchSize"`

	ModelPath           string `yaml:"modelPath"`
	SavingIntervalSteps int    `yaml:"savingIntervalSteps"`
	Seed                int64  `yaml:"seed"`
}

// criticNode names the network DAG's critic output node; actionNode names
// an action head's output node. agent.yml's network DAG must produce nodes
// under these names regardless of its internal hidden-layer shape, so the
// builder and the trainer never drift out of sync on node naming.
const criticNode = "critic"

func actionNode(name string) string { return "action_" + name }

// alphaFor returns the configured learning rate for head, or 0 if unset
// (an agent.yml omitting a head's alpha simply never updates it).
func (s *Spec) alphaFor(head string) float32 {
	if s.Alphas == nil {
		return 0
	}
	return s.Alphas[head]
}

// allParams collects every trainable parameter in net, used by the per-step
// trace decay and TD update and by the per-trajectory trace reset.
func allParams(net *network.Network) []*network.Param {
	return net.Params()
}

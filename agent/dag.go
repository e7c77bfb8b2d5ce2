package agent

import (
	"fmt"
	"math/rand"

	"wheelly/network"
)

// LayerSpec declares one node of the network DAG in agent.yml, per spec
// §4.4's table of layer types/parameters, mirroring the declarative shape
// fsm.StateSpec uses for fsm.MachineSpec's states.
type LayerSpec struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"` // dense|tanh|relu|linear|softmax|sum|concat
	Inputs []string `yaml:"inputs"`

	// dense only.
	InputSize  int `yaml:"inputSize"`
	OutputSize int `yaml:"outputSize"`

	// softmax only; defaults to 1 (conventional softmax) if zero.
	Temperature float32 `yaml:"temperature"`
}

// UnknownLayerTypeError reports a LayerSpec.Type this package doesn't know
// how to build, mirroring fsm.UnknownStateTypeError.
type UnknownLayerTypeError struct{ Type string }

func (e *UnknownLayerTypeError) Error() string {
	return fmt.Sprintf("agent: unknown layer type %q", e.Type)
}

// buildNetwork constructs a network.Network from spec.Network, the
// declarative layer DAG of spec §4.4/§6's agent.yml, the way fsm.Build
// constructs a fsm.Machine from a fsm.MachineSpec: one pass dispatching
// each LayerSpec.Type into a concrete network.Layer, registered under its
// own name, followed by a single Network.Build() topological sort.
//
// The agent's act/train code addresses two nodes by fixed convention
// regardless of the rest of the DAG's shape: the critic node must be named
// criticNode ("critic"), and each action head's output node must be named
// actionNode(action.Name) ("action_<name>") — agent.yml's network DAG is
// free to vary hidden-layer width, depth, and fan-in/fan-out (via sum/
// concat) so long as it produces those named outputs.
func buildNetwork(spec *Spec, rng *rand.Rand) (*network.Network, error) {
	net := network.New()

	for _, ls := range spec.Network {
		layer, err := buildLayer(ls, rng)
		if err != nil {
			return nil, err
		}
		net.Add(layer)
	}

	if err := net.Build(); err != nil {
		return nil, err
	}
	return net, nil
}

func buildLayer(ls LayerSpec, rng *rand.Rand) (network.Layer, error) {
	input := ""
	if len(ls.Inputs) > 0 {
		input = ls.Inputs[0]
	}

	switch ls.Type {
	case "dense":
		return network.NewDense(ls.Name, input, ls.InputSize, ls.OutputSize, rng), nil
	case "tanh":
		return network.NewTanh(ls.Name, input), nil
	case "relu":
		return network.NewRelu(ls.Name, input), nil
	case "linear":
		return network.NewLinear(ls.Name, input), nil
	case "softmax":
		return network.NewSoftmax(ls.Name, input, ls.Temperature), nil
	case "sum":
		return network.NewSum(ls.Name, ls.Inputs...), nil
	case "concat":
		return network.NewConcat(ls.Name, ls.Inputs...), nil
	default:
		return nil, &UnknownLayerTypeError{Type: ls.Type}
	}
}

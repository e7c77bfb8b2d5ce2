package network

import (
	"fmt"

	"wheelly/tensor"
)

// ShapeMismatchError reports a graph-construction defect caught at
// Build() time — currently a cycle among layer dependencies — matching
// spec §7's NetworkShapeMismatch error kind.
type ShapeMismatchError struct {
	Reason string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("network: %s", e.Reason)
}

// Network is a named DAG of Layers, topologically ordered once at Build()
// so Forward/Backward never re-derive dependency order on the hot path.
type Network struct {
	layers map[string]Layer
	order  []string
	inputs map[string]*tensor.Array // externally supplied source nodes
	cache  map[string]*tensor.Array // last Forward output per node
}

// New returns an empty, unbuilt Network.
func New() *Network {
	return &Network{
		layers: make(map[string]Layer),
		inputs: make(map[string]*tensor.Array),
		cache:  make(map[string]*tensor.Array),
	}
}

// Add registers a layer under its own Name(). Add panics on a duplicate
// name, a programmer error caught at graph-construction time, not runtime.
func (n *Network) Add(layer Layer) {
	if _, exists := n.layers[layer.Name()]; exists {
		panic(fmt.Sprintf("network: duplicate layer name %q", layer.Name()))
	}
	n.layers[layer.Name()] = layer
}

// Build computes the topological evaluation order. It must be called once
// after all layers and input names are known, and before the first
// SetInput/Forward. Build returns a *ShapeMismatchError if the graph is
// not a DAG.
func (n *Network) Build() error {
	n.order = n.order[:0]
	visited := make(map[string]int) // 0=unvisited, 1=visiting, 2=done

	var visit func(name string) error
	visit = func(name string) error {
		switch visited[name] {
		case 2:
			return nil
		case 1:
			return &ShapeMismatchError{Reason: fmt.Sprintf("cycle detected at %q", name)}
		}
		visited[name] = 1

		if layer, ok := n.layers[name]; ok {
			for _, dep := range layer.Inputs() {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[name] = 2
		n.order = append(n.order, name)
		return nil
	}

	for name := range n.layers {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// SetInput binds an externally supplied source node's value (e.g. the
// observation vector), to be read by any layer naming it as a dependency.
func (n *Network) SetInput(name string, value *tensor.Array) {
	n.inputs[name] = value
}

// Forward evaluates every layer once, in topological order, and returns
// the named output node's result.
func (n *Network) Forward(outputName string) *tensor.Array {
	for _, name := range n.order {
		layer, ok := n.layers[name]
		if !ok {
			continue // an input node; already supplied via SetInput
		}
		args := make([]*tensor.Array, len(layer.Inputs()))
		for i, dep := range layer.Inputs() {
			args[i] = n.valueOf(dep)
		}
		n.cache[name] = layer.Forward(args)
	}
	return n.valueOf(outputName)
}

func (n *Network) valueOf(name string) *tensor.Array {
	if v, ok := n.cache[name]; ok {
		return v
	}
	return n.inputs[name]
}

// Backward propagates gradOut (the gradient of the loss wrt the named
// output node) backward through every layer reachable from it, in reverse
// topological order, setting each layer's Param gradients (each call
// replaces the previous gradients rather than adding to them).
func (n *Network) Backward(outputName string, gradOut *tensor.Array) {
	grads := map[string]*tensor.Array{outputName: gradOut}

	for i := len(n.order) - 1; i >= 0; i-- {
		name := n.order[i]
		layer, ok := n.layers[name]
		if !ok {
			continue
		}
		g, has := grads[name]
		if !has {
			continue // this node's output wasn't on the path from outputName
		}
		inGrads := layer.Backward(g)
		for j, dep := range layer.Inputs() {
			if existing, ok := grads[dep]; ok {
				sum, err := tensor.Add(existing, inGrads[j])
				if err != nil {
					panic(err)
				}
				grads[dep] = sum
			} else {
				grads[dep] = inGrads[j]
			}
		}
	}
}

// BackwardMulti propagates possibly several seed gradients at once — one
// per entry in outputGrads, keyed by node name — merging contributions at
// any layer feeding more than one of them. This is what the TD agent uses
// to backpropagate a shared delta through both a critic head and one or
// more policy heads that share lower layers in a single pass.
func (n *Network) BackwardMulti(outputGrads map[string]*tensor.Array) {
	grads := make(map[string]*tensor.Array, len(outputGrads))
	for k, v := range outputGrads {
		grads[k] = v
	}

	for i := len(n.order) - 1; i >= 0; i-- {
		name := n.order[i]
		layer, ok := n.layers[name]
		if !ok {
			continue
		}
		g, has := grads[name]
		if !has {
			continue
		}
		inGrads := layer.Backward(g)
		for j, dep := range layer.Inputs() {
			if existing, ok := grads[dep]; ok {
				sum, err := tensor.Add(existing, inGrads[j])
				if err != nil {
					panic(err)
				}
				grads[dep] = sum
			} else {
				grads[dep] = inGrads[j]
			}
		}
	}
}

// NamedParams returns every trainable parameter keyed "<layer>.<field>",
// for layers implementing NamedParamsProvider (currently Dense's "W"/"b"),
// matching spec §6's agent.bin record naming.
func (n *Network) NamedParams() map[string]*Param {
	out := make(map[string]*Param)
	for _, name := range n.order {
		layer, ok := n.layers[name]
		if !ok {
			continue
		}
		provider, ok := layer.(NamedParamsProvider)
		if !ok {
			continue
		}
		for field, p := range provider.NamedParams() {
			out[name+"."+field] = p
		}
	}
	return out
}

// Params returns every trainable parameter across all layers, for the
// agent's trace-decay/TD-update pass.
func (n *Network) Params() []*Param {
	var out []*Param
	for _, name := range n.order {
		if layer, ok := n.layers[name]; ok {
			out = append(out, layer.Params()...)
		}
	}
	return out
}

// Package network implements the small neural-network core the TD agent
// trains: a named, topologically ordered DAG of Layer nodes built from a
// fixed tagged-variant set (Dense, Tanh, Relu, Linear, Softmax, Sum,
// Concat), per spec §9's "arena of layers addressed by name". There is no
// prior teacher package for this shape; it follows the teacher's general
// style of small tagged-variant-over-interface types (compare grid_world's
// CellType switch) generalized to a forward/backward Layer interface.
package network

import "wheelly/tensor"

// Layer is one node in the network DAG. Forward consumes its named inputs'
// most recent outputs and produces this layer's output. Backward consumes
// the upstream gradient (same shape as Forward's output) and returns one
// gradient per input, in the same order Inputs() lists them.
type Layer interface {
	Name() string
	Inputs() []string
	Forward(inputs []*tensor.Array) *tensor.Array
	Backward(gradOut *tensor.Array) []*tensor.Array
	// Params returns this layer's trainable parameters, or nil if it has
	// none (activation layers, Sum, Concat).
	Params() []*Param
}

// NamedParamsProvider is implemented by layers whose parameters need
// stable, distinguishable names for persistence (e.g. Dense's "W"/"b"),
// per spec §6's agent.bin record naming ("<layer>.W", "<layer>.b").
type NamedParamsProvider interface {
	NamedParams() map[string]*Param
}

// Param is one trainable tensor plus its most recently computed gradient
// and eligibility trace, per spec §4.5's TD(λ) update rule
// theta <- theta + alpha*delta*e.
type Param struct {
	Value *tensor.Array
	Grad  *tensor.Array
	Trace *tensor.Array
}

// NewParam allocates a zero-initialized parameter of the given shape.
func NewParam(rows, cols int) *Param {
	return &Param{
		Value: tensor.New(rows, cols),
		Grad:  tensor.New(rows, cols),
		Trace: tensor.New(rows, cols),
	}
}

// DecayTrace scales this parameter's eligibility trace by lambda and
// accumulates the current gradient, per spec §4.4's trace update
// e <- lambda*e + dy/dtheta.
func (p *Param) DecayTrace(lambda float32) {
	for i := range p.Trace.Data {
		p.Trace.Data[i] = p.Trace.Data[i]*lambda + p.Grad.Data[i]
	}
}

// ApplyTD nudges Value by alpha*delta*Trace, the TD(λ) actor-critic update.
func (p *Param) ApplyTD(alpha, delta float32) {
	step := alpha * delta
	for i := range p.Value.Data {
		p.Value.Data[i] += step * p.Trace.Data[i]
	}
}

// ResetTraces zeroes every parameter's eligibility trace, called at the
// start of each new trajectory/episode.
func (p *Param) ResetTraces() { p.Trace.Fill(0) }

package network

import (
	"math"
	"math/rand"

	"wheelly/tensor"
)

// Dense is a fully connected layer: y = x*W + b.
type Dense struct {
	name   string
	input  string
	weight *Param
	bias   *Param

	lastInput *tensor.Array
}

// NewDense builds a Dense layer reading from input, with weights sized
// inRows x outCols, initialized with a small uniform spread via rng (an
// explicit *rand.Rand, never the global source, per spec §9).
func NewDense(name, input string, inDim, outDim int, rng *rand.Rand) *Dense {
	w := NewParam(inDim, outDim)
	spread := float32(1.0 / math.Sqrt(float64(inDim)))
	for i := range w.Value.Data {
		w.Value.Data[i] = (rng.Float32()*2 - 1) * spread
	}
	b := NewParam(1, outDim)
	return &Dense{name: name, input: input, weight: w, bias: b}
}

func (d *Dense) Name() string     { return d.name }
func (d *Dense) Inputs() []string { return []string{d.input} }
func (d *Dense) Params() []*Param { return []*Param{d.weight, d.bias} }

// NamedParams implements network.NamedParamsProvider.
func (d *Dense) NamedParams() map[string]*Param {
	return map[string]*Param{"W": d.weight, "b": d.bias}
}

func (d *Dense) Forward(inputs []*tensor.Array) *tensor.Array {
	d.lastInput = inputs[0]
	out, err := tensor.MatMul(inputs[0], d.weight.Value)
	if err != nil {
		panic(err)
	}
	out, err = tensor.AddRowBroadcast(out, d.bias.Value)
	if err != nil {
		panic(err)
	}
	return out
}

func (d *Dense) Backward(gradOut *tensor.Array) []*tensor.Array {
	wT := tensor.Transpose(d.weight.Value)
	gradIn, err := tensor.MatMul(gradOut, wT)
	if err != nil {
		panic(err)
	}

	inT := tensor.Transpose(d.lastInput)
	gradW, err := tensor.MatMul(inT, gradOut)
	if err != nil {
		panic(err)
	}
	d.weight.Grad = gradW
	d.bias.Grad = tensor.SumRows(gradOut)

	return []*tensor.Array{gradIn}
}

// activation wraps a pure elementwise Forward/Backward pair (Tanh, Relu)
// with no trainable parameters.
type activation struct {
	name     string
	input    string
	fwd      func(*tensor.Array) *tensor.Array
	gradWrt  func(*tensor.Array) *tensor.Array // derivative wrt this layer's own output (Tanh) or input (Relu)
	useInput bool                              // true: gradWrt takes lastInput; false: takes lastOutput

	lastInput  *tensor.Array
	lastOutput *tensor.Array
}

func (a *activation) Name() string     { return a.name }
func (a *activation) Inputs() []string { return []string{a.input} }
func (a *activation) Params() []*Param { return nil }

func (a *activation) Forward(inputs []*tensor.Array) *tensor.Array {
	a.lastInput = inputs[0]
	a.lastOutput = a.fwd(inputs[0])
	return a.lastOutput
}

func (a *activation) Backward(gradOut *tensor.Array) []*tensor.Array {
	var deriv *tensor.Array
	if a.useInput {
		deriv = a.gradWrt(a.lastInput)
	} else {
		deriv = a.gradWrt(a.lastOutput)
	}
	gradIn, err := tensor.Mul(gradOut, deriv)
	if err != nil {
		panic(err)
	}
	return []*tensor.Array{gradIn}
}

// NewTanh builds a Tanh activation layer.
func NewTanh(name, input string) Layer {
	return &activation{name: name, input: input, fwd: tensor.Tanh, gradWrt: tensor.TanhGrad, useInput: false}
}

// NewRelu builds a Relu activation layer.
func NewRelu(name, input string) Layer {
	return &activation{name: name, input: input, fwd: tensor.Relu, gradWrt: tensor.ReluGrad, useInput: true}
}

// NewLinear builds an identity passthrough layer, useful for naming a raw
// input or an unsquashed value-function output node.
func NewLinear(name, input string) Layer {
	return &activation{
		name: name, input: input,
		fwd:      func(a *tensor.Array) *tensor.Array { return a.Clone() },
		gradWrt:  func(a *tensor.Array) *tensor.Array { return onesLike(a) },
		useInput: true,
	}
}

func onesLike(a *tensor.Array) *tensor.Array {
	out := tensor.New(a.Rows, a.Cols)
	out.Fill(1)
	return out
}

// Softmax normalizes input/temperature into a row-stochastic distribution,
// used at the policy head: y = softmax(x / T).
type Softmax struct {
	name, input string
	temperature float32
	lastOutput  *tensor.Array
}

// NewSoftmax builds a softmax layer with the given temperature (1 for the
// conventional softmax).
func NewSoftmax(name, input string, temperature float32) *Softmax {
	if temperature == 0 {
		temperature = 1
	}
	return &Softmax{name: name, input: input, temperature: temperature}
}

func (s *Softmax) Name() string     { return s.name }
func (s *Softmax) Inputs() []string { return []string{s.input} }
func (s *Softmax) Params() []*Param { return nil }

func (s *Softmax) Forward(inputs []*tensor.Array) *tensor.Array {
	scaled := tensor.ScaleScalar(inputs[0], 1/s.temperature)
	s.lastOutput = tensor.Softmax(scaled)
	return s.lastOutput
}

// Backward implements the full softmax Jacobian-vector product per spec
// §4.4: dx_i = (dy . y) . (I - y) / T, computed row-wise via the standard
// dx = (dy - sum(dy*y))*y / T identity (equivalent to the outer-product
// form, without materializing the Jacobian).
func (s *Softmax) Backward(gradOut *tensor.Array) []*tensor.Array {
	y := s.lastOutput
	gradIn := tensor.New(y.Rows, y.Cols)
	for r := 0; r < y.Rows; r++ {
		var dot float32
		for c := 0; c < y.Cols; c++ {
			dot += gradOut.At(r, c) * y.At(r, c)
		}
		for c := 0; c < y.Cols; c++ {
			v := (gradOut.At(r, c) - dot) * y.At(r, c) / s.temperature
			gradIn.Set(r, c, v)
		}
	}
	return []*tensor.Array{gradIn}
}

// Sum elementwise-adds two equally shaped inputs.
type Sum struct {
	name string
	in   []string
}

func NewSum(name string, inputs ...string) *Sum { return &Sum{name: name, in: inputs} }

func (s *Sum) Name() string     { return s.name }
func (s *Sum) Inputs() []string { return s.in }
func (s *Sum) Params() []*Param { return nil }

func (s *Sum) Forward(inputs []*tensor.Array) *tensor.Array {
	out := inputs[0].Clone()
	for _, in := range inputs[1:] {
		var err error
		out, err = tensor.Add(out, in)
		if err != nil {
			panic(err)
		}
	}
	return out
}

func (s *Sum) Backward(gradOut *tensor.Array) []*tensor.Array {
	grads := make([]*tensor.Array, len(s.in))
	for i := range grads {
		grads[i] = gradOut.Clone()
	}
	return grads
}

// Concat horizontally joins its inputs' columns.
type Concat struct {
	name string
	in   []string
	dims []int
}

func NewConcat(name string, inputs ...string) *Concat { return &Concat{name: name, in: inputs} }

func (c *Concat) Name() string     { return c.name }
func (c *Concat) Inputs() []string { return c.in }
func (c *Concat) Params() []*Param { return nil }

func (c *Concat) Forward(inputs []*tensor.Array) *tensor.Array {
	c.dims = make([]int, len(inputs))
	for i, in := range inputs {
		c.dims[i] = in.Cols
	}
	out, err := tensor.Concat(inputs...)
	if err != nil {
		panic(err)
	}
	return out
}

func (c *Concat) Backward(gradOut *tensor.Array) []*tensor.Array {
	grads := make([]*tensor.Array, len(c.dims))
	offset := 0
	for i, d := range c.dims {
		g := tensor.New(gradOut.Rows, d)
		for r := 0; r < gradOut.Rows; r++ {
			for col := 0; col < d; col++ {
				g.Set(r, col, gradOut.At(r, offset+col))
			}
		}
		grads[i] = g
		offset += d
	}
	return grads
}

// Package tensor implements the dense numerical array the network and
// agent packages operate on: a flat []float32 buffer plus a (rows, cols)
// shape, with the handful of operations an actor-critic network needs
// (matmul, elementwise arithmetic, broadcast, activations, reductions).
// No third-party numerical library is wired here: the spec's Non-goals
// explicitly exclude an off-the-shelf linear algebra dependency, and the
// pack's numerical libraries belong to GUI-heavy example repos that were
// not selected as the teacher (see DESIGN.md).
package tensor

import (
	"fmt"
	"math"
)

// Array is a dense, row-major matrix of float32 values.
type Array struct {
	Rows, Cols int
	Data       []float32
}

// ShapeMismatchError reports an operation between arrays whose shapes are
// incompatible.
type ShapeMismatchError struct {
	Op   string
	A, B [2]int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("tensor: %s: shape mismatch %v vs %v", e.Op, e.A, e.B)
}

func newShapeMismatch(op string, a, b [2]int) *ShapeMismatchError {
	return &ShapeMismatchError{Op: op, A: a, B: b}
}

// New allocates a zeroed rows x cols array.
func New(rows, cols int) *Array {
	return &Array{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// NewFromRows builds an array from row-major nested slices; all rows must
// be the same length.
func NewFromRows(rows [][]float32) *Array {
	if len(rows) == 0 {
		return New(0, 0)
	}
	cols := len(rows[0])
	a := New(len(rows), cols)
	for i, row := range rows {
		copy(a.Data[i*cols:(i+1)*cols], row)
	}
	return a
}

// At returns the element at (r, c).
func (a *Array) At(r, c int) float32 { return a.Data[r*a.Cols+c] }

// Set assigns the element at (r, c).
func (a *Array) Set(r, c int, v float32) { a.Data[r*a.Cols+c] = v }

// Shape returns (Rows, Cols).
func (a *Array) Shape() [2]int { return [2]int{a.Rows, a.Cols} }

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	out := New(a.Rows, a.Cols)
	copy(out.Data, a.Data)
	return out
}

// Fill sets every element to v.
func (a *Array) Fill(v float32) {
	for i := range a.Data {
		a.Data[i] = v
	}
}

// MatMul computes a*b; a.Cols must equal b.Rows.
func MatMul(a, b *Array) (*Array, error) {
	if a.Cols != b.Rows {
		return nil, newShapeMismatch("matmul", a.Shape(), b.Shape())
	}
	out := New(a.Rows, b.Cols)
	for i := 0; i < a.Rows; i++ {
		for k := 0; k < a.Cols; k++ {
			aik := a.At(i, k)
			if aik == 0 {
				continue
			}
			for j := 0; j < b.Cols; j++ {
				out.Data[i*out.Cols+j] += aik * b.At(k, j)
			}
		}
	}
	return out, nil
}

// Add returns elementwise a+b.
func Add(a, b *Array) (*Array, error) { return elementwise("add", a, b, func(x, y float32) float32 { return x + y }) }

// Sub returns elementwise a-b.
func Sub(a, b *Array) (*Array, error) { return elementwise("sub", a, b, func(x, y float32) float32 { return x - y }) }

// Mul returns elementwise a*b (Hadamard product).
func Mul(a, b *Array) (*Array, error) { return elementwise("mul", a, b, func(x, y float32) float32 { return x * y }) }

func elementwise(op string, a, b *Array, f func(x, y float32) float32) (*Array, error) {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, newShapeMismatch(op, a.Shape(), b.Shape())
	}
	out := New(a.Rows, a.Cols)
	for i := range a.Data {
		out.Data[i] = f(a.Data[i], b.Data[i])
	}
	return out, nil
}

// AddScalar returns a+s, broadcasting s over every element.
func AddScalar(a *Array, s float32) *Array { return mapScalar(a, func(x float32) float32 { return x + s }) }

// ScaleScalar returns a*s, broadcasting s over every element.
func ScaleScalar(a *Array, s float32) *Array { return mapScalar(a, func(x float32) float32 { return x * s }) }

func mapScalar(a *Array, f func(float32) float32) *Array {
	out := New(a.Rows, a.Cols)
	for i, v := range a.Data {
		out.Data[i] = f(v)
	}
	return out
}

// AddRowBroadcast adds a 1xN row vector to every row of an MxN array.
func AddRowBroadcast(a, row *Array) (*Array, error) {
	if row.Rows != 1 || row.Cols != a.Cols {
		return nil, newShapeMismatch("add_row_broadcast", a.Shape(), row.Shape())
	}
	out := a.Clone()
	for r := 0; r < a.Rows; r++ {
		for c := 0; c < a.Cols; c++ {
			out.Data[r*a.Cols+c] += row.Data[c]
		}
	}
	return out, nil
}

// Transpose returns the transpose of a.
func Transpose(a *Array) *Array {
	out := New(a.Cols, a.Rows)
	for r := 0; r < a.Rows; r++ {
		for c := 0; c < a.Cols; c++ {
			out.Set(c, r, a.At(r, c))
		}
	}
	return out
}

// Tanh applies math.Tanh elementwise.
func Tanh(a *Array) *Array {
	return mapScalar(a, func(x float32) float32 { return float32(math.Tanh(float64(x))) })
}

// TanhGrad returns the derivative of tanh given its output y: 1 - y^2.
func TanhGrad(y *Array) *Array {
	return mapScalar(y, func(v float32) float32 { return 1 - v*v })
}

// Relu applies max(0, x) elementwise.
func Relu(a *Array) *Array {
	return mapScalar(a, func(x float32) float32 {
		if x < 0 {
			return 0
		}
		return x
	})
}

// ReluGrad returns the derivative of relu given its input x: 1 if x>0 else 0.
func ReluGrad(x *Array) *Array {
	return mapScalar(x, func(v float32) float32 {
		if v > 0 {
			return 1
		}
		return 0
	})
}

// Softmax applies row-wise softmax.
func Softmax(a *Array) *Array {
	out := New(a.Rows, a.Cols)
	for r := 0; r < a.Rows; r++ {
		max := float32(math.Inf(-1))
		for c := 0; c < a.Cols; c++ {
			if v := a.At(r, c); v > max {
				max = v
			}
		}
		var sum float32
		for c := 0; c < a.Cols; c++ {
			e := float32(math.Exp(float64(a.At(r, c) - max)))
			out.Set(r, c, e)
			sum += e
		}
		if sum == 0 {
			continue
		}
		for c := 0; c < a.Cols; c++ {
			out.Set(r, c, out.At(r, c)/sum)
		}
	}
	return out
}

// SumRows reduces an MxN array to a 1xN row of column sums.
func SumRows(a *Array) *Array {
	out := New(1, a.Cols)
	for r := 0; r < a.Rows; r++ {
		for c := 0; c < a.Cols; c++ {
			out.Data[c] += a.At(r, c)
		}
	}
	return out
}

// Concat horizontally concatenates arrays sharing the same row count.
func Concat(arrays ...*Array) (*Array, error) {
	if len(arrays) == 0 {
		return New(0, 0), nil
	}
	rows := arrays[0].Rows
	cols := 0
	for _, a := range arrays {
		if a.Rows != rows {
			return nil, newShapeMismatch("concat", arrays[0].Shape(), a.Shape())
		}
		cols += a.Cols
	}
	out := New(rows, cols)
	for r := 0; r < rows; r++ {
		offset := 0
		for _, a := range arrays {
			for c := 0; c < a.Cols; c++ {
				out.Set(r, offset+c, a.At(r, c))
			}
			offset += a.Cols
		}
	}
	return out, nil
}

package tensor

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMatMul(t *testing.T) {
	Convey("Given a 2x3 and a 3x2 array", t, func() {
		a := NewFromRows([][]float32{{1, 2, 3}, {4, 5, 6}})
		b := NewFromRows([][]float32{{7, 8}, {9, 10}, {11, 12}})

		Convey("MatMul produces the expected 2x2 product", func() {
			out, err := MatMul(a, b)
			So(err, ShouldBeNil)
			So(out.Rows, ShouldEqual, 2)
			So(out.Cols, ShouldEqual, 2)
			So(out.At(0, 0), ShouldEqual, float32(58))
			So(out.At(0, 1), ShouldEqual, float32(64))
			So(out.At(1, 0), ShouldEqual, float32(139))
			So(out.At(1, 1), ShouldEqual, float32(154))
		})

		Convey("MatMul with mismatched shapes errors", func() {
			_, err := MatMul(a, a)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestElementwise(t *testing.T) {
	Convey("Given two 1x3 arrays", t, func() {
		a := NewFromRows([][]float32{{1, 2, 3}})
		b := NewFromRows([][]float32{{10, 20, 30}})

		Convey("Add sums elementwise", func() {
			out, err := Add(a, b)
			So(err, ShouldBeNil)
			So(out.Data, ShouldResemble, []float32{11, 22, 33})
		})

		Convey("Mul multiplies elementwise", func() {
			out, err := Mul(a, b)
			So(err, ShouldBeNil)
			So(out.Data, ShouldResemble, []float32{10, 40, 90})
		})
	})
}

func TestActivations(t *testing.T) {
	Convey("Relu zeroes negative entries", t, func() {
		a := NewFromRows([][]float32{{-1, 0, 2}})
		out := Relu(a)
		So(out.Data, ShouldResemble, []float32{0, 0, 2})
	})

	Convey("Softmax rows sum to 1", t, func() {
		a := NewFromRows([][]float32{{1, 2, 3}})
		out := Softmax(a)
		var sum float32
		for _, v := range out.Data {
			sum += v
		}
		So(sum, ShouldAlmostEqual, 1.0, 1e-5)
	})
}

func TestConcat(t *testing.T) {
	Convey("Concat joins arrays column-wise", t, func() {
		a := NewFromRows([][]float32{{1, 2}})
		b := NewFromRows([][]float32{{3, 4, 5}})
		out, err := Concat(a, b)
		So(err, ShouldBeNil)
		So(out.Cols, ShouldEqual, 5)
		So(out.Data, ShouldResemble, []float32{1, 2, 3, 4, 5})
	})
}

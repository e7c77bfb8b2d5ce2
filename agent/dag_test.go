package agent

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"wheelly/tensor"
)

func TestBuildNetworkWiresReluSumAndConcat(t *testing.T) {
	Convey("Given a DAG using relu, concat, and sum alongside dense/softmax/linear", t, func() {
		spec := &Spec{
			StateSize: 2,
			Actions:   []ActionSpec{{Name: "dir", NumValues: 2}},
			Network: []LayerSpec{
				{Name: "a_dense", Type: "dense", Inputs: []string{"obs"}, InputSize: 2, OutputSize: 2},
				{Name: "a", Type: "relu", Inputs: []string{"a_dense"}},
				{Name: "b_dense", Type: "dense", Inputs: []string{"obs"}, InputSize: 2, OutputSize: 2},
				{Name: "b", Type: "relu", Inputs: []string{"b_dense"}},
				{Name: "combined", Type: "sum", Inputs: []string{"a", "b"}},
				{Name: "wide", Type: "concat", Inputs: []string{"a", "b"}},
				{Name: "dir_dense", Type: "dense", Inputs: []string{"combined"}, InputSize: 2, OutputSize: 2},
				{Name: "action_dir", Type: "softmax", Inputs: []string{"dir_dense"}, Temperature: 1},
				{Name: "critic_dense", Type: "dense", Inputs: []string{"wide"}, InputSize: 4, OutputSize: 1},
				{Name: "critic", Type: "linear", Inputs: []string{"critic_dense"}},
			},
		}

		rng := rand.New(rand.NewSource(1))
		net, err := buildNetwork(spec, rng)

		Convey("the network builds with no error and both named outputs are reachable", func() {
			So(err, ShouldBeNil)
			So(net, ShouldNotBeNil)

			net.SetInput("obs", tensor.NewFromRows([][]float32{{0.1, -0.2}}))
			probs := net.Forward(actionNode("dir"))
			So(probs.Rows, ShouldEqual, 1)
			So(probs.Cols, ShouldEqual, 2)

			critic := net.Forward(criticNode)
			So(critic.Rows, ShouldEqual, 1)
			So(critic.Cols, ShouldEqual, 1)
		})
	})
}

func TestBuildNetworkRejectsUnknownLayerType(t *testing.T) {
	Convey("Given a LayerSpec with an unrecognized type", t, func() {
		spec := &Spec{
			Network: []LayerSpec{{Name: "bogus", Type: "lstm", Inputs: []string{"obs"}}},
		}

		_, err := buildNetwork(spec, rand.New(rand.NewSource(1)))

		Convey("buildNetwork returns an UnknownLayerTypeError", func() {
			So(err, ShouldNotBeNil)
			_, ok := err.(*UnknownLayerTypeError)
			So(ok, ShouldBeTrue)
		})
	})
}

package agent

import (
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"wheelly/tensor"
)

func testSpec(modelPath string) *Spec {
	return &Spec{
		StateSize: 3,
		Actions:   []ActionSpec{{Name: "dir", NumValues: 3}},
		Network: []LayerSpec{
			{Name: "hidden_dense", Type: "dense", Inputs: []string{"obs"}, InputSize: 3, OutputSize: 4},
			{Name: "hidden", Type: "tanh", Inputs: []string{"hidden_dense"}},
			{Name: "dir_dense", Type: "dense", Inputs: []string{"hidden"}, InputSize: 4, OutputSize: 3},
			{Name: "action_dir", Type: "softmax", Inputs: []string{"dir_dense"}, Temperature: 1},
			{Name: "critic_dense", Type: "dense", Inputs: []string{"hidden"}, InputSize: 4, OutputSize: 1},
			{Name: "critic", Type: "linear", Inputs: []string{"critic_dense"}},
		},
		RewardAlpha: 0.1,
		Alphas: map[string]float32{
			"dir":    0.05,
			"critic": 0.1,
		},
		Lambda:              0.8,
		NumSteps:            3,
		NumEpochs:           1,
		BatchSize:           3,
		ModelPath:           modelPath,
		SavingIntervalSteps: 1,
		Seed:                1234,
	}
}

func TestActSamplesAValidAction(t *testing.T) {
	Convey("Given a freshly built agent", t, func() {
		a, err := New(testSpec(t.TempDir()), nil)
		So(err, ShouldBeNil)

		obs := tensor.NewFromRows([][]float32{{0.1, -0.2, 0.3}})
		choices := a.Act(obs)

		Convey("Act returns a class index within range for each head", func() {
			So(choices["dir"], ShouldBeBetween, -1, 3)
		})
	})
}

func TestTDUpdateSingleStep(t *testing.T) {
	Convey("Given rewardAlpha=0.1, r=1, v0=0, v1=0, avgReward=0", t, func() {
		spec := testSpec(t.TempDir())
		spec.RewardAlpha = 0.1

		delta := float32(1) - 0 + 0 - 0
		avgReward := float32(0) + spec.RewardAlpha*delta
		Convey("delta is 1 and avgReward becomes 0.1", func() {
			So(delta, ShouldEqual, float32(1))
			So(avgReward, ShouldAlmostEqual, 0.1, 1e-6)
		})

		Convey("Feeding the same update twice more converges per spec scenario 5", func() {
			avgReward += spec.RewardAlpha * (1 - avgReward)
			So(avgReward, ShouldAlmostEqual, 0.19, 1e-5)
			avgReward += spec.RewardAlpha * (1 - avgReward)
			So(avgReward, ShouldAlmostEqual, 0.271, 1e-5)
		})
	})
}

func TestObserveTrainsAfterNumSteps(t *testing.T) {
	Convey("Given an agent with numSteps=3", t, func() {
		a, err := New(testSpec(t.TempDir()), nil)
		So(err, ShouldBeNil)

		obs := tensor.NewFromRows([][]float32{{0.1, 0.2, 0.3}})
		next := tensor.NewFromRows([][]float32{{0.2, 0.1, 0.0}})
		mask := a.ActionMask("dir", 1)

		for i := 0; i < 3; i++ {
			err := a.Observe(obs, map[string]*tensor.Array{"dir": mask}, 1.0, next)
			So(err, ShouldBeNil)
		}

		Convey("The trajectory is cleared and avgReward moved off zero", func() {
			So(len(a.trajectory), ShouldEqual, 0)
			So(a.AvgReward(), ShouldNotEqual, float32(0))
		})
	})
}

func TestTrainResetsTracesBeforeEachTrajectory(t *testing.T) {
	Convey("Given two identically seeded agents, one with stale leftover traces", t, func() {
		spec := testSpec(t.TempDir())
		clean, err := New(spec, nil)
		So(err, ShouldBeNil)
		stale, err := New(testSpec(t.TempDir()), nil)
		So(err, ShouldBeNil)

		// Simulate a prior trajectory's traces that were never reset.
		for _, p := range allParams(stale.net) {
			for i := range p.Trace.Data {
				p.Trace.Data[i] = 999
			}
		}

		obs := tensor.NewFromRows([][]float32{{0.1, 0.2, 0.3}})
		next := tensor.NewFromRows([][]float32{{0.2, 0.1, 0.0}})
		cleanMask := clean.ActionMask("dir", 1)
		staleMask := stale.ActionMask("dir", 1)
		for i := 0; i < 3; i++ {
			So(clean.Observe(obs, map[string]*tensor.Array{"dir": cleanMask}, 1.0, next), ShouldBeNil)
			So(stale.Observe(obs, map[string]*tensor.Array{"dir": staleMask}, 1.0, next), ShouldBeNil)
		}

		Convey("training converges to identical weights regardless of the stale trace", func() {
			cleanParams := clean.net.NamedParams()
			staleParams := stale.net.NamedParams()
			for name, p := range cleanParams {
				sp, ok := staleParams[name]
				So(ok, ShouldBeTrue)
				So(sp.Value.Data, ShouldResemble, p.Value.Data)
			}
		})
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	Convey("Given a trained agent saved to disk", t, func() {
		dir := t.TempDir()
		spec := testSpec(dir)
		a, err := New(spec, nil)
		So(err, ShouldBeNil)

		obs := tensor.NewFromRows([][]float32{{0.1, 0.2, 0.3}})
		next := tensor.NewFromRows([][]float32{{0.2, 0.1, 0.0}})
		mask := a.ActionMask("dir", 0)
		for i := 0; i < 3; i++ {
			So(a.Observe(obs, map[string]*tensor.Array{"dir": mask}, 1.0, next), ShouldBeNil)
		}
		So(a.Save(), ShouldBeNil)

		Convey("Load reconstructs identical weights and avgReward", func() {
			reloaded, err := Load(spec)
			So(err, ShouldBeNil)
			So(reloaded.AvgReward(), ShouldAlmostEqual, a.AvgReward(), 1e-9)

			origParams := a.net.NamedParams()
			loadedParams := reloaded.net.NamedParams()
			So(len(loadedParams), ShouldEqual, len(origParams))
			for name, p := range origParams {
				lp, ok := loadedParams[name]
				So(ok, ShouldBeTrue)
				So(lp.Value.Data, ShouldResemble, p.Value.Data)
			}
		})

		Convey("A second Save backs up the prior agent.bin exactly once", func() {
			So(a.Save(), ShouldBeNil) // direct Save doesn't back up
			files, err := filepath.Glob(filepath.Join(dir, "agent-*.bin"))
			So(err, ShouldBeNil)
			So(len(files), ShouldEqual, 0) // only autosave triggers backup

			So(a.autosave(), ShouldBeNil)
			So(a.autosave(), ShouldBeNil)
			files, err = filepath.Glob(filepath.Join(dir, "agent-*.bin"))
			So(err, ShouldBeNil)
			So(len(files), ShouldEqual, 1)
		})
	})
}

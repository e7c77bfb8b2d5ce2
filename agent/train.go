package agent

import (
	"time"

	"wheelly/kpi"
	"wheelly/tensor"
)

// train runs the full mini-batch TD(λ) training algorithm over the current
// trajectory, per spec §4.5.
func (a *Agent) train() error {
	n := len(a.trajectory)
	if n == 0 {
		return nil
	}

	// Eligibility traces reset at the start of each trajectory, per spec
	// §3/§4.4: they accumulate only within one trajectory's training pass,
	// never across trajectories.
	a.ResetTraces()

	for epoch := 0; epoch < a.spec.NumEpochs; epoch++ {
		for start := 0; start < n; start += a.spec.BatchSize {
			end := start + a.spec.BatchSize
			if end > n {
				end = n
			}
			if err := a.trainBatch(epoch, start, end); err != nil {
				return err
			}
		}
		a.savingStepCounter++
		if a.spec.SavingIntervalSteps > 0 && a.savingStepCounter >= a.spec.SavingIntervalSteps {
			if err := a.autosave(); err != nil {
				return err
			}
			a.savingStepCounter = 0
		}
	}
	return nil
}

// trainBatch implements spec §4.5's five numbered steps for one mini-batch
// [start, end) of the trajectory.
func (a *Agent) trainBatch(epoch, start, end int) error {
	batch := a.trajectory[start:end]

	// 1. Forward-pass all n+1 states once to obtain critic values and
	// policy outputs on the first n.
	values := make([]float32, len(batch)+1)
	policies := make([]map[string]*tensor.Array, len(batch))

	for i, st := range batch {
		a.net.SetInput("obs", st.obs)
		values[i] = a.net.Forward(criticNode).At(0, 0)
		heads := make(map[string]*tensor.Array, len(a.spec.Actions))
		for _, action := range a.spec.Actions {
			heads[action.Name] = a.net.Forward(actionNode(action.Name))
		}
		policies[i] = heads
	}
	a.net.SetInput("obs", batch[len(batch)-1].nextObs)
	values[len(batch)] = a.net.Forward(criticNode).At(0, 0)

	for i, st := range batch {
		// 2. Sequential delta with running avgReward.
		delta := st.reward - a.avgReward.Load() + values[i+1] - values[i]
		a.avgReward.Add(a.spec.RewardAlpha * delta)

		// 3. Build per-head output gradients.
		a.net.SetInput("obs", st.obs)
		a.net.Forward(criticNode)
		for _, action := range a.spec.Actions {
			a.net.Forward(actionNode(action.Name))
		}

		grads := map[string]*tensor.Array{
			criticNode: constantArray(1, 1, a.spec.alphaFor("critic")),
		}
		for _, action := range a.spec.Actions {
			mask := st.actionMasks[action.Name]
			pi := policies[i][action.Name]
			alpha := a.spec.alphaFor(action.Name)
			grads[actionNode(action.Name)] = policyGradient(mask, pi, alpha)
		}

		// 4. Backward pass, feeding delta as the scalar TD error into each
		// parameter's trace and weight update.
		a.net.BackwardMulti(grads)
		for _, p := range allParams(a.net) {
			p.DecayTrace(a.spec.Lambda)
			p.ApplyTD(1, delta)
		}

		// 5. Emit a KPI record.
		if a.sink != nil {
			rec := kpi.NewRecord("training", int64(start+i)).
				Set("delta", float64(delta)).
				Set("avgReward", float64(a.avgReward.Load())).
				Set("epoch", float64(epoch)).
				Set("step", float64(start+i))
			rec.Timestamp = time.Now()
			if err := a.sink.Write(rec); err != nil {
				return err
			}
		}
	}

	return nil
}

// policyGradient builds dL/dpi_k = (mask_k / pi_k) * alpha, the policy-
// gradient output seed of spec §4.5 step 3.
func policyGradient(mask, pi *tensor.Array, alpha float32) *tensor.Array {
	out := tensor.New(pi.Rows, pi.Cols)
	for i := range out.Data {
		p := pi.Data[i]
		if p == 0 {
			continue
		}
		out.Data[i] = mask.Data[i] / p * alpha
	}
	return out
}

// constantArray returns a rows x cols array filled with v, for the constant
// critic output gradient (spec §4.5: "critic = alpha_critic . 1").
func constantArray(rows, cols int, v float32) *tensor.Array {
	out := tensor.New(rows, cols)
	out.Fill(v)
	return out
}

// ResetTraces zeroes every parameter's eligibility trace; call this at the
// start of a new trajectory/episode, per spec §4.4.
func (a *Agent) ResetTraces() {
	for _, p := range allParams(a.net) {
		p.ResetTraces()
	}
}

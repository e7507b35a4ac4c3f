package pendulum

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/softlearn/gosac/environment"
	"github.com/softlearn/gosac/timestep"
)

func testStarter() environment.Starter {
	return environment.NewUniformStarter([]r1.Interval{
		{Min: -AngleBound, Max: AngleBound},
		{Min: -1.0, Max: 1.0},
	}, 42)
}

func TestSwingUpEpisode(t *testing.T) {
	const maxSteps = 50

	env, first, err := NewSwingUp(testStarter(), maxSteps, 0.99)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}
	if !first.First() {
		t.Error("environment did not start at a first timestep")
	}
	if first.Observation.Len() != ObservationDims {
		t.Fatalf("wrong observation dimensions \n\twant(%v)\n\thave(%v)",
			ObservationDims, first.Observation.Len())
	}

	action := mat.NewVecDense(1, []float64{1.0})
	var step timestep.TimeStep
	var done bool
	for i := 1; i <= maxSteps; i++ {
		step, done = env.Step(action)

		if step.Number != i {
			t.Fatalf("wrong step number \n\twant(%v)\n\thave(%v)", i,
				step.Number)
		}
		if done != (i == maxSteps) {
			t.Fatalf("step %v: wrong episode end flag \n\thave(%v)", i,
				done)
		}

		if step.Reward > 0 {
			t.Errorf("step %v: rewards are never positive \n\thave(%v)",
				i, step.Reward)
		}

		obs := step.Observation
		if math.Abs(obs.AtVec(0)) > 1 || math.Abs(obs.AtVec(1)) > 1 {
			t.Errorf("step %v: angle observation outside [-1, 1] "+
				"\n\thave(%v, %v)", i, obs.AtVec(0), obs.AtVec(1))
		}
		if math.Abs(obs.AtVec(2)) > SpeedBound {
			t.Errorf("step %v: angular velocity outside bounds "+
				"\n\thave(%v)", i, obs.AtVec(2))
		}
	}

	// The cutoff is a time limit, not a terminal state
	if !step.Last() {
		t.Error("episode did not end at the step limit")
	}
	if step.TerminalEnd() {
		t.Error("a step limit cutoff should not be terminal")
	}
	if step.Discount == 0 {
		t.Error("a step limit cutoff should keep a nonzero discount")
	}

	next := env.Reset()
	if !next.First() || next.Number != 0 {
		t.Error("reset did not produce a fresh first timestep")
	}
}

func TestSwingUpRejectsNonPositiveStepLimit(t *testing.T) {
	if _, _, err := NewSwingUp(testStarter(), 0, 0.99); err == nil {
		t.Error("expected an error for a step limit of 0")
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct{ in, out float64 }{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{2 * math.Pi, 0},
		{3 * math.Pi, -math.Pi},
		{-math.Pi / 2, -math.Pi / 2},
		{5 * math.Pi / 2, math.Pi / 2},
		{-5 * math.Pi / 2, -math.Pi / 2},
	}
	for _, c := range cases {
		if have := normalizeAngle(c.in); math.Abs(have-c.out) > 1e-12 {
			t.Errorf("normalizeAngle(%v): \n\twant(%v)\n\thave(%v)", c.in,
				c.out, have)
		}
	}
}

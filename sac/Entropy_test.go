package sac

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/softlearn/gosac/solver"
)

func TestFixedEntropy(t *testing.T) {
	entropy, err := newFixedEntropy(0.2)
	if err != nil {
		t.Fatalf("could not create fixed entropy coefficient: %v", err)
	}

	alpha, loss, err := entropy.update([]float64{-1.0, -2.0, -3.0})
	if err != nil {
		t.Fatalf("could not update: %v", err)
	}
	if alpha != 0.2 {
		t.Errorf("fixed coefficient changed \n\twant(0.2)\n\thave(%v)",
			alpha)
	}
	if !math.IsNaN(loss) {
		t.Errorf("fixed coefficient should report a NaN loss "+
			"\n\thave(%v)", loss)
	}
}

func TestFixedEntropyRejectsNonPositive(t *testing.T) {
	for _, alpha := range []float64{0.0, -0.5} {
		if _, err := newFixedEntropy(alpha); err == nil {
			t.Errorf("expected an error for coefficient %v", alpha)
		}
	}
}

// TestLearnedEntropyStep verifies one exact gradient descent step on
// logα. The coefficient loss is -logα*(mean(logπ) + targetEntropy), so
// its gradient with respect to logα is -(mean(logπ) + targetEntropy)
// and a vanilla step from logα = 0 lands at lr*(mean(logπ) +
// targetEntropy).
func TestLearnedEntropyStep(t *testing.T) {
	const lr = 0.1
	const targetEntropy = -2.0

	sol, err := solver.NewVanilla(lr, 1)
	if err != nil {
		t.Fatalf("could not create solver: %v", err)
	}
	entropy, err := newLearnedEntropy(targetEntropy, sol)
	if err != nil {
		t.Fatalf("could not create entropy coefficient: %v", err)
	}

	logPi := []float64{-1.0, -3.0, -2.5, -0.5}
	alpha, loss, err := entropy.update(logPi)
	if err != nil {
		t.Fatalf("could not update: %v", err)
	}

	// logα starts at 0, so the pre-step loss is exactly 0
	if loss != 0 {
		t.Errorf("expected zero initial loss \n\thave(%v)", loss)
	}

	m := stat.Mean(logPi, nil) + targetEntropy
	expected := math.Exp(lr * m)
	if math.Abs(alpha-expected) > 1e-12 {
		t.Errorf("wrong coefficient after one step \n\twant(%v)"+
			"\n\thave(%v)", expected, alpha)
	}
}

// TestLearnedEntropyStaysPositive drives logα with large entropy
// errors in both directions and checks that the coefficient never
// leaves (0, inf)
func TestLearnedEntropyStaysPositive(t *testing.T) {
	sol, err := solver.NewVanilla(0.5, 1)
	if err != nil {
		t.Fatalf("could not create solver: %v", err)
	}
	entropy, err := newLearnedEntropy(-2.0, sol)
	if err != nil {
		t.Fatalf("could not create entropy coefficient: %v", err)
	}

	for i, logPi := range [][]float64{
		{10.0, 12.0}, {-10.0, -12.0}, {5.0, -5.0}, {-30.0, -30.0},
	} {
		alpha, _, err := entropy.update(logPi)
		if err != nil {
			t.Fatalf("update %v: %v", i, err)
		}
		if alpha <= 0 || math.IsInf(alpha, 0) || math.IsNaN(alpha) {
			t.Errorf("update %v: coefficient left (0, inf) \n\thave(%v)",
				i, alpha)
		}
	}
}

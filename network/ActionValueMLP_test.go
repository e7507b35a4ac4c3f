package network

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
)

// A linear action-value network with all-ones weights and zero biases
// predicts the sum of its observation and action features, which pins
// down the forward pass exactly.
func TestActionValueMLPForward(t *testing.T) {
	g := G.NewGraph()
	q, err := NewActionValueMLP(2, 1, 2, g, nil, nil, G.Ones(), nil, "Q")
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	if err := q.SetInput([]float64{1.0, 2.0, 3.0, 4.0}); err != nil {
		t.Fatalf("could not set observations: %v", err)
	}
	if err := q.SetActions([]float64{0.5, -0.5}); err != nil {
		t.Fatalf("could not set actions: %v", err)
	}

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run graph: %v", err)
	}

	predictions := q.Output().Data().([]float64)
	expected := []float64{3.5, 6.5}
	if len(predictions) != len(expected) {
		t.Fatalf("wrong number of predictions \n\twant(%v)\n\thave(%v)",
			len(expected), len(predictions))
	}
	for i := range expected {
		if math.Abs(predictions[i]-expected[i]) > 1e-12 {
			t.Errorf("prediction %v: \n\twant(%v)\n\thave(%v)", i,
				expected[i], predictions[i])
		}
	}
}

func TestActionValueMLPInputChecks(t *testing.T) {
	g := G.NewGraph()
	q, err := NewActionValueMLP(2, 1, 2, g, nil, nil, G.Ones(), nil, "Q")
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	if err := q.SetInput([]float64{1.0}); err == nil {
		t.Error("expected an error for a short observation batch")
	}
	if err := q.SetActions([]float64{1.0, 2.0, 3.0}); err == nil {
		t.Error("expected an error for an oversized action batch")
	}
}

// Externally owned inputs reject direct input setting
func TestActionValueMLPFromInputsOwnership(t *testing.T) {
	g := G.NewGraph()
	owner, err := NewActionValueMLP(2, 1, 2, g, nil, nil, G.Ones(),
		nil, "Owner")
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	q, err := NewActionValueMLPFromInputs(owner.ObservationInput(),
		owner.ActionInput(), g, nil, nil, G.Ones(), nil, "Shared")
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	if err := q.SetInput([]float64{1.0, 2.0, 3.0, 4.0}); err == nil {
		t.Error("expected an error setting observations on shared inputs")
	}
	if err := q.SetActions([]float64{0.5, -0.5}); err == nil {
		t.Error("expected an error setting actions on shared inputs")
	}
}

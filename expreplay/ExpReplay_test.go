package expreplay

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/softlearn/gosac/timestep"
)

func transition(value float64, terminal bool) timestep.Transition {
	return timestep.Transition{
		State:     mat.NewVecDense(2, []float64{value, value + 0.5}),
		Action:    mat.NewVecDense(1, []float64{-value}),
		Reward:    value * 10,
		Terminal:  terminal,
		NextState: mat.NewVecDense(2, []float64{value + 1, value + 1.5}),
	}
}

func TestBufferSampleErrors(t *testing.T) {
	buffer, err := New(2, 1, 8, 3, 2, 42)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	_, _, _, _, _, err = buffer.Sample()
	if !IsEmptyBuffer(err) {
		t.Errorf("expected an empty buffer error \n\thave(%v)", err)
	}

	if err := buffer.Add(transition(1, false)); err != nil {
		t.Fatalf("could not add: %v", err)
	}
	_, _, _, _, _, err = buffer.Sample()
	if !IsInsufficientSamples(err) {
		t.Errorf("expected an insufficient samples error \n\thave(%v)", err)
	}

	if err := buffer.Add(transition(2, false)); err != nil {
		t.Fatalf("could not add: %v", err)
	}
	if err := buffer.Add(transition(3, true)); err != nil {
		t.Fatalf("could not add: %v", err)
	}
	if _, _, _, _, _, err := buffer.Sample(); err != nil {
		t.Errorf("unexpected error sampling a filled buffer: %v", err)
	}
}

func TestBufferSampleShapes(t *testing.T) {
	buffer, err := New(2, 1, 8, 1, 4, 42)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	if err := buffer.Add(transition(1, true)); err != nil {
		t.Fatalf("could not add: %v", err)
	}

	obs, actions, rewards, terminals, nextObs, err := buffer.Sample()
	if err != nil {
		t.Fatalf("could not sample: %v", err)
	}
	if len(obs) != 8 || len(nextObs) != 8 {
		t.Errorf("wrong observation batch sizes \n\twant(8, 8)"+
			"\n\thave(%v, %v)", len(obs), len(nextObs))
	}
	if len(actions) != 4 {
		t.Errorf("wrong action batch size \n\twant(4)\n\thave(%v)",
			len(actions))
	}
	if len(rewards) != 4 || len(terminals) != 4 {
		t.Errorf("wrong scalar batch sizes \n\twant(4, 4)\n\thave(%v, %v)",
			len(rewards), len(terminals))
	}

	// Only one stored transition, so every sampled row repeats it
	for i := 0; i < 4; i++ {
		if obs[i*2] != 1.0 || obs[i*2+1] != 1.5 {
			t.Errorf("row %v: wrong observation \n\thave(%v, %v)", i,
				obs[i*2], obs[i*2+1])
		}
		if actions[i] != -1.0 {
			t.Errorf("row %v: wrong action \n\thave(%v)", i, actions[i])
		}
		if rewards[i] != 10.0 {
			t.Errorf("row %v: wrong reward \n\thave(%v)", i, rewards[i])
		}
		if terminals[i] != 1.0 {
			t.Errorf("row %v: wrong terminal flag \n\thave(%v)", i,
				terminals[i])
		}
		if nextObs[i*2] != 2.0 || nextObs[i*2+1] != 2.5 {
			t.Errorf("row %v: wrong next observation \n\thave(%v, %v)", i,
				nextObs[i*2], nextObs[i*2+1])
		}
	}
}

func TestBufferFifoEviction(t *testing.T) {
	buffer, err := New(2, 1, 2, 1, 1, 42)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := buffer.Add(transition(float64(i), false)); err != nil {
			t.Fatalf("could not add: %v", err)
		}
	}
	if buffer.Capacity() != 2 {
		t.Fatalf("wrong capacity \n\twant(2)\n\thave(%v)",
			buffer.Capacity())
	}

	// The first transition was evicted, so only rewards 20 and 30
	// can ever be sampled
	for i := 0; i < 20; i++ {
		_, _, rewards, _, _, err := buffer.Sample()
		if err != nil {
			t.Fatalf("could not sample: %v", err)
		}
		if rewards[0] != 20.0 && rewards[0] != 30.0 {
			t.Fatalf("sampled an evicted transition \n\thave(%v)",
				rewards[0])
		}
	}
}

func TestBufferInvalidConfigurations(t *testing.T) {
	cases := []struct {
		name                                string
		maxCapacity, minCapacity, batchSize int
	}{
		{"zero min capacity", 8, 0, 1},
		{"zero max capacity", 0, 1, 1},
		{"zero batch size", 8, 1, 0},
	}

	for _, c := range cases {
		if _, err := New(2, 1, c.maxCapacity, c.minCapacity,
			c.batchSize, 42); err == nil {
			t.Errorf("%v: expected an error", c.name)
		}
	}

	// Sampling is with replacement, so the batch size may exceed both
	// capacities
	if _, err := New(2, 1, 2, 2, 4, 42); err != nil {
		t.Errorf("batch above capacities should be valid \n\thave(%v)", err)
	}
}

func TestBufferRejectsWrongShapes(t *testing.T) {
	buffer, err := New(2, 1, 8, 1, 1, 42)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	bad := transition(1, false)
	bad.Action = mat.NewVecDense(3, nil)
	if err := buffer.Add(bad); err == nil {
		t.Error("expected an error for a wrongly sized action")
	}

	bad = transition(1, false)
	bad.State = mat.NewVecDense(5, nil)
	if err := buffer.Add(bad); err == nil {
		t.Error("expected an error for a wrongly sized observation")
	}
}

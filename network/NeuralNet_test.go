package network

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
)

// testNet returns a single-layer linear network whose every weight is
// init
func testNet(t *testing.T, init G.InitWFn, prefix string) NeuralNet {
	t.Helper()

	net, err := NewSingleHeadMLP(3, 1, G.NewGraph(), nil, nil, init, nil,
		prefix)
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}
	return net
}

func TestSetCopiesWeights(t *testing.T) {
	dest := testNet(t, G.Zeroes(), "Dest")
	src := testNet(t, G.Ones(), "Src")

	if err := Set(dest, src); err != nil {
		t.Fatalf("could not set weights: %v", err)
	}

	destWeights := WeightValues(dest)
	srcWeights := WeightValues(src)
	for i := range destWeights {
		for j := range destWeights[i] {
			if destWeights[i][j] != srcWeights[i][j] {
				t.Errorf("learnable %v value %v: \n\twant(%v)\n\thave(%v)",
					i, j, srcWeights[i][j], destWeights[i][j])
			}
		}
	}

	// Set must deep copy so that later changes to src do not leak
	// into dest
	modified := WeightValues(src)
	for i := range modified {
		for j := range modified[i] {
			modified[i][j] = 123.0
		}
	}
	if err := SetWeightValues(src, modified); err != nil {
		t.Fatalf("could not modify source weights: %v", err)
	}
	for i, learnable := range WeightValues(dest) {
		for j, weight := range learnable {
			if weight == 123.0 {
				t.Fatalf("learnable %v value %v aliases the source", i, j)
			}
		}
	}
}

func TestPolyak(t *testing.T) {
	const tau = 0.25

	dest := testNet(t, G.ValuesOf(2.0), "Dest")
	src := testNet(t, G.ValuesOf(10.0), "Src")

	before := WeightValues(dest)
	srcWeights := WeightValues(src)

	if err := Polyak(dest, src, tau); err != nil {
		t.Fatalf("could not update weights: %v", err)
	}

	for i, learnable := range WeightValues(dest) {
		for j, weight := range learnable {
			expected := tau*srcWeights[i][j] + (1.0-tau)*before[i][j]
			if math.Abs(weight-expected) > 1e-12 {
				t.Errorf("learnable %v value %v: \n\twant(%v)\n\thave(%v)",
					i, j, expected, weight)
			}
		}
	}
}

// Full synchronization at rate 1 must reproduce the source exactly
func TestPolyakFullSync(t *testing.T) {
	dest := testNet(t, G.ValuesOf(-3.5), "Dest")
	src := testNet(t, G.ValuesOf(7.25), "Src")

	if err := Polyak(dest, src, 1.0); err != nil {
		t.Fatalf("could not update weights: %v", err)
	}

	srcWeights := WeightValues(src)
	for i, learnable := range WeightValues(dest) {
		for j, weight := range learnable {
			if weight != srcWeights[i][j] {
				t.Errorf("learnable %v value %v: \n\twant(%v)\n\thave(%v)",
					i, j, srcWeights[i][j], weight)
			}
		}
	}
}

func TestSetWeightValuesRoundTrip(t *testing.T) {
	net := testNet(t, G.GlorotU(1.0), "Net")

	weights := WeightValues(net)
	other := testNet(t, G.Zeroes(), "Other")
	if err := SetWeightValues(other, weights); err != nil {
		t.Fatalf("could not set weights: %v", err)
	}

	otherWeights := WeightValues(other)
	for i := range weights {
		for j := range weights[i] {
			if weights[i][j] != otherWeights[i][j] {
				t.Errorf("learnable %v value %v: \n\twant(%v)\n\thave(%v)",
					i, j, weights[i][j], otherWeights[i][j])
			}
		}
	}
}

func TestSetInputLengthCheck(t *testing.T) {
	net := testNet(t, G.Zeroes(), "Net")

	if err := net.SetInput([]float64{1.0, 2.0}); err == nil {
		t.Error("expected an error for a short input")
	}
	if err := net.SetInput([]float64{1.0, 2.0, 3.0}); err != nil {
		t.Errorf("unexpected error for a full input: %v", err)
	}
}

package solver

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// clipFixture builds a one-learnable graph whose gradient after one
// run is exactly 20*w, so w = (30, 40) produces a gradient of
// (600, 800) with norm 1000
func clipFixture(t *testing.T) (G.VM, []G.ValueGrad) {
	t.Helper()

	g := G.NewGraph()
	w := G.NewVector(
		g,
		tensor.Float64,
		G.WithShape(2),
		G.WithName("w"),
		G.WithValue(tensor.New(
			tensor.WithBacking([]float64{30.0, 40.0}),
			tensor.WithShape(2),
		)),
	)

	loss := G.Must(G.HadamardProd(w, w))
	loss = G.Must(G.Sum(loss))
	loss = G.Must(G.Mul(G.NewConstant(10.0), loss))

	if _, err := G.Grad(loss, w); err != nil {
		t.Fatalf("could not compute gradient: %v", err)
	}

	vm := G.NewTapeMachine(g, G.BindDualValues(w))
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run graph: %v", err)
	}

	return vm, []G.ValueGrad{w}
}

func TestClipGradNorm(t *testing.T) {
	vm, model := clipFixture(t)
	defer vm.Close()

	norm, err := ClipGradNorm(model, 100.0)
	if err != nil {
		t.Fatalf("could not clip: %v", err)
	}
	if math.Abs(norm-1000.0) > 1e-9 {
		t.Errorf("wrong pre-clip norm \n\twant(1000)\n\thave(%v)", norm)
	}

	grads, err := gradData(model)
	if err != nil {
		t.Fatalf("could not get gradients: %v", err)
	}
	expected := []float64{60.0, 80.0}
	for i, grad := range grads[0] {
		if math.Abs(grad-expected[i]) > 1e-9 {
			t.Errorf("gradient %v: \n\twant(%v)\n\thave(%v)", i,
				expected[i], grad)
		}
	}
}

func TestClipGradNormBelowCeiling(t *testing.T) {
	vm, model := clipFixture(t)
	defer vm.Close()

	norm, err := ClipGradNorm(model, 1e6)
	if err != nil {
		t.Fatalf("could not clip: %v", err)
	}
	if math.Abs(norm-1000.0) > 1e-9 {
		t.Errorf("wrong norm \n\twant(1000)\n\thave(%v)", norm)
	}

	// Below the ceiling the gradients are untouched
	grads, err := gradData(model)
	if err != nil {
		t.Fatalf("could not get gradients: %v", err)
	}
	expected := []float64{600.0, 800.0}
	for i, grad := range grads[0] {
		if math.Abs(grad-expected[i]) > 1e-9 {
			t.Errorf("gradient %v: \n\twant(%v)\n\thave(%v)", i,
				expected[i], grad)
		}
	}
}

func TestZeroGrads(t *testing.T) {
	vm, model := clipFixture(t)
	defer vm.Close()

	ZeroGrads(model)

	grads, err := gradData(model)
	if err != nil {
		t.Fatalf("could not get gradients: %v", err)
	}
	for i, grad := range grads[0] {
		if grad != 0 {
			t.Errorf("gradient %v not zeroed \n\thave(%v)", i, grad)
		}
	}
}

// ZeroGrads must tolerate learnables whose gradients have never been
// allocated by a backward pass
func TestZeroGradsUnallocated(t *testing.T) {
	g := G.NewGraph()
	w := G.NewVector(
		g,
		tensor.Float64,
		G.WithShape(2),
		G.WithName("w"),
		G.WithInit(G.Zeroes()),
	)

	ZeroGrads([]G.ValueGrad{w})
}

// ZeroGrads must tolerate a learnable with bound dual values whose tape
// machine has not yet run, in which case Grad returns a nil gradient
// value with a nil error
func TestZeroGradsBeforeFirstRun(t *testing.T) {
	g := G.NewGraph()
	w := G.NewVector(
		g,
		tensor.Float64,
		G.WithShape(2),
		G.WithName("w"),
		G.WithValue(tensor.New(
			tensor.WithBacking([]float64{30.0, 40.0}),
			tensor.WithShape(2),
		)),
	)

	loss := G.Must(G.HadamardProd(w, w))
	loss = G.Must(G.Sum(loss))

	if _, err := G.Grad(loss, w); err != nil {
		t.Fatalf("could not compute gradient: %v", err)
	}
	vm := G.NewTapeMachine(g, G.BindDualValues(w))
	defer vm.Close()

	model := []G.ValueGrad{w}
	ZeroGrads(model)

	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run graph: %v", err)
	}
	if _, err := ClipGradNorm(model, 1e6); err != nil {
		t.Fatalf("could not clip after running: %v", err)
	}
}

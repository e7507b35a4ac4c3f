package sac

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/softlearn/gosac/solver"
)

// entropyCoefficient is the entropy weight α in the maximum-entropy
// objective. The coefficient is either a fixed constant or a learned
// parameter logα trained so that the policy's entropy tracks a target;
// in both cases α > 0 by construction.
//
// update consumes the log probabilities of the actions just sampled on
// the current observations, performs one coefficient gradient step if
// the coefficient is learned, and returns the coefficient along with
// the value of the coefficient loss. Fixed coefficients report a
// not-a-number loss, marking the metric as not applicable.
type entropyCoefficient interface {
	update(logPi []float64) (alpha, loss float64, err error)
}

// fixedEntropy is a constant entropy coefficient
type fixedEntropy struct {
	alpha float64
}

func newFixedEntropy(alpha float64) (*fixedEntropy, error) {
	if alpha <= 0 {
		return nil, fmt.Errorf("newfixedentropy: entropy coefficient "+
			"must be positive \n\thave(%v)", alpha)
	}
	return &fixedEntropy{alpha: alpha}, nil
}

func (f *fixedEntropy) update([]float64) (float64, float64, error) {
	return f.alpha, math.NaN(), nil
}

// learnedEntropy is an entropy coefficient α = exp(logα), where logα
// is trained with its own solver to minimize
//
//	loss = -mean(logα * (log π(a|s) + targetEntropy))
//
// treating the log probabilities as constants. The coefficient grows
// while the policy's entropy is below target and shrinks otherwise.
type learnedEntropy struct {
	g        *G.ExprGraph
	logAlpha *G.Node

	// Input node holding mean(log π) + targetEntropy, precomputed
	// outside the graph since no gradient flows through it
	entropyErr *G.Node

	lossVal G.Value
	vm      G.VM
	sol     G.Solver
	model   []G.ValueGrad

	targetEntropy float64
}

// newLearnedEntropy returns a learned entropy coefficient initialized
// at α = 1 (logα = 0)
func newLearnedEntropy(targetEntropy float64,
	sol *solver.Solver) (*learnedEntropy, error) {
	if sol == nil {
		return nil, fmt.Errorf("newlearnedentropy: no solver given")
	}

	g := G.NewGraph()

	// logα is a length-1 vector, not a scalar, so that its gradient
	// is float64-slice-backed like every other learnable
	logAlpha := G.NewVector(
		g,
		tensor.Float64,
		G.WithShape(1),
		G.WithName("LogAlpha"),
		G.WithInit(G.Zeroes()),
	)
	entropyErr := G.NewScalar(
		g,
		tensor.Float64,
		G.WithName("EntropyError"),
	)

	loss := G.Must(G.Mul(G.Must(G.Sum(logAlpha)), entropyErr))
	loss = G.Must(G.Neg(loss))

	e := &learnedEntropy{
		g:             g,
		logAlpha:      logAlpha,
		entropyErr:    entropyErr,
		sol:           sol.Create(),
		model:         []G.ValueGrad{logAlpha},
		targetEntropy: targetEntropy,
	}
	G.Read(loss, &e.lossVal)

	if _, err := G.Grad(loss, logAlpha); err != nil {
		return nil, fmt.Errorf("newlearnedentropy: could not compute "+
			"gradient: %v", err)
	}
	e.vm = G.NewTapeMachine(g, G.BindDualValues(logAlpha))

	if err := G.Let(entropyErr, 0.0); err != nil {
		return nil, fmt.Errorf("newlearnedentropy: could not initialize "+
			"entropy error: %v", err)
	}

	return e, nil
}

// alpha returns the current value of the coefficient
func (e *learnedEntropy) alpha() float64 {
	logAlpha := e.logAlpha.Value().Data().([]float64)[0]
	return math.Exp(logAlpha)
}

func (e *learnedEntropy) update(logPi []float64) (float64, float64,
	error) {
	err := G.Let(e.entropyErr, stat.Mean(logPi, nil)+e.targetEntropy)
	if err != nil {
		return 0, 0, fmt.Errorf("update: could not set entropy error: %v",
			err)
	}

	solver.ZeroGrads(e.model)
	if err := e.vm.RunAll(); err != nil {
		return 0, 0, fmt.Errorf("update: could not run coefficient "+
			"graph: %v", err)
	}
	loss := e.lossVal.Data().(float64)

	if err := e.sol.Step(e.model); err != nil {
		return 0, 0, fmt.Errorf("update: could not step coefficient "+
			"solver: %v", err)
	}
	e.vm.Reset()

	return e.alpha(), loss, nil
}

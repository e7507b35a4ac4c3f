package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
)

// gradData returns the backing data of every gradient in the model.
// The returned slices alias the gradient storage, so mutating them
// mutates the gradients a Solver will consume.
func gradData(model []G.ValueGrad) ([][]float64, error) {
	grads := make([][]float64, len(model))
	for i, vg := range model {
		grad, err := vg.Grad()
		if err != nil {
			return nil, fmt.Errorf("graddata: could not get gradient "+
				"%v: %v", i, err)
		}
		data, ok := grad.Data().([]float64)
		if !ok {
			return nil, fmt.Errorf("graddata: gradient %v is not float64 "+
				"backed", i)
		}
		grads[i] = data
	}
	return grads, nil
}

// ClipGradNorm rescales the gradients of a model in place so that
// their global L2 norm is at most maxNorm, treating all gradients of
// the model as a single flattened vector. The norm before clipping is
// returned so that it can be reported even when clipping occurred.
func ClipGradNorm(model []G.ValueGrad, maxNorm float64) (float64, error) {
	grads, err := gradData(model)
	if err != nil {
		return 0, fmt.Errorf("clipgradnorm: %v", err)
	}

	var sumSquares float64
	for _, data := range grads {
		d := floats.Dot(data, data)
		sumSquares += d
	}
	norm := math.Sqrt(sumSquares)

	if norm > maxNorm && norm > 0 {
		scale := maxNorm / norm
		for _, data := range grads {
			floats.Scale(scale, data)
		}
	}
	return norm, nil
}

// ZeroGrads zeroes the gradient accumulator of a model. Each network
// must zero only its own accumulator immediately before its own
// backward pass so that no stale gradients leak into the next solver
// step. Learnables whose gradients have not yet been allocated have
// nothing to zero and are skipped.
func ZeroGrads(model []G.ValueGrad) {
	for _, vg := range model {
		grad, err := vg.Grad()
		if err != nil || grad == nil {
			continue
		}
		data, ok := grad.Data().([]float64)
		if !ok {
			continue
		}
		for i := range data {
			data[i] = 0
		}
	}
}

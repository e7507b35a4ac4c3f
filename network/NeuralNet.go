// Package network implements neural network function approximators
// as Gorgonia expression graphs.
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet is a neural network whose forward pass has been added to
// a Gorgonia expression graph. A NeuralNet never owns a VM: the caller
// composes the net's graph with loss nodes and runs it with whatever
// machine it needs.
type NeuralNet interface {
	Graph() *G.ExprGraph
	BatchSize() int
	Features() int
	Outputs() int

	// SetInput sets the value of the network's input node before the
	// graph is run
	SetInput([]float64) error

	// Learnables returns the nodes holding the network's weights
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients
	Model() []G.ValueGrad

	// Prediction returns the node holding the network's output
	Prediction() *G.Node

	// Output returns the value of the Prediction node after the
	// graph has been run
	Output() G.Value
}

// Set sets the weights of dest to be equal to the weights of src. The
// two networks must have identical architectures.
func Set(dest, src NeuralNet) error {
	destNodes := dest.Learnables()
	srcNodes := src.Learnables()
	if len(destNodes) != len(srcNodes) {
		return fmt.Errorf("set: networks have different numbers of "+
			"learnables \n\twant(%v) \n\thave(%v)", len(destNodes),
			len(srcNodes))
	}

	for i, destNode := range destNodes {
		srcWeights, ok := srcNodes[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("set: learnable %v is not a dense tensor", i)
		}
		err := G.Let(destNode, srcWeights.Clone().(*tensor.Dense))
		if err != nil {
			return fmt.Errorf("set: could not set learnable %v: %v", i, err)
		}
	}
	return nil
}

// Polyak sets the weights of dest to an exponential moving average
// between its existing weights and the weights of src:
//
//	dest ← tau*src + (1 - tau)*dest
//
// computed elementwise for every pair of matching weight tensors.
func Polyak(dest, src NeuralNet, tau float64) error {
	destNodes := dest.Learnables()
	srcNodes := src.Learnables()
	if len(destNodes) != len(srcNodes) {
		return fmt.Errorf("polyak: networks have different numbers of "+
			"learnables \n\twant(%v) \n\thave(%v)", len(destNodes),
			len(srcNodes))
	}

	for i := range destNodes {
		weights := destNodes[i].Value().(*tensor.Dense)
		srcWeights := srcNodes[i].Value().(*tensor.Dense)

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return err
		}

		srcWeights, err = srcWeights.MulScalar(tau, true)
		if err != nil {
			return err
		}

		newWeights, err := weights.Add(srcWeights)
		if err != nil {
			return err
		}

		err = G.Let(destNodes[i], newWeights)
		if err != nil {
			return err
		}
	}
	return nil
}

// WeightValues returns a copy of the backing data of every learnable
// in the network, in Learnables() order. The returned slices are
// detached from the network and safe to serialize.
func WeightValues(net NeuralNet) [][]float64 {
	learnables := net.Learnables()
	weights := make([][]float64, len(learnables))
	for i, node := range learnables {
		data := node.Value().Data().([]float64)
		weights[i] = append([]float64(nil), data...)
	}
	return weights
}

// SetWeightValues sets every learnable of the network from weight data
// previously produced by WeightValues on an identically constructed
// network.
func SetWeightValues(net NeuralNet, weights [][]float64) error {
	learnables := net.Learnables()
	if len(learnables) != len(weights) {
		return fmt.Errorf("setWeightValues: invalid number of weight "+
			"tensors \n\twant(%v) \n\thave(%v)", len(learnables), len(weights))
	}

	for i, node := range learnables {
		shape := node.Shape()
		if shape.TotalSize() != len(weights[i]) {
			return fmt.Errorf("setWeightValues: weight tensor %v has "+
				"invalid size \n\twant(%v) \n\thave(%v)", i,
				shape.TotalSize(), len(weights[i]))
		}
		backing := append([]float64(nil), weights[i]...)
		err := G.Let(node, tensor.New(
			tensor.WithShape(shape...),
			tensor.WithBacking(backing),
		))
		if err != nil {
			return fmt.Errorf("setWeightValues: could not set learnable "+
				"%v: %v", i, err)
		}
	}
	return nil
}

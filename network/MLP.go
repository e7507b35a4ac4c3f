package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron. The MLP may be built on
// its own input node or on externally supplied input nodes, in which
// case multiple inputs are concatenated along the feature dimension
// before the first layer.
type mlp struct {
	g          *G.ExprGraph
	layers     []*fcLayer
	input      *G.Node // node fed to the first layer, possibly a concat
	inputs     []*G.Node
	ownsInputs bool

	numOutputs int
	numInputs  int
	batchSize  int

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// newMLPFromInputs returns a new MLP whose input is the argument
// node(s). If multiple input nodes are given, they are concatenated
// along the feature (column) dimension. A final linear layer of size
// outputs is always appended. The prefix names the weight nodes so
// that several networks can live on one graph.
func newMLPFromInputs(inputs []*G.Node, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string,
	ownsInputs bool) (*mlp, error) {

	if len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("newmlp: invalid number of activations"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		return nil, fmt.Errorf("newmlp: invalid number of biases"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(biases))
	}

	var input *G.Node
	if len(inputs) > 1 {
		input = G.Must(G.Concat(1, inputs...))
	} else {
		input = inputs[0]
	}
	if !input.IsMatrix() {
		return nil, fmt.Errorf("newmlp: input must be a matrix")
	}

	batch := input.Shape()[0]
	features := input.Shape()[1]

	// Final linear layer so that the network always predicts outputs
	// values per row
	hiddenSizes = append(append([]int(nil), hiddenSizes...), outputs)
	biases = append(append([]bool(nil), biases...), true)
	activations = append(append([]*Activation(nil), activations...),
		Identity())

	layers := addfcLayers(g, hiddenSizes, biases, activations, init,
		features, prefix)

	net := &mlp{
		g:          g,
		layers:     layers,
		input:      input,
		inputs:     inputs,
		ownsInputs: ownsInputs,
		numOutputs: outputs,
		numInputs:  features,
		batchSize:  batch,
	}
	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newmlp: could not compute forward pass: %v",
			err)
	}
	return net, nil
}

// NewMLPFromInputs returns a new MLP evaluated at externally owned
// input node(s); multiple inputs are concatenated along the feature
// dimension. SetInput cannot be used on the returned network: whoever
// owns the input nodes is responsible for giving them values.
func NewMLPFromInputs(inputs []*G.Node, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (NeuralNet, error) {
	for _, input := range inputs {
		if input.Graph() != g {
			return nil, fmt.Errorf("newmlpfrominputs: input nodes must " +
				"live on the argument graph")
		}
	}
	return newMLPFromInputs(inputs, outputs, g, hiddenSizes, biases, init,
		activations, prefix, false)
}

// NewMLP creates and returns a new multi-layered perceptron with its
// own input node of shape (batch, features). The network has
// len(hiddenSizes) + 1 layers: a final linear layer is always added so
// that each input row produces outputs predictions. The init parameter
// determines the weight initialization scheme, and prefix names the
// network's nodes on the graph.
func NewMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (NeuralNet, error) {

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName(prefix+"Input"),
		G.WithInit(G.Zeroes()),
	)

	return newMLPFromInputs([]*G.Node{input}, outputs, g, hiddenSizes,
		biases, init, activations, prefix, true)
}

// NewSingleHeadMLP is a convenience function for calling NewMLP with
// an output size of 1.
func NewSingleHeadMLP(features, batch int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (NeuralNet, error) {
	return NewMLP(features, batch, 1, g, hiddenSizes, biases, init,
		activations, prefix)
}

// fwd performs the forward pass of the mlp on the input node
func (e *mlp) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)
	return nil
}

// Graph returns the computational graph of the mlp
func (e *mlp) Graph() *G.ExprGraph {
	return e.g
}

// BatchSize returns the number of rows in an input batch
func (e *mlp) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single input row
func (e *mlp) Features() int {
	return e.numInputs
}

// Outputs returns the number of predictions per input row
func (e *mlp) Outputs() int {
	return e.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass. It is an error to call SetInput on a network built on
// externally supplied input nodes.
func (e *mlp) SetInput(input []float64) error {
	if !e.ownsInputs {
		return fmt.Errorf("setinput: network input is owned externally")
	}
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs"+
			"\n\twant(%v)\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Learnables returns the learnable nodes of the mlp
func (e *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		e.learnables = make(G.Nodes, 0, 2*len(e.layers))
		for i := range e.layers {
			e.learnables = append(e.learnables, e.layers[i].weights)
			if bias := e.layers[i].bias; bias != nil {
				e.learnables = append(e.learnables, bias)
			}
		}
	}
	return e.learnables
}

// Model returns the learnable nodes with their gradients
func (e *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		e.model = make([]G.ValueGrad, 0, 2*len(e.layers))
		for _, node := range e.Learnables() {
			e.model = append(e.model, node)
		}
	}
	return e.model
}

// Prediction returns the node of the computational graph that stores
// the output of the mlp
func (e *mlp) Prediction() *G.Node {
	return e.prediction
}

// Output returns the output of the mlp after its graph has been run
func (e *mlp) Output() G.Value {
	return e.predVal
}

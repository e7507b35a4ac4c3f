package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ActionValueMLP implements a state-action value function Q(s, a) as a
// fully connected network over the concatenation of an observation and
// an action. The observation and action enter through separate graph
// nodes. The action node may be supplied externally, so that another
// network's output (for example a policy's sampled action) can feed
// the critic within a single graph and gradients can flow through the
// action into that network's parameters.
type ActionValueMLP struct {
	*mlp
	obs        *G.Node
	actions    *G.Node
	actionDims int

	prediction *G.Node
	predVal    G.Value
}

// NewActionValueMLP returns a new ActionValueMLP with its own
// observation and action input nodes of shapes (batch, obsDims) and
// (batch, actionDims). Each input row produces a single scalar value
// estimate; Prediction() holds the batch of estimates as a vector.
func NewActionValueMLP(obsDims, actionDims, batch int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (*ActionValueMLP, error) {

	obs := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, obsDims),
		G.WithName(prefix+"Obs"),
		G.WithInit(G.Zeroes()),
	)
	actions := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, actionDims),
		G.WithName(prefix+"Actions"),
		G.WithInit(G.Zeroes()),
	)

	return newActionValueMLP(obs, actions, actionDims, g, hiddenSizes,
		biases, init, activations, prefix, true)
}

// NewActionValueMLPFromInputs returns a new ActionValueMLP evaluated
// at externally owned observation and action nodes. SetInput and
// SetActions cannot be used on the returned network; whoever owns the
// input nodes is responsible for giving them values.
func NewActionValueMLPFromInputs(obs, actions *G.Node, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (*ActionValueMLP, error) {

	if obs.Graph() != g || actions.Graph() != g {
		return nil, fmt.Errorf("newactionvaluemlp: input nodes must live " +
			"on the argument graph")
	}
	if !actions.IsMatrix() {
		return nil, fmt.Errorf("newactionvaluemlp: actions must be a matrix")
	}

	return newActionValueMLP(obs, actions, actions.Shape()[1], g,
		hiddenSizes, biases, init, activations, prefix, false)
}

func newActionValueMLP(obs, actions *G.Node, actionDims int,
	g *G.ExprGraph, hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string,
	ownsInputs bool) (*ActionValueMLP, error) {

	net, err := newMLPFromInputs([]*G.Node{obs, actions}, 1, g,
		hiddenSizes, biases, init, activations, prefix, ownsInputs)
	if err != nil {
		return nil, err
	}

	q := &ActionValueMLP{
		mlp:        net,
		obs:        obs,
		actions:    actions,
		actionDims: actionDims,
	}

	// Each row predicts one value; flatten (batch, 1) to a vector so
	// that downstream loss arithmetic works on batch-length vectors
	q.prediction = G.Must(G.Ravel(net.Prediction()))
	G.Read(q.prediction, &q.predVal)

	return q, nil
}

// ObservationInput returns the node holding the batch of observations
func (q *ActionValueMLP) ObservationInput() *G.Node {
	return q.obs
}

// ActionInput returns the node holding the batch of actions
func (q *ActionValueMLP) ActionInput() *G.Node {
	return q.actions
}

// ActionDims returns the number of action dimensions
func (q *ActionValueMLP) ActionDims() int {
	return q.actionDims
}

// SetInput sets the value of the observation input node
func (q *ActionValueMLP) SetInput(obs []float64) error {
	if !q.ownsInputs {
		return fmt.Errorf("setinput: network inputs are owned externally")
	}
	if len(obs) != q.batchSize*q.obs.Shape()[1] {
		return fmt.Errorf("setinput: invalid number of observations"+
			"\n\twant(%v)\n\thave(%v)", q.batchSize*q.obs.Shape()[1],
			len(obs))
	}
	return G.Let(q.obs, tensor.New(
		tensor.WithBacking(obs),
		tensor.WithShape(q.obs.Shape()...),
	))
}

// SetActions sets the value of the action input node
func (q *ActionValueMLP) SetActions(actions []float64) error {
	if !q.ownsInputs {
		return fmt.Errorf("setactions: network inputs are owned externally")
	}
	if len(actions) != q.batchSize*q.actionDims {
		return fmt.Errorf("setactions: invalid number of actions"+
			"\n\twant(%v)\n\thave(%v)", q.batchSize*q.actionDims,
			len(actions))
	}
	return G.Let(q.actions, tensor.New(
		tensor.WithBacking(actions),
		tensor.WithShape(q.actions.Shape()...),
	))
}

// Prediction returns the vector node holding the batch of value
// estimates
func (q *ActionValueMLP) Prediction() *G.Node {
	return q.prediction
}

// Output returns the batch of value estimates after the graph has been
// run
func (q *ActionValueMLP) Output() G.Value {
	return q.predVal
}

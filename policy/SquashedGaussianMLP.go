// Package policy implements stochastic policies parameterized by
// neural networks.
package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/softlearn/gosac/network"
	"github.com/softlearn/gosac/utils/floatutils"
	"github.com/softlearn/gosac/utils/tensorutils"
)

const (
	// Bounds on the predicted log standard deviation. The raw
	// prediction is rescaled into this interval with a tanh so that
	// the standard deviation can never collapse to 0 or explode.
	logStdMin float64 = -20.0
	logStdMax float64 = 2.0

	// Offset inside the squashing-correction logarithm for numerical
	// stability
	squashEps float64 = 1e-6
)

// SquashedGaussianMLP implements a Gaussian policy parameterized by an
// MLP, whose samples are squashed through a tanh and rescaled to the
// action bounds. The MLP predicts, per observation, the mean and the
// log standard deviation of an actionDims-dimensional diagonal
// Gaussian.
//
// Sampling is reparameterized: the noise ε ~ N(0, 1) enters the graph
// through an input node and the action is the differentiable transform
//
//	action = bound * tanh(μ + σ*ε)
//
// so gradients of any downstream loss flow through the sampled action
// into the policy weights. The log probability of the sampled action
// accounts for the tanh change of variables:
//
//	log π(a|s) = Σ_i [ log N(u_i | μ_i, σ_i) - log(bound*(1 - tanh²(u_i)) + ε̂) ]
//
// where u = μ + σ*ε and ε̂ is a small stability offset.
type SquashedGaussianMLP struct {
	network.NeuralNet // the trunk MLP predicting (μ, log σ)

	g   *G.ExprGraph
	obs *G.Node
	eps *G.Node

	batchSize  int
	obsDims    int
	actionDims int
	bound      float64

	action *G.Node
	mean   *G.Node
	logStd *G.Node
	logPdf *G.Node

	actionVal G.Value
	meanVal   G.Value
	logStdVal G.Value
	logPdfVal G.Value

	normal distmv.Rander

	// Non-nil only when batchSize == 1, in which case the policy can
	// select actions directly with SelectAction
	vm G.VM
}

// New returns a new SquashedGaussianMLP on graph g. The trunk MLP is
// defined by hiddenSizes, biases, and activations, with weights
// initialized by init; prefix names the policy's nodes so that other
// networks can share the graph. Actions are actionDims-dimensional and
// bounded in [-bound, bound]. The seed parameter seeds the policy's
// noise sampler.
//
// If batch == 1, the returned policy compiles its own VM and can
// select actions at each timestep; larger batches are assumed to be
// training policies whose graph the caller extends with a loss.
func New(obsDims, actionDims, batch int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*network.Activation, bound float64, seed uint64,
	prefix string) (*SquashedGaussianMLP, error) {

	if obsDims < 1 || actionDims < 1 {
		return nil, fmt.Errorf("newpolicy: observations and actions must "+
			"have at least one dimension \n\thave(%v, %v)", obsDims,
			actionDims)
	}
	if bound <= 0 {
		return nil, fmt.Errorf("newpolicy: action bound must be positive "+
			"\n\thave(%v)", bound)
	}

	obs := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, obsDims),
		G.WithName(prefix+"Obs"),
		G.WithInit(G.Zeroes()),
	)
	eps := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, actionDims),
		G.WithName(prefix+"Noise"),
		G.WithInit(G.Zeroes()),
	)

	trunk, err := network.NewMLPFromInputs([]*G.Node{obs}, 2*actionDims,
		g, hiddenSizes, biases, init, activations, prefix)
	if err != nil {
		return nil, fmt.Errorf("newpolicy: could not create trunk: %v", err)
	}

	pol := &SquashedGaussianMLP{
		NeuralNet:  trunk,
		g:          g,
		obs:        obs,
		eps:        eps,
		batchSize:  batch,
		obsDims:    obsDims,
		actionDims: actionDims,
		bound:      bound,
	}
	if err := pol.addSampling(trunk.Prediction()); err != nil {
		return nil, err
	}

	// Standard normal for the reparameterization noise
	means := make([]float64, actionDims)
	stds := mat.NewDiagDense(actionDims, floatutils.Ones(actionDims))
	source := rand.NewSource(seed)
	normal, ok := distmv.NewNormal(means, stds, source)
	if !ok {
		return nil, fmt.Errorf("newpolicy: could not create standard " +
			"normal for noise sampling")
	}
	pol.normal = normal

	if batch == 1 {
		pol.vm = G.NewTapeMachine(g)
	}

	return pol, nil
}

// addSampling adds the reparameterized sampling transform and its log
// probability to the policy's graph. pred is the trunk output of shape
// (batch, 2*actionDims) holding the mean in the first actionDims
// columns and the raw log standard deviation in the rest.
func (p *SquashedGaussianMLP) addSampling(pred *G.Node) error {
	mean := G.Must(G.Slice(pred, nil,
		tensorutils.NewSlice(0, p.actionDims, 1)))
	rawLogStd := G.Must(G.Slice(pred, nil,
		tensorutils.NewSlice(p.actionDims, 2*p.actionDims, 1)))

	// Rescale the raw log standard deviation into (logStdMin,
	// logStdMax)
	halfRange := G.NewConstant((logStdMax - logStdMin) / 2.0)
	mid := G.NewConstant((logStdMax + logStdMin) / 2.0)
	logStd := G.Must(G.Tanh(rawLogStd))
	logStd = G.Must(G.Mul(halfRange, logStd))
	logStd = G.Must(G.Add(mid, logStd))

	std := G.Must(G.Exp(logStd))

	// u = μ + σ*ε, the pre-squash sample
	u := G.Must(G.HadamardProd(std, p.eps))
	u = G.Must(G.Add(mean, u))

	tanhU := G.Must(G.Tanh(u))
	action := G.Must(G.Mul(G.NewConstant(p.bound), tanhU))

	// Per-dimension Gaussian log density of u. Since (u - μ)/σ = ε,
	// the quadratic term reduces to ε².
	negHalf := G.NewConstant(-0.5)
	halfLog2Pi := G.NewConstant(0.5 * math.Log(2.0*math.Pi))
	logDensity := G.Must(G.Mul(negHalf, G.Must(G.Square(p.eps))))
	logDensity = G.Must(G.Sub(logDensity, logStd))
	logDensity = G.Must(G.Sub(logDensity, halfLog2Pi))

	// Change of variables through a = bound*tanh(u):
	// log|da/du| = log(bound*(1 - tanh²(u)) + ε̂)
	squashDeriv := G.Must(G.Sub(G.NewConstant(1.0), G.Must(G.Square(tanhU))))
	squashDeriv = G.Must(G.Mul(G.NewConstant(p.bound), squashDeriv))
	squashDeriv = G.Must(G.Add(squashDeriv, G.NewConstant(squashEps)))
	logDensity = G.Must(G.Sub(logDensity, G.Must(G.Log(squashDeriv))))

	logPdf := G.Must(G.Sum(logDensity, 1))

	p.action = action
	p.mean = mean
	p.logStd = logStd
	p.logPdf = logPdf

	G.Read(p.action, &p.actionVal)
	G.Read(p.mean, &p.meanVal)
	G.Read(p.logStd, &p.logStdVal)
	G.Read(p.logPdf, &p.logPdfVal)
	return nil
}

// SetInput sets the batch of observations at which the policy is
// evaluated
func (p *SquashedGaussianMLP) SetInput(obs []float64) error {
	if len(obs) != p.batchSize*p.obsDims {
		return fmt.Errorf("setinput: invalid number of observations"+
			"\n\twant(%v)\n\thave(%v)", p.batchSize*p.obsDims, len(obs))
	}
	return G.Let(p.obs, tensor.New(
		tensor.WithBacking(obs),
		tensor.WithShape(p.batchSize, p.obsDims),
	))
}

// SetNoise sets the reparameterization noise consumed by the next run
// of the policy's graph
func (p *SquashedGaussianMLP) SetNoise(eps []float64) error {
	if len(eps) != p.batchSize*p.actionDims {
		return fmt.Errorf("setnoise: invalid number of noise values"+
			"\n\twant(%v)\n\thave(%v)", p.batchSize*p.actionDims, len(eps))
	}
	return G.Let(p.eps, tensor.New(
		tensor.WithBacking(eps),
		tensor.WithShape(p.batchSize, p.actionDims),
	))
}

// SampleNoise draws one standard normal noise value per action
// dimension for every row in the batch. Each call consumes fresh,
// independent draws.
func (p *SquashedGaussianMLP) SampleNoise() []float64 {
	noise := make([]float64, p.batchSize*p.actionDims)
	for i := 0; i < p.batchSize; i++ {
		p.normal.Rand(noise[i*p.actionDims : (i+1)*p.actionDims])
	}
	return noise
}

// SelectAction samples and returns a single action at the argument
// observation. Only batch-1 policies can select actions.
func (p *SquashedGaussianMLP) SelectAction(obs []float64) (*mat.VecDense,
	error) {
	if p.vm == nil {
		return nil, fmt.Errorf("selectaction: action selection requires " +
			"a policy with batch size 1")
	}
	if err := p.SetInput(obs); err != nil {
		return nil, fmt.Errorf("selectaction: %v", err)
	}
	if err := p.SetNoise(p.SampleNoise()); err != nil {
		return nil, fmt.Errorf("selectaction: %v", err)
	}

	if err := p.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("selectaction: could not run policy: %v", err)
	}
	defer p.vm.Reset()

	data := p.actionVal.Data().([]float64)
	action := make([]float64, p.actionDims)
	copy(action, data)
	return mat.NewVecDense(p.actionDims, action), nil
}

// ObservationInput returns the node holding the batch of observations.
// Other networks sharing the policy's graph may be built on this node.
func (p *SquashedGaussianMLP) ObservationInput() *G.Node {
	return p.obs
}

// ActionNode returns the node holding the batch of sampled actions
func (p *SquashedGaussianMLP) ActionNode() *G.Node {
	return p.action
}

// ActionVal returns the sampled actions after the graph has been run
func (p *SquashedGaussianMLP) ActionVal() G.Value {
	return p.actionVal
}

// MeanVal returns the pre-squash policy mean after the graph has been
// run
func (p *SquashedGaussianMLP) MeanVal() G.Value {
	return p.meanVal
}

// LogStdVal returns the bounded log standard deviation after the graph
// has been run
func (p *SquashedGaussianMLP) LogStdVal() G.Value {
	return p.logStdVal
}

// LogPdfNode returns the node holding the log probability of the
// sampled actions
func (p *SquashedGaussianMLP) LogPdfNode() *G.Node {
	return p.logPdf
}

// LogPdfVal returns the log probability of the sampled actions after
// the graph has been run
func (p *SquashedGaussianMLP) LogPdfVal() G.Value {
	return p.logPdfVal
}

// ActionDims returns the number of action dimensions
func (p *SquashedGaussianMLP) ActionDims() int {
	return p.actionDims
}

// Bound returns the symmetric action bound
func (p *SquashedGaussianMLP) Bound() float64 {
	return p.bound
}

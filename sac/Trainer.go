// Package sac implements the Soft Actor-Critic training algorithm: a
// maximum-entropy off-policy actor-critic with a tanh-squashed
// Gaussian policy, two independently trained critics whose minimum is
// used to curb overestimation bias, slowly-synchronized target
// critics, and an optionally learned entropy coefficient.
package sac

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/softlearn/gosac/network"
	"github.com/softlearn/gosac/policy"
	"github.com/softlearn/gosac/solver"
)

// Gradient norms above this ceiling are rescaled down to it before
// every solver step
const gradClipNorm float64 = 100.0

// Trainer owns the five networks of Soft Actor-Critic (policy, two
// critics, two target critics) together with their solvers, and
// performs one complete training update per call to TrainStep.
//
// Since each network's computation graph is static, the trainer keeps
// four graphs:
//
//   - the policy graph holds the policy together with frozen copies of
//     both critics evaluated at the policy's sampled actions, so that
//     the policy loss mean(α·log π - min(Q1, Q2)) differentiates
//     through the action into the policy weights only. The copies are
//     refreshed from the online critics at the start of every step.
//   - one graph per critic holds that critic and its squared-error
//     loss against an input target value vector.
//   - the bootstrap graph holds a copy of the policy evaluated at the
//     next observations together with both target critics, and is only
//     ever run forward.
//
// A separate batch-1 copy of the policy selects actions during
// rollouts and is synchronized with the trained policy after every
// step.
type Trainer struct {
	config      Config
	obsDims     int
	actionDims  int
	actionBound float64

	// Policy graph
	pol           *policy.SquashedGaussianMLP
	q1Frozen      *network.ActionValueMLP
	q2Frozen      *network.ActionValueMLP
	alphaNode     *G.Node
	policyLossVal G.Value
	qNewVal       G.Value
	policyVM      G.VM
	policySolver  G.Solver

	// Critic graphs
	q1          *network.ActionValueMLP
	q2          *network.ActionValueMLP
	q1TargetIn  *G.Node
	q2TargetIn  *G.Node
	q1LossVal   *G.Value
	q2LossVal   *G.Value
	q1VM        G.VM
	q2VM        G.VM
	q1Solver    G.Solver
	q2Solver    G.Solver

	// Bootstrap graph
	nextPol     *policy.SquashedGaussianMLP
	targetQ1    *network.ActionValueMLP
	targetQ2    *network.ActionValueMLP
	bootstrapVM G.VM

	behaviour *policy.SquashedGaussianMLP

	entropy entropyCoefficient

	trainStepsTotal  int
	needsStatsUpdate bool
	stats            *Statistics
}

// New returns a new Trainer for an environment with obsDims
// observation dimensions and actionDims action dimensions, where every
// action dimension is bounded in [-actionBound, actionBound]. The seed
// parameter seeds the action-sampling noise of each policy copy.
func New(obsDims, actionDims int, actionBound float64, c Config,
	seed uint64) (*Trainer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: invalid configuration: %v", err)
	}

	t := &Trainer{
		config:           c,
		obsDims:          obsDims,
		actionDims:       actionDims,
		actionBound:      actionBound,
		needsStatsUpdate: true,
		stats:            newStatistics(),
	}
	init := c.InitWFn.InitWFn()

	if err := t.buildPolicyGraph(init, seed); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if err := t.buildCriticGraphs(init); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if err := t.buildBootstrapGraph(init, seed+1); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	behaviour, err := policy.New(obsDims, actionDims, 1, G.NewGraph(),
		c.PolicyLayers, c.PolicyBiases, init, c.PolicyActivations,
		actionBound, seed+2, "Policy")
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: "+
			"%v", err)
	}
	t.behaviour = behaviour

	if c.AutoTuneEntropy {
		t.entropy, err = newLearnedEntropy(c.targetEntropy(actionDims),
			c.EntropySolver)
	} else {
		t.entropy, err = newFixedEntropy(c.FixedEntropyCoefficient)
	}
	if err != nil {
		return nil, fmt.Errorf("new: could not create entropy "+
			"coefficient: %v", err)
	}

	t.policySolver = c.PolicySolver.Create()
	t.q1Solver = c.CriticSolver.Create()
	t.q2Solver = c.CriticSolver.Create()

	// Targets start as exact copies of the online critics, and every
	// policy copy starts in sync with the trained policy
	for _, sync := range []struct{ dest, src network.NeuralNet }{
		{t.targetQ1, t.q1},
		{t.targetQ2, t.q2},
		{t.nextPol, t.pol},
		{t.behaviour, t.pol},
	} {
		if err := network.Set(sync.dest, sync.src); err != nil {
			return nil, fmt.Errorf("new: could not synchronize "+
				"networks: %v", err)
		}
	}

	return t, nil
}

// buildPolicyGraph constructs the policy, the frozen critic copies
// evaluated at the policy's sampled actions, and the policy loss
func (t *Trainer) buildPolicyGraph(init G.InitWFn, seed uint64) error {
	c := t.config
	g := G.NewGraph()

	pol, err := policy.New(t.obsDims, t.actionDims, c.BatchSize, g,
		c.PolicyLayers, c.PolicyBiases, init, c.PolicyActivations,
		t.actionBound, seed, "Policy")
	if err != nil {
		return fmt.Errorf("could not create policy: %v", err)
	}

	q1Frozen, err := network.NewActionValueMLPFromInputs(
		pol.ObservationInput(), pol.ActionNode(), g, c.CriticLayers,
		c.CriticBiases, init, c.CriticActivations, "Q1Frozen")
	if err != nil {
		return fmt.Errorf("could not create frozen critic 1: %v", err)
	}
	q2Frozen, err := network.NewActionValueMLPFromInputs(
		pol.ObservationInput(), pol.ActionNode(), g, c.CriticLayers,
		c.CriticBiases, init, c.CriticActivations, "Q2Frozen")
	if err != nil {
		return fmt.Errorf("could not create frozen critic 2: %v", err)
	}

	alphaNode := G.NewScalar(g, tensor.Float64, G.WithName("Alpha"))
	if err := G.Let(alphaNode, 1.0); err != nil {
		return fmt.Errorf("could not initialize entropy coefficient "+
			"node: %v", err)
	}

	qNew, err := elemMin(q1Frozen.Prediction(), q2Frozen.Prediction())
	if err != nil {
		return fmt.Errorf("could not take critic minimum: %v", err)
	}

	loss := G.Must(G.Mul(alphaNode, pol.LogPdfNode()))
	loss = G.Must(G.Sub(loss, qNew))
	loss = G.Must(G.Mean(loss))

	t.pol = pol
	t.q1Frozen = q1Frozen
	t.q2Frozen = q2Frozen
	t.alphaNode = alphaNode
	G.Read(loss, &t.policyLossVal)
	G.Read(qNew, &t.qNewVal)

	if _, err := G.Grad(loss, pol.Learnables()...); err != nil {
		return fmt.Errorf("could not compute policy gradient: %v", err)
	}
	t.policyVM = G.NewTapeMachine(g, G.BindDualValues(pol.Learnables()...))

	return nil
}

// buildCriticGraphs constructs both online critics, each on its own
// graph with a squared-error loss against an input target vector
func (t *Trainer) buildCriticGraphs(init G.InitWFn) error {
	c := t.config

	build := func(prefix string) (*network.ActionValueMLP, *G.Node,
		*G.Value, G.VM, error) {
		g := G.NewGraph()
		q, err := network.NewActionValueMLP(t.obsDims, t.actionDims,
			c.BatchSize, g, c.CriticLayers, c.CriticBiases, init,
			c.CriticActivations, prefix)
		if err != nil {
			return nil, nil, nil, nil, err
		}

		target := G.NewVector(
			g,
			tensor.Float64,
			G.WithShape(c.BatchSize),
			G.WithName(prefix+"Target"),
			G.WithInit(G.Zeroes()),
		)

		loss := G.Must(G.Sub(q.Prediction(), target))
		loss = G.Must(G.Square(loss))
		loss = G.Must(G.Mean(loss))

		lossVal := new(G.Value)
		G.Read(loss, lossVal)

		if _, err := G.Grad(loss, q.Learnables()...); err != nil {
			return nil, nil, nil, nil, err
		}
		vm := G.NewTapeMachine(g, G.BindDualValues(q.Learnables()...))

		return q, target, lossVal, vm, nil
	}

	var err error
	t.q1, t.q1TargetIn, t.q1LossVal, t.q1VM, err = build("Q1")
	if err != nil {
		return fmt.Errorf("could not create critic 1: %v", err)
	}
	t.q2, t.q2TargetIn, t.q2LossVal, t.q2VM, err = build("Q2")
	if err != nil {
		return fmt.Errorf("could not create critic 2: %v", err)
	}
	return nil
}

// buildBootstrapGraph constructs the forward-only graph producing the
// target critics' values at fresh policy actions on next observations
func (t *Trainer) buildBootstrapGraph(init G.InitWFn, seed uint64) error {
	c := t.config
	g := G.NewGraph()

	nextPol, err := policy.New(t.obsDims, t.actionDims, c.BatchSize, g,
		c.PolicyLayers, c.PolicyBiases, init, c.PolicyActivations,
		t.actionBound, seed, "BootstrapPolicy")
	if err != nil {
		return fmt.Errorf("could not create bootstrap policy: %v", err)
	}

	targetQ1, err := network.NewActionValueMLPFromInputs(
		nextPol.ObservationInput(), nextPol.ActionNode(), g,
		c.CriticLayers, c.CriticBiases, init, c.CriticActivations,
		"TargetQ1")
	if err != nil {
		return fmt.Errorf("could not create target critic 1: %v", err)
	}
	targetQ2, err := network.NewActionValueMLPFromInputs(
		nextPol.ObservationInput(), nextPol.ActionNode(), g,
		c.CriticLayers, c.CriticBiases, init, c.CriticActivations,
		"TargetQ2")
	if err != nil {
		return fmt.Errorf("could not create target critic 2: %v", err)
	}

	t.nextPol = nextPol
	t.targetQ1 = targetQ1
	t.targetQ2 = targetQ2
	t.bootstrapVM = G.NewTapeMachine(g)

	return nil
}

// TrainStep performs one complete Soft Actor-Critic update on the
// argument batch: entropy coefficient step, policy step, one step per
// critic, conditional target synchronization, and conditional
// diagnostics collection. The step counter increments once at the end
// of every call.
func (t *Trainer) TrainStep(b Batch) error {
	c := t.config
	if err := b.check(c.BatchSize, t.obsDims, t.actionDims); err != nil {
		return fmt.Errorf("trainstep: %v", err)
	}

	// The frozen critics in the policy graph must mirror the online
	// critics at their pre-step values
	if err := network.Set(t.q1Frozen, t.q1); err != nil {
		return fmt.Errorf("trainstep: could not refresh frozen critic "+
			"1: %v", err)
	}
	if err := network.Set(t.q2Frozen, t.q2); err != nil {
		return fmt.Errorf("trainstep: could not refresh frozen critic "+
			"2: %v", err)
	}

	// First policy evaluation on current observations. The entropy
	// coefficient consumed by the policy loss comes out of this very
	// batch of log probabilities, so the graph runs once to produce
	// them, the coefficient updates, and the graph runs again with
	// the same noise to build gradients against the fresh coefficient.
	if err := t.pol.SetInput(b.Observations); err != nil {
		return fmt.Errorf("trainstep: %v", err)
	}
	eps := t.pol.SampleNoise()
	if err := t.pol.SetNoise(eps); err != nil {
		return fmt.Errorf("trainstep: %v", err)
	}
	if err := t.policyVM.RunAll(); err != nil {
		return fmt.Errorf("trainstep: could not evaluate policy: %v", err)
	}
	logPi := copyFloats(t.pol.LogPdfVal().Data().([]float64))
	t.policyVM.Reset()

	alpha, alphaLoss, err := t.entropy.update(logPi)
	if err != nil {
		return fmt.Errorf("trainstep: could not update entropy "+
			"coefficient: %v", err)
	}

	// Policy step, against the pre-step critics
	if err := G.Let(t.alphaNode, alpha); err != nil {
		return fmt.Errorf("trainstep: could not set entropy "+
			"coefficient: %v", err)
	}
	if err := t.pol.SetNoise(eps); err != nil {
		return fmt.Errorf("trainstep: %v", err)
	}
	solver.ZeroGrads(t.pol.Model())
	if err := t.policyVM.RunAll(); err != nil {
		return fmt.Errorf("trainstep: could not run policy graph: %v", err)
	}
	policyGradNorm, err := solver.ClipGradNorm(t.pol.Model(), gradClipNorm)
	if err != nil {
		return fmt.Errorf("trainstep: could not clip policy gradient: %v",
			err)
	}
	if err := t.policySolver.Step(t.pol.Model()); err != nil {
		return fmt.Errorf("trainstep: could not step policy solver: %v",
			err)
	}

	var meanVals, logStdVals, qNewVals []float64
	if t.needsStatsUpdate {
		meanVals = copyFloats(t.pol.MeanVal().Data().([]float64))
		logStdVals = copyFloats(t.pol.LogStdVal().Data().([]float64))
		qNewVals = copyFloats(t.qNewVal.Data().([]float64))
	}
	t.policyVM.Reset()

	// Bootstrap evaluation at next observations with the just-updated
	// policy and the current target critics. The replayed action is
	// never reused here; the bootstrap action is a fresh sample with
	// its own independent noise.
	if err := network.Set(t.nextPol, t.pol); err != nil {
		return fmt.Errorf("trainstep: could not synchronize bootstrap "+
			"policy: %v", err)
	}
	if err := t.nextPol.SetInput(b.NextObservations); err != nil {
		return fmt.Errorf("trainstep: %v", err)
	}
	if err := t.nextPol.SetNoise(t.nextPol.SampleNoise()); err != nil {
		return fmt.Errorf("trainstep: %v", err)
	}
	if err := t.bootstrapVM.RunAll(); err != nil {
		return fmt.Errorf("trainstep: could not evaluate bootstrap "+
			"targets: %v", err)
	}
	nextLogPi := copyFloats(t.nextPol.LogPdfVal().Data().([]float64))
	tq1 := copyFloats(t.targetQ1.Output().Data().([]float64))
	tq2 := copyFloats(t.targetQ2.Output().Data().([]float64))
	t.bootstrapVM.Reset()

	qTarget := computeTargets(b.Rewards, b.Terminals, tq1, tq2,
		nextLogPi, alpha, c.Discount, c.RewardScale)

	// Critic steps. Both critics regress toward the same target
	// vector, each with its own gradients and solver.
	q1Loss, q1Preds, q1GradNorm, err := t.criticStep(t.q1, t.q1TargetIn,
		t.q1LossVal, t.q1VM, t.q1Solver, b, qTarget)
	if err != nil {
		return fmt.Errorf("trainstep: critic 1: %v", err)
	}
	q2Loss, q2Preds, q2GradNorm, err := t.criticStep(t.q2, t.q2TargetIn,
		t.q2LossVal, t.q2VM, t.q2Solver, b, qTarget)
	if err != nil {
		return fmt.Errorf("trainstep: critic 2: %v", err)
	}

	// Target synchronization uses the pre-increment counter, so the
	// very first step always synchronizes
	if t.trainStepsTotal%c.TargetUpdatePeriod == 0 {
		if err := network.Polyak(t.targetQ1, t.q1, c.Tau); err != nil {
			return fmt.Errorf("trainstep: could not update target "+
				"critic 1: %v", err)
		}
		if err := network.Polyak(t.targetQ2, t.q2, c.Tau); err != nil {
			return fmt.Errorf("trainstep: could not update target "+
				"critic 2: %v", err)
		}
	}

	if t.needsStatsUpdate {
		// The reported policy loss omits the entropy coefficient used
		// by the optimized loss; diagnostics keep the raw tradeoff
		// between log likelihood and critic value visible.
		reportedPolicyLoss := 0.0
		for i := range logPi {
			reportedPolicyLoss += logPi[i] - qNewVals[i]
		}
		reportedPolicyLoss /= float64(len(logPi))

		stats := newStatistics()
		stats.set("QF1 Loss", q1Loss)
		stats.set("QF2 Loss", q2Loss)
		stats.set("Policy Loss", reportedPolicyLoss)
		stats.set("QF1 Grad Norm", q1GradNorm)
		stats.set("QF2 Grad Norm", q2GradNorm)
		stats.set("Policy Grad Norm", policyGradNorm)
		stats.addSummary("Q1 Predictions", q1Preds)
		stats.addSummary("Q2 Predictions", q2Preds)
		stats.addSummary("Q Targets", qTarget)
		stats.addSummary("Log Pis", logPi)
		stats.addSummary("Policy mu", meanVals)
		stats.addSummary("Policy log std", logStdVals)
		stats.set("Alpha", alpha)
		stats.set("Alpha Loss", alphaLoss)

		t.stats = stats
		t.needsStatsUpdate = false
	}

	t.trainStepsTotal++

	// Rollouts act with the freshly updated policy
	if err := network.Set(t.behaviour, t.pol); err != nil {
		return fmt.Errorf("trainstep: could not synchronize behaviour "+
			"policy: %v", err)
	}

	return nil
}

// criticStep performs one gradient step on a single critic toward the
// argument target values, returning the loss, the critic's
// predictions, and the pre-clip gradient norm
func (t *Trainer) criticStep(q *network.ActionValueMLP, targetIn *G.Node,
	lossVal *G.Value, vm G.VM, sol G.Solver, b Batch,
	qTarget []float64) (float64, []float64, float64, error) {
	if err := q.SetInput(b.Observations); err != nil {
		return 0, nil, 0, err
	}
	if err := q.SetActions(b.Actions); err != nil {
		return 0, nil, 0, err
	}
	backing := copyFloats(qTarget)
	err := G.Let(targetIn, tensor.New(
		tensor.WithBacking(backing),
		tensor.WithShape(len(backing)),
	))
	if err != nil {
		return 0, nil, 0, fmt.Errorf("could not set target values: %v", err)
	}

	solver.ZeroGrads(q.Model())
	if err := vm.RunAll(); err != nil {
		return 0, nil, 0, fmt.Errorf("could not run critic graph: %v", err)
	}
	loss := (*lossVal).Data().(float64)
	preds := copyFloats(q.Output().Data().([]float64))

	gradNorm, err := solver.ClipGradNorm(q.Model(), gradClipNorm)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("could not clip gradient: %v", err)
	}
	if err := sol.Step(q.Model()); err != nil {
		return 0, nil, 0, fmt.Errorf("could not step solver: %v", err)
	}
	vm.Reset()

	return loss, preds, gradNorm, nil
}

// computeTargets returns the bootstrapped soft value targets
//
//	y_i = rewardScale*r_i + (1 - terminal_i)*discount*
//	      (min(tq1_i, tq2_i) - alpha*nextLogPi_i)
//
// shared by both critics within one training step
func computeTargets(rewards, terminals, tq1, tq2, nextLogPi []float64,
	alpha, discount, rewardScale float64) []float64 {
	targets := make([]float64, len(rewards))
	for i := range targets {
		targetValue := math.Min(tq1[i], tq2[i]) - alpha*nextLogPi[i]
		targets[i] = rewardScale*rewards[i] +
			(1.0-terminals[i])*discount*targetValue
	}
	return targets
}

// elemMin returns the elementwise minimum of two nodes, computed as
// (a + b - |a - b|) / 2
func elemMin(a, b *G.Node) (*G.Node, error) {
	sum, err := G.Add(a, b)
	if err != nil {
		return nil, err
	}
	diff, err := G.Sub(a, b)
	if err != nil {
		return nil, err
	}
	abs, err := G.Abs(diff)
	if err != nil {
		return nil, err
	}
	min, err := G.Sub(sum, abs)
	if err != nil {
		return nil, err
	}
	return G.Mul(G.NewConstant(0.5), min)
}

func copyFloats(values []float64) []float64 {
	c := make([]float64, len(values))
	copy(c, values)
	return c
}

// SelectAction samples an action from the current policy at the
// argument observation
func (t *Trainer) SelectAction(obs []float64) (*mat.VecDense, error) {
	return t.behaviour.SelectAction(obs)
}

// EndEpoch signals an epoch boundary, marking the diagnostics for
// recomputation on the next training step. The epoch number itself is
// unused.
func (t *Trainer) EndEpoch(epoch int) {
	t.needsStatsUpdate = true
}

// GetDiagnostics returns a read-only snapshot of the diagnostics
// collected on the first batch of the current epoch
func (t *Trainer) GetDiagnostics() *Statistics {
	return t.stats.clone()
}

// TrainSteps returns the total number of completed training steps
func (t *Trainer) TrainSteps() int {
	return t.trainStepsTotal
}

// Networks returns the trainer's networks in the order policy, critic
// 1, critic 2, target critic 1, target critic 2
func (t *Trainer) Networks() []network.NeuralNet {
	return []network.NeuralNet{t.pol, t.q1, t.q2, t.targetQ1, t.targetQ2}
}

// SetNetworks overwrites the weights of the trainer's networks with
// those of the argument networks, which must be given in the same
// order that Networks returns and have matching architectures
func (t *Trainer) SetNetworks(nets []network.NeuralNet) error {
	if len(nets) != 5 {
		return fmt.Errorf("setnetworks: expected 5 networks \n\thave(%v)",
			len(nets))
	}

	dests := []network.NeuralNet{t.pol, t.q1, t.q2, t.targetQ1, t.targetQ2}
	for i, dest := range dests {
		if err := network.Set(dest, nets[i]); err != nil {
			return fmt.Errorf("setnetworks: could not set network %v: %v",
				i, err)
		}
	}

	// Derived copies follow the trained policy
	for _, dest := range []network.NeuralNet{t.nextPol, t.behaviour} {
		if err := network.Set(dest, t.pol); err != nil {
			return fmt.Errorf("setnetworks: could not synchronize policy "+
				"copies: %v", err)
		}
	}
	return nil
}

// Snapshot returns the trainer's networks and solvers keyed by name
// for persistence. The entropy coefficient and its solver are not part
// of the snapshot.
func (t *Trainer) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"policy":           t.pol,
		"qf1":              t.q1,
		"qf2":              t.q2,
		"target_qf1":       t.targetQ1,
		"target_qf2":       t.targetQ2,
		"policy_optimizer": t.policySolver,
		"qf1_optimizer":    t.q1Solver,
		"qf2_optimizer":    t.q2Solver,
	}
}

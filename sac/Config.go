package sac

import (
	"fmt"

	"github.com/softlearn/gosac/initwfn"
	"github.com/softlearn/gosac/network"
	"github.com/softlearn/gosac/solver"
)

// Config implements the configurable settings of a Trainer. Config's
// are JSON serializable so that experiments can be fully described by
// configuration files.
type Config struct {
	// Policy network architecture
	PolicyLayers      []int
	PolicyBiases      []bool
	PolicyActivations []*network.Activation

	// Action-value network architecture, shared by both critics and
	// both target critics
	CriticLayers      []int
	CriticBiases      []bool
	CriticActivations []*network.Activation

	InitWFn *initwfn.InitWFn

	PolicySolver  *solver.Solver
	CriticSolver  *solver.Solver
	EntropySolver *solver.Solver

	BatchSize   int
	Discount    float64
	RewardScale float64

	// Target network synchronization. Every TargetUpdatePeriod
	// training steps, target weights move toward the online critic
	// weights at rate Tau.
	Tau                float64
	TargetUpdatePeriod int

	// Entropy regularization. When AutoTuneEntropy is true the
	// entropy coefficient is learned to track TargetEntropy, and
	// FixedEntropyCoefficient is ignored. When HeuristicTargetEntropy
	// is true, TargetEntropy is ignored and the negative of the
	// action dimensionality is used instead.
	AutoTuneEntropy         bool
	FixedEntropyCoefficient float64
	TargetEntropy           float64
	HeuristicTargetEntropy  bool
}

// Validate returns an error describing why the Config cannot be used
// to construct a Trainer, or nil if it can.
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive \n\thave(%v)",
			c.BatchSize)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1] \n\thave(%v)",
			c.Discount)
	}
	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("target update rate must be in (0, 1] "+
			"\n\thave(%v)", c.Tau)
	}
	if c.TargetUpdatePeriod < 1 {
		return fmt.Errorf("target update period must be positive "+
			"\n\thave(%v)", c.TargetUpdatePeriod)
	}
	if !c.AutoTuneEntropy && c.FixedEntropyCoefficient <= 0 {
		return fmt.Errorf("fixed entropy coefficient must be positive "+
			"\n\thave(%v)", c.FixedEntropyCoefficient)
	}
	if c.InitWFn == nil {
		return fmt.Errorf("no weight initialization scheme given")
	}
	if c.PolicySolver == nil || c.CriticSolver == nil {
		return fmt.Errorf("policy and critic solvers are required")
	}
	if c.AutoTuneEntropy && c.EntropySolver == nil {
		return fmt.Errorf("entropy solver is required when auto-tuning " +
			"the entropy coefficient")
	}
	if len(c.PolicyLayers) != len(c.PolicyBiases) ||
		len(c.PolicyLayers) != len(c.PolicyActivations) {
		return fmt.Errorf("policy layers, biases, and activations must "+
			"have equal lengths \n\thave(%v, %v, %v)", len(c.PolicyLayers),
			len(c.PolicyBiases), len(c.PolicyActivations))
	}
	if len(c.CriticLayers) != len(c.CriticBiases) ||
		len(c.CriticLayers) != len(c.CriticActivations) {
		return fmt.Errorf("critic layers, biases, and activations must "+
			"have equal lengths \n\thave(%v, %v, %v)", len(c.CriticLayers),
			len(c.CriticBiases), len(c.CriticActivations))
	}
	return nil
}

// targetEntropy returns the entropy target the learned entropy
// coefficient tracks for a policy with actionDims action dimensions
func (c Config) targetEntropy(actionDims int) float64 {
	if c.HeuristicTargetEntropy {
		return -float64(actionDims)
	}
	return c.TargetEntropy
}

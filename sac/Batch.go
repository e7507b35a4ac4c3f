package sac

import "fmt"

// Batch holds one batch of transitions sampled from a replay buffer.
// Observations and NextObservations hold batch * obsDims values in
// row-major order, Actions holds batch * actionDims values, and
// Rewards and Terminals hold one value per transition. Terminals are
// 0/1 flags marking true environmental termination; timeout cutoffs
// should be stored as 0 so that their values are still bootstrapped.
type Batch struct {
	Observations     []float64
	Actions          []float64
	Rewards          []float64
	Terminals        []float64
	NextObservations []float64
}

// check ensures the batch is shape-consistent with the argument
// dimensions
func (b Batch) check(batchSize, obsDims, actionDims int) error {
	if len(b.Observations) != batchSize*obsDims {
		return fmt.Errorf("invalid number of observations \n\twant(%v)"+
			"\n\thave(%v)", batchSize*obsDims, len(b.Observations))
	}
	if len(b.NextObservations) != batchSize*obsDims {
		return fmt.Errorf("invalid number of next observations "+
			"\n\twant(%v)\n\thave(%v)", batchSize*obsDims,
			len(b.NextObservations))
	}
	if len(b.Actions) != batchSize*actionDims {
		return fmt.Errorf("invalid number of actions \n\twant(%v)"+
			"\n\thave(%v)", batchSize*actionDims, len(b.Actions))
	}
	if len(b.Rewards) != batchSize {
		return fmt.Errorf("invalid number of rewards \n\twant(%v)"+
			"\n\thave(%v)", batchSize, len(b.Rewards))
	}
	if len(b.Terminals) != batchSize {
		return fmt.Errorf("invalid number of terminal flags \n\twant(%v)"+
			"\n\thave(%v)", batchSize, len(b.Terminals))
	}
	return nil
}

// Package expreplay implements experience replay buffers for
// off-policy learning
package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/softlearn/gosac/timestep"
)

// Config implements a specific configuration of a replay Buffer
type Config struct {
	MaxReplayCapacity int
	MinReplayCapacity int
	BatchSize         int
}

// Create creates and returns the replay Buffer described by the Config
func (c Config) Create(obsDims, actionDims int, seed uint64) (*Buffer,
	error) {
	return New(obsDims, actionDims, c.MaxReplayCapacity,
		c.MinReplayCapacity, c.BatchSize, seed)
}

// Buffer implements a first-in-first-out experience replay buffer with
// uniform random sampling. Transitions are stored flat, one row per
// transition, and sampled batches are returned as flat slices in the
// same layout; once the buffer fills, the oldest transition is
// overwritten by the next Add.
type Buffer struct {
	obs       []float64
	actions   []float64
	rewards   []float64
	terminals []float64
	nextObs   []float64

	obsDims     int
	actionDims  int
	maxCapacity int
	minCapacity int
	batchSize   int

	insert int // next row to write
	count  int // rows currently stored

	rng *rand.Rand
}

// New creates and returns a new replay Buffer storing up to
// maxCapacity transitions of obsDims-dimensional observations and
// actionDims-dimensional actions. Sample returns batchSize transitions
// once at least minCapacity transitions have been added. Since rows
// are drawn with replacement, the batch size may exceed both
// capacities.
func New(obsDims, actionDims, maxCapacity, minCapacity, batchSize int,
	seed uint64) (*Buffer, error) {
	if minCapacity < 1 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("new: batchSize must be > 0")
	}

	return &Buffer{
		obs:       make([]float64, maxCapacity*obsDims),
		actions:   make([]float64, maxCapacity*actionDims),
		rewards:   make([]float64, maxCapacity),
		terminals: make([]float64, maxCapacity),
		nextObs:   make([]float64, maxCapacity*obsDims),

		obsDims:     obsDims,
		actionDims:  actionDims,
		maxCapacity: maxCapacity,
		minCapacity: minCapacity,
		batchSize:   batchSize,

		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// Add adds a transition to the buffer, evicting the oldest stored
// transition if the buffer is full
func (b *Buffer) Add(t timestep.Transition) error {
	if t.State.Len() != b.obsDims || t.NextState.Len() != b.obsDims {
		return fmt.Errorf("add: invalid observation size \n\twant(%v)"+
			"\n\thave(%v, %v)", b.obsDims, t.State.Len(), t.NextState.Len())
	}
	if t.Action.Len() != b.actionDims {
		return fmt.Errorf("add: invalid action size \n\twant(%v)"+
			"\n\thave(%v)", b.actionDims, t.Action.Len())
	}

	row := b.insert
	for i := 0; i < b.obsDims; i++ {
		b.obs[row*b.obsDims+i] = t.State.AtVec(i)
		b.nextObs[row*b.obsDims+i] = t.NextState.AtVec(i)
	}
	for i := 0; i < b.actionDims; i++ {
		b.actions[row*b.actionDims+i] = t.Action.AtVec(i)
	}
	b.rewards[row] = t.Reward
	if t.Terminal {
		b.terminals[row] = 1.0
	} else {
		b.terminals[row] = 0.0
	}

	b.insert = (b.insert + 1) % b.maxCapacity
	if b.count < b.maxCapacity {
		b.count++
	}
	return nil
}

// Sample samples and returns a batch of transitions from the buffer
// as flat slices of observations, actions, rewards, terminal flags,
// and next observations. Rows are drawn uniformly with replacement.
func (b *Buffer) Sample() ([]float64, []float64, []float64, []float64,
	[]float64, error) {
	if b.count == 0 {
		return nil, nil, nil, nil, nil, &ExpReplayError{
			Op:  "sample",
			Err: errEmptyBuffer,
		}
	}
	if b.count < b.minCapacity {
		return nil, nil, nil, nil, nil, &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
	}

	obs := make([]float64, b.batchSize*b.obsDims)
	actions := make([]float64, b.batchSize*b.actionDims)
	rewards := make([]float64, b.batchSize)
	terminals := make([]float64, b.batchSize)
	nextObs := make([]float64, b.batchSize*b.obsDims)

	for i := 0; i < b.batchSize; i++ {
		row := b.rng.Intn(b.count)

		copy(obs[i*b.obsDims:(i+1)*b.obsDims],
			b.obs[row*b.obsDims:(row+1)*b.obsDims])
		copy(nextObs[i*b.obsDims:(i+1)*b.obsDims],
			b.nextObs[row*b.obsDims:(row+1)*b.obsDims])
		copy(actions[i*b.actionDims:(i+1)*b.actionDims],
			b.actions[row*b.actionDims:(row+1)*b.actionDims])
		rewards[i] = b.rewards[row]
		terminals[i] = b.terminals[row]
	}

	return obs, actions, rewards, terminals, nextObs, nil
}

// Capacity returns the current number of transitions in the buffer
func (b *Buffer) Capacity() int {
	return b.count
}

// MaxCapacity returns the maximum number of transitions the buffer
// can hold
func (b *Buffer) MaxCapacity() int {
	return b.maxCapacity
}

// MinCapacity returns the number of transitions required in the
// buffer before it can be sampled
func (b *Buffer) MinCapacity() int {
	return b.minCapacity
}

// BatchSize returns the number of transitions returned by Sample
func (b *Buffer) BatchSize() int {
	return b.batchSize
}

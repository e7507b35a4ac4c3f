package experiment

import (
	"fmt"
	"log"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	env "github.com/softlearn/gosac/environment"
	"github.com/softlearn/gosac/experiment/checkpointer"
	"github.com/softlearn/gosac/experiment/trackers"
	"github.com/softlearn/gosac/expreplay"
	"github.com/softlearn/gosac/sac"
	ts "github.com/softlearn/gosac/timestep"
)

// Online runs an off-policy training loop online: at every environment
// step the current transition is stored in a replay buffer, one batch
// is sampled, and the trainer performs one training step. No offline
// evaluation is performed.
//
// For the first warmupSteps environment steps, actions are drawn
// uniformly from the action bounds instead of from the policy, seeding
// the replay buffer with diverse data. Every epochLength steps the
// trainer's diagnostics are logged and an epoch boundary is signalled.
type Online struct {
	env.Environment
	trainer *sac.Trainer
	buffer  *expreplay.Buffer

	maxSteps     uint
	currentSteps uint
	warmupSteps  uint
	epochLength  uint

	actionLow  []float64
	actionHigh []float64
	rng        *rand.Rand

	trackers      []trackers.Tracker
	checkpointers []checkpointer.Checkpointer
}

// NewOnline creates and returns a new online experiment training
// trainer on environment e for maxSteps environment steps
func NewOnline(e env.Environment, trainer *sac.Trainer,
	buffer *expreplay.Buffer, maxSteps, warmupSteps, epochLength uint,
	seed uint64, t []trackers.Tracker,
	c []checkpointer.Checkpointer) (*Online, error) {
	if epochLength == 0 {
		return nil, fmt.Errorf("newonline: epoch length must be positive")
	}

	actionSpec := e.ActionSpec()
	dims := actionSpec.Shape.Len()
	actionLow := make([]float64, dims)
	actionHigh := make([]float64, dims)
	for i := 0; i < dims; i++ {
		actionLow[i] = actionSpec.LowerBound.AtVec(i)
		actionHigh[i] = actionSpec.UpperBound.AtVec(i)
	}

	return &Online{
		Environment: e,
		trainer:     trainer,
		buffer:      buffer,

		maxSteps:    maxSteps,
		warmupSteps: warmupSteps,
		epochLength: epochLength,

		actionLow:  actionLow,
		actionHigh: actionHigh,
		rng:        rand.New(rand.NewSource(seed)),

		trackers:      t,
		checkpointers: c,
	}, nil
}

// Register registers a Tracker with the experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment, returning
// whether the maximum step limit has been reached
func (o *Online) RunEpisode() (bool, error) {
	step := o.Environment.Reset()
	o.track(step)

	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		action, err := o.selectAction(step)
		if err != nil {
			return false, fmt.Errorf("runepisode: %v", err)
		}

		next, _ := o.Environment.Step(action)
		err = o.buffer.Add(ts.NewTransition(step, action, next))
		if err != nil {
			return false, fmt.Errorf("runepisode: could not store "+
				"transition: %v", err)
		}

		if err := o.train(); err != nil {
			return false, fmt.Errorf("runepisode: %v", err)
		}

		if o.currentSteps%o.epochLength == 0 {
			o.endEpoch()
		}

		o.track(next)
		if err := o.checkpoint(next); err != nil {
			return false, fmt.Errorf("runepisode: could not "+
				"checkpoint: %v", err)
		}
		step = next
	}

	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	for {
		ended, err := o.RunEpisode()
		if err != nil {
			return err
		}
		if ended {
			return nil
		}
	}
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() {
	for _, t := range o.trackers {
		t.Save()
	}
}

// selectAction chooses the next action: uniformly at random during
// warmup, from the policy afterward
func (o *Online) selectAction(step ts.TimeStep) (*mat.VecDense, error) {
	if o.currentSteps <= o.warmupSteps {
		action := make([]float64, len(o.actionLow))
		for i := range action {
			action[i] = o.actionLow[i] +
				o.rng.Float64()*(o.actionHigh[i]-o.actionLow[i])
		}
		return mat.NewVecDense(len(action), action), nil
	}

	obs := make([]float64, step.Observation.Len())
	for i := range obs {
		obs[i] = step.Observation.AtVec(i)
	}
	return o.trainer.SelectAction(obs)
}

// train samples one batch from the replay buffer and performs one
// training step. Before the buffer reaches its minimum capacity,
// train is a no-op.
func (o *Online) train() error {
	obs, actions, rewards, terminals, nextObs, err := o.buffer.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not sample replay buffer: %v", err)
	}

	return o.trainer.TrainStep(sac.Batch{
		Observations:     obs,
		Actions:          actions,
		Rewards:          rewards,
		Terminals:        terminals,
		NextObservations: nextObs,
	})
}

// endEpoch logs the epoch's diagnostics and signals the epoch boundary
// to the trainer
func (o *Online) endEpoch() {
	epoch := int(o.currentSteps / o.epochLength)

	stats := o.trainer.GetDiagnostics()
	log.Printf("epoch %v (step %v):", epoch, o.currentSteps)
	for _, key := range stats.Keys() {
		value, _ := stats.Get(key)
		log.Printf("\t%v: %v", key, value)
	}

	o.trainer.EndEpoch(epoch)
}

// track sends the current timestep to every Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// checkpoint saves the current state of the trainer with every
// Checkpointer
func (o *Online) checkpoint(t ts.TimeStep) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			return err
		}
	}
	return nil
}

package trackers

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"

	ts "github.com/softlearn/gosac/timestep"
)

// Return tracks and saves the episodic return in an experiment. The
// rewards of each TimeStep accumulate into the return of the current
// episode, and each finished episode's return is cached for saving.
//
// Note: an episode must finish for this Tracker to cache its data. If
// the last episode in an experiment does not finish, that episode's
// return is not saved.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker which saves its
// data at filename
func NewReturn(filename string) Tracker {
	return &Return{lastTimeStep: -1, filename: filename}
}

// Track accumulates the reward of one timestep into the current
// episode's return. When the timestep ends its episode, the episodic
// return is cached and a new episode's return begins accumulating.
//
// Track panics if it is called on non-sequential timesteps.
func (r *Return) Track(step ts.TimeStep) {
	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: timesteps are not sequential: "+
			"timestep %v --> timestep %v", r.lastTimeStep, step.Number))
	}

	r.currentReturn += step.Reward
	if step.Last() {
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0.0
		r.lastTimeStep = -1
	} else {
		r.lastTimeStep = step.Number
	}
}

// Save saves the data tracked by the Return Tracker to disk
func (r *Return) Save() {
	file, err := os.Create(r.filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err = en.Encode(r.episodeReturns); err != nil {
		log.Fatalf("could not encode online return data: %v", err)
	}
}

// Package experiment implements functionality for running an
// experiment
package experiment

import (
	"github.com/softlearn/gosac/experiment/trackers"
)

// Experiment runs a training loop on an environment, sending every
// environment TimeStep to its registered Trackers. RunEpisode runs a
// single episode and reports whether the experiment's step limit has
// been reached; Run runs episodes until it has. Save writes all
// tracked data to disk, usually once the experiment has finished.
type Experiment interface {
	Run() error
	RunEpisode() (bool, error)

	// Save all tracked data to disk
	Save()

	// Register adds a Tracker to the (possibly already running)
	// experiment. Useful to track data only after a specified event.
	Register(t trackers.Tracker)
}

// Package checkpointer implements functionality for periodically
// saving serializable objects during an experiment
package checkpointer

import ts "github.com/softlearn/gosac/timestep"

// Serializable is an object that can save itself to a file
type Serializable interface {
	Save(filename string) error
}

// Checkpointer saves serializable objects based on
// timestep.TimeSteps
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}

// Package timestep implements timesteps and transitions of the
// agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either the
// first environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	stepType    StepType
	Reward      float64
	Discount    float64
	Observation mat.Vector
	Number      int
}

func New(t StepType, r, d float64, o mat.Vector, n int) TimeStep {
	return TimeStep{t, r, d, o, n}
}

// First returns whether a TimeStep is the first in an episode
func (t *TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step in an episode
func (t *TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep is the last step in an episode
func (t *TimeStep) Last() bool {
	return t.stepType == Last
}

// TerminalEnd returns whether a TimeStep ends an episode at an
// absorbing state. Episodes may also end by timeout, in which case the
// final TimeStep is Last() but not TerminalEnd(), and values should
// still be bootstrapped past it.
func (t *TimeStep) TerminalEnd() bool {
	return t.Last() && t.Discount == 0.0
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, t.Reward, t.Discount, t.Number)
}

// Transition packages together a single (S, A, R, terminal, S')
// transition. The Terminal flag is set only for true absorbing-state
// ends, never for timeouts.
type Transition struct {
	State     mat.Vector
	Action    mat.Vector
	Reward    float64
	Terminal  bool
	NextState mat.Vector
}

// NewTransition returns the transition generated by taking action a at
// TimeStep step, after which the environment emitted TimeStep next.
func NewTransition(step TimeStep, a mat.Vector, next TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    a,
		Reward:    next.Reward,
		Terminal:  next.TerminalEnd(),
		NextState: next.Observation,
	}
}

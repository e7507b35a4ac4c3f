// Package environment outlines the interfaces needed to implement
// concrete environments
package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/softlearn/gosac/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Environment implements a simulated environment. An Environment
// starts ready to use; Reset starts a new episode and Step advances
// the current one, returning the resulting TimeStep and whether the
// episode ended.
type Environment interface {
	fmt.Stringer

	Reset() timestep.TimeStep
	Step(action mat.Vector) (timestep.TimeStep, bool)

	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}

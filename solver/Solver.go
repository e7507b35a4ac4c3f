// Package solver wraps Gorgonia solvers behind JSON-serializable
// configurations and provides the gradient utilities shared by every
// optimizer step.
package solver

import (
	"encoding/json"
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type names a kind of solver
type Type string

const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
)

// Config describes a solver and mints Gorgonia solvers from the
// description. Each call to Create returns a solver with fresh
// internal state, so networks trained with the same configuration
// never share optimizer accumulators.
type Config interface {
	Create() G.Solver

	// ValidType returns whether the Config describes a solver of the
	// argument Type
	ValidType(Type) bool
}

// Solver pairs a Gorgonia solver with the Config that created it. The
// Config round-trips through JSON; the solver itself is rebuilt from
// the Config on unmarshalling.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newsolver: configuration %T cannot "+
			"describe a %v solver", c, t)
	}
	s := &Solver{Type: t, Config: c}
	s.Solver = s.Config.Create()

	return s, nil
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var config Config
	switch raw.Type {
	case Adam:
		config = &AdamConfig{}
	case Vanilla:
		config = &VanillaConfig{}
	default:
		return fmt.Errorf("unmarshal: unknown solver type %q", raw.Type)
	}
	if err := json.Unmarshal(raw.Config, config); err != nil {
		return err
	}

	s.Type = raw.Type
	s.Config = config
	s.Solver = s.Config.Create()

	return nil
}

package solver

import (
	"encoding/json"
	"testing"
)

func TestSolverJSONRoundTrip(t *testing.T) {
	adam, err := NewAdam(1e-3, 1e-8, 0.9, 0.999, 32)
	if err != nil {
		t.Fatalf("could not create solver: %v", err)
	}

	data, err := json.Marshal(adam)
	if err != nil {
		t.Fatalf("could not marshal solver: %v", err)
	}

	var decoded Solver
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("could not unmarshal solver: %v", err)
	}

	if decoded.Type != Adam {
		t.Errorf("wrong solver type \n\twant(%v)\n\thave(%v)", Adam,
			decoded.Type)
	}
	if decoded.Config == nil || !decoded.Config.ValidType(Adam) {
		t.Error("decoded configuration does not describe an Adam solver")
	}
	if decoded.Solver == nil {
		t.Error("decoded solver was not rebuilt from its configuration")
	}
}

func TestSolverUnmarshalUnknownType(t *testing.T) {
	var decoded Solver
	err := json.Unmarshal([]byte(`{"Type": "Momentum", "Config": {}}`),
		&decoded)
	if err == nil {
		t.Error("expected an error for an unknown solver type")
	}
}

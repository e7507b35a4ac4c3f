package initwfn

import (
	"encoding/json"
	"testing"
)

func TestNewGlorotRejectsNonPositiveGain(t *testing.T) {
	if _, err := NewGlorotU(0.0); err == nil {
		t.Error("expected an error for a zero uniform gain")
	}
	if _, err := NewGlorotN(-1.0); err == nil {
		t.Error("expected an error for a negative normal gain")
	}
}

func TestGlorotJSONRoundTrip(t *testing.T) {
	init, err := NewGlorotU(2.0)
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	data, err := json.Marshal(init)
	if err != nil {
		t.Fatalf("could not marshal initializer: %v", err)
	}

	var decoded InitWFn
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("could not unmarshal initializer: %v", err)
	}

	if decoded.Type != GlorotU {
		t.Errorf("wrong initializer type \n\twant(%v)\n\thave(%v)",
			GlorotU, decoded.Type)
	}
	if decoded.InitWFn() == nil {
		t.Error("decoded initializer was not rebuilt from its configuration")
	}
}

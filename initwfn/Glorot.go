package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// NewGlorotU returns a Glorot uniform weight initializer with the
// argument gain. The gain must be positive.
func NewGlorotU(gain float64) (*InitWFn, error) {
	if gain <= 0 {
		return nil, fmt.Errorf("newglorotu: gain must be positive "+
			"\n\thave(%v)", gain)
	}
	return newInitWFn(GlorotUConfig{Gain: gain})
}

// NewGlorotN returns a Glorot normal weight initializer with the
// argument gain. The gain must be positive.
func NewGlorotN(gain float64) (*InitWFn, error) {
	if gain <= 0 {
		return nil, fmt.Errorf("newglorotn: gain must be positive "+
			"\n\thave(%v)", gain)
	}
	return newInitWFn(GlorotNConfig{Gain: gain})
}

// GlorotUConfig describes a Glorot uniform initialization
type GlorotUConfig struct {
	Gain float64
}

func (g GlorotUConfig) Type() Type {
	return GlorotU
}

func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// GlorotNConfig describes a Glorot normal initialization
type GlorotNConfig struct {
	Gain float64
}

func (g GlorotNConfig) Type() Type {
	return GlorotN
}

func (g GlorotNConfig) Create() G.InitWFn {
	return G.GlorotN(g.Gain)
}

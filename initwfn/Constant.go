package initwfn

import G "gorgonia.org/gorgonia"

// ZeroesConfig implements a configuration of zero-value weight
// initialization.
type ZeroesConfig struct{}

// NewZeroes returns a new weight initializer that initializes all
// weights to zero
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (z ZeroesConfig) Type() Type {
	return Zeroes
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (z ZeroesConfig) Create() G.InitWFn {
	return G.Zeroes()
}

// OnesConfig implements a configuration of unit-value weight
// initialization.
type OnesConfig struct{}

// NewOnes returns a new weight initializer that initializes all
// weights to one
func NewOnes() (*InitWFn, error) {
	return newInitWFn(OnesConfig{})
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (o OnesConfig) Type() Type {
	return Ones
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (o OnesConfig) Create() G.InitWFn {
	return G.Ones()
}

// ConstantConfig implements a configuration of constant-value weight
// initialization.
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new weight initializer that initializes all
// weights to a constant value
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(ConstantConfig{Value: value})
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (c ConstantConfig) Type() Type {
	return Constant
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (c ConstantConfig) Create() G.InitWFn {
	return G.ValuesOf(c.Value)
}

// Package pendulum implements the pendulum swing-up classic control
// environment
package pendulum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/softlearn/gosac/environment"
	"github.com/softlearn/gosac/timestep"
	"github.com/softlearn/gosac/utils/floatutils"
)

// Default physical constants
const (
	AngleBound  float64 = math.Pi // +/- angle bounds
	SpeedBound  float64 = 8.0     // +/- angular velocity bounds
	TorqueBound float64 = 2.0     // +/- torque bounds

	dt      float64 = 0.05
	gravity float64 = 10.0
	mass    float64 = 1.0
	length  float64 = 1.0

	ActionDims      int = 1
	ObservationDims int = 3
)

// SwingUp implements the pendulum swing-up task. A pendulum hangs from
// a fixed base, and an agent applies torque at the base to swing the
// pendulum up and balance it pointing straight up. The torque is
// underpowered relative to gravity, so the pendulum must be rocked
// back and forth to gather momentum before it can reach the top.
//
// The internal state is the pendulum angle θ measured from the upward
// vertical and the angular velocity. Observations are the triple
// (cos θ, sin θ, angular velocity), so that the angle discontinuity at
// ±π never appears in the observation space. Actions are continuous,
// 1-dimensional torques clipped to [-TorqueBound, TorqueBound].
//
// Rewards penalize deviation from the upright balanced position:
//
//	r = -(θ² + 0.1*velocity² + 0.001*torque²)
//
// so the maximum attainable reward is 0, holding the pendulum
// perfectly still and upright with no torque.
//
// Episodes are cut off after a fixed number of steps. The cutoff is a
// time limit rather than a terminal state, so the final step keeps the
// usual discount and value bootstrapping remains correct.
type SwingUp struct {
	environment.Starter

	theta    float64
	thetaDot float64

	maxSteps int
	discount float64
	lastStep timestep.TimeStep

	speedBounds  r1.Interval
	torqueBounds r1.Interval
}

// NewSwingUp returns a new swing-up environment along with its
// starting timestep. The starter samples the internal (angle, angular
// velocity) state beginning each episode; maxSteps bounds the episode
// length.
func NewSwingUp(starter environment.Starter, maxSteps int,
	discount float64) (*SwingUp, timestep.TimeStep, error) {
	if maxSteps < 1 {
		return nil, timestep.TimeStep{}, fmt.Errorf("newswingup: "+
			"maxSteps must be positive \n\thave(%v)", maxSteps)
	}

	p := &SwingUp{
		Starter:      starter,
		maxSteps:     maxSteps,
		discount:     discount,
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
	}
	first := p.Reset()

	return p, first, nil
}

// Reset starts a new episode, drawing the internal state from the
// Starter, and returns the episode's first timestep
func (p *SwingUp) Reset() timestep.TimeStep {
	state := p.Start()
	p.theta = normalizeAngle(state.AtVec(0))
	p.thetaDot = floatutils.ClipInterval(state.AtVec(1), p.speedBounds)

	first := timestep.New(timestep.First, 0, p.discount, p.observation(),
		0)
	p.lastStep = first

	return first
}

// Step applies one torque to the pendulum's base and advances the
// simulation, returning the resulting timestep and whether the episode
// ended
func (p *SwingUp) Step(action mat.Vector) (timestep.TimeStep, bool) {
	torque := floatutils.ClipInterval(action.AtVec(0), p.torqueBounds)

	// Cost of the state the torque was applied in
	reward := -(p.theta*p.theta + 0.1*p.thetaDot*p.thetaDot +
		0.001*torque*torque)

	thetaDot := p.thetaDot + (3*gravity/(2*length)*math.Sin(p.theta)+
		3.0/(mass*length*length)*torque)*dt
	p.thetaDot = floatutils.ClipInterval(thetaDot, p.speedBounds)
	p.theta = normalizeAngle(p.theta + p.thetaDot*dt)

	stepType := timestep.Mid
	number := p.lastStep.Number + 1
	if number >= p.maxSteps {
		// Time limit cutoff, not a terminal state: the discount stays
		// nonzero so the final value is still bootstrapped
		stepType = timestep.Last
	}

	step := timestep.New(stepType, reward, p.discount, p.observation(),
		number)
	p.lastStep = step

	return step, step.Last()
}

// observation returns the current state as seen by an agent
func (p *SwingUp) observation() mat.Vector {
	return mat.NewVecDense(ObservationDims, []float64{
		math.Cos(p.theta),
		math.Sin(p.theta),
		p.thetaDot,
	})
}

// ObservationSpec returns the observation specification of the
// environment
func (p *SwingUp) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims,
		[]float64{-1.0, -1.0, p.speedBounds.Min})
	upperBound := mat.NewVecDense(ObservationDims,
		[]float64{1.0, 1.0, p.speedBounds.Max})

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

// ActionSpec returns the action specification of the environment
func (p *SwingUp) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims,
		[]float64{p.torqueBounds.Min})
	upperBound := mat.NewVecDense(ActionDims,
		[]float64{p.torqueBounds.Max})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (p *SwingUp) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{p.discount})

	return environment.NewSpec(shape, environment.Discount, bound, bound,
		environment.Continuous)
}

// RewardSpec returns the reward specification of the environment
func (p *SwingUp) RewardSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)

	minReward := -(AngleBound*AngleBound +
		0.1*SpeedBound*SpeedBound + 0.001*TorqueBound*TorqueBound)
	lowerBound := mat.NewVecDense(1, []float64{minReward})
	upperBound := mat.NewVecDense(1, []float64{0.0})

	return environment.NewSpec(shape, environment.Reward, lowerBound,
		upperBound, environment.Continuous)
}

// String converts the environment to a string representation
func (p *SwingUp) String() string {
	return fmt.Sprintf("SwingUp  |  theta: %v  |  theta dot: %v",
		p.theta, p.thetaDot)
}

// normalizeAngle normalizes an angle to [-π, π]
func normalizeAngle(theta float64) float64 {
	theta = math.Mod(theta+math.Pi, 2*math.Pi)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	return theta - math.Pi
}

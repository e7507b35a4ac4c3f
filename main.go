package main

import (
	"log"
	"math"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/softlearn/gosac/environment"
	"github.com/softlearn/gosac/environment/classiccontrol/pendulum"
	"github.com/softlearn/gosac/experiment"
	"github.com/softlearn/gosac/experiment/checkpointer"
	"github.com/softlearn/gosac/experiment/trackers"
	"github.com/softlearn/gosac/expreplay"
	"github.com/softlearn/gosac/initwfn"
	"github.com/softlearn/gosac/network"
	"github.com/softlearn/gosac/sac"
	"github.com/softlearn/gosac/solver"
)

func main() {
	var seed uint64 = 192382

	// Create the environment
	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: -math.Pi, Max: math.Pi},
		{Min: -1.0, Max: 1.0},
	}, seed)
	env, _, err := pendulum.NewSwingUp(starter, 200, 0.99)
	if err != nil {
		log.Fatalf("could not create environment: %v", err)
	}

	// Create the learning algorithm
	init, err := initwfn.NewGlorotU(math.Sqrt2)
	if err != nil {
		log.Fatalf("could not create weight initializer: %v", err)
	}
	policySolver, err := solver.NewDefaultAdam(3e-4, 256)
	if err != nil {
		log.Fatalf("could not create policy solver: %v", err)
	}
	criticSolver, err := solver.NewDefaultAdam(3e-4, 256)
	if err != nil {
		log.Fatalf("could not create critic solver: %v", err)
	}
	entropySolver, err := solver.NewDefaultAdam(3e-4, 1)
	if err != nil {
		log.Fatalf("could not create entropy solver: %v", err)
	}

	config := sac.Config{
		PolicyLayers: []int{256, 256},
		PolicyBiases: []bool{true, true},
		PolicyActivations: []*network.Activation{
			network.ReLU(), network.ReLU(),
		},

		CriticLayers: []int{256, 256},
		CriticBiases: []bool{true, true},
		CriticActivations: []*network.Activation{
			network.ReLU(), network.ReLU(),
		},

		InitWFn:       init,
		PolicySolver:  policySolver,
		CriticSolver:  criticSolver,
		EntropySolver: entropySolver,

		BatchSize:   256,
		Discount:    0.99,
		RewardScale: 1.0,

		Tau:                0.005,
		TargetUpdatePeriod: 1,

		AutoTuneEntropy:        true,
		HeuristicTargetEntropy: true,
	}

	trainer, err := sac.New(pendulum.ObservationDims, pendulum.ActionDims,
		pendulum.TorqueBound, config, seed)
	if err != nil {
		log.Fatalf("could not create trainer: %v", err)
	}

	buffer, err := expreplay.New(pendulum.ObservationDims,
		pendulum.ActionDims, 100_000, 1_000, config.BatchSize, seed)
	if err != nil {
		log.Fatalf("could not create replay buffer: %v", err)
	}

	// Experiment
	track := []trackers.Tracker{
		trackers.NewReturn("./returns.bin"),
		trackers.NewEpisodeLength("./lengths.bin"),
	}
	check := []checkpointer.Checkpointer{
		checkpointer.NewNStep(10_000,
			experiment.NewTrainerCheckpoint(trainer),
			checkpointer.FilenameEnumerator(0, "./checkpoint", ".bin")),
	}

	e, err := experiment.NewOnline(env, trainer, buffer, 100_000, 1_000,
		1_000, seed, track, check)
	if err != nil {
		log.Fatalf("could not create experiment: %v", err)
	}
	if err := e.Run(); err != nil {
		log.Fatalf("experiment failed: %v", err)
	}
	e.Save()
}

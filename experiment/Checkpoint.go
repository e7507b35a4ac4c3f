package experiment

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/softlearn/gosac/network"
	"github.com/softlearn/gosac/sac"
)

// TrainerCheckpoint saves and restores the weights of a sac.Trainer's
// networks. The weight data of the five networks is gob encoded in the
// order that Trainer.Networks returns them. The entropy coefficient
// and all solver state are not checkpointed.
type TrainerCheckpoint struct {
	trainer *sac.Trainer
}

// NewTrainerCheckpoint returns a TrainerCheckpoint wrapping trainer
func NewTrainerCheckpoint(trainer *sac.Trainer) *TrainerCheckpoint {
	return &TrainerCheckpoint{trainer: trainer}
}

// Save writes the weights of the trainer's networks to filename
func (c *TrainerCheckpoint) Save(filename string) error {
	nets := c.trainer.Networks()
	weights := make([][][]float64, len(nets))
	for i, net := range nets {
		weights[i] = network.WeightValues(net)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create checkpoint file: %v",
			err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(weights); err != nil {
		return fmt.Errorf("save: could not encode weights: %v", err)
	}
	return nil
}

// Load reads network weights previously written by Save from filename
// and installs them in the trainer
func (c *TrainerCheckpoint) Load(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open checkpoint file: %v", err)
	}
	defer file.Close()

	var weights [][][]float64
	if err := gob.NewDecoder(file).Decode(&weights); err != nil {
		return fmt.Errorf("load: could not decode weights: %v", err)
	}

	nets := c.trainer.Networks()
	if len(weights) != len(nets) {
		return fmt.Errorf("load: checkpoint holds %v networks "+
			"\n\twant(%v)", len(weights), len(nets))
	}
	for i, net := range nets {
		if err := network.SetWeightValues(net, weights[i]); err != nil {
			return fmt.Errorf("load: could not set network %v: %v", i, err)
		}
	}

	// Rebind the trainer's internal policy copies to the restored
	// weights
	return c.trainer.SetNetworks(nets)
}

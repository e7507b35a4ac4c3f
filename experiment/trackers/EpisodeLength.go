package trackers

import (
	"encoding/gob"
	"log"
	"os"

	ts "github.com/softlearn/gosac/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment.
//
// Note: an episode must finish for this Tracker to cache its data. If
// the last episode in an experiment does not finish, that episode's
// length is not saved.
type EpisodeLength struct {
	episodeLengths []int
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength Tracker which saves
// its data at filename
func NewEpisodeLength(filename string) Tracker {
	return &EpisodeLength{filename: filename}
}

// Track caches the episode length whenever the argument timestep is
// the last in its episode
func (e *EpisodeLength) Track(t ts.TimeStep) {
	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, t.Number)
	}
}

// Save saves the data tracked by the EpisodeLength Tracker to disk
func (e *EpisodeLength) Save() {
	file, err := os.Create(e.filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err = en.Encode(e.episodeLengths); err != nil {
		log.Fatalf("could not encode episode length data: %v", err)
	}
}

// Package trackers implements functionality for tracking data
// generated during an experiment and saving it to disk
package trackers

import "github.com/softlearn/gosac/timestep"

// Tracker tracks data generated by an experiment. An experiment sends
// every environment TimeStep to each of its Trackers through Track;
// the Tracker decides which data it caches. Save writes everything the
// Tracker cached to disk, usually after the experiment has finished.
type Tracker interface {
	Track(timestep.TimeStep)
	Save()
}

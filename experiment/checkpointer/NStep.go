package checkpointer

import ts "github.com/softlearn/gosac/timestep"

// nStep implements checkpointing every N steps
type nStep struct {
	interval int
	calls    int
	object   Serializable

	// filename returns the name of the file to save the object in.
	// Use FilenameEnumerator to save each checkpoint to a separate,
	// consecutively numbered file, or FileTimer to suffix each file
	// with its creation time.
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints every n steps
func NewNStep(n int, object Serializable,
	filename func() string) Checkpointer {
	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint saves the Checkpointer's tracked object once every
// interval calls. Checkpoint counts its own calls rather than using
// the timestep number, which restarts at every episode boundary.
func (n *nStep) Checkpoint(ts.TimeStep) error {
	n.calls++
	if n.calls%n.interval == 0 {
		return n.object.Save(n.filename())
	}
	return nil
}

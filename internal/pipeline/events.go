package pipeline

import "github.com/ShayCichocki/fable/pkg/models"

// Event reports generation progress. Events are advisory: a slow or absent
// listener never blocks generation.
type Event struct {
	// Phase is the pipeline phase the event belongs to.
	Phase models.Phase
	// NodeID identifies the node, when the event concerns one.
	NodeID string
	// Done and Total track per-phase leaf progress; zero when not applicable.
	Done  int
	Total int
	// Message is a human-readable note.
	Message string
}

// emit sends an event without blocking. Events are dropped when the channel
// is full or nil.
func emit(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

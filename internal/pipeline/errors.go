package pipeline

import (
	"fmt"

	"github.com/ShayCichocki/fable/pkg/models"
)

// PhaseError wraps a failure with the phase and node it occurred in, so a
// failed run reports where generation stopped.
type PhaseError struct {
	Phase  models.Phase
	NodeID string
	Err    error
}

func (e *PhaseError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("%s phase: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s phase, node %s: %v", e.Phase, e.NodeID, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

func phaseErr(phase models.Phase, nodeID string, err error) *PhaseError {
	return &PhaseError{Phase: phase, NodeID: nodeID, Err: err}
}

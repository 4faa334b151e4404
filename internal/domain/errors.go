package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicateCandidate signals an Add with an ID already admitted this run.
var ErrDuplicateCandidate = errors.New("duplicate candidate")

// ErrUnknownCandidate signals an operation against an ID never admitted.
var ErrUnknownCandidate = errors.New("unknown candidate")

// InvalidTransitionError reports an illegal stage transition. It indicates a
// logic defect in the caller, not an external condition, and is treated as
// fatal by the pipeline.
type InvalidTransitionError struct {
	CandidateID string
	From        Stage
	To          Stage
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s for candidate %s", e.From, e.To, e.CandidateID)
}

package report

import (
	"time"

	"threadcurator/internal/cost"
	"threadcurator/internal/domain"
)

// ApprovedEntry pairs an approved artifact with its delivery outcome. A failed
// delivery never removes the artifact from the report.
type ApprovedEntry struct {
	Artifact  domain.Artifact
	Delivered bool
}

// Disqualification records why a candidate left the pipeline without an
// artifact. Reason is the failure reason or, for rejections, the judge's
// rationale.
type Disqualification struct {
	CandidateID string
	Title       string
	Stage       domain.Stage
	Reason      string
}

// RunReport is the immutable summary of one pipeline invocation.
type RunReport struct {
	RunID    string
	Admitted int
	Scored   int
	Approved []ApprovedEntry

	RejectedCount int
	FailedCount   int
	Disqualified  []Disqualification

	Cost    cost.Snapshot
	Elapsed time.Duration
}

// Build assembles the final run summary. Pure function of its inputs.
func Build(runID string, admitted, scored int, approved []ApprovedEntry, disqualified []Disqualification, snap cost.Snapshot, elapsed time.Duration) RunReport {
	r := RunReport{
		RunID:        runID,
		Admitted:     admitted,
		Scored:       scored,
		Approved:     append([]ApprovedEntry(nil), approved...),
		Disqualified: append([]Disqualification(nil), disqualified...),
		Cost:         snap,
		Elapsed:      elapsed,
	}
	for _, d := range r.Disqualified {
		switch d.Stage {
		case domain.StageRejected:
			r.RejectedCount++
		case domain.StageFailed:
			r.FailedCount++
		}
	}
	return r
}

package domain

import "fmt"

// Stage is a discrete point in a candidate's progress through the editorial
// pipeline. Transitions are monotonic: a candidate never revisits a prior
// stage, and terminal stages admit no further transitions.
type Stage string

const (
	StageRaw       Stage = "raw"
	StageScored    Stage = "scored"
	StageExtracted Stage = "extracted"
	StageGenerated Stage = "generated"
	StageJudged    Stage = "judged"
	StageApproved  Stage = "approved"
	StageRejected  Stage = "rejected"
	StageFailed    Stage = "failed"
)

// successors maps each stage to its allowed direct successors. Failed is
// reachable from every non-terminal stage and is handled separately.
var successors = map[Stage][]Stage{
	StageRaw:       {StageScored},
	StageScored:    {StageExtracted},
	StageExtracted: {StageGenerated},
	StageGenerated: {StageJudged},
	StageJudged:    {StageApproved, StageRejected},
}

// Terminal reports whether the stage admits no further transitions.
func (s Stage) Terminal() bool {
	return s == StageApproved || s == StageRejected || s == StageFailed
}

// CanAdvance reports whether next is a legal direct successor of s.
func (s Stage) CanAdvance(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	for _, allowed := range successors[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FailReason records which pipeline stage disqualified a candidate.
type FailReason string

const (
	ReasonScoringFailed    FailReason = "scoring_failed"
	ReasonExtractionFailed FailReason = "extraction_failed"
	ReasonGenerationFailed FailReason = "generation_failed"
	ReasonJudgeFailed      FailReason = "judge_failed"
)

// Candidate is a raw post under consideration for publication.
// Score is meaningful only at stage >= Scored; FullText only at >= Extracted.
type Candidate struct {
	ID      string
	Channel string
	Title   string
	Link    string
	Author  string
	Summary string

	FullText   string
	Score      float64
	Stage      Stage
	FailReason FailReason
	Rationale  string
}

func (c Candidate) String() string {
	return fmt.Sprintf("[%s] %s (ID: %s)", c.Channel, c.Title, c.ID)
}

// Verdict is the editorial judgment over a generated thread.
type Verdict struct {
	Pass       bool
	Confidence float64
	Rationale  string
}

// Artifact is the finished, approved publishable thread derived from a
// candidate. Built only when the judge passes; immutable thereafter.
type Artifact struct {
	CandidateID string
	Title       string
	Segments    []string
	Verdict     Verdict
}

// EvaluatorKind identifies which external capability produced a usage event.
type EvaluatorKind string

const (
	EvaluatorScorer    EvaluatorKind = "scorer"
	EvaluatorGenerator EvaluatorKind = "generator"
	EvaluatorJudge     EvaluatorKind = "judge"
)

// ModelTier drives the per-unit rate applied to a usage event.
type ModelTier string

const (
	TierCheap   ModelTier = "cheap"
	TierPremium ModelTier = "premium"
)

// UsageEvent records the resource cost of one evaluator invocation.
// Events are appended, never mutated.
type UsageEvent struct {
	Evaluator   EvaluatorKind
	Model       string
	Tier        ModelTier
	InputUnits  int64
	OutputUnits int64
}

package ports

import (
	"context"

	"threadcurator/internal/domain"
)

// SourceFeed pulls raw candidates from the subscribed channels. The returned
// slice is finite and ordered; the feed is not restartable across runs.
type SourceFeed interface {
	Fetch(ctx context.Context) ([]domain.Candidate, error)
}

// Extractor fetches the full body text behind a candidate's link.
type Extractor interface {
	Extract(ctx context.Context, candidate domain.Candidate) (string, error)
}

// Scorer assigns a numeric rank to a candidate from its pre-extraction
// summary. Implementations convert every external failure (timeout, bad
// status, malformed output) into an error; they never panic across this
// boundary. Usage is reported even when the call fails after dispatch.
type Scorer interface {
	Score(ctx context.Context, candidate domain.Candidate) (float64, domain.UsageEvent, error)
}

// Generator turns extracted full text into an ordered sequence of post-sized
// segments, written in the configured persona's voice.
type Generator interface {
	Generate(ctx context.Context, candidate domain.Candidate) ([]string, domain.UsageEvent, error)
}

// Judge evaluates a generated thread. A reject verdict is a legitimate
// negative outcome, distinct from an evaluator failure.
type Judge interface {
	Evaluate(ctx context.Context, segments []string) (domain.Verdict, domain.UsageEvent, error)
}

// Notifier delivers a finished artifact downstream. Delivery failure is
// reported but never retroactively un-approves the artifact.
type Notifier interface {
	Deliver(ctx context.Context, artifact domain.Artifact) error
}

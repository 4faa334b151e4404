package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"threadcurator/internal/domain"
	"threadcurator/internal/ports"
)

const scorerSystemPrompt = `You are a tech content curator for short-form social threads. Rate how well a single post would work as an engaging, informative thread for a smart 20-30 y/o software-engineer audience.

Rubric:
1. Novelty: is this new, surprising, or counterintuitive?
2. Relevance: would a smart 20-30 y/o SWE care? (tech, startups, entrepreneurship, finance/stocks)
3. Signal density: a genuine insight or valuable info, not just news or noise.

Assign a score from 0-100 against the rubric.

Respond ONLY with a JSON object: {"score": <number>}`

const (
	scorerTitleLimit   = 300
	scorerSummaryLimit = 1500
)

// Scorer ranks candidates with a cheap chat model. One call per candidate;
// failures are returned as errors and are never retried here.
type Scorer struct {
	client *Client
	model  string
	tier   domain.ModelTier
}

var _ ports.Scorer = (*Scorer)(nil)

// NewScorer wires the shared chat client to the scoring model.
func NewScorer(client *Client, model string, tier domain.ModelTier) *Scorer {
	return &Scorer{client: client, model: model, tier: tier}
}

// Score rates one candidate from its pre-extraction summary.
func (s *Scorer) Score(ctx context.Context, c domain.Candidate) (float64, domain.UsageEvent, error) {
	payload, err := json.Marshal(map[string]string{
		"title":   truncate(c.Title, scorerTitleLimit),
		"summary": truncate(c.Summary, scorerSummaryLimit),
		"channel": c.Channel,
	})
	if err != nil {
		return 0, s.usage(TokenUsage{}), fmt.Errorf("marshal scoring payload: %w", err)
	}

	content, tokens, err := s.client.CompleteJSON(ctx, s.model, scorerSystemPrompt,
		"Rate this post:\n\n"+string(payload))
	usage := s.usage(tokens)
	if err != nil {
		return 0, usage, fmt.Errorf("score candidate: %w", err)
	}

	var result struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return 0, usage, fmt.Errorf("parse score: %w", err)
	}

	if result.Score < 0 || result.Score > 100 {
		return 0, usage, fmt.Errorf("score %v out of range", result.Score)
	}

	return result.Score, usage, nil
}

func (s *Scorer) usage(tokens TokenUsage) domain.UsageEvent {
	return domain.UsageEvent{
		Evaluator:   domain.EvaluatorScorer,
		Model:       s.model,
		Tier:        s.tier,
		InputUnits:  tokens.PromptTokens,
		OutputUnits: tokens.CompletionTokens,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"threadcurator/internal/domain"
	"threadcurator/internal/ports"
)

const judgeSystemPrompt = `You are an editorial judge for short-form threads aimed at 20-35 year old tech professionals.

Your job: would YOU stop scrolling for this thread? Would you enjoy reading it?

Audience: software engineers, founders, tech enthusiasts who want fun, juicy, engaging content.

Answer STRICTLY in JSON with:
- action: accept | revise | abort
- confidence: number between 0 and 1
- weakness: the single biggest problem (concise)

Rules:
- ACCEPT if the hook is juicy, the thread is fun to read and easy to follow.
- REVISE if the hook is boring or the thread is confusing.
- ABORT only if it is completely uninteresting, off-topic, or unreadable.

Embrace clickbait-style hooks. Do not penalize provocative framing as long as it is engaging and truthful.`

// Judge evaluates generated threads with the premium model. Both revise and
// abort map to a reject verdict; there is no revision loop.
type Judge struct {
	client *Client
	model  string
	tier   domain.ModelTier
}

var _ ports.Judge = (*Judge)(nil)

// NewJudge wires the shared chat client to the judgment model.
func NewJudge(client *Client, model string, tier domain.ModelTier) *Judge {
	return &Judge{client: client, model: model, tier: tier}
}

// Evaluate renders a pass/reject verdict over the thread segments.
func (j *Judge) Evaluate(ctx context.Context, segments []string) (domain.Verdict, domain.UsageEvent, error) {
	threadText := strings.Join(segments, "\n\n")

	content, tokens, err := j.client.CompleteJSON(ctx, j.model, judgeSystemPrompt, "Thread:\n"+threadText)
	usage := j.usage(tokens)
	if err != nil {
		return domain.Verdict{}, usage, fmt.Errorf("judge thread: %w", err)
	}

	var result struct {
		Action     string  `json:"action"`
		Confidence float64 `json:"confidence"`
		Weakness   string  `json:"weakness"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return domain.Verdict{}, usage, fmt.Errorf("parse verdict: %w", err)
	}

	switch result.Action {
	case "accept":
		return domain.Verdict{Pass: true, Confidence: result.Confidence}, usage, nil
	case "revise", "abort":
		return domain.Verdict{Pass: false, Confidence: result.Confidence, Rationale: result.Weakness}, usage, nil
	default:
		return domain.Verdict{}, usage, fmt.Errorf("unknown verdict action %q", result.Action)
	}
}

func (j *Judge) usage(tokens TokenUsage) domain.UsageEvent {
	return domain.UsageEvent{
		Evaluator:   domain.EvaluatorJudge,
		Model:       j.model,
		Tier:        j.tier,
		InputUnits:  tokens.PromptTokens,
		OutputUnits: tokens.CompletionTokens,
	}
}

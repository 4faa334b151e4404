package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"threadcurator/internal/domain"
	"threadcurator/internal/ports"
)

const generatorSystemPromptFmt = `You are an expert short-form thread writer.
Your persona: %s
Respond only in valid JSON format.

Voice & style:
- Personal and plain text: write from a 1st-person perspective, plain text ONLY, no markdown.
- Double spacing: use DOUBLE LINE BREAKS between short sentences so the text reads well on mobile.
- Clickbait-friendly hooks: curiosity gaps, bold claims, "you won't believe this" energy.
- Truthful but spicy: do not make things up, but frame them in the most interesting way possible.

Formatting rules:
- The first segment is the hook. No numbering on it. It must be irresistible.
- Every segment AFTER the hook starts with its number (e.g. 1/5) on the first line, followed by a blank line.
- Numbering denominator = total segments - 1.
- Exactly %d to %d segments total.`

const (
	minSegments = 6
	maxSegments = 8
)

// Generator turns an extracted candidate into a persona-voiced thread using
// the premium model.
type Generator struct {
	client  *Client
	model   string
	tier    domain.ModelTier
	persona string
}

var _ ports.Generator = (*Generator)(nil)

// NewGenerator wires the shared chat client to the generation model.
func NewGenerator(client *Client, model string, tier domain.ModelTier, persona string) *Generator {
	return &Generator{client: client, model: model, tier: tier, persona: persona}
}

// Generate produces the ordered thread segments for one candidate.
func (g *Generator) Generate(ctx context.Context, c domain.Candidate) ([]string, domain.UsageEvent, error) {
	payload, err := json.Marshal(map[string]string{
		"title":        c.Title,
		"full_content": c.FullText,
	})
	if err != nil {
		return nil, g.usage(TokenUsage{}), fmt.Errorf("marshal generation payload: %w", err)
	}

	system := fmt.Sprintf(generatorSystemPromptFmt, g.persona, minSegments, maxSegments)
	user := fmt.Sprintf(`Generate ONE high-engagement thread for this post.

POST:
%s

OUTPUT FORMAT:
Return ONLY valid JSON: {"segments": ["segment 1", "segment 2", ...]}`, payload)

	content, tokens, err := g.client.CompleteJSON(ctx, g.model, system, user)
	usage := g.usage(tokens)
	if err != nil {
		return nil, usage, fmt.Errorf("generate thread: %w", err)
	}

	var result struct {
		Segments []string `json:"segments"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, usage, fmt.Errorf("parse thread: %w", err)
	}

	if len(result.Segments) < minSegments || len(result.Segments) > maxSegments {
		return nil, usage, fmt.Errorf("generated %d segments, want %d-%d", len(result.Segments), minSegments, maxSegments)
	}

	return result.Segments, usage, nil
}

func (g *Generator) usage(tokens TokenUsage) domain.UsageEvent {
	return domain.UsageEvent{
		Evaluator:   domain.EvaluatorGenerator,
		Model:       g.model,
		Tier:        g.tier,
		InputUnits:  tokens.PromptTokens,
		OutputUnits: tokens.CompletionTokens,
	}
}

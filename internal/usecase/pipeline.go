package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"threadcurator/internal/cost"
	"threadcurator/internal/domain"
	"threadcurator/internal/ports"
	"threadcurator/internal/report"
	"threadcurator/internal/store"
)

// Options bound the work a single run may perform.
type Options struct {
	// TopPoolSize is K: how many ranked candidates enter the deep pipeline.
	// Must exceed TargetApprovals so rejections can be absorbed without retry.
	TopPoolSize int
	// TargetApprovals is N: the run stops once this many artifacts are approved.
	TargetApprovals int
	// PerCallTimeout bounds each external evaluator/extractor/notifier call.
	PerCallTimeout time.Duration
	// RunBudget is the wall-clock budget for the whole run. When exceeded, no
	// new deep-pipeline iterations are admitted; the run ends gracefully.
	RunBudget time.Duration
	// ScoringWorkers caps concurrent Stage-1 scoring calls.
	ScoringWorkers int
	// ScoringRPS rate-limits Stage-1 calls across all workers. <=0 disables.
	ScoringRPS float64
}

func (o Options) withDefaults() Options {
	if o.TopPoolSize <= 0 {
		o.TopPoolSize = 10
	}
	if o.TargetApprovals <= 0 {
		o.TargetApprovals = 3
	}
	if o.PerCallTimeout <= 0 {
		o.PerCallTimeout = 60 * time.Second
	}
	if o.RunBudget <= 0 {
		o.RunBudget = 10 * time.Minute
	}
	if o.ScoringWorkers <= 0 {
		o.ScoringWorkers = 4
	}
	return o
}

// PipelineDeps wires all driven adapters into the editorial loop.
type PipelineDeps struct {
	Feed      ports.SourceFeed
	Extractor ports.Extractor
	Scorer    ports.Scorer
	Generator ports.Generator
	Judge     ports.Judge
	Notifier  ports.Notifier
	Costs     *cost.Accumulator
	Logger    *slog.Logger
	Options   Options
}

// Pipeline drives candidates from admission to approval through the staged
// editorial loop: batch scoring, rank selection, then a strictly sequential
// deep pipeline per ranked candidate until the approval quota is met.
type Pipeline struct {
	feed      ports.SourceFeed
	extractor ports.Extractor
	scorer    ports.Scorer
	generator ports.Generator
	judge     ports.Judge
	notifier  ports.Notifier
	costs     *cost.Accumulator
	logger    *slog.Logger
	opts      Options
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		feed:      deps.Feed,
		extractor: deps.Extractor,
		scorer:    deps.Scorer,
		generator: deps.Generator,
		judge:     deps.Judge,
		notifier:  deps.Notifier,
		costs:     deps.Costs,
		logger:    logger,
		opts:      deps.Options.withDefaults(),
	}
}

// Run executes one full editorial loop and returns the run summary. Every
// per-candidate failure is absorbed and recorded; only internal invariant
// violations and feed errors abort the run.
func (p *Pipeline) Run(ctx context.Context) (report.RunReport, error) {
	start := time.Now()
	runID := uuid.NewString()
	deadline := start.Add(p.opts.RunBudget)

	candidates := store.New()

	raw, err := p.feed.Fetch(ctx)
	if err != nil {
		return report.RunReport{}, fmt.Errorf("fetch candidates: %w", err)
	}

	for _, c := range raw {
		if err := candidates.Add(c); err != nil {
			if errors.Is(err, domain.ErrDuplicateCandidate) {
				p.logger.Debug("dropping duplicate candidate", "id", c.ID, "channel", c.Channel)
				continue
			}
			return report.RunReport{}, fmt.Errorf("admit candidate %s: %w", c.ID, err)
		}
	}

	admitted := candidates.Len()
	p.logger.Info("stage 1: batch scoring", "run", runID, "admitted", admitted)

	if admitted == 0 {
		p.logger.Warn("no candidates admitted; nothing to curate")
		return report.Build(runID, 0, 0, nil, nil, p.costSnapshot(), time.Since(start)), nil
	}

	var disqualified []report.Disqualification

	failed, err := p.scoreAll(ctx, candidates)
	if err != nil {
		return report.RunReport{}, err
	}
	disqualified = append(disqualified, failed...)

	pool := p.selectPool(candidates)
	p.logger.Info("rank selection",
		"scored", admitted-len(failed),
		"pool", len(pool),
		"target", p.opts.TargetApprovals)

	approved, deepDisq, err := p.deepLoop(ctx, candidates, pool, deadline)
	if err != nil {
		return report.RunReport{}, err
	}
	disqualified = append(disqualified, deepDisq...)

	rep := report.Build(runID, admitted, admitted-len(failed), approved, disqualified, p.costSnapshot(), time.Since(start))
	p.logAudit(rep)
	return rep, nil
}

// scoreAll invokes the scorer over every Raw candidate. Calls run concurrently
// under the configured worker count and rate limit; a scoring failure for one
// candidate never blocks the others and is not retried.
func (p *Pipeline) scoreAll(ctx context.Context, candidates *store.CandidateStore) ([]report.Disqualification, error) {
	rawList := candidates.ListByStage(domain.StageRaw)

	var limiter *rate.Limiter
	if p.opts.ScoringRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.opts.ScoringRPS), 1)
	}

	workers := p.opts.ScoringWorkers
	if workers > len(rawList) {
		workers = len(rawList)
	}

	jobs := make(chan domain.Candidate)

	type outcome struct {
		id     string
		title  string
		score  float64
		err    error
		failed bool
	}
	results := make(chan outcome, len(rawList))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for c := range jobs {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						results <- outcome{id: c.ID, title: c.Title, err: err, failed: true}
						continue
					}
				}

				callCtx, cancel := context.WithTimeout(ctx, p.opts.PerCallTimeout)
				score, usage, err := p.scorer.Score(callCtx, c)
				cancel()
				p.recordUsage(usage)

				results <- outcome{id: c.ID, title: c.Title, score: score, err: err, failed: err != nil}
			}
		}()
	}

	for _, c := range rawList {
		jobs <- c
	}
	close(jobs)
	wg.Wait()
	close(results)

	// Transitions are applied on the main goroutine after reassembly so the
	// store never sees a half-scored batch mid-rank.
	var disqualified []report.Disqualification
	for res := range results {
		if res.failed {
			p.logger.Warn("scoring failed", "id", res.id, "title", res.title, "error", res.err)
			if err := candidates.SetStage(res.id, domain.StageFailed, store.Extra{FailReason: domain.ReasonScoringFailed}); err != nil {
				return nil, fmt.Errorf("mark scoring failure: %w", err)
			}
			disqualified = append(disqualified, report.Disqualification{
				CandidateID: res.id,
				Title:       res.title,
				Stage:       domain.StageFailed,
				Reason:      string(domain.ReasonScoringFailed),
			})
			continue
		}

		score := res.score
		if err := candidates.SetStage(res.id, domain.StageScored, store.Extra{Score: &score}); err != nil {
			return nil, fmt.Errorf("mark scored: %w", err)
		}
	}

	return disqualified, nil
}

// selectPool ranks the Scored candidates by score descending and returns the
// top K. The sort is stable, so equal scores keep admission order and a rerun
// over identical inputs selects an identical pool.
func (p *Pipeline) selectPool(candidates *store.CandidateStore) []domain.Candidate {
	scored := candidates.ListByStage(domain.StageScored)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > p.opts.TopPoolSize {
		scored = scored[:p.opts.TopPoolSize]
	}
	return scored
}

// deepLoop runs extraction, generation, and judgment per pool candidate,
// strictly sequentially in rank order. It stops as soon as the approval quota
// is met, the pool is exhausted, or the wall-clock budget runs out.
func (p *Pipeline) deepLoop(ctx context.Context, candidates *store.CandidateStore, pool []domain.Candidate, deadline time.Time) ([]report.ApprovedEntry, []report.Disqualification, error) {
	var (
		approved     []report.ApprovedEntry
		disqualified []report.Disqualification
	)

	fail := func(c domain.Candidate, reason domain.FailReason, err error) error {
		p.logger.Warn("candidate disqualified",
			"id", c.ID, "title", c.Title, "reason", reason, "error", err)
		if sErr := candidates.SetStage(c.ID, domain.StageFailed, store.Extra{FailReason: reason}); sErr != nil {
			return fmt.Errorf("mark %s: %w", reason, sErr)
		}
		disqualified = append(disqualified, report.Disqualification{
			CandidateID: c.ID,
			Title:       c.Title,
			Stage:       domain.StageFailed,
			Reason:      string(reason),
		})
		return nil
	}

	for i, c := range pool {
		if len(approved) >= p.opts.TargetApprovals {
			break
		}
		if time.Now().After(deadline) {
			p.logger.Warn("run budget exceeded; stopping deep pipeline",
				"processed", i, "approved", len(approved))
			break
		}

		p.logger.Info("processing candidate",
			"rank", i+1, "score", c.Score, "title", c.Title)

		// Extraction.
		text, err := p.callExtract(ctx, c)
		if err != nil {
			if fErr := fail(c, domain.ReasonExtractionFailed, err); fErr != nil {
				return nil, nil, fErr
			}
			continue
		}
		if err := candidates.SetStage(c.ID, domain.StageExtracted, store.Extra{FullText: text}); err != nil {
			return nil, nil, fmt.Errorf("mark extracted: %w", err)
		}
		c.FullText = text

		// Generation.
		segments, usage, err := p.callGenerate(ctx, c)
		p.recordUsage(usage)
		if err != nil {
			if fErr := fail(c, domain.ReasonGenerationFailed, err); fErr != nil {
				return nil, nil, fErr
			}
			continue
		}
		if err := candidates.SetStage(c.ID, domain.StageGenerated, store.Extra{}); err != nil {
			return nil, nil, fmt.Errorf("mark generated: %w", err)
		}

		// Judgment.
		verdict, usage, err := p.callJudge(ctx, segments)
		p.recordUsage(usage)
		if err != nil {
			if fErr := fail(c, domain.ReasonJudgeFailed, err); fErr != nil {
				return nil, nil, fErr
			}
			continue
		}
		if err := candidates.SetStage(c.ID, domain.StageJudged, store.Extra{Rationale: verdict.Rationale}); err != nil {
			return nil, nil, fmt.Errorf("mark judged: %w", err)
		}

		if !verdict.Pass {
			p.logger.Info("thread rejected",
				"title", c.Title, "confidence", verdict.Confidence, "rationale", verdict.Rationale)
			if err := candidates.SetStage(c.ID, domain.StageRejected, store.Extra{Rationale: verdict.Rationale}); err != nil {
				return nil, nil, fmt.Errorf("mark rejected: %w", err)
			}
			disqualified = append(disqualified, report.Disqualification{
				CandidateID: c.ID,
				Title:       c.Title,
				Stage:       domain.StageRejected,
				Reason:      verdict.Rationale,
			})
			continue
		}

		if err := candidates.SetStage(c.ID, domain.StageApproved, store.Extra{}); err != nil {
			return nil, nil, fmt.Errorf("mark approved: %w", err)
		}

		artifact := domain.Artifact{
			CandidateID: c.ID,
			Title:       c.Title,
			Segments:    segments,
			Verdict:     verdict,
		}

		delivered := p.deliver(ctx, artifact)
		approved = append(approved, report.ApprovedEntry{Artifact: artifact, Delivered: delivered})
		p.logger.Info("thread approved",
			"title", c.Title, "approved", len(approved), "target", p.opts.TargetApprovals)
	}

	return approved, disqualified, nil
}

func (p *Pipeline) callExtract(ctx context.Context, c domain.Candidate) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.opts.PerCallTimeout)
	defer cancel()
	return p.extractor.Extract(callCtx, c)
}

func (p *Pipeline) callGenerate(ctx context.Context, c domain.Candidate) ([]string, domain.UsageEvent, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.opts.PerCallTimeout)
	defer cancel()
	return p.generator.Generate(callCtx, c)
}

func (p *Pipeline) callJudge(ctx context.Context, segments []string) (domain.Verdict, domain.UsageEvent, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.opts.PerCallTimeout)
	defer cancel()
	return p.judge.Evaluate(callCtx, segments)
}

// deliver hands an approved artifact to the notifier. Failure is logged and
// surfaces as Delivered=false in the report; the approval stands.
func (p *Pipeline) deliver(ctx context.Context, artifact domain.Artifact) bool {
	if p.notifier == nil {
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, p.opts.PerCallTimeout)
	defer cancel()

	if err := p.notifier.Deliver(callCtx, artifact); err != nil {
		p.logger.Error("artifact delivery failed",
			"candidate", artifact.CandidateID, "error", err)
		return false
	}
	return true
}

func (p *Pipeline) recordUsage(ev domain.UsageEvent) {
	if p.costs == nil || ev.Evaluator == "" {
		return
	}
	p.costs.Record(ev)
}

func (p *Pipeline) costSnapshot() cost.Snapshot {
	if p.costs == nil {
		return cost.Snapshot{}
	}
	return p.costs.Snapshot()
}

// logAudit prints the end-of-run usage breakdown.
func (p *Pipeline) logAudit(rep report.RunReport) {
	for key, bucket := range rep.Cost.Buckets {
		p.logger.Info("usage",
			"evaluator", key.Evaluator,
			"tier", key.Tier,
			"calls", bucket.Calls,
			"input_units", bucket.InputUnits,
			"output_units", bucket.OutputUnits,
			"cost_usd", fmt.Sprintf("%.6f", bucket.Cost))
	}
	p.logger.Info("run complete",
		"run", rep.RunID,
		"admitted", rep.Admitted,
		"approved", len(rep.Approved),
		"rejected", rep.RejectedCount,
		"failed", rep.FailedCount,
		"total_cost_usd", fmt.Sprintf("%.6f", rep.Cost.TotalCost),
		"elapsed", rep.Elapsed.Round(time.Millisecond))
}

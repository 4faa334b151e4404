package app

import (
	"context"
	"log/slog"
	"net/http"

	"threadcurator/internal/config"
	"threadcurator/internal/cost"
	"threadcurator/internal/domain"
	"threadcurator/internal/infrastructure/extract"
	"threadcurator/internal/infrastructure/llm"
	"threadcurator/internal/infrastructure/reddit"
	"threadcurator/internal/infrastructure/telegram"
	"threadcurator/internal/logging"
	"threadcurator/internal/ports"
	"threadcurator/internal/usecase"
)

// Application wires configuration into the editorial pipeline.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	fetchClient := &http.Client{Timeout: cfg.Pipeline.PerCallTimeout()}

	feed := reddit.NewFeed(
		fetchClient,
		cfg.Sources.UserAgent,
		cfg.Sources.Channels,
		cfg.Sources.Listing,
		cfg.Sources.PostsPerChannel,
		baseLogger.With("component", "feed"),
	)

	extractor := extract.NewExtractor(fetchClient, cfg.Sources.UserAgent)

	chat := llm.NewClient(cfg.OpenAI.Endpoint, cfg.OpenAI.APIKey)
	scorer := llm.NewScorer(chat, cfg.OpenAI.Scorer.Name, domain.ModelTier(cfg.OpenAI.Scorer.Tier))
	generator := llm.NewGenerator(chat, cfg.OpenAI.Generator.Name, domain.ModelTier(cfg.OpenAI.Generator.Tier), cfg.Persona.Description)
	judge := llm.NewJudge(chat, cfg.OpenAI.Judge.Name, domain.ModelTier(cfg.OpenAI.Judge.Tier))

	var notifier ports.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	} else {
		baseLogger.Warn("telegram credentials missing; approved threads will not be delivered")
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Feed:      feed,
		Extractor: extractor,
		Scorer:    scorer,
		Generator: generator,
		Judge:     judge,
		Notifier:  notifier,
		Costs:     cost.NewAccumulator(rateTable(cfg.Costs)),
		Logger:    baseLogger.With("component", "pipeline"),
		Options: usecase.Options{
			TopPoolSize:     cfg.Pipeline.TopPoolSize,
			TargetApprovals: cfg.Pipeline.TargetApprovals,
			PerCallTimeout:  cfg.Pipeline.PerCallTimeout(),
			RunBudget:       cfg.Pipeline.RunBudget(),
			ScoringWorkers:  cfg.Pipeline.ScoringWorkers,
			ScoringRPS:      cfg.Pipeline.ScoringRPS,
		},
	})

	return &Application{cfg: cfg, pipeline: pipeline}
}

// Run executes exactly one editorial loop, end to end.
func (a *Application) Run(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	_, err := a.pipeline.Run(ctx)
	return err
}

func rateTable(rates []config.CostRate) cost.RateTable {
	table := cost.RateTable{}
	for _, r := range rates {
		key := cost.RateKey{
			Evaluator: domain.EvaluatorKind(r.Evaluator),
			Tier:      domain.ModelTier(r.Tier),
		}
		table[key] = cost.Rate{
			InputPerMillion:  r.InputPerMillion,
			OutputPerMillion: r.OutputPerMillion,
		}
	}
	return table
}

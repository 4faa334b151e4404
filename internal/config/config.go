package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "THREAD_CURATOR_CONFIG"
	subredditsEnv     = "SUBREDDITS"
	postsPerSubEnv    = "POSTS_PER_SUB"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	scorerModelEnv    = "SCORER_MODEL"
	threadModelEnv    = "THREAD_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Sources  SourcesConfig  `yaml:"sources"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Persona  PersonaConfig  `yaml:"persona"`
	Telegram TelegramConfig `yaml:"telegram"`
	Costs    []CostRate     `yaml:"costs"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourcesConfig describes the subscribed channels.
type SourcesConfig struct {
	Channels        []string `yaml:"channels"`
	Listing         string   `yaml:"listing"`
	PostsPerChannel int      `yaml:"postsPerChannel"`
	UserAgent       string   `yaml:"userAgent"`
}

// PipelineConfig bounds a single editorial run.
type PipelineConfig struct {
	TopPoolSize        int     `yaml:"topPoolSize"`
	TargetApprovals    int     `yaml:"targetApprovals"`
	PerCallTimeoutMs   int     `yaml:"perCallTimeoutMs"`
	RunWallClockBudget int     `yaml:"runWallClockBudgetMs"`
	ScoringWorkers     int     `yaml:"scoringWorkers"`
	ScoringRPS         float64 `yaml:"scoringRps"`
}

// PerCallTimeout resolves the per-call timeout as a duration.
func (p PipelineConfig) PerCallTimeout() time.Duration {
	return time.Duration(p.PerCallTimeoutMs) * time.Millisecond
}

// RunBudget resolves the wall-clock budget as a duration.
func (p PipelineConfig) RunBudget() time.Duration {
	return time.Duration(p.RunWallClockBudget) * time.Millisecond
}

// ModelConfig names a concrete model and its pricing tier.
type ModelConfig struct {
	Name string `yaml:"name"`
	Tier string `yaml:"tier"`
}

// OpenAIConfig defines how to contact the chat-completions API.
type OpenAIConfig struct {
	Endpoint  string      `yaml:"endpoint"`
	APIKey    string      `yaml:"apiKey"`
	Scorer    ModelConfig `yaml:"scorer"`
	Generator ModelConfig `yaml:"generator"`
	Judge     ModelConfig `yaml:"judge"`
}

// PersonaConfig shapes the generator's authorial voice.
type PersonaConfig struct {
	Description string `yaml:"description"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// CostRate prices one evaluator/tier pairing per million units.
type CostRate struct {
	Evaluator        string  `yaml:"evaluator"`
	Tier             string  `yaml:"tier"`
	InputPerMillion  float64 `yaml:"inputPerMillion"`
	OutputPerMillion float64 `yaml:"outputPerMillion"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

// Validate rejects configurations that cannot produce a meaningful run.
func (c Config) Validate() error {
	if len(c.Sources.Channels) == 0 {
		return fmt.Errorf("config: at least one source channel is required (set %s or sources.channels)", subredditsEnv)
	}
	if c.Pipeline.TopPoolSize <= c.Pipeline.TargetApprovals {
		return fmt.Errorf("config: topPoolSize (%d) must exceed targetApprovals (%d)",
			c.Pipeline.TopPoolSize, c.Pipeline.TargetApprovals)
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("config: OpenAI API key is required (set %s)", openAIAPIKeyEnv)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(subredditsEnv); v != "" {
		var channels []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				channels = append(channels, part)
			}
		}
		if len(channels) > 0 {
			c.Sources.Channels = channels
		}
	}

	if v := os.Getenv(postsPerSubEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sources.PostsPerChannel = n
		}
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(scorerModelEnv); v != "" {
		c.OpenAI.Scorer.Name = v
	}

	if v := os.Getenv(threadModelEnv); v != "" {
		c.OpenAI.Generator.Name = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if len(override.Sources.Channels) > 0 {
		base.Sources.Channels = override.Sources.Channels
	}
	if override.Sources.Listing != "" {
		base.Sources.Listing = override.Sources.Listing
	}
	if override.Sources.PostsPerChannel > 0 {
		base.Sources.PostsPerChannel = override.Sources.PostsPerChannel
	}
	if override.Sources.UserAgent != "" {
		base.Sources.UserAgent = override.Sources.UserAgent
	}

	if override.Pipeline.TopPoolSize > 0 {
		base.Pipeline.TopPoolSize = override.Pipeline.TopPoolSize
	}
	if override.Pipeline.TargetApprovals > 0 {
		base.Pipeline.TargetApprovals = override.Pipeline.TargetApprovals
	}
	if override.Pipeline.PerCallTimeoutMs > 0 {
		base.Pipeline.PerCallTimeoutMs = override.Pipeline.PerCallTimeoutMs
	}
	if override.Pipeline.RunWallClockBudget > 0 {
		base.Pipeline.RunWallClockBudget = override.Pipeline.RunWallClockBudget
	}
	if override.Pipeline.ScoringWorkers > 0 {
		base.Pipeline.ScoringWorkers = override.Pipeline.ScoringWorkers
	}
	if override.Pipeline.ScoringRPS > 0 {
		base.Pipeline.ScoringRPS = override.Pipeline.ScoringRPS
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.Scorer.Name != "" {
		base.OpenAI.Scorer = override.OpenAI.Scorer
	}
	if override.OpenAI.Generator.Name != "" {
		base.OpenAI.Generator = override.OpenAI.Generator
	}
	if override.OpenAI.Judge.Name != "" {
		base.OpenAI.Judge = override.OpenAI.Judge
	}

	if override.Persona.Description != "" {
		base.Persona = override.Persona
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}

	if len(override.Costs) > 0 {
		base.Costs = override.Costs
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Sources: SourcesConfig{
			Listing:         "hot",
			PostsPerChannel: 3,
			UserAgent:       "ThreadCurator/1.0",
		},
		Pipeline: PipelineConfig{
			TopPoolSize:        10,
			TargetApprovals:    3,
			PerCallTimeoutMs:   60000,
			RunWallClockBudget: 600000,
			ScoringWorkers:     4,
			ScoringRPS:         2,
		},
		OpenAI: OpenAIConfig{
			Endpoint:  "https://api.openai.com/v1/chat/completions",
			Scorer:    ModelConfig{Name: "gpt-5-mini", Tier: "cheap"},
			Generator: ModelConfig{Name: "gpt-5.2", Tier: "premium"},
			Judge:     ModelConfig{Name: "gpt-5.2", Tier: "premium"},
		},
		Persona: PersonaConfig{
			Description: "A 25-year-old software engineer at a large cloud provider, obsessed with tech, startups, and engineering trends.",
		},
		Costs: []CostRate{
			{Evaluator: "scorer", Tier: "cheap", InputPerMillion: 0.15, OutputPerMillion: 0.60},
			{Evaluator: "generator", Tier: "premium", InputPerMillion: 10.0, OutputPerMillion: 30.0},
			{Evaluator: "judge", Tier: "premium", InputPerMillion: 10.0, OutputPerMillion: 30.0},
		},
	}
}

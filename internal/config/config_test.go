package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreUsable(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Pipeline.TopPoolSize <= cfg.Pipeline.TargetApprovals {
		t.Fatalf("default pool %d must exceed default target %d",
			cfg.Pipeline.TopPoolSize, cfg.Pipeline.TargetApprovals)
	}
	if cfg.Pipeline.PerCallTimeout() != 60*time.Second {
		t.Fatalf("unexpected per-call timeout: %v", cfg.Pipeline.PerCallTimeout())
	}
	if cfg.Pipeline.RunBudget() != 10*time.Minute {
		t.Fatalf("unexpected run budget: %v", cfg.Pipeline.RunBudget())
	}
	if len(cfg.Costs) == 0 {
		t.Fatal("default rate table is empty")
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
sources:
  channels: [programming, golang]
  postsPerChannel: 5
pipeline:
  topPoolSize: 7
  targetApprovals: 2
openai:
  scorer:
    name: tiny-model
    tier: cheap
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(subredditsEnv, "")
	t.Setenv(postsPerSubEnv, "")
	t.Setenv(openAIAPIKeyEnv, "")
	t.Setenv(scorerModelEnv, "")
	t.Setenv(threadModelEnv, "")

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Fatalf("file level not applied: %s", cfg.Logging.Level)
	}
	if len(cfg.Sources.Channels) != 2 || cfg.Sources.Channels[0] != "programming" {
		t.Fatalf("channels not applied: %v", cfg.Sources.Channels)
	}
	if cfg.Pipeline.TopPoolSize != 7 || cfg.Pipeline.TargetApprovals != 2 {
		t.Fatalf("pipeline bounds not applied: %+v", cfg.Pipeline)
	}
	if cfg.OpenAI.Scorer.Name != "tiny-model" {
		t.Fatalf("scorer model not applied: %+v", cfg.OpenAI.Scorer)
	}
	// Untouched sections keep defaults.
	if cfg.OpenAI.Generator.Name == "" || cfg.Pipeline.PerCallTimeoutMs != 60000 {
		t.Fatalf("defaults lost in merge: %+v", cfg)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(subredditsEnv, "golang, rust , ")
	t.Setenv(postsPerSubEnv, "4")
	t.Setenv(openAIAPIKeyEnv, "sk-test")
	t.Setenv(threadModelEnv, "huge-model")

	cfg := Load()

	if len(cfg.Sources.Channels) != 2 || cfg.Sources.Channels[1] != "rust" {
		t.Fatalf("SUBREDDITS not parsed: %v", cfg.Sources.Channels)
	}
	if cfg.Sources.PostsPerChannel != 4 {
		t.Fatalf("POSTS_PER_SUB not applied: %d", cfg.Sources.PostsPerChannel)
	}
	if cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.Generator.Name != "huge-model" {
		t.Fatalf("env overrides not applied: %+v", cfg.OpenAI)
	}
}

func TestValidate(t *testing.T) {
	base := defaultConfig()
	base.Sources.Channels = []string{"golang"}
	base.OpenAI.APIKey = "sk-test"

	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	noChannels := base
	noChannels.Sources.Channels = nil
	if err := noChannels.Validate(); err == nil {
		t.Fatal("expected empty channels to fail validation")
	}

	badPool := base
	badPool.Pipeline.TopPoolSize = 3
	badPool.Pipeline.TargetApprovals = 3
	if err := badPool.Validate(); err == nil {
		t.Fatal("expected K<=N to fail validation")
	}

	noKey := base
	noKey.OpenAI.APIKey = ""
	if err := noKey.Validate(); err == nil {
		t.Fatal("expected missing API key to fail validation")
	}
}

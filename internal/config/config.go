package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       App       `mapstructure:"app"`
	AI        AI        `mapstructure:"ai"`
	Ingest    Ingest    `mapstructure:"ingest"`
	Summarize Summarize `mapstructure:"summarize"`
	Score     Score     `mapstructure:"score"`
	Feedback  Feedback  `mapstructure:"feedback"`
	Digest    Digest    `mapstructure:"digest"`
	Worker    Worker    `mapstructure:"worker"`
	Schedule  Schedule  `mapstructure:"schedule"`
	Metrics   Metrics   `mapstructure:"metrics"`
}

// App holds general application configuration.
type App struct {
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

// AI holds AI generation configuration.
type AI struct {
	Provider    string  `mapstructure:"provider"` // "gemini" or "static"
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
}

// Ingest holds fetch and deduplication configuration.
type Ingest struct {
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	MaxFailures     int           `mapstructure:"max_failures"` // Consecutive failures before a source is deactivated
	EmptyBodyScore  float64       `mapstructure:"empty_body_score"`
	UserAgent       string        `mapstructure:"user_agent"`
	MaxItemsPerFeed int           `mapstructure:"max_items_per_feed"`
}

// Summarize holds the orchestrator's time budgets and retry policy.
type Summarize struct {
	CombinedBudget time.Duration `mapstructure:"combined_budget"` // Budget for the single combined call
	MicroBudget    time.Duration `mapstructure:"micro_budget"`
	StandardBudget time.Duration `mapstructure:"standard_budget"`
	DetailedBudget time.Duration `mapstructure:"detailed_budget"`
	LevelRetries   int           `mapstructure:"level_retries"` // Retries per level after the first attempt
}

// Score holds relevance scoring weights and recency tuning.
// Weights are normalized before use; defaults reserve the remainder for
// the selection-time diversity adjustment.
type Score struct {
	PreferenceWeight float64       `mapstructure:"preference_weight"`
	EngagementWeight float64       `mapstructure:"engagement_weight"`
	RecencyWeight    float64       `mapstructure:"recency_weight"`
	QualityWeight    float64       `mapstructure:"quality_weight"`
	FreshWindow      time.Duration `mapstructure:"fresh_window"` // Full recency score within this window
	RecencyHalfLife  time.Duration `mapstructure:"recency_half_life"`
	RecencyFloor     float64       `mapstructure:"recency_floor"` // Fraction of full score the decay bottoms out at
	EngagementWindow time.Duration `mapstructure:"engagement_window"`
}

// Feedback holds preference learning deltas and idempotency tuning.
type Feedback struct {
	ThumbsDelta    float64       `mapstructure:"thumbs_delta"` // Applied +/- for thumbs events
	ClickDelta     float64       `mapstructure:"click_delta"`
	ReadTimeDelta  float64       `mapstructure:"read_time_delta"` // Max delta for a full read
	FullReadTime   time.Duration `mapstructure:"full_read_time"`  // Read duration treated as a full read
	CoalesceWindow time.Duration `mapstructure:"coalesce_window"` // Identical events inside this window count once
	RecomputeSpan  time.Duration `mapstructure:"recompute_span"`  // Rolling event window for batch recomputes
}

// Digest holds digest assembly configuration.
type Digest struct {
	Size        int           `mapstructure:"size"`         // Target number of articles per digest
	CategoryCap int           `mapstructure:"category_cap"` // Max occurrences of one primary tag
	Lookback    time.Duration `mapstructure:"lookback"`     // Candidate article age limit
}

// Worker holds worker pool configuration.
type Worker struct {
	PoolSize   int `mapstructure:"pool_size"`
	QueueDepth int `mapstructure:"queue_depth"`
}

// Schedule holds cron expressions for the background jobs.
type Schedule struct {
	Ingest    string `mapstructure:"ingest"`
	Summarize string `mapstructure:"summarize"`
	Recompute string `mapstructure:"recompute"`
}

// Metrics holds the metrics endpoint configuration.
type Metrics struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from the given file (or the default search
// path), applies environment overrides and defaults, and unmarshals it.
func Load(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".curator")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CURATOR")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine; defaults and env cover everything.
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".curator")

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.model", "gemini-flash-lite-latest")
	viper.SetDefault("ai.temperature", 0.3)
	viper.SetDefault("ai.max_tokens", 8192)

	viper.SetDefault("ingest.fetch_timeout", "30s")
	viper.SetDefault("ingest.max_failures", 5)
	viper.SetDefault("ingest.empty_body_score", 15.0)
	viper.SetDefault("ingest.user_agent", "Curator Feed Reader/1.0")
	viper.SetDefault("ingest.max_items_per_feed", 100)

	viper.SetDefault("summarize.combined_budget", "45s")
	viper.SetDefault("summarize.micro_budget", "8s")
	viper.SetDefault("summarize.standard_budget", "15s")
	viper.SetDefault("summarize.detailed_budget", "25s")
	viper.SetDefault("summarize.level_retries", 1)

	viper.SetDefault("score.preference_weight", 0.30)
	viper.SetDefault("score.engagement_weight", 0.25)
	viper.SetDefault("score.recency_weight", 0.20)
	viper.SetDefault("score.quality_weight", 0.15)
	viper.SetDefault("score.fresh_window", "24h")
	viper.SetDefault("score.recency_half_life", "72h")
	viper.SetDefault("score.recency_floor", 0.1)
	viper.SetDefault("score.engagement_window", "720h")

	viper.SetDefault("feedback.thumbs_delta", 0.10)
	viper.SetDefault("feedback.click_delta", 0.03)
	viper.SetDefault("feedback.read_time_delta", 0.05)
	viper.SetDefault("feedback.full_read_time", "3m")
	viper.SetDefault("feedback.coalesce_window", "5m")
	viper.SetDefault("feedback.recompute_span", "2160h")

	viper.SetDefault("digest.size", 10)
	viper.SetDefault("digest.category_cap", 3)
	viper.SetDefault("digest.lookback", "48h")

	viper.SetDefault("worker.pool_size", 8)
	viper.SetDefault("worker.queue_depth", 256)

	viper.SetDefault("schedule.ingest", "*/15 * * * *")
	viper.SetDefault("schedule.summarize", "*/5 * * * *")
	viper.SetDefault("schedule.recompute", "30 3 * * *")

	viper.SetDefault("metrics.addr", ":9187")
}

// Package cmd defines the curator CLI.
package cmd

import (
	"fmt"
	"os"

	"curator/internal/config"
	"curator/internal/feeds"
	"curator/internal/ingest"
	"curator/internal/llm"
	"curator/internal/logger"
	"curator/internal/prefs"
	"curator/internal/relevance"
	"curator/internal/store"
	"curator/internal/summarize"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Curator ingests feeds, summarizes articles, and assembles personalized digests.",
	Long: `Curator is a content pipeline: it pulls articles from configured
feed sources, deduplicates them, produces tiered AI summaries with
deterministic fallbacks, scores articles against per-user preference
profiles, and assembles ranked digests. Feedback on digest items feeds
back into the preference profiles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger.Init()
		logger.SetLevel(cfg.App.LogLevel)
		return nil
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.curator.yaml or $HOME/.curator.yaml)")
}

// openStore opens the configured database. Callers own the Close.
func openStore() (*store.Store, error) {
	s, err := store.New(cfg.App.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

func newIngestor(s *store.Store) *ingest.Ingestor {
	fetcher := feeds.NewFetcher(feeds.Options{
		Timeout:   cfg.Ingest.FetchTimeout,
		UserAgent: cfg.Ingest.UserAgent,
		MaxItems:  cfg.Ingest.MaxItemsPerFeed,
	})
	return ingest.New(s, fetcher, ingest.Options{
		MaxFailures:    cfg.Ingest.MaxFailures,
		EmptyBodyScore: cfg.Ingest.EmptyBodyScore,
	})
}

func newOrchestrator(s *store.Store) (*summarize.Orchestrator, error) {
	gen, err := llm.NewGenerator(llm.Options{
		Provider:    cfg.AI.Provider,
		Model:       cfg.AI.Model,
		APIKey:      cfg.AI.APIKey,
		Temperature: cfg.AI.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	orch := summarize.New(gen, s, summarize.Budgets{
		Combined:     cfg.Summarize.CombinedBudget,
		Micro:        cfg.Summarize.MicroBudget,
		Standard:     cfg.Summarize.StandardBudget,
		Detailed:     cfg.Summarize.DetailedBudget,
		LevelRetries: cfg.Summarize.LevelRetries,
	})
	orch.SetMaxTokens(cfg.AI.MaxTokens)
	return orch, nil
}

func newLearner(s *store.Store) *prefs.Learner {
	return prefs.NewLearner(s, prefs.Deltas{
		ThumbsUp:       cfg.Feedback.ThumbsDelta,
		ThumbsDown:     -cfg.Feedback.ThumbsDelta,
		Click:          cfg.Feedback.ClickDelta,
		ReadTime:       cfg.Feedback.ReadTimeDelta,
		FullReadTime:   cfg.Feedback.FullReadTime,
		CoalesceWindow: cfg.Feedback.CoalesceWindow,
		RecomputeSpan:  cfg.Feedback.RecomputeSpan,
	})
}

func newBuilder(s *store.Store) *relevance.Builder {
	scorer := relevance.NewScorer(
		relevance.ComponentWeights{
			PreferenceMatch: cfg.Score.PreferenceWeight,
			Engagement:      cfg.Score.EngagementWeight,
			Recency:         cfg.Score.RecencyWeight,
			Quality:         cfg.Score.QualityWeight,
		},
		relevance.RecencyParams{
			FreshWindow: cfg.Score.FreshWindow,
			HalfLife:    cfg.Score.RecencyHalfLife,
			Floor:       cfg.Score.RecencyFloor,
		},
		cfg.Score.EngagementWindow,
	)
	return relevance.NewBuilder(s, scorer, cfg.Digest.Size, cfg.Digest.CategoryCap, cfg.Digest.Lookback)
}

package cmd

import (
	"fmt"

	"curator/internal/core"

	"github.com/spf13/cobra"
)

var summarizeLimit int

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize pending articles",
	Long: `Runs the summarization pipeline over pending articles: one combined
attempt for all three levels, per-level retries on shortfall, and
deterministic extractive fallbacks when the AI backend is slow or
unavailable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		orch, err := newOrchestrator(s)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		pending, err := s.ListArticlesByStatus(ctx, core.StatusPending, summarizeLimit)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("No pending articles.")
			return nil
		}

		counts := make(map[core.ArticleStatus]int)
		for _, article := range pending {
			status, err := orch.Summarize(ctx, article)
			if err != nil {
				return err
			}
			counts[status]++
		}

		fmt.Printf("Summarized %d articles: completed=%d partial=%d failed=%d\n",
			len(pending), counts[core.StatusCompleted], counts[core.StatusPartial], counts[core.StatusFailed])
		return nil
	},
}

func init() {
	summarizeCmd.Flags().IntVar(&summarizeLimit, "limit", 50, "maximum articles to process")
	rootCmd.AddCommand(summarizeCmd)
}

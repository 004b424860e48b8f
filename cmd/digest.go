package cmd

import (
	"fmt"
	"time"

	"curator/internal/core"

	"github.com/spf13/cobra"
)

var digestUser string

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Assemble a personalized digest",
	Long: `Scores completed articles against the user's preference profile and
assembles a ranked, category-capped digest. Users without a profile get
neutrally-ranked results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		run, err := newBuilder(s).BuildDigest(ctx, digestUser, time.Now().UTC())
		if err != nil {
			return err
		}

		if len(run.ArticleIDs) == 0 {
			fmt.Println("No candidate articles; digest is empty.")
			return nil
		}

		fmt.Printf("Digest %s for %s (%d articles)\n\n", run.ID, run.UserID, len(run.ArticleIDs))
		for i, id := range run.ArticleIDs {
			article, err := s.GetArticle(ctx, id)
			if err != nil {
				return err
			}
			if article == nil {
				continue
			}

			fmt.Printf("%2d. %s\n", i+1, article.Title)
			summaries, err := s.GetSummaries(ctx, id)
			if err != nil {
				return err
			}
			if micro, ok := summaries[core.LevelMicro]; ok {
				fmt.Printf("    %s\n", micro.Text)
			}
			fmt.Printf("    %s\n\n", article.URL)
		}
		return nil
	},
}

func init() {
	digestCmd.Flags().StringVar(&digestUser, "user", "default", "user to build the digest for")
	rootCmd.AddCommand(digestCmd)
}

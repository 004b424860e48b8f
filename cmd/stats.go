package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pipeline storage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.GetStats()
		if err != nil {
			return err
		}

		fmt.Println("Curator Storage Statistics")
		fmt.Println("==========================")
		fmt.Printf("Sources:         %d\n", stats.SourceCount)
		fmt.Printf("Articles:        %d\n", stats.ArticleCount)
		fmt.Printf("Summaries:       %d\n", stats.SummaryCount)
		fmt.Printf("Profiles:        %d\n", stats.ProfileCount)
		fmt.Printf("Feedback events: %d\n", stats.FeedbackCount)
		fmt.Printf("Digest runs:     %d\n", stats.DigestCount)
		if stats.DatabaseSize > 0 {
			fmt.Printf("Database size:   %.1f KB\n", float64(stats.DatabaseSize)/1024)
			fmt.Printf("Last updated:    %s\n", stats.LastUpdated.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

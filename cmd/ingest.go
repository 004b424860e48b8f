package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source-id]",
	Short: "Fetch and ingest articles from feed sources",
	Long: `Fetches all active sources (or a single source when an ID is given),
normalizes the items, and stores new articles as pending. Articles
already known by URL or content hash are counted as duplicates.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ingestor := newIngestor(s)
		ctx := cmd.Context()

		if len(args) == 1 {
			source, err := s.GetSource(ctx, args[0])
			if err != nil {
				return err
			}
			if source == nil {
				return fmt.Errorf("unknown source %q", args[0])
			}
			report, err := ingestor.Ingest(ctx, *source)
			if err != nil {
				return err
			}
			fmt.Printf("%s: fetched=%d new=%d duplicate=%d errors=%d\n",
				report.SourceID, report.Fetched, report.New, report.Duplicate, report.Errors)
			return nil
		}

		reports, err := ingestor.IngestAll(ctx)
		if err != nil {
			return err
		}

		var fetched, added, duplicate int
		for _, report := range reports {
			fetched += report.Fetched
			added += report.New
			duplicate += report.Duplicate
		}
		fmt.Printf("Ingested %d sources: fetched=%d new=%d duplicate=%d\n",
			len(reports), fetched, added, duplicate)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

package cmd

import (
	"fmt"
	"time"

	"curator/internal/core"

	"github.com/spf13/cobra"
)

var (
	feedbackUser    string
	feedbackDigest  string
	feedbackSeconds float64
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <type> <article-id>",
	Short: "Record feedback on an article",
	Long: `Records one feedback event (thumbs_up, thumbs_down, click, or
read_time) and adjusts the user's preference profile. Identical events
repeated inside the coalescing window are logged but applied once.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ev := core.FeedbackEvent{
			UserID:    feedbackUser,
			ArticleID: args[1],
			DigestID:  feedbackDigest,
			Type:      core.FeedbackType(args[0]),
			Seconds:   feedbackSeconds,
			CreatedAt: time.Now().UTC(),
		}

		if err := newLearner(s).RecordFeedback(cmd.Context(), ev); err != nil {
			return err
		}
		fmt.Printf("Recorded %s for article %s\n", ev.Type, ev.ArticleID)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackUser, "user", "default", "user the feedback belongs to")
	feedbackCmd.Flags().StringVar(&feedbackDigest, "digest", "", "digest run the article was seen in")
	feedbackCmd.Flags().Float64Var(&feedbackSeconds, "seconds", 0, "read duration in seconds (read_time events)")
	rootCmd.AddCommand(feedbackCmd)
}

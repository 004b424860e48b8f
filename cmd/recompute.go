package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute [user-id]",
	Short: "Rebuild preference profiles from the feedback log",
	Long: `Rebuilds preference profiles by folding the rolling feedback window
into fresh weights. With no argument, every user with recent feedback
is recomputed. The result replaces the incrementally-updated profile.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		learner := newLearner(s)
		now := time.Now().UTC()

		if len(args) == 1 {
			if err := learner.Recompute(cmd.Context(), args[0], now); err != nil {
				return err
			}
			fmt.Printf("Recomputed profile for %s\n", args[0])
			return nil
		}

		if err := learner.RecomputeAll(cmd.Context(), now); err != nil {
			return err
		}
		fmt.Println("Recomputed all profiles.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
}

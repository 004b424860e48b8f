package cmd

import (
	"fmt"
	"time"

	"curator/internal/core"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sourceCategory string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage feed sources",
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <feed-url>",
	Short: "Add a feed source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		src := core.Source{
			ID:        uuid.NewString(),
			URL:       args[0],
			Category:  sourceCategory,
			Active:    true,
			DateAdded: time.Now().UTC(),
		}
		if err := s.AddSource(cmd.Context(), src); err != nil {
			return err
		}
		fmt.Printf("Added source %s (%s)\n", src.ID, src.URL)
		return nil
	},
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List feed sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		sources, err := s.ListSources(cmd.Context(), false)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			fmt.Println("No sources configured.")
			return nil
		}

		for _, src := range sources {
			state := "active"
			if !src.Active {
				state = "inactive"
			}
			fmt.Printf("%s  [%s]  %s", src.ID, state, src.URL)
			if src.Category != "" {
				fmt.Printf("  (%s)", src.Category)
			}
			if src.ErrorCount > 0 {
				fmt.Printf("  errors=%d", src.ErrorCount)
			}
			fmt.Println()
		}
		return nil
	},
}

var sourcesEnableCmd = &cobra.Command{
	Use:   "enable <source-id>",
	Short: "Reactivate a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSourceActive(cmd, args[0], true)
	},
}

var sourcesDisableCmd = &cobra.Command{
	Use:   "disable <source-id>",
	Short: "Deactivate a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSourceActive(cmd, args[0], false)
	},
}

func setSourceActive(cmd *cobra.Command, id string, active bool) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SetSourceActive(cmd.Context(), id, active); err != nil {
		return err
	}
	fmt.Printf("Source %s active=%v\n", id, active)
	return nil
}

func init() {
	sourcesAddCmd.Flags().StringVar(&sourceCategory, "category", "", "category tag applied to the source's articles")
	sourcesCmd.AddCommand(sourcesAddCmd, sourcesListCmd, sourcesEnableCmd, sourcesDisableCmd)
	rootCmd.AddCommand(sourcesCmd)
}

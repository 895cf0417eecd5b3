package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jzmstrjp/kikitori/internal/store"
)

var resetCourse string

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset streaks and settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		prefix := "course:"
		if resetCourse != "" {
			prefix = "course:" + resetCourse + ":"
		}
		if err := st.KV().DeletePrefix(cmd.Context(), prefix); err != nil {
			return fmt.Errorf("reset: %w", err)
		}

		if resetCourse != "" {
			fmt.Printf("Reset data for course %s.\n", resetCourse)
		} else {
			fmt.Println("Reset all course data.")
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().StringVar(&resetCourse, "course", "", "Reset only this course (e.g. easy-short)")
}

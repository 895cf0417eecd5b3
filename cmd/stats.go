package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jzmstrjp/kikitori/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-course streaks",
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

		entries, err := st.KV().List(cmd.Context(), "course:")
		if err != nil {
			return fmt.Errorf("list settings: %w", err)
		}

		type row struct{ course, streak string }
		var rows []row
		for key, value := range entries {
			// course:<id>:streak
			parts := strings.Split(key, ":")
			if len(parts) != 3 || parts[2] != "streak" {
				continue
			}
			rows = append(rows, row{course: parts[1], streak: value})
		}

		if len(rows) == 0 {
			fmt.Println("No sessions recorded yet.")
			return nil
		}

		sort.Slice(rows, func(i, j int) bool { return rows[i].course < rows[j].course })
		for _, r := range rows {
			fmt.Printf("%-24s 🔥 %s\n", r.course, r.streak)
		}
		return nil
	},
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/kakomon/internal/stats"
	"github.com/abhisek/kakomon/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show accuracy and timing statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		groupBy, _ := cmd.Flags().GetString("group-by")
		window, _ := cmd.Flags().GetInt("window-days")

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		rep, err := svc.Stats(cmd.Context(), cfg.UserID, groupBy, window)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, rep)
		}

		title := fmt.Sprintf("Statistics by %s", rep.GroupBy)
		if rep.WindowDays != nil {
			title += fmt.Sprintf(", last %d days", *rep.WindowDays)
		}
		render(cmd, theme.Title.Render(title))
		if len(rep.Stats) == 0 {
			render(cmd, emptyNote("attempts"))
			return nil
		}
		render(cmd, groupTable(rep.Stats))
		return nil
	},
}

func init() {
	statsCmd.Flags().String("group-by", string(stats.GroupByPattern), "Grouping: pattern, difficulty or tag")
	statsCmd.Flags().Int("window-days", 0, "Only count attempts from the last N days (0 = all)")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/kakomon/internal/mastery"
	"github.com/abhisek/kakomon/internal/ui/components"
	"github.com/abhisek/kakomon/internal/ui/theme"
)

var masteryCmd = &cobra.Command{
	Use:   "mastery",
	Short: "Show mastery status per question pattern",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		recs, err := svc.Mastery(cmd.Context(), cfg.UserID)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, map[string]any{"mastery": recs})
		}

		render(cmd, theme.Title.Render("Mastery for "+cfg.UserID))
		if len(recs) == 0 {
			render(cmd, emptyNote("mastery records"))
			return nil
		}

		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []string{
				r.PatternID,
				theme.Status(string(r.Status)).Render(string(r.Status)),
				components.NewBar(r.Accuracy, 10).View(),
				overtimeBar(r.OvertimeRate),
				fmt.Sprint(r.ConsecutiveCorrect),
				theme.Hint.Render(r.Status.Advice()),
			})
		}
		render(cmd, components.Table([]string{"Pattern", "Status", "Accuracy", "Overtime", "Streak", ""}, rows))

		counts := mastery.Counts(recs)
		render(cmd, theme.Label.Render(fmt.Sprintf("%d promote, %d steady, %d slow, %d demote",
			counts[mastery.StatusPromote], counts[mastery.StatusSteady],
			counts[mastery.StatusAccurateButSlow], counts[mastery.StatusDemote])))
		return nil
	},
}

func overtimeBar(rate float64) string {
	b := components.NewBar(rate, 10)
	b.Invert = true
	return b.View()
}

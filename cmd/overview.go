package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/kakomon/internal/stats"
	"github.com/abhisek/kakomon/internal/ui/components"
	"github.com/abhisek/kakomon/internal/ui/theme"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Summarize every learner's attempts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		ov, err := svc.Overview(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, ov)
		}

		render(cmd, theme.Title.Render("Overview"))
		render(cmd, components.KeyValues([][2]string{
			{"Attempts", strconv.Itoa(ov.Totals.Attempts)},
			{"Accuracy", percent(ov.Totals.Accuracy)},
			{"Overtime", percent(ov.Totals.OvertimeRate)},
			{"Active users", strconv.Itoa(ov.Totals.ActiveUsers)},
		}))
		if ov.Totals.Attempts == 0 {
			render(cmd, emptyNote("attempts"))
			return nil
		}

		sections := []struct {
			title  string
			groups []stats.Group
		}{
			{"By pattern", ov.Patterns},
			{"By tag", ov.Tags},
			{"By difficulty", ov.Difficulty},
		}
		for _, sec := range sections {
			render(cmd, theme.Title.Render(sec.title))
			render(cmd, groupTable(sec.groups))
		}
		return nil
	},
}

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/kakomon/internal/ui/components"
	"github.com/abhisek/kakomon/internal/ui/theme"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Flag questions and patterns whose difficulty or time budget looks wrong",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		rep, err := svc.Calibration(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, rep)
		}

		render(cmd, theme.Title.Render("Calibration"))
		render(cmd, components.KeyValues([][2]string{
			{"Eligible attempts", strconv.Itoa(rep.EligibleAttempts)},
			{"Users", strconv.Itoa(rep.EligibleUsers)},
		}))
		levels := svc.Budgets().Levels()
		budgetRow := make([]string, len(levels))
		for i, secs := range levels {
			budgetRow[i] = fmt.Sprintf("%d:%ds", i+1, secs)
		}
		render(cmd, theme.Label.Render("Time budgets "+strings.Join(budgetRow, " ")))
		if rep.Gated {
			render(cmd, theme.Hint.Render("Not enough data for calibration yet."))
			return nil
		}

		if len(rep.Difficulty) > 0 {
			rows := make([][]string, 0, len(rep.Difficulty))
			for _, c := range rep.Difficulty {
				rows = append(rows, []string{c.QuestionID, string(c.Action), percent(c.Accuracy), percent(c.OvertimeRate)})
			}
			render(cmd, theme.Title.Render("Difficulty adjustments"))
			render(cmd, components.Table([]string{"Question", "Action", "Accuracy", "Overtime"}, rows))
		}
		if len(rep.PatternSplit) > 0 {
			rows := make([][]string, 0, len(rep.PatternSplit))
			for _, c := range rep.PatternSplit {
				rows = append(rows, []string{c.PatternID, strconv.FormatFloat(c.Variance, 'f', 4, 64)})
			}
			render(cmd, theme.Title.Render("Patterns to split"))
			render(cmd, components.Table([]string{"Pattern", "Variance"}, rows))
		}
		if len(rep.TimeBudget) > 0 {
			budgets := svc.Budgets()
			rows := make([][]string, 0, len(rep.TimeBudget))
			for _, c := range rep.TimeBudget {
				p75 := time.Duration(c.P75Ms) * time.Millisecond
				rows = append(rows, []string{c.QuestionID, strconv.Itoa(c.Difficulty), p75.String(), budgets.Limit(c.Difficulty).String()})
			}
			render(cmd, theme.Title.Render("Time budgets"))
			render(cmd, components.Table([]string{"Question", "Difficulty", "P75", "Budget"}, rows))
		}
		if len(rep.Difficulty)+len(rep.PatternSplit)+len(rep.TimeBudget) == 0 {
			render(cmd, theme.Correct.Render("Nothing to adjust."))
		}
		return nil
	},
}

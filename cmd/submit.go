package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/kakomon/internal/grading"
	"github.com/abhisek/kakomon/internal/practice"
	"github.com/abhisek/kakomon/internal/ui/components"
	"github.com/abhisek/kakomon/internal/ui/theme"
)

var submitCmd = &cobra.Command{
	Use:   "submit <question-id>",
	Short: "Grade an answer and record the attempt",
	Example: `  kakomon submit 2023-q4 --answer AB=12 --answer C=-3 --duration 95s
  kakomon submit 2023-q4 --answers-json '{"AB":"12","C":"-3"}' --duration 95s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringArray("answer")
		raw, _ := cmd.Flags().GetString("answers-json")
		duration, _ := cmd.Flags().GetDuration("duration")

		answers, err := parseAnswers(pairs, raw)
		if err != nil {
			return err
		}

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		a, err := svc.SubmitAttempt(cmd.Context(), practice.SubmitRequest{
			UserID:     cfg.UserID,
			QuestionID: args[0],
			Answers:    answers,
			DurationMs: duration.Milliseconds(),
		})
		if err != nil {
			var verr *practice.ValidationError
			if errors.As(err, &verr) && !jsonOutput(cmd) {
				for _, is := range verr.Issues {
					render(cmd, theme.Incorrect.Render(is.Code), theme.Label.Render(is.Message))
				}
			}
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(cmd, a)
		}

		verdict := theme.Correct.Render("Correct")
		if !a.IsCorrect {
			verdict = theme.Incorrect.Render("Incorrect")
		}
		overtime := "no"
		if a.Overtime {
			overtime = theme.Warning.Render("yes")
		}
		render(cmd, theme.Title.Render(a.QuestionID), verdict)
		render(cmd, components.KeyValues([][2]string{
			{"Attempt", fmt.Sprint(a.ID)},
			{"Duration", (time.Duration(a.DurationMs) * time.Millisecond).String()},
			{"Overtime", overtime},
			{"Pattern", a.PatternKey()},
		}))

		blanks := make([]string, 0, len(a.PerBlank))
		for b := range a.PerBlank {
			blanks = append(blanks, b)
		}
		slices.Sort(blanks)
		rows := make([][]string, 0, len(blanks))
		for _, b := range blanks {
			r := a.PerBlank[b]
			actual := "-"
			if r.Actual != nil {
				actual = *r.Actual
			}
			rows = append(rows, []string{b, r.Expected, actual, theme.Mark(r.IsCorrect)})
		}
		render(cmd, components.Table([]string{"Blank", "Expected", "Yours", ""}, rows))
		return nil
	},
}

// parseAnswers builds submitted groups from GROUP=VALUE pairs and an
// optional JSON object. Pairs override JSON entries with the same group.
func parseAnswers(pairs []string, raw string) (map[string]grading.Value, error) {
	if len(pairs) == 0 && raw == "" {
		return nil, nil
	}
	out := make(map[string]grading.Value)
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("parse --answers-json: %w", err)
		}
	}
	flags := make(map[string]string, len(pairs))
	for _, p := range pairs {
		group, value, ok := strings.Cut(p, "=")
		if !ok || group == "" {
			return nil, fmt.Errorf("answer %q must look like GROUP=VALUE", p)
		}
		flags[group] = value
	}
	maps.Copy(out, grading.StringGroups(flags))
	return out, nil
}

func init() {
	submitCmd.Flags().StringArray("answer", nil, "Answer for one group as GROUP=VALUE (repeatable)")
	submitCmd.Flags().String("answers-json", "", "All answers as a JSON object of group to value")
	submitCmd.Flags().Duration("duration", 0, "Time spent on the question")
}

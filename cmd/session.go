package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/kakomon/internal/practice"
	"github.com/abhisek/kakomon/internal/session"
	"github.com/abhisek/kakomon/internal/ui/components"
	"github.com/abhisek/kakomon/internal/ui/theme"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Generate and inspect practice sessions",
}

var sessionGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build the next practice set",
	Example: `  kakomon session generate --mode tag --tag algebra --size 10
  kakomon session generate --mode review --size 5
  kakomon session generate --mode daily --target 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		size, _ := cmd.Flags().GetInt("size")

		req := practice.SessionRequest{UserID: cfg.UserID, Mode: mode, Tags: tags, Size: size}
		if cmd.Flags().Changed("target") {
			target, _ := cmd.Flags().GetInt("target")
			req.TargetDifficulty = &target
		}

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		sess, err := svc.GenerateSession(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, sess)
		}
		printSession(cmd, sess, nil)
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		view, err := svc.GetSession(cmd.Context(), cfg.UserID, args[0])
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, view)
		}
		printSession(cmd, view.Session, view.Questions)
		return nil
	},
}

func printSession(cmd *cobra.Command, s *session.Session, questions []practice.QuestionSummary) {
	mode := string(s.Mode)
	if s.Explain.Mode != s.Mode {
		mode = fmt.Sprintf("%s (fell back to %s)", s.Mode, s.Explain.Mode)
	}
	tags := strings.Join(s.Tags, ", ")
	if tags == "" {
		tags = "-"
	}

	render(cmd, theme.Title.Render("Session "+s.ID))
	render(cmd, components.KeyValues([][2]string{
		{"Mode", mode},
		{"Tags", tags},
		{"Recommended difficulty", strconv.Itoa(s.RecommendedDifficulty)},
		{"Time budget", (time.Duration(s.TimeBudget) * time.Second).String()},
		{"Pattern weights", s.Explain.PatternWeights.String()},
		{"Pattern counts", s.Explain.PatternCounts.String()},
	}))

	byID := make(map[string]practice.QuestionSummary, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	rows := make([][]string, 0, len(s.QuestionIDs))
	for i, id := range s.QuestionIDs {
		row := []string{strconv.Itoa(i + 1), id, "", "", ""}
		if q, ok := byID[id]; ok {
			row[2] = q.PatternID
			if q.Difficulty > 0 {
				row[3] = strconv.Itoa(q.Difficulty)
			}
			row[4] = strings.Join(q.Blanks, " ")
		}
		rows = append(rows, row)
	}
	render(cmd, components.Table([]string{"#", "Question", "Pattern", "Difficulty", "Blanks"}, rows))
}

func init() {
	sessionGenerateCmd.Flags().String("mode", string(session.ModeDaily), "Session mode: tag, review or daily")
	sessionGenerateCmd.Flags().StringSlice("tag", nil, "Restrict to questions with these tags (repeatable)")
	sessionGenerateCmd.Flags().Int("target", 0, "Target difficulty 1-5 (default: from history)")
	sessionGenerateCmd.Flags().Int("size", 10, "Number of questions")

	sessionCmd.AddCommand(sessionGenerateCmd)
	sessionCmd.AddCommand(sessionShowCmd)
}

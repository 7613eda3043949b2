package cmd

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/kakomon/internal/catalog"
	"github.com/abhisek/kakomon/internal/ui/components"
	"github.com/abhisek/kakomon/internal/ui/theme"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the question catalog",
}

var catalogTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags with their patterns and question counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := catalog.Load(cfg.ContentDir)
		if err != nil {
			return err
		}
		idx := bank.TagIndex()

		type tagInfo struct {
			Tag       string   `json:"tag"`
			Patterns  []string `json:"patterns"`
			Questions int      `json:"questions"`
		}
		tags := idx.Tags()
		out := make([]tagInfo, 0, len(tags))
		for _, tag := range tags {
			out = append(out, tagInfo{Tag: tag, Patterns: idx.Patterns(tag), Questions: idx.Count(tag)})
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, out)
		}
		if len(out) == 0 {
			render(cmd, emptyNote("tags"))
			return nil
		}

		rows := make([][]string, 0, len(out))
		for _, ti := range out {
			rows = append(rows, []string{ti.Tag, strconv.Itoa(ti.Questions), strings.Join(ti.Patterns, ", ")})
		}
		render(cmd, components.Table([]string{"Tag", "Questions", "Patterns"}, rows))
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check catalog.json and answers.json for problems",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := catalog.Load(cfg.ContentDir)
		if err != nil {
			var verr *catalog.ValidationError
			if errors.As(err, &verr) && !jsonOutput(cmd) {
				for _, p := range verr.Problems {
					render(cmd, theme.Incorrect.Render("✗"), p)
				}
			}
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, map[string]any{"valid": true, "questions": bank.Len(), "patterns": len(bank.Patterns())})
		}
		render(cmd, theme.Correct.Render("✓"), "catalog OK:",
			strconv.Itoa(bank.Len()), "questions,", strconv.Itoa(len(bank.Patterns())), "patterns")
		return nil
	},
}

var catalogExamsCmd = &cobra.Command{
	Use:   "exams",
	Short: "List the exams in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := catalog.Load(cfg.ContentDir)
		if err != nil {
			return err
		}
		exams := bank.Exams()
		if jsonOutput(cmd) {
			return printJSON(cmd, map[string]any{"exams": nonNilStrings(exams)})
		}
		if len(exams) == 0 {
			render(cmd, emptyNote("exams"))
			return nil
		}
		rows := make([][]string, 0, len(exams))
		for _, exam := range exams {
			rows = append(rows, []string{exam, strconv.Itoa(len(bank.QuestionsByExam(exam)))})
		}
		render(cmd, components.Table([]string{"Exam", "Questions"}, rows))
		return nil
	},
}

var catalogQuestionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List questions by exam, or search them by tag or pattern",
	Example: `  kakomon catalog questions --exam 2023-spring
  kakomon catalog questions --tag algebra --pattern p-sign`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exam, _ := cmd.Flags().GetString("exam")
		tag, _ := cmd.Flags().GetString("tag")
		pattern, _ := cmd.Flags().GetString("pattern")

		bank, err := catalog.Load(cfg.ContentDir)
		if err != nil {
			return err
		}

		var found []*catalog.Question
		if tag == "" && pattern == "" {
			found = bank.QuestionsByExam(exam)
		} else {
			for _, q := range bank.Search(tag, pattern) {
				if exam == "" || q.ExamID == exam {
					found = append(found, q)
				}
			}
		}

		if jsonOutput(cmd) {
			return printJSON(cmd, questionListing(found))
		}
		if len(found) == 0 {
			render(cmd, emptyNote("matching questions"))
			return nil
		}
		rows := make([][]string, 0, len(found))
		for _, q := range found {
			difficulty := "-"
			if q.Difficulty > 0 {
				difficulty = strconv.Itoa(q.Difficulty)
			}
			rows = append(rows, []string{q.ID, q.ExamID, q.PatternID, difficulty, strings.Join(q.Tags, ", ")})
		}
		render(cmd, components.Table([]string{"Question", "Exam", "Pattern", "Difficulty", "Tags"}, rows))
		return nil
	},
}

type questionRow struct {
	ID         string   `json:"question_id"`
	ExamID     string   `json:"exam_id,omitempty"`
	PatternID  string   `json:"pattern_id,omitempty"`
	Difficulty int      `json:"difficulty,omitempty"`
	Tags       []string `json:"tags"`
}

func questionListing(qs []*catalog.Question) map[string][]questionRow {
	rows := make([]questionRow, 0, len(qs))
	for _, q := range qs {
		rows = append(rows, questionRow{
			ID:         q.ID,
			ExamID:     q.ExamID,
			PatternID:  q.PatternID,
			Difficulty: q.Difficulty,
			Tags:       nonNilStrings(q.Tags),
		})
	}
	return map[string][]questionRow{"questions": rows}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func init() {
	catalogQuestionsCmd.Flags().String("exam", "", "Only questions of this exam")
	catalogQuestionsCmd.Flags().String("tag", "", "Questions with this tag")
	catalogQuestionsCmd.Flags().String("pattern", "", "Questions of this pattern")

	catalogCmd.AddCommand(catalogExamsCmd)
	catalogCmd.AddCommand(catalogQuestionsCmd)
	catalogCmd.AddCommand(catalogTagsCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
}

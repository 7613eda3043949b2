package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/kakomon/internal/stats"
	"github.com/abhisek/kakomon/internal/ui/components"
	"github.com/abhisek/kakomon/internal/ui/theme"
)

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// render writes styled text, downsampling colors to the terminal.
func render(cmd *cobra.Command, parts ...any) {
	lipgloss.Fprintln(cmd.OutOrStdout(), parts...)
}

func percent(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func millis(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return strconv.FormatInt(*ms, 10) + "ms"
}

// groupTable renders stats groups with accuracy bars.
func groupTable(groups []stats.Group) string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.Key,
			strconv.Itoa(g.Attempts),
			components.NewBar(g.Accuracy, 10).View(),
			millis(g.MedianMs),
			millis(g.P75Ms),
			percent(g.OvertimeRate),
			percent(g.SignErrorRate),
		})
	}
	return components.Table(
		[]string{"Group", "Attempts", "Accuracy", "Median", "P75", "Overtime", "Sign errors"},
		rows,
	)
}

func emptyNote(what string) string {
	return theme.Hint.Render("No " + what + " yet.")
}

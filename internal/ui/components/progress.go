// Package components renders report fragments for terminal output.
package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/kakomon/internal/ui/theme"
)

// Bar is a horizontal ratio bar, used for accuracy and overtime rates.
type Bar struct {
	Ratio       float64
	Width       int
	ShowPercent bool
	Invert      bool // high ratios are bad
}

// NewBar creates a bar of width cells for ratio in [0, 1].
func NewBar(ratio float64, width int) Bar {
	return Bar{Ratio: ratio, Width: width, ShowPercent: true}
}

// Filled returns the number of filled cells.
func (b Bar) Filled() int {
	width := max(b.Width, 4)
	return min(max(int(float64(width)*b.Ratio+0.5), 0), width)
}

// View renders the bar.
func (b Bar) View() string {
	width := max(b.Width, 4)
	filled := b.Filled()

	good, bad := theme.Success, theme.Error
	if b.Invert {
		good, bad = bad, good
	}
	fill := theme.Secondary
	switch {
	case b.Ratio >= 0.8:
		fill = good
	case b.Ratio <= 0.5:
		fill = bad
	}

	out := lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", width-filled))

	if b.ShowPercent {
		out += theme.Label.Render(fmt.Sprintf(" %3.0f%%", b.Ratio*100))
	}
	return out
}

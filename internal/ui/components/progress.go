package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/ui/theme"
)

// Progress renders "label ━━━━───── 40%" in exactly width cells (the bar
// never shrinks below 4 cells).
func Progress(label string, fraction float64, width int) string {
	fraction = max(0, min(1, fraction))
	pct := fmt.Sprintf(" %3d%%", int(fraction*100+0.5))

	var prefix string
	if label != "" {
		prefix = lipgloss.NewStyle().Foreground(theme.Text).Render(label) + " "
	}

	bar := max(4, width-lipgloss.Width(prefix)-len(pct))
	filled := int(float64(bar)*fraction + 0.5)

	return prefix +
		lipgloss.NewStyle().Foreground(theme.Secondary).Render(strings.Repeat("━", filled)) +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", bar-filled)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(pct)
}

package welcome

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/common-nighthawk/go-figure"

	"github.com/abhisek/tutorchat/internal/ui/theme"
)

const bannerCompact = "T U T O R C H A T"

// Banner is the ASCII-art product name. The serve command prints it too.
func Banner() string {
	return strings.TrimRight(figure.NewFigure("tutorchat", "", true).String(), "\n")
}

// RenderBanner returns the banner styled in the primary color, or a
// compact fallback when the art does not fit in width.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	art := Banner()
	if lipgloss.Width(art) > width {
		return style.Render(bannerCompact)
	}
	return style.Render(art)
}

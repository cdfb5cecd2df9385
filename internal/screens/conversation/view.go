package conversation

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/tutor"
	"github.com/abhisek/tutorchat/internal/ui/components"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n  Loading chat...")
	}

	status := s.renderStatus(width)
	inputLine := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(width - 2).
		Render(s.input.View())

	vpHeight := height - lipgloss.Height(status) - lipgloss.Height(inputLine)
	if vpHeight < 3 {
		vpHeight = 3
	}
	if s.width != width || s.height != vpHeight {
		s.width, s.height = width, vpHeight
		s.vp.SetWidth(width)
		s.vp.SetHeight(vpHeight)
		s.dirty = true
	}
	if s.dirty {
		s.vp.SetContent(s.renderTranscript(width))
		s.vp.GotoBottom()
		s.dirty = false
	}

	return s.vp.View() + "\n" + status + "\n" + inputLine
}

// renderStatus is the line between transcript and input: progress, the
// spinner while a request runs, or the latest notice.
func (s *Screen) renderStatus(width int) string {
	var left string
	switch {
	case s.working != "":
		left = s.spin.View() + " " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(workingLabel(s.working))
	case s.notice != "":
		left = theme.Notice.Render(s.notice)
	case s.pending != nil:
		left = theme.Notice.Render("A " + string(s.pending.Type) + " is due: Ctrl+A to start, Ctrl+L for later.")
	}
	if s.cur == nil {
		return left
	}
	bar := components.Progress("", s.cur.Progress(), 24)
	gap := width - lipgloss.Width(left) - lipgloss.Width(bar) - 1
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + bar
}

func workingLabel(a tutor.Action) string {
	switch a {
	case tutor.ActionSend:
		return "Thinking..."
	case tutor.ActionNext:
		return "Preparing the next lesson..."
	case tutor.ActionRedo:
		return "Preparing a review..."
	case tutor.ActionAssessment:
		return "Generating the assessment..."
	}
	return "Working..."
}

func (s *Screen) renderTranscript(width int) string {
	textWidth := width - 6
	if textWidth < 20 {
		textWidth = 20
	}
	parts := make([]string, 0, len(s.messages))
	for _, m := range s.messages {
		parts = append(parts, s.renderMessage(m, textWidth))
	}
	return strings.Join(parts, "\n\n")
}

func (s *Screen) renderMessage(m chat.Message, width int) string {
	if m.Role == chat.RoleUser {
		body := theme.UserBubble.Width(width).Render(m.Content)
		return lipgloss.PlaceHorizontal(width+4, lipgloss.Right, body)
	}
	text := tutor.Display(m.Content)
	if s.typing != nil && s.typing.id == m.ID {
		text = s.typing.shown.String()
	}
	return theme.BotBubble.Width(width).Render(text)
}

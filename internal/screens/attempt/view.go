package attempt

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

func (s *Screen) renderQuiz(width int) string {
	a := s.at.Assessment
	var b strings.Builder
	b.WriteString(theme.Hint.Render(fmt.Sprintf("  Question %d of %d  (%d answered)",
		s.item+1, len(a.Questions), len(s.recorded().Answers))))
	if s.at.Submitted {
		b.WriteString("  " + theme.Correct.Render(quizSummary(s.at)))
	}
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Width(min(width-4, 90)).Render(s.choice.View()))
	if s.at.Submitted {
		if exp := a.Questions[s.item].Explanation; exp != "" {
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Width(min(width-4, 90)).
				Foreground(theme.TextDim).Render(exp))
		}
	}
	return b.String()
}

func (s *Screen) renderExercise(width int) string {
	a := s.at.Assessment
	e := a.Exercises[s.item]
	w := min(width-4, 90)
	block := lipgloss.NewStyle().PaddingLeft(2).Width(w)

	var b strings.Builder
	b.WriteString(theme.Hint.Render(fmt.Sprintf("  Exercise %d of %d", s.item+1, len(a.Exercises))))
	b.WriteString("\n")
	b.WriteString(block.Bold(true).Render(e.Title))
	b.WriteString("\n")
	b.WriteString(block.Render(e.Description))
	if len(e.Hints) > 0 {
		b.WriteString("\n")
		b.WriteString(block.Foreground(theme.TextDim).Render(bullets("Hints", e.Hints)))
	}
	if len(e.TestCases) > 0 {
		b.WriteString("\n")
		b.WriteString(block.Foreground(theme.TextDim).Render(bullets("Test cases", e.TestCases)))
	}
	b.WriteString("\n\n")
	if s.at.Submitted {
		b.WriteString(block.Render("Your solution:\n" + s.at.Solutions[s.item]))
		b.WriteString("\n\n")
		b.WriteString(block.Foreground(theme.Secondary).Render(s.at.Feedback[s.item]))
		return b.String()
	}
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(s.editor.View()))
	return b.String()
}

func (s *Screen) renderProject(width int) string {
	p := s.at.Assessment.Project
	block := lipgloss.NewStyle().PaddingLeft(2).Width(min(width-4, 90))

	var b strings.Builder
	b.WriteString(block.Bold(true).Render(p.Title))
	b.WriteString("\n")
	b.WriteString(block.Render(p.Description))
	for _, sec := range []struct {
		name  string
		items []string
	}{
		{"Requirements", p.Requirements},
		{"Steps", p.Steps},
		{"Deliverables", p.Deliverables},
		{"Resources", p.Resources},
	} {
		if len(sec.items) > 0 {
			b.WriteString("\n")
			b.WriteString(block.Foreground(theme.TextDim).Render(bullets(sec.name, sec.items)))
		}
	}
	b.WriteString("\n\n")
	if s.at.Submitted {
		b.WriteString(block.Foreground(theme.Secondary).Render(s.at.ProjectFeedback))
		return b.String()
	}
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(s.editor.View()))
	return b.String()
}

func bullets(title string, items []string) string {
	var b strings.Builder
	b.WriteString(title + ":")
	for _, it := range items {
		b.WriteString("\n  - " + it)
	}
	return b.String()
}

// quizSummary reports the locally scored result of a submitted quiz.
func quizSummary(at *assessment.Attempt) string {
	return fmt.Sprintf("%d/%d correct (%.0f%%)", at.Correct, len(at.Assessment.Questions), at.Score)
}

package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mcqgen/internal/quiz"
	"github.com/abhisek/mcqgen/internal/ui/theme"
)

// renderQuiz prints the questions with the correct option marked.
func renderQuiz(w io.Writer, q *quiz.Quiz) {
	cards := make([]string, len(q.Questions))
	for i, mcq := range q.Questions {
		cards[i] = theme.Card.Render(renderQuestion(i+1, mcq))
	}
	lipgloss.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, cards...))
}

func renderQuestion(n int, mcq quiz.ParsedMCQ) string {
	var b strings.Builder
	b.WriteString(theme.QuestionNumber.Render(fmt.Sprintf("%d.", n)))
	b.WriteString(" ")
	b.WriteString(theme.Question.Render(mcq.Question))

	for _, l := range quiz.Letters {
		b.WriteString("\n")
		if l == mcq.CorrectAnswer {
			b.WriteString(theme.Correct.Render(fmt.Sprintf("%s) %s ✓", l, mcq.Options[l])))
			continue
		}
		b.WriteString(theme.OptionLetter.Render(string(l) + ")"))
		b.WriteString(" ")
		b.WriteString(mcq.Options[l])
	}
	return b.String()
}

// renderSummary prints one status line about the run.
func renderSummary(w io.Writer, d quiz.Diagnostics) {
	if d.Partial() {
		lipgloss.Fprintln(w, theme.Warning.Render(fmt.Sprintf(
			"generated %d of %d questions (%d malformed, %d rejected)",
			d.Produced, d.Requested, d.Malformed, d.Rejected)))
		return
	}
	lipgloss.Fprintln(w, theme.Hint.Render(fmt.Sprintf(
		"%d questions · %s · %d attempt(s) · %s",
		d.Produced, d.Model, d.Attempts, d.Latency.Round(time.Millisecond))))
}

// renderFailure prints a terminal error.
func renderFailure(w io.Writer, err error) {
	lipgloss.Fprintln(w, theme.Failure.Render("Error: "+err.Error()))
}

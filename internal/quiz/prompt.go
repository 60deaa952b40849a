package quiz

import (
	"fmt"
	"strings"
)

// The reply grammar shared by BuildPrompt and Parse.
const (
	// optionSuffix follows the letter on every option line: "a) ".
	optionSuffix = ") "

	// answerLabel starts the correct-answer line.
	answerLabel = "Correct answer:"
)

const systemPrompt = `You are an expert MCQ maker. You write multiple choice questions strictly from the text you are given and you follow the requested output format exactly.`

func optionPrefix(l Letter) string {
	return string(l) + optionSuffix
}

// BuildPrompt renders the user message for req. It is deterministic.
func BuildPrompt(req QuizRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Text: %s\n\n", req.SourceText())

	fmt.Fprintf(&b, "Given the above text, create a quiz of %d multiple choice questions in %s tone.\n",
		req.QuestionCount(), req.Tone())
	b.WriteString("Make sure the questions are not repeated and check all the questions to conform to the text.\n\n")

	b.WriteString("Format every question exactly like this:\n")
	b.WriteString("<question>\n")
	for _, l := range Letters {
		fmt.Fprintf(&b, "%s<option>\n", optionPrefix(l))
	}
	fmt.Fprintf(&b, "%s <letter>\n\n", answerLabel)

	b.WriteString("Rules:\n")
	b.WriteString("- Separate questions with exactly one blank line.\n")
	b.WriteString("- Do not number the questions.\n")
	b.WriteString("- Do not use markdown or code blocks.\n")
	b.WriteString("- Do not add any text before, between or after the questions.\n")
	fmt.Fprintf(&b, "- The answer is a single letter from %s.\n", letterList())
	fmt.Fprintf(&b, "\nEnsure to make %d questions.", req.QuestionCount())

	return b.String()
}

func letterList() string {
	parts := make([]string, len(Letters))
	for i, l := range Letters {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}

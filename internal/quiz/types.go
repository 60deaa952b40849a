package quiz

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxQuestions is the largest question count the CLI accepts.
const MaxQuestions = 20

// ErrInvalidRequest is returned by NewRequest for unusable input.
var ErrInvalidRequest = errors.New("invalid quiz request")

// Tone is the register the questions are written in.
type Tone string

const (
	ToneSimple       Tone = "simple"
	ToneNeutral      Tone = "neutral"
	ToneProfessional Tone = "professional"
)

// Tones lists every supported tone in display order.
var Tones = []Tone{ToneSimple, ToneNeutral, ToneProfessional}

// ParseTone resolves a tone name, ignoring case and surrounding space.
func ParseTone(s string) (Tone, error) {
	t := Tone(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tones {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown tone %q", ErrInvalidRequest, s)
}

// QuizRequest is one request for a quiz. It is immutable once built by
// NewRequest.
type QuizRequest struct {
	sourceText    string
	questionCount int
	tone          Tone
}

// NewRequest validates and builds a QuizRequest.
func NewRequest(sourceText string, questionCount int, tone Tone) (QuizRequest, error) {
	if strings.TrimSpace(sourceText) == "" {
		return QuizRequest{}, fmt.Errorf("%w: source text is empty", ErrInvalidRequest)
	}
	if questionCount < 1 {
		return QuizRequest{}, fmt.Errorf("%w: question count must be at least 1, got %d", ErrInvalidRequest, questionCount)
	}
	t, err := ParseTone(string(tone))
	if err != nil {
		return QuizRequest{}, err
	}
	return QuizRequest{sourceText: sourceText, questionCount: questionCount, tone: t}, nil
}

func (r QuizRequest) SourceText() string { return r.sourceText }
func (r QuizRequest) QuestionCount() int { return r.questionCount }
func (r QuizRequest) Tone() Tone         { return r.tone }

func (r QuizRequest) valid() bool {
	return r.sourceText != "" && r.questionCount >= 1 && r.tone != ""
}

// Letter identifies one of the four options of a question.
type Letter string

const (
	LetterA Letter = "a"
	LetterB Letter = "b"
	LetterC Letter = "c"
	LetterD Letter = "d"
)

// Letters lists the option letters in the order they appear.
var Letters = []Letter{LetterA, LetterB, LetterC, LetterD}

// Valid reports whether l is one of a, b, c, d.
func (l Letter) Valid() bool {
	switch l {
	case LetterA, LetterB, LetterC, LetterD:
		return true
	}
	return false
}

// ParsedMCQ is one multiple-choice question extracted from a reply.
type ParsedMCQ struct {
	Question      string            `json:"question"`
	Options       map[Letter]string `json:"options"`
	CorrectAnswer Letter            `json:"correct_answer"`
}

// Quiz is the validated output of a pipeline run. Questions keep the
// order in which they appeared in the reply and is never empty.
type Quiz struct {
	Questions   []ParsedMCQ `json:"questions"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Diagnostics explains how a run got from the raw reply to the quiz.
type Diagnostics struct {
	RunID string `json:"run_id,omitempty"`
	Model string `json:"model,omitempty"`

	Requested int `json:"requested"`
	Produced  int `json:"produced"`

	// Blocks is every blank-line separated block in the reply.
	Blocks int `json:"blocks"`

	// Malformed blocks were too short to parse.
	Malformed int `json:"malformed"`

	// Rejected records parsed but failed validation.
	Rejected   int         `json:"rejected"`
	Rejections []Rejection `json:"rejections,omitempty"`

	// Attempts is the number of provider calls made by the retry
	// orchestrator.
	Attempts int `json:"attempts"`

	Latency time.Duration `json:"latency_ns"`
}

// Partial reports whether fewer questions were produced than requested.
func (d Diagnostics) Partial() bool {
	return d.Produced < d.Requested
}

// Rejection records why a parsed question was dropped.
type Rejection struct {
	// Index is the 0-based position among parsed records.
	Index     int    `json:"index"`
	Question  string `json:"question"`
	Validator string `json:"validator"`
	Reason    string `json:"reason"`
}

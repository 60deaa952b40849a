package quiz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMCQ() ParsedMCQ {
	return ParsedMCQ{
		Question: "What is 2 + 2?",
		Options: map[Letter]string{
			LetterA: "3",
			LetterB: "4",
			LetterC: "5",
			LetterD: "22",
		},
		CorrectAnswer: LetterB,
	}
}

func TestStructural(t *testing.T) {
	v := &StructuralValidator{}
	q := validMCQ()
	assert.Nil(t, v.Validate(&q, QuizRequest{}))

	q.Question = ""
	verr := v.Validate(&q, QuizRequest{})
	require.NotNil(t, verr)
	assert.Equal(t, "structural", verr.Validator)
}

func TestOptions(t *testing.T) {
	v := &OptionsValidator{}

	tests := []struct {
		name   string
		mutate func(q *ParsedMCQ)
		ok     bool
	}{
		{"valid", func(q *ParsedMCQ) {}, true},
		{"empty option", func(q *ParsedMCQ) { q.Options[LetterC] = "" }, false},
		{"missing option", func(q *ParsedMCQ) { delete(q.Options, LetterD) }, false},
		{"extra option", func(q *ParsedMCQ) { q.Options["e"] = "extra" }, false},
		{"wrong key", func(q *ParsedMCQ) {
			delete(q.Options, LetterA)
			q.Options["e"] = "extra"
		}, false},
		{"nil map", func(q *ParsedMCQ) { q.Options = nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validMCQ()
			tt.mutate(&q)
			verr := v.Validate(&q, QuizRequest{})
			if tt.ok {
				assert.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			assert.Equal(t, "options", verr.Validator)
		})
	}
}

func TestAnswer(t *testing.T) {
	v := &AnswerValidator{}

	for _, l := range Letters {
		q := validMCQ()
		q.CorrectAnswer = l
		assert.Nil(t, v.Validate(&q, QuizRequest{}), "letter %q", l)
	}

	for _, bad := range []Letter{"", "e", "paris", "ab"} {
		q := validMCQ()
		q.CorrectAnswer = bad
		verr := v.Validate(&q, QuizRequest{})
		require.NotNil(t, verr, "letter %q", bad)
		assert.Equal(t, "answer", verr.Validator)
	}
}

func TestValidate_FirstFailureWins(t *testing.T) {
	q := validMCQ()
	q.Question = ""
	q.CorrectAnswer = "z"

	quiz, err := Validate([]ParsedMCQ{q, validMCQ()}, mustRequest(t, "s", 2, ToneSimple))
	require.NoError(t, err)
	require.Len(t, quiz.Diagnostics.Rejections, 1)
	rej := quiz.Diagnostics.Rejections[0]
	assert.Equal(t, 0, rej.Index)
	assert.Equal(t, "structural", rej.Validator)
	assert.Equal(t, "question text is empty", rej.Reason)
}

func TestValidate_ZeroSurvivorsIsEmptyResult(t *testing.T) {
	bad := validMCQ()
	bad.CorrectAnswer = ""

	quiz, err := Validate([]ParsedMCQ{bad, bad}, mustRequest(t, "s", 4, ToneSimple))
	assert.Nil(t, quiz)

	var empty *EmptyResultError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, 4, empty.Requested)
	assert.Equal(t, 2, empty.Rejected)
}

func TestValidate_NothingParsedIsEmptyResult(t *testing.T) {
	quiz, err := Validate(nil, mustRequest(t, "s", 1, ToneSimple))
	assert.Nil(t, quiz)

	var empty *EmptyResultError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, 0, empty.Rejected)
}

func TestValidate_PartialYieldIsSuccess(t *testing.T) {
	parsed, _ := Parse(strings.Join(wellFormed(3), "\n\n"))
	quiz, err := Validate(parsed, mustRequest(t, "s", 5, ToneNeutral))
	require.NoError(t, err)

	assert.Len(t, quiz.Questions, 3)
	assert.Equal(t, 5, quiz.Diagnostics.Requested)
	assert.Equal(t, 3, quiz.Diagnostics.Produced)
	assert.True(t, quiz.Diagnostics.Partial())
}

func TestValidate_CustomChain(t *testing.T) {
	parsed := []ParsedMCQ{validMCQ(), validMCQ()}
	parsed[1].Question = "What is 3 + 3?"

	quiz, err := Validate(parsed, mustRequest(t, "s", 2, ToneSimple), &rejectQuestion{text: "What is 2 + 2?"})
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, "What is 3 + 3?", quiz.Questions[0].Question)
	assert.Equal(t, "reject", quiz.Diagnostics.Rejections[0].Validator)
}

type rejectQuestion struct{ text string }

func (r *rejectQuestion) Name() string { return "reject" }

func (r *rejectQuestion) Validate(q *ParsedMCQ, _ QuizRequest) *ValidationError {
	if q.Question == r.text {
		return &ValidationError{Validator: r.Name(), Message: fmt.Sprintf("question %q is banned", r.text)}
	}
	return nil
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Validator: "answer", Message: "missing"}
	assert.Equal(t, `validator "answer": missing`, err.Error())
}

package quiz

import "fmt"

// Validator checks one parsed question.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator (for
	// diagnostics and logging), e.g. "structural", "options", "answer".
	Name() string

	// Validate returns nil if q passes, or a ValidationError saying why
	// it does not.
	Validate(q *ParsedMCQ, req QuizRequest) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// DefaultValidators returns the standard chain in the order it runs.
func DefaultValidators() []Validator {
	return []Validator{
		&StructuralValidator{},
		&OptionsValidator{},
		&AnswerValidator{},
	}
}

// Validate runs every parsed record through validators in order and keeps
// the ones that pass all of them. The first failing validator rejects a
// record. With no validators the default chain is used. If nothing
// survives, Validate returns an *EmptyResultError.
func Validate(parsed []ParsedMCQ, req QuizRequest, validators ...Validator) (*Quiz, error) {
	if len(validators) == 0 {
		validators = DefaultValidators()
	}

	quiz := &Quiz{
		Diagnostics: Diagnostics{Requested: req.QuestionCount()},
	}

	for i := range parsed {
		q := &parsed[i]
		if verr := runChain(validators, q, req); verr != nil {
			quiz.Diagnostics.Rejections = append(quiz.Diagnostics.Rejections, Rejection{
				Index:     i,
				Question:  q.Question,
				Validator: verr.Validator,
				Reason:    verr.Message,
			})
			continue
		}
		quiz.Questions = append(quiz.Questions, *q)
	}

	quiz.Diagnostics.Rejected = len(quiz.Diagnostics.Rejections)
	quiz.Diagnostics.Produced = len(quiz.Questions)

	if len(quiz.Questions) == 0 {
		return nil, &EmptyResultError{
			Requested: req.QuestionCount(),
			Rejected:  quiz.Diagnostics.Rejected,
		}
	}
	return quiz, nil
}

func runChain(validators []Validator, q *ParsedMCQ, req QuizRequest) *ValidationError {
	for _, v := range validators {
		if verr := v.Validate(q, req); verr != nil {
			return verr
		}
	}
	return nil
}

// StructuralValidator checks that the question text is present.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *ParsedMCQ, _ QuizRequest) *ValidationError {
	if q.Question == "" {
		return &ValidationError{Validator: v.Name(), Message: "question text is empty"}
	}
	return nil
}

// OptionsValidator checks that exactly the options a to d are present
// and none is empty.
type OptionsValidator struct{}

func (v *OptionsValidator) Name() string { return "options" }

func (v *OptionsValidator) Validate(q *ParsedMCQ, _ QuizRequest) *ValidationError {
	if len(q.Options) != len(Letters) {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected %d options, got %d", len(Letters), len(q.Options)),
		}
	}
	for _, l := range Letters {
		text, ok := q.Options[l]
		if !ok {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("option %s is missing", l)}
		}
		if text == "" {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("option %s is empty or mislabelled", l)}
		}
	}
	return nil
}

// AnswerValidator checks that the correct answer is one of a to d.
type AnswerValidator struct{}

func (v *AnswerValidator) Name() string { return "answer" }

func (v *AnswerValidator) Validate(q *ParsedMCQ, _ QuizRequest) *ValidationError {
	if q.CorrectAnswer == "" {
		return &ValidationError{Validator: v.Name(), Message: "correct answer line is missing"}
	}
	if !q.CorrectAnswer.Valid() {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("correct answer %q is not one of %s", q.CorrectAnswer, letterList()),
		}
	}
	return nil
}

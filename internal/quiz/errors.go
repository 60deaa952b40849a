package quiz

import "fmt"

// Stage names the pipeline step that produced a terminal error.
type Stage string

const (
	StageRequest  Stage = "request"
	StageGenerate Stage = "generate"
	StageValidate Stage = "validate"
)

// StageError wraps every terminal pipeline error with the stage that
// failed. Diagnostics holds whatever was known when the run stopped.
type StageError struct {
	Stage       Stage
	Diagnostics Diagnostics
	Err         error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// EmptyResultError reports that no parsed question survived validation.
type EmptyResultError struct {
	Requested int
	Blocks    int
	Malformed int
	Rejected  int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no usable questions in reply (requested %d, blocks %d, malformed %d, rejected %d)",
		e.Requested, e.Blocks, e.Malformed, e.Rejected)
}

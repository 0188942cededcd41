package flash

import "fmt"

// Error is the orchestrator's error taxonomy: a failed step carries its
// index and name so callers can report exactly where a job died.
type Error struct {
	StepIndex int
	StepName  string
	Cause     error

	ImageMissing       bool
	SignatureMalformed bool
	msg                string
}

func (e *Error) Error() string {
	switch {
	case e.ImageMissing:
		return fmt.Sprintf("flash: image missing: %s", e.msg)
	case e.SignatureMalformed:
		return fmt.Sprintf("flash: signature malformed: %s", e.msg)
	case e.Cause != nil:
		return fmt.Sprintf("flash: step %d (%s) failed: %v", e.StepIndex, e.StepName, e.Cause)
	default:
		return fmt.Sprintf("flash: step %d (%s) failed", e.StepIndex, e.StepName)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func errStepFailed(index int, name string, cause error) error {
	return &Error{StepIndex: index, StepName: name, Cause: cause}
}

func errImageMissing(msg string) error {
	return &Error{ImageMissing: true, msg: msg}
}

func errSignatureMalformed(msg string) error {
	return &Error{SignatureMalformed: true, msg: msg}
}

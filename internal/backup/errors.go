package backup

import (
	"fmt"
	"strings"

	"github.com/erazemk/sentinela/internal/model"
)

// maxProblems caps how many problems a ValidationError keeps.
const maxProblems = 50

// ValidationError lists what is wrong with a rejected backup. Nothing has
// been written when it is returned.
type ValidationError struct {
	Problems []string
	// Truncated counts problems dropped past maxProblems.
	Truncated int
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("restore validation failed: %s", strings.Join(e.Problems, "; "))
	if e.Truncated > 0 {
		msg += fmt.Sprintf(" (and %d more)", e.Truncated)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return model.ErrRestoreValidation
}

func (e *ValidationError) add(format string, args ...any) {
	if len(e.Problems) >= maxProblems {
		e.Truncated++
		return
	}
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationError) empty() bool {
	return len(e.Problems) == 0
}

func invalid(format string, args ...any) *ValidationError {
	e := &ValidationError{}
	e.add(format, args...)
	return e
}

package canon

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAmbiguous is matched by every AmbiguityError.
var ErrAmbiguous = errors.New("normalization ambiguity")

// Ambiguity is one token that no synonym or alias table recognizes.
type Ambiguity struct {
	Field string
	Value string
	Table string
}

func (a Ambiguity) String() string {
	return fmt.Sprintf("%s: %q not present in %s table", a.Field, a.Value, a.Table)
}

// AmbiguityError collects every unrecognized token in one record.
type AmbiguityError struct {
	Problems []Ambiguity
}

func (e *AmbiguityError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("%s: %s", ErrAmbiguous, strings.Join(parts, "; "))
}

func (e *AmbiguityError) Unwrap() error { return ErrAmbiguous }

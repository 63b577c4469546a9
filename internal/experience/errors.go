package experience

import (
	"encoding/json"
	"errors"
	"fmt"
)

// LoadError is a profile file that could not be read or decoded. Offset is
// the byte position of a JSON syntax or type error, or -1.
type LoadError struct {
	Path   string
	Offset int64
	Cause  error
}

func newLoadError(path string, cause error) *LoadError {
	e := &LoadError{Path: path, Offset: -1, Cause: cause}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(cause, &syntaxErr):
		e.Offset = syntaxErr.Offset
	case errors.As(cause, &typeErr):
		e.Offset = typeErr.Offset
	}
	return e
}

func (e *LoadError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("profile %s: invalid JSON at byte %d: %v", e.Path, e.Offset, e.Cause)
	}
	return fmt.Sprintf("profile %s: %v", e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// NormalizationError locates one invalid profile entry, for example
// answers[3].type or experiences[1].fields.BADGE.
type NormalizationError struct {
	Section string
	Index   int
	Field   string
	Reason  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%s[%d].%s: %s", e.Section, e.Index, e.Field, e.Reason)
}

package filerepository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFileNotFound is returned when no stored file matches an id.
	ErrFileNotFound = errors.New("file not found")
	// ErrUnknownRepository is returned when a repository name is not configured.
	ErrUnknownRepository = errors.New("unknown repository")
)

// ValidationError carries the user-facing messages produced while validating
// an upload. Messages keep the order in which the rules were evaluated.
type ValidationError struct {
	Filename string
	messages []string
}

// NewValidationError builds a ValidationError for filename. At least one
// message is expected; callers only construct it once a rule failed.
func NewValidationError(filename string, messages ...string) *ValidationError {
	return &ValidationError{
		Filename: filename,
		messages: append([]string(nil), messages...),
	}
}

func (e *ValidationError) Error() string {
	if e.Filename == "" {
		return "validation failed: " + strings.Join(e.messages, "; ")
	}
	return fmt.Sprintf("validation of %q failed: %s", e.Filename, strings.Join(e.messages, "; "))
}

// Errors returns a copy of the validation messages.
func (e *ValidationError) Errors() []string {
	return append([]string(nil), e.messages...)
}

// Merge appends the messages of other to a copy of e. Either side may be nil.
func (e *ValidationError) Merge(other *ValidationError) *ValidationError {
	switch {
	case e == nil:
		return other
	case other == nil:
		return e
	}
	merged := NewValidationError("", e.messages...)
	merged.messages = append(merged.messages, other.messages...)
	if e.Filename == other.Filename {
		merged.Filename = e.Filename
	}
	return merged
}

// Prefixed returns a copy whose messages start with the filename, so errors
// of several files can be merged and still be told apart.
func (e *ValidationError) Prefixed() *ValidationError {
	if e == nil || e.Filename == "" {
		return e
	}
	out := &ValidationError{Filename: e.Filename, messages: make([]string, len(e.messages))}
	for i, m := range e.messages {
		out.messages[i] = e.Filename + ": " + m
	}
	return out
}

package models

import (
	"errors"
	"fmt"
)

// Error kinds shared by every pipeline stage.
var (
	ErrMediaRead          = errors.New("media read error")
	ErrTranscription      = errors.New("transcription error")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrAnalysisTimeout    = errors.New("analysis timeout")
	ErrResponseParse      = errors.New("response parse error")
	ErrCorrelation        = errors.New("correlation error")
	ErrAssembly           = errors.New("assembly error")
	ErrCleanup            = errors.New("cleanup error")
)

// Error attaches a kind to an underlying cause. Both are reachable through
// errors.Is and errors.As.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := e.Kind.Error()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Errorf builds an Error of the given kind without a cause.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around cause.
func Wrap(kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

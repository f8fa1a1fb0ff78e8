package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a stable tag classifying a failure. Handlers map kinds to HTTP
// statuses; callers branch on kinds instead of matching message strings.
type Kind string

const (
	KindValidation        Kind = "validation_failed"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindRender            Kind = "render_failure"
	KindDispatch          Kind = "dispatch_failure"
	KindInternal          Kind = "internal_error"
)

// Error is a kind-tagged error. Message is safe to show to the caller; the
// wrapped cause carries a stack trace that is only surfaced in development
// mode via %+v.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Format implements fmt.Formatter so %+v includes the cause's stack trace
// when one was captured.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') && e.Err != nil {
		fmt.Fprintf(s, "%s: %+v", e.Message, e.Err)
		return
	}
	fmt.Fprint(s, e.Error())
}

// New returns a kind-tagged error with a formatted caller-safe message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap tags an underlying error with a kind and caller-safe message. The
// cause keeps (or gains) a stack trace.
func Wrap(err error, kind Kind, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     errors.WithStack(err),
	}
}

// KindOf extracts the kind of err, or KindInternal when err is not an
// apperr.Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

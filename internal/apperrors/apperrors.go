package apperrors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies a failure so the HTTP layer can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a failure annotated with a Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// FieldError describes one rejected field of a write.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "validation failed: " + strings.Join(names, ", ")
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)})
}

// BadRequest builds a KindBadRequest error wrapping cause.
func BadRequest(message string, cause error) error {
	return errors.WithStack(&Error{Kind: KindBadRequest, Message: message, Err: cause})
}

// Unauthorized builds a KindUnauthorized error.
func Unauthorized(message string) error {
	return errors.WithStack(&Error{Kind: KindUnauthorized, Message: message})
}

// Forbidden builds a KindForbidden error.
func Forbidden(message string) error {
	return errors.WithStack(&Error{Kind: KindForbidden, Message: message})
}

// Validation builds a ValidationError from the given field errors.
func Validation(fields ...FieldError) error {
	return errors.WithStack(&ValidationError{Fields: fields})
}

// KindOf reports the Kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

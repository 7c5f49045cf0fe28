package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so callers can decide retry vs abort.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindDuplicateKey
	KindTransient
	KindStorage
	KindEmbedding
	KindConfiguration
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindDuplicateKey:
		return "DUPLICATE_KEY"
	case KindTransient:
		return "TRANSIENT"
	case KindStorage:
		return "STORAGE"
	case KindEmbedding:
		return "EMBEDDING"
	case KindConfiguration:
		return "CONFIGURATION"
	default:
		return "INTERNAL"
	}
}

// Error is the single error type flowing through services and repositories.
// Wrapped causes stay reachable via errors.Is / errors.As.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Validationf(format string, args ...interface{}) *Error {
	return Newf(KindValidation, format, args...)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func DuplicateKey(message string) *Error {
	return New(KindDuplicateKey, message)
}

func Transient(message string, err error) *Error {
	return Wrap(KindTransient, message, err)
}

func Storage(message string, err error) *Error {
	return Wrap(KindStorage, message, err)
}

func Embedding(message string, err error) *Error {
	return Wrap(KindEmbedding, message, err)
}

func Configuration(message string) *Error {
	return New(KindConfiguration, message)
}

// IsKind reports whether err (or anything it wraps) carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

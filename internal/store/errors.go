package store

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure a store operation can surface.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindPersistence       ErrorKind = "persistence"
)

type DomainError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func validationError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidTransitionError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func persistenceError(message string, cause error) *DomainError {
	return &DomainError{Kind: KindPersistence, Message: message, Cause: cause}
}

func kindOf(err error) ErrorKind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

func IsValidation(err error) bool        { return kindOf(err) == KindValidation }
func IsNotFound(err error) bool          { return kindOf(err) == KindNotFound }
func IsInvalidTransition(err error) bool { return kindOf(err) == KindInvalidTransition }
func IsPersistence(err error) bool       { return kindOf(err) == KindPersistence }

package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can decide whether to drop, skip or retry.
type Kind string

const (
	// KindConfiguration is a setup problem, e.g. a reading for a sensor that is not in the catalogue.
	KindConfiguration Kind = "configuration"
	// KindPersistence is a failed gateway call.
	KindPersistence Kind = "persistence"
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
)

type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s [%v]", e.Kind, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

func NewConfigurationError(msg string, err error) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, err: err}
}

func NewPersistenceError(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, err: err}
}

func NewValidationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, err: err}
}

func NewNotFoundError(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, err: err}
}

func is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func IsConfiguration(err error) bool { return is(err, KindConfiguration) }

func IsPersistence(err error) bool { return is(err, KindPersistence) }

func IsValidation(err error) bool { return is(err, KindValidation) }

func IsNotFound(err error) bool { return is(err, KindNotFound) }

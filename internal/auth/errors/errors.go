package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrBusinessRule    = errors.New("business rule violation")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidToken    = errors.New("invalid token")
	ErrInternal        = errors.New("internal error")
)

// ValidationError rejects malformed input before any side effect. Fields maps
// the JSON field name to its failure messages, mirroring the 400 payload.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

func NewValidation(fields map[string][]string) *ValidationError {
	return &ValidationError{
		Message: "Ajuste os dados enviados e tente novamente",
		Fields:  fields,
	}
}

// RuleError carries a single client-facing message for business-rule (400)
// and authentication (401) failures.
type RuleError struct {
	kind    error
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func (e *RuleError) Is(target error) bool { return target == e.kind }

func NewBusinessRule(msg string) error {
	return &RuleError{kind: ErrBusinessRule, Message: msg}
}

func NewUnauthorized(msg string) error {
	return &RuleError{kind: ErrUnauthorized, Message: msg}
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrBusinessRule)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

// Package apperr is the error taxonomy shared by every workflow component.
// Callers classify errors with errors.Is against the Err* sentinels.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates an id that does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates the entity is not in a state permitting the request.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnauthorized indicates the caller lacks the required role.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrDependency indicates storage or an external collaborator was unreachable.
	ErrDependency = errors.New("dependency unavailable")
	// ErrPartialCascade indicates some but not all cascade steps were applied.
	ErrPartialCascade = errors.New("cascade partially applied")
	// ErrExpiredArchive indicates a restore attempted after the grace period.
	ErrExpiredArchive = errors.New("archive expired")
)

// Error carries a taxonomy kind plus the entity it concerns.
type Error struct {
	Kind   error
	Entity string
	ID     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Entity != "" {
		b.WriteString(e.Entity)
		if e.ID != "" {
			b.WriteString(" " + e.ID)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func NotFound(entity, id string) error {
	return &Error{Kind: ErrNotFound, Entity: entity, ID: id}
}

func InvalidState(entity, id, detail string) error {
	return &Error{Kind: ErrInvalidState, Entity: entity, ID: id, Detail: detail}
}

func Unauthorized(detail string) error {
	return &Error{Kind: ErrUnauthorized, Detail: detail}
}

func Validation(detail string) error {
	return &Error{Kind: ErrValidation, Detail: detail}
}

func ExpiredArchive(id string) error {
	return &Error{Kind: ErrExpiredArchive, Entity: "archive", ID: id}
}

// Dependency wraps a storage/collaborator failure. Wrapping an error that is
// already a dependency error returns it unchanged.
func Dependency(op string, err error) error {
	if errors.Is(err, ErrDependency) {
		return err
	}
	return &Error{Kind: ErrDependency, Detail: op, Err: err}
}

// PartialCascadeError reports a cascade whose effects were only partly applied.
type PartialCascadeError struct {
	Op      string
	Applied []string
	Failed  string
	Err     error
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("%s: %s (applied: %s; failed: %s): %v",
		e.Op, ErrPartialCascade, strings.Join(e.Applied, ", "), e.Failed, e.Err)
}

func (e *PartialCascadeError) Is(target error) bool { return target == ErrPartialCascade }

func (e *PartialCascadeError) Unwrap() error { return e.Err }

// Kind is the machine-readable name of an error class.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindInvalidState   Kind = "invalid_state"
	KindUnauthorized   Kind = "unauthorized"
	KindValidation     Kind = "validation"
	KindDependency     Kind = "dependency"
	KindPartialCascade Kind = "partial_cascade"
	KindExpiredArchive Kind = "expired_archive"
)

// KindOf classifies err. Anything outside the taxonomy, other than caller
// cancellation, is treated as a dependency failure.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPartialCascade):
		return KindPartialCascade
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrExpiredArchive):
		return KindExpiredArchive
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindDependency
	}
}

// Retriable reports whether err may succeed when the same work is attempted again.
func Retriable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return KindOf(err) == KindDependency
}

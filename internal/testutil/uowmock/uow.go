package uowmock

import (
	"context"
	"errors"

	"edufund-backend/internal/domain/student"
	"edufund-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn        func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinStudentTxFn func(ctx context.Context, studentID string, fn func(r uow.Repos, s *student.Student) error) error
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinStudentTx(fn func(context.Context, string, func(uow.Repos, *student.Student) error) error) *UoW {
	m.WithinStudentTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Failing returns a UoW whose every transaction fails with err before running fn.
func Failing(err error) *UoW {
	return New().
		WithWithinTx(func(context.Context, func(uow.Repos) error) error { return err }).
		WithWithinStudentTx(func(context.Context, string, func(uow.Repos, *student.Student) error) error { return err })
}

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinStudentTx(ctx context.Context, studentID string, fn func(r uow.Repos, s *student.Student) error) error {
	if m.WithinStudentTxFn != nil {
		return m.WithinStudentTxFn(ctx, studentID, fn)
	}
	return errUnimplemented
}

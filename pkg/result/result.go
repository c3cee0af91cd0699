// Package result models the outcome of an application operation as a tagged
// union: either Success(value) or Failure(errors). Expected business-rule
// violations travel as Failure values; infrastructure faults are returned as a
// separate Go error by the caller and never folded into a Result.
//
//	res, err := svc.Create(ctx, cmd)
//	if err != nil {
//	    // fault: storage down, context cancelled, ...
//	}
//	result.Match(res,
//	    func(v CustomerView) any { ... },
//	    func(errs []result.Error) any { ... },
//	)
package result

import "strings"

// NotFoundSuffix marks error codes that describe a missing resource,
// e.g. "Customer.NotFound". The HTTP boundary maps these to 404.
const NotFoundSuffix = ".NotFound"

// Error is a (code, message) pair describing one business-rule violation.
// Error values are comparable, so sentinel errors work with errors.Is.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError returns an Error with the given code and message.
func NewError(code, message string) Error {
	return Error{Code: code, Message: message}
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Message
}

// IsNotFound reports whether the code denotes a missing resource.
func (e Error) IsNotFound() bool {
	return strings.HasSuffix(e.Code, NotFoundSuffix)
}

// Unit is the value carried by successful operations that produce nothing.
type Unit struct{}

// Result is either a success carrying a value or a failure carrying one or
// more Errors. The zero value is a failure with no errors and should not be
// used; build results with Success or Failure.
type Result[T any] struct {
	value  T
	errs   []Error
	isSucc bool
}

// Success wraps v in a successful Result.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v, isSucc: true}
}

// Failure builds a failed Result from one or more errors.
func Failure[T any](errs ...Error) Result[T] {
	cp := make([]Error, len(errs))
	copy(cp, errs)
	return Result[T]{errs: cp}
}

// IsSuccess reports whether r carries a value.
func (r Result[T]) IsSuccess() bool {
	return r.isSucc
}

// Value returns the carried value and true on success, or the zero value and
// false on failure.
func (r Result[T]) Value() (T, bool) {
	if !r.isSucc {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Errors returns a copy of the failure errors. It is empty on success.
func (r Result[T]) Errors() []Error {
	out := make([]Error, len(r.errs))
	copy(out, r.errs)
	return out
}

// HasCode reports whether any failure error carries code.
func (r Result[T]) HasCode(code string) bool {
	for _, e := range r.errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

// IsNotFound reports whether any failure error denotes a missing resource.
func (r Result[T]) IsNotFound() bool {
	for _, e := range r.errs {
		if e.IsNotFound() {
			return true
		}
	}
	return false
}

// Match folds r into a single value by calling exactly one of the branches.
func Match[T, R any](r Result[T], onSuccess func(T) R, onFailure func([]Error) R) R {
	if r.isSucc {
		return onSuccess(r.value)
	}
	return onFailure(r.Errors())
}

// Map transforms the value of a successful Result, passing failures through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.isSucc {
		return Result[U]{errs: r.errs}
	}
	return Success(fn(r.value))
}

package extract

import (
	"errors"
	"fmt"
)

// FailureKind classifies an extraction failure for retry handling.
type FailureKind string

const (
	// KindTransient covers timeouts and temporary overload/unavailability.
	// Transient failures are retryable.
	KindTransient FailureKind = "transient"

	// KindFatal covers authorization failures and malformed responses the
	// capability cannot fulfill. Never retried.
	KindFatal FailureKind = "fatal"

	// KindExhausted marks a transient failure that used up its retry budget.
	KindExhausted FailureKind = "exhausted"
)

// Failure is a classified extraction error.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("extraction %s failure: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("extraction %s failure: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Transient wraps err as a retryable failure.
func Transient(msg string, err error) *Failure {
	return &Failure{Kind: KindTransient, Message: msg, Err: err}
}

// Fatal wraps err as a non-retryable failure.
func Fatal(msg string, err error) *Failure {
	return &Failure{Kind: KindFatal, Message: msg, Err: err}
}

// Exhausted marks a transient failure whose retry budget ran out.
func Exhausted(attempts int, err error) *Failure {
	return &Failure{
		Kind:    KindExhausted,
		Message: fmt.Sprintf("gave up after %d attempts", attempts),
		Err:     err,
	}
}

// KindOf returns the failure kind for err, or "" if err is not a Failure.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsTransient reports whether err is a retryable extraction failure.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// IsFatal reports whether err is a non-retryable extraction failure.
func IsFatal(err error) bool { return KindOf(err) == KindFatal }

// IsExhausted reports whether err is a transient failure that exhausted
// its retries.
func IsExhausted(err error) bool { return KindOf(err) == KindExhausted }

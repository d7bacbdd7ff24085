package extract

import (
	"context"
	"errors"
	"net"
	"strings"
)

// transientMarkers are substrings in provider error text that indicate a
// temporary condition worth retrying.
var transientMarkers = []string{
	"status 429",
	"status 500",
	"status 502",
	"status 503",
	"status 504",
	"timeout",
	"deadline exceeded",
	"overloaded",
	"temporarily unavailable",
	"connection reset",
	"connection refused",
}

// fatalMarkers indicate conditions no retry can fix.
var fatalMarkers = []string{
	"status 401",
	"status 403",
	"unauthorized",
	"forbidden",
	"invalid api key",
}

// Classify converts an arbitrary provider error into a *Failure. Errors that
// are already classified pass through unchanged. Timeouts and overload
// conditions are transient; authorization and malformed-request conditions
// are fatal. Anything unrecognized is fatal, matching the capability
// contract that only known-temporary conditions are retried.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Transient("call deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		// Cancellation propagates as-is so callers can distinguish caller
		// abort from capability failure.
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient("network timeout", err)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range fatalMarkers {
		if strings.Contains(msg, marker) {
			return Fatal("provider rejected request", err)
		}
	}
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return Transient("provider temporarily unavailable", err)
		}
	}

	return Fatal("unrecoverable provider error", err)
}

package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"rate limited", errors.New("openrouter API error: status 429: slow down"), KindTransient},
		{"server error", errors.New("request failed: status 503"), KindTransient},
		{"timeout text", errors.New("client timeout waiting for response"), KindTransient},
		{"overloaded", errors.New("model is overloaded, try again"), KindTransient},
		{"unauthorized", errors.New("status 401: unauthorized"), KindFatal},
		{"bad key", errors.New("invalid api key provided"), KindFatal},
		{"unknown", errors.New("something odd happened"), KindFatal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := KindOf(Classify(tc.err))
			if got != tc.want {
				t.Fatalf("Classify(%q) kind = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if err := Classify(nil); err != nil {
		t.Fatalf("Classify(nil) = %v, want nil", err)
	}
}

func TestClassifyPassesThroughFailures(t *testing.T) {
	orig := Transient("already classified", errors.New("boom"))
	got := Classify(orig)
	if got != orig {
		t.Fatal("already classified error should pass through unchanged")
	}

	wrapped := fmt.Errorf("outer: %w", Fatal("inner", nil))
	if KindOf(Classify(wrapped)) != KindFatal {
		t.Fatal("wrapped Failure should keep its kind")
	}
}

func TestClassifyDeadlineExceeded(t *testing.T) {
	got := Classify(context.DeadlineExceeded)
	if !IsTransient(got) {
		t.Fatalf("deadline exceeded should be transient, got %v", got)
	}
}

func TestClassifyCancellationPassesThrough(t *testing.T) {
	got := Classify(context.Canceled)
	if !errors.Is(got, context.Canceled) {
		t.Fatalf("cancellation should propagate, got %v", got)
	}
	if KindOf(got) != "" {
		t.Fatalf("cancellation should not be classified, got kind %q", KindOf(got))
	}
}

func TestFailurePredicates(t *testing.T) {
	base := errors.New("boom")

	if !IsTransient(Transient("t", base)) {
		t.Error("IsTransient(Transient) = false")
	}
	if !IsFatal(Fatal("f", base)) {
		t.Error("IsFatal(Fatal) = false")
	}
	exhausted := Exhausted(3, base)
	if !IsExhausted(exhausted) {
		t.Error("IsExhausted(Exhausted) = false")
	}
	if !errors.Is(exhausted, base) {
		t.Error("Exhausted should wrap the original error")
	}
	if IsTransient(base) || IsFatal(base) || IsExhausted(base) {
		t.Error("plain errors should not match any failure kind")
	}
}

package extract

import (
	"context"
	"sync"
	"time"
)

// MockOutcome scripts one Extract call's behavior.
type MockOutcome struct {
	Result *Result
	Err    error
}

// MockExtractor is an Extractor for testing. Outcomes are scripted per
// window index (VerifyWindow for the verification pass) and consumed in
// order; the last outcome for a window repeats once the script runs out.
type MockExtractor struct {
	Latency time.Duration

	// Outcomes maps Request.Window to scripted call outcomes.
	Outcomes map[int][]MockOutcome

	mu       sync.Mutex
	calls    map[int]int
	requests []Request
}

// VerifyWindow is the Request.Window value used for verification calls.
const VerifyWindow = -1

// NewMockExtractor creates an empty mock extractor.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		Outcomes: make(map[int][]MockOutcome),
		calls:    make(map[int]int),
	}
}

// Script appends outcomes for the given window index.
func (m *MockExtractor) Script(window int, outcomes ...MockOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outcomes[window] = append(m.Outcomes[window], outcomes...)
}

// Name returns the mock identifier.
func (m *MockExtractor) Name() string { return "mock" }

// Extract returns the next scripted outcome for the request's window.
func (m *MockExtractor) Extract(ctx context.Context, req Request) (*Result, error) {
	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.calls == nil {
		m.calls = make(map[int]int)
	}
	m.requests = append(m.requests, req)

	script := m.Outcomes[req.Window]
	if len(script) == 0 {
		// Unscripted windows succeed with an empty result.
		m.calls[req.Window]++
		return &Result{}, nil
	}

	idx := m.calls[req.Window]
	if idx >= len(script) {
		idx = len(script) - 1
	}
	m.calls[req.Window]++

	outcome := script[idx]
	if outcome.Err != nil {
		return nil, outcome.Err
	}
	return outcome.Result, nil
}

// CallCount returns how many times the given window was invoked.
func (m *MockExtractor) CallCount(window int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[window]
}

// Requests returns a copy of all recorded requests in call order.
func (m *MockExtractor) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

var _ Extractor = (*MockExtractor)(nil)

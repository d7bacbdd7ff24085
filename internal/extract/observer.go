package extract

import "time"

// CallRecord captures one extraction capability call for observability.
type CallRecord struct {
	RunID            string
	Fidelity         Fidelity
	Window           int // discovery window index, -1 for verification
	Provider         string
	Model            string
	PageCount        int
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Success          bool
	Error            string
	Timestamp        time.Time
}

// CallObserver receives extraction call records. Implementations must not
// block; recording is best-effort.
type CallObserver interface {
	ObserveCall(rec CallRecord)
}

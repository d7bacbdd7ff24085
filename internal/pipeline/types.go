package pipeline

import (
	"github.com/jackzampolin/toccata/internal/extract"
)

// PageImage is a single rendered page in document order. Index is the
// zero-based render position, not the printed page number.
type PageImage struct {
	Index int
	Data  []byte
}

// Window is a contiguous run of page indices handed to one discovery call.
// Start is inclusive, End exclusive.
type Window struct {
	Index int
	Start int
	End   int
}

// Len returns the number of pages covered by the window.
func (w Window) Len() int { return w.End - w.Start }

// WindowResult is the settled outcome of one discovery window. Exactly one
// of Result and Err is set.
type WindowResult struct {
	Window Window
	Result *extract.Result
	Err    error
}

// Record is the consolidated output of a completed run.
type Record struct {
	Metadata   extract.BookMetadata `json:"metadata"`
	TocEntries []extract.TocEntry   `json:"toc_entries"`
}

// Status reports how a run terminated.
type Status string

const (
	// StatusComplete means verification ran and produced an authoritative
	// table of contents, possibly empty.
	StatusComplete Status = "complete"

	// StatusNoCandidates means no discovery window surfaced any ToC entry,
	// so verification never ran.
	StatusNoCandidates Status = "no_candidates_found"
)

// Outcome is the terminal state of a pipeline run that did not abort.
type Outcome struct {
	Status         Status
	Record         *Record
	CandidatePages []int
	WindowCount    int
}

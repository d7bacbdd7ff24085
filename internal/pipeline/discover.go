package pipeline

// CandidatePages returns the sorted union of page indices covered by every
// window whose discovery result contains at least one ToC entry. Windows
// that failed, including exhausted ones, contribute nothing. An empty
// return means the run terminates without a verification pass.
func CandidatePages(results []WindowResult) []int {
	var pages []int
	for _, wr := range results {
		if wr.Err != nil || wr.Result == nil || !wr.Result.HasEntries() {
			continue
		}
		for idx := wr.Window.Start; idx < wr.Window.End; idx++ {
			pages = append(pages, idx)
		}
	}
	// Windows are contiguous and non-overlapping, so appending in window
	// order yields a sorted, duplicate-free slice.
	return pages
}

package pipeline

import (
	"sort"

	"github.com/jackzampolin/toccata/internal/extract"
)

// BestMetadata picks the discovery metadata with the most filled fields.
// Ties go to the earliest window. Verification metadata is never consulted.
func BestMetadata(discovery []WindowResult) extract.BookMetadata {
	var best extract.BookMetadata
	bestCount := -1
	for _, wr := range discovery {
		if wr.Err != nil || wr.Result == nil {
			continue
		}
		if count := wr.Result.Metadata.FilledFieldCount(); count > bestCount {
			best = wr.Result.Metadata
			bestCount = count
		}
	}
	return best
}

// Consolidate merges the best discovery metadata with the authoritative
// verification entries, stable-sorted by page number. Entries are kept
// exactly as the verification pass produced them: no deduplication, no
// filtering, equal pages stay in their original order.
func Consolidate(discovery []WindowResult, verified *extract.Result) *Record {
	entries := make([]extract.TocEntry, len(verified.TocEntries))
	copy(entries, verified.TocEntries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PageNumber < entries[j].PageNumber
	})

	return &Record{
		Metadata:   BestMetadata(discovery),
		TocEntries: entries,
	}
}

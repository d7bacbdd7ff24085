// Package extract defines the structured extraction capability: given a set
// of rendered page images, produce book metadata and table of contents
// entries as schema-validated JSON.
package extract

// BookMetadata holds book-level metadata. Every field is independently
// nullable; a nil field means the pages did not show that information.
type BookMetadata struct {
	BookTitle       *string  `json:"book_title"`
	Authors         []string `json:"authors"`
	PublishingHouse *string  `json:"publishing_house"`
	PublishingYear  *int     `json:"publishing_year"`
}

// FilledFieldCount returns the number of non-null top-level metadata fields.
// Used by consolidation to pick the richest discovery result.
func (m BookMetadata) FilledFieldCount() int {
	count := 0
	if m.BookTitle != nil {
		count++
	}
	if m.Authors != nil {
		count++
	}
	if m.PublishingHouse != nil {
		count++
	}
	if m.PublishingYear != nil {
		count++
	}
	return count
}

// TocEntry is a single table of contents entry.
type TocEntry struct {
	ChapterTitle     string `json:"chapter_title"`
	PageNumber       int    `json:"page_number"`
	ReferenceBoolean bool   `json:"reference_boolean"` // true only for bibliography/references sections
}

// Result is the output of one extraction invocation. Immutable after
// creation; stages never modify a Result they received.
type Result struct {
	Metadata   BookMetadata `json:"metadata"`
	TocEntries []TocEntry   `json:"toc_entries"`
}

// HasEntries reports whether the result contains at least one ToC entry.
func (r *Result) HasEntries() bool {
	return r != nil && len(r.TocEntries) > 0
}

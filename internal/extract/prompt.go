package extract

import "fmt"

// SystemPrompt instructs the model to emit schema-conforming metadata and
// main-chapter ToC entries for the supplied page images.
const SystemPrompt = `You are a book analysis specialist. You will be shown rendered pages from the front of a book. Extract the book's metadata and its main table of contents.

Your response is programmatically constrained to a JSON schema with two top-level keys: "metadata" and "toc_entries".

1. "metadata": the book's metadata.
   - "book_title": the full title of the book.
   - "authors": a list of all author names.
   - "publishing_house": the name of the publisher.
   - "publishing_year": the integer year of publication.
   - If any metadata field is not found on the pages, its value MUST be null.

2. "toc_entries": a JSON array containing ONLY THE MAIN, TOP-LEVEL CHAPTERS.
   - CRITICAL: IGNORE indented sub-chapters. Main chapters are typically not indented and have larger page gaps between them.
   - Each entry MUST have exactly these keys:
     - "chapter_title": the string name of the chapter.
     - "page_number": the integer page number.
     - "reference_boolean": MUST be true ONLY for sections explicitly titled "Bibliography" or "References". For all other entries (including "Index", "Appendix", "Coda") it MUST be false.

If no table of contents entries are visible on these pages, "toc_entries" MUST be an empty list.

Return ONLY valid JSON. No markdown, no explanations, no extra text.`

// BuildUserPrompt returns the user message accompanying the page images.
func BuildUserPrompt(pageCount int) string {
	return fmt.Sprintf(`Analyze the following %d book page images. Extract the metadata and the main table of contents entries visible on these pages, following the schema exactly.`, pageCount)
}

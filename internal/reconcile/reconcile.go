package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/toccata/internal/extract"
	"github.com/jackzampolin/toccata/internal/providers"
)

// Chapter is a final reconciled chapter with its in-book page number.
type Chapter struct {
	Title      string `json:"title"`
	PageNumber int    `json:"pageNumber"`
	Level      int    `json:"level"`
}

// Config configures a Reconciler.
type Config struct {
	Client  providers.LLMClient
	Model   string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Reconciler runs the LLM matching step between verified chapter titles and
// noisy detected headings.
type Reconciler struct {
	client  providers.LLMClient
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewReconciler(cfg Config) *Reconciler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Reconciler{
		client:  cfg.Client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  cfg.Logger.With("component", "reconcile"),
	}
}

// Reconcile matches the verified chapter titles against the noisy headings
// and returns the final chapter list. The verified entries stay the source
// of truth for which chapters exist; the headings only supply page numbers.
// On any failure, or when the model's output does not validate, the
// verified entries are returned as-is.
func (r *Reconciler) Reconcile(ctx context.Context, bookTitle string, verified []extract.TocEntry, headings []Heading) []Chapter {
	fallback := chaptersFromEntries(verified)
	if len(verified) == 0 || len(headings) == 0 || r.client == nil {
		return fallback
	}

	prompt, err := buildMatchPrompt(bookTitle, verified, headings)
	if err != nil {
		r.logger.Warn("failed to build matching prompt", "error", err)
		return fallback
	}

	result, err := r.client.Chat(ctx, &providers.ChatRequest{
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
		Model:       r.model,
		Temperature: 0.1,
		Timeout:     r.timeout,
	})
	if err != nil {
		r.logger.Warn("matching call failed, keeping verified entries", "error", err)
		return fallback
	}

	raw := result.ParsedJSON
	if len(raw) == 0 {
		raw, err = providers.ParseStructuredJSON(result.Content)
		if err != nil {
			r.logger.Warn("matching output not valid JSON, keeping verified entries", "error", err)
			return fallback
		}
	}

	var chapters []Chapter
	if err := json.Unmarshal(raw, &chapters); err != nil {
		r.logger.Warn("matching output has wrong shape, keeping verified entries", "error", err)
		return fallback
	}

	if !validChapters(chapters, len(verified)) {
		r.logger.Warn("matching output failed validation, keeping verified entries",
			"chapters", len(chapters),
			"verified", len(verified))
		return fallback
	}

	return chapters
}

// chaptersFromEntries converts verified entries to the output shape without
// reconciled page numbers.
func chaptersFromEntries(entries []extract.TocEntry) []Chapter {
	if len(entries) == 0 {
		return nil
	}
	chapters := make([]Chapter, len(entries))
	for i, e := range entries {
		chapters[i] = Chapter{Title: e.ChapterTitle, PageNumber: e.PageNumber}
	}
	return chapters
}

// validChapters accepts output that names no more chapters than were
// verified and whose page numbers never decrease.
func validChapters(chapters []Chapter, verifiedCount int) bool {
	if len(chapters) == 0 || len(chapters) > verifiedCount {
		return false
	}
	prev := 0
	for _, ch := range chapters {
		if ch.Title == "" || ch.PageNumber < prev {
			return false
		}
		prev = ch.PageNumber
	}
	return true
}

// buildMatchPrompt renders the matching instructions. The verified titles
// are sent without page numbers so the model cannot echo them back.
func buildMatchPrompt(bookTitle string, verified []extract.TocEntry, headings []Heading) (string, error) {
	type promptEntry struct {
		ChapterTitle string `json:"chapter_title"`
	}
	titles := make([]promptEntry, len(verified))
	for i, e := range verified {
		titles[i] = promptEntry{ChapterTitle: e.ChapterTitle}
	}

	titlesJSON, err := json.MarshalIndent(titles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal chapter titles: %w", err)
	}
	headingsJSON, err := json.MarshalIndent(headings, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal headings: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert data-cleaning and text-matching AI. Your task is to create a final, accurate Table of Contents (TOC) for the book '%s'.\n\n", bookTitle)
	b.WriteString("You will be given two lists:\n")
	b.WriteString("1. [TOC LIST]: The definitive, correct list of chapter titles.\n")
	b.WriteString("2. [HEADINGS LIST]: A very noisy and unreliable list of text fragments and their page numbers extracted from the book. It contains many errors, random words, and chapter titles split across multiple lines.\n\n")
	b.WriteString("Your mission is to use the noisy [HEADINGS LIST] ONLY to find the correct starting page number for each real chapter in the [TOC LIST].\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("1. Aggressively ignore noise: single common words, bare symbols or punctuation, and standalone capitalized words that are unlikely to be full chapter titles.\n")
	b.WriteString("2. Reconstruct fragmented titles: look for consecutive heading entries on the same page number and combine their titles. The chapter's page number is the page of the first fragment.\n")
	b.WriteString("3. Chapter page numbers must increase sequentially; use this to eliminate impossible matches. Prefer page numbers that give chapters plausible lengths.\n")
	b.WriteString("4. Be flexible with minor differences in capitalization and leading articles.\n")
	b.WriteString("5. Entries with level 1 have a font size well above the page average and are the strongest chapter-title signal; fall back to level 0 entries only when level 1 gives no match.\n\n")
	b.WriteString("[TOC LIST]\n")
	b.Write(titlesJSON)
	b.WriteString("\n[HEADINGS LIST]\n")
	b.Write(headingsJSON)
	b.WriteString("\n\nReturn only valid JSON with no Markdown, code blocks, comments, or explanations: a single JSON array of objects with keys \"title\", \"pageNumber\" and \"level\". If you cannot comply output an empty JSON array [] instead.\n")
	return b.String(), nil
}

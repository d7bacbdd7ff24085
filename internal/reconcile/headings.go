// Package reconcile matches a verified table of contents against the noisy
// chapter headings detected by the companion service, producing the final
// chapter list with in-book page numbers.
package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Heading is one noisy heading candidate from the detection service. Level
// 1 marks headings whose font size stands well above the page average.
type Heading struct {
	Title      string `json:"title"`
	PageNumber int    `json:"pageNumber"`
	Level      int    `json:"level"`
}

// HeadingsClient fetches detected chapter headings for a PDF from the
// companion detection service.
type HeadingsClient struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHeadingsClient creates a client for the given detection endpoint.
func NewHeadingsClient(url string, timeout time.Duration, logger *slog.Logger) *HeadingsClient {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HeadingsClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "headings"),
	}
}

// Detect uploads the PDF and returns the detected headings. The service
// responds with either {"headings": [...]} or a bare array.
func (c *HeadingsClient) Detect(ctx context.Context, pdfPath string) ([]Heading, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(pdfPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to copy PDF into request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("headings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("headings service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read headings response: %w", err)
	}

	headings, err := parseHeadings(data)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("headings detected", "count", len(headings))
	return headings, nil
}

func parseHeadings(data []byte) ([]Heading, error) {
	var wrapped struct {
		Headings []Heading `json:"headings"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Headings != nil {
		return wrapped.Headings, nil
	}

	var bare []Heading
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("failed to parse headings response: %w", err)
	}
	return bare, nil
}

package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/toccata/internal/api"
	"github.com/jackzampolin/toccata/internal/pipeline"
	"github.com/jackzampolin/toccata/internal/svcctx"
)

// TocEntryResponse is a single table of contents entry in extraction output.
type TocEntryResponse struct {
	ChapterTitle     string `json:"chapter_title"`
	ReferenceBoolean bool   `json:"reference_boolean"`
}

// ExtractResponse is the response for the TOC extraction endpoint.
type ExtractResponse struct {
	RunID  string             `json:"run_id"`
	Status string             `json:"status"`
	Toc    []TocEntryResponse `json:"toc"`
}

// TocExtractEndpoint handles POST /api/toc/extract.
type TocExtractEndpoint struct{}

func (e *TocExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/toc/extract", e.handler
}

func (e *TocExtractEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Extract the table of contents from a PDF
//	@Tags		toc
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"PDF file"
//	@Success	200		{object}	ExtractResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/toc/extract [post]
func (e *TocExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	pdfPath, cleanup, ok := stagePDFUpload(w, r)
	if !ok {
		return
	}
	defer cleanup()

	runner := svcctx.RunnerFrom(r.Context())
	if runner == nil {
		writeError(w, http.StatusServiceUnavailable, "runner not available")
		return
	}

	result, err := runner.ExtractTOC(r.Context(), pdfPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ExtractResponse{
		RunID:  result.RunID,
		Status: string(result.Outcome.Status),
		Toc:    []TocEntryResponse{},
	}
	if result.Outcome.Status == pipeline.StatusComplete && result.Outcome.Record != nil {
		for _, entry := range result.Outcome.Record.TocEntries {
			resp.Toc = append(resp.Toc, TocEntryResponse{
				ChapterTitle:     entry.ChapterTitle,
				ReferenceBoolean: entry.ReferenceBoolean,
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *TocExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [pdf-file]",
		Short: "Extract the table of contents from a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ExtractResponse
			if err := client.Upload(cmd.Context(), "/api/toc/extract", args[0], &resp); err != nil {
				return err
			}
			fmt.Printf("Run: %s (%s)\n", resp.RunID, resp.Status)
			return api.Output(resp)
		},
	}
}

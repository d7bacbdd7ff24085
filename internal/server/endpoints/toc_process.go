package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/toccata/internal/api"
	"github.com/jackzampolin/toccata/internal/svcctx"
)

// TocProcessEndpoint handles POST /api/toc/process. It runs the full
// pipeline (extraction, heading detection, reconciliation) and returns
// consolidated book metadata alongside the reconciled chapter list.
type TocProcessEndpoint struct{}

func (e *TocProcessEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/toc/process", e.handler
}

func (e *TocProcessEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Process a PDF into book metadata and a reconciled TOC
//	@Tags		toc
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"PDF file"
//	@Success	200		{object}	runs.ProcessResult
//	@Failure	400		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/toc/process [post]
func (e *TocProcessEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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

	result, err := runner.ProcessPDF(r.Context(), pdfPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (e *TocProcessEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "process [pdf-file]",
		Short: "Process a PDF into book metadata and a reconciled TOC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp map[string]any
			if err := client.Upload(cmd.Context(), "/api/toc/process", args[0], &resp); err != nil {
				return err
			}
			if title, ok := resp["book_title"].(string); ok {
				fmt.Printf("Title: %s\n", title)
			}
			return api.Output(resp)
		},
	}
}

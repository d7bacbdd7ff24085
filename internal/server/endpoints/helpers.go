// Package endpoints implements the HTTP API surface. Each endpoint also
// exposes a CLI command that calls the running server.
package endpoints

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// stagePDFUpload parses the multipart "file" field, validates it is a PDF,
// and writes it to a temp directory. The caller must invoke cleanup when
// done. On failure the error response has already been written.
func stagePDFUpload(w http.ResponseWriter, r *http.Request) (path string, cleanup func(), ok bool) {
	const maxMemory = 500 << 20 // 500MB
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return "", nil, false
	}

	src, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return "", nil, false
	}
	defer src.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		r.MultipartForm.RemoveAll()
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file %s is not a PDF", header.Filename))
		return "", nil, false
	}

	tempDir, err := os.MkdirTemp("", "toccata-upload-*")
	if err != nil {
		r.MultipartForm.RemoveAll()
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create temp dir: %v", err))
		return "", nil, false
	}
	cleanup = func() {
		os.RemoveAll(tempDir)
		r.MultipartForm.RemoveAll()
	}

	destPath := filepath.Join(tempDir, filepath.Base(header.Filename))
	dst, err := os.Create(destPath)
	if err != nil {
		cleanup()
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create file: %v", err))
		return "", nil, false
	}
	_, err = io.Copy(dst, src)
	dst.Close()
	if err != nil {
		cleanup()
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save file: %v", err))
		return "", nil, false
	}

	return destPath, cleanup, true
}

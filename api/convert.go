package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/wudi/pdf2text/extract"
	"github.com/wudi/pdf2text/markdown"
	"github.com/wudi/pdf2text/observability"
	"github.com/wudi/pdf2text/pdf"
)

// ConvertResponse is the wire shape of a successful conversion. PageCount is
// reported for the standard pipeline when the document can be opened, and is
// null otherwise.
type ConvertResponse struct {
	Text      string `json:"text"`
	Filename  string `json:"filename"`
	PageCount *int   `json:"page_count"`
	OCRUsed   bool   `json:"ocr_used"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// handleConvert builds the upload handler shared by both pipeline versions.
// modelPipeline selects the v2 extras: the ?format=html rendering of the
// Markdown output. The v1 path reports the document's page count.
func (s *Server) handleConvert(extractor extract.Extractor, modelPipeline bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		data, filename, ok := s.readUpload(w, r)
		if !ok {
			return
		}
		src := pdf.FromBytes(data, filename)

		res, err := extractor.Extract(r.Context(), src)
		if err != nil {
			s.logger.Error("conversion failed",
				observability.String("filename", filename),
				observability.Error("error", err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		text := res.Text
		if modelPipeline && r.URL.Query().Get("format") == "html" {
			html, err := markdown.RenderHTML(text)
			if err != nil {
				s.logger.Error("html rendering failed",
					observability.String("filename", filename),
					observability.Error("error", err))
				writeError(w, http.StatusInternalServerError, "rendering HTML output failed")
				return
			}
			text = html
		}

		var pageCount *int
		if !modelPipeline {
			// Best effort: an unopenable document already degraded to empty
			// text, so it reports no count rather than a second error.
			if n, err := s.pageCount(src); err == nil {
				pageCount = &n
			}
		}

		s.logger.Info("conversion finished",
			observability.String("filename", filename),
			observability.Bool("ocr_used", res.OCRUsed),
			observability.Duration(observability.MetricConvertTime, time.Since(start)))
		writeJSON(w, http.StatusOK, ConvertResponse{
			Text:      text,
			Filename:  filename,
			PageCount: pageCount,
			OCRUsed:   res.OCRUsed,
		})
	}
}

// readUpload validates and reads the multipart "file" field. On failure it
// writes the error response and returns ok=false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, filename string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusBadRequest, s.sizeError())
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "Request must include a 'file' upload field")
		return nil, "", false
	}
	defer file.Close()

	if header.Size > s.cfg.MaxUploadSize {
		writeError(w, http.StatusBadRequest, s.sizeError())
		return nil, "", false
	}

	if !s.extensionAllowed(header.Filename) {
		writeError(w, http.StatusUnsupportedMediaType,
			"Unsupported file type. Allowed types: "+strings.Join(s.cfg.AllowedExtensions, ", "))
		return nil, "", false
	}

	data, err = io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusBadRequest, s.sizeError())
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "Reading uploaded file failed")
		return nil, "", false
	}
	return data, header.Filename, true
}

// multipartOverhead is slack for multipart boundaries and part headers on
// top of the configured payload limit.
const multipartOverhead = 16 << 10

func (s *Server) sizeError() string {
	return fmt.Sprintf("File size exceeds maximum allowed size of %d bytes", s.cfg.MaxUploadSize)
}

func (s *Server) extensionAllowed(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// multipart wraps the reader error, losing the type.
	return strings.Contains(err.Error(), "request body too large")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

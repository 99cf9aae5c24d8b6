package extract

import (
	"context"
	"strings"
	"time"

	"github.com/wudi/pdf2text/observability"
	"github.com/wudi/pdf2text/ocr"
	"github.com/wudi/pdf2text/pdf"
	"github.com/wudi/pdf2text/postproc"
)

// Standard extracts embedded text and falls back to OCR for documents that
// carry none. Its failure policy degrades gracefully: everything except a
// missing source file becomes "no text" rather than an error.
type Standard struct {
	engine     ocr.Engine
	ocrEnabled bool
	languages  []string
	logger     observability.Logger
	hook       *postproc.Hook

	// seams for tests; default to the pdf package.
	textFn   func(*pdf.Source) (string, error)
	rasterFn func(*pdf.Source, float64) ([]pdf.PageImage, error)
}

// NewStandard builds the standard extractor. engine may be nil when
// ocrEnabled is false.
func NewStandard(engine ocr.Engine, ocrEnabled bool, languages []string, logger observability.Logger) *Standard {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Standard{
		engine:     engine,
		ocrEnabled: ocrEnabled,
		languages:  languages,
		logger:     logger,
		textFn:     pdf.ExtractText,
		rasterFn:   pdf.Rasterize,
	}
}

// WithHook attaches an optional post-processing hook applied to the final
// text.
func (s *Standard) WithHook(hook *postproc.Hook) *Standard {
	s.hook = hook
	return s
}

// Extract returns the document's text. Embedded text is tried first; if the
// whole document yields only whitespace and OCR is enabled, every page is
// rasterized and recognized in one OCR pass whose output replaces the empty
// embedded-text result.
func (s *Standard) Extract(ctx context.Context, src *pdf.Source) (Result, error) {
	start := time.Now()

	text, err := s.extractEmbedded(src)
	if err != nil {
		return Result{}, err
	}

	ocrUsed := false
	if strings.TrimSpace(text) == "" && s.ocrEnabled {
		s.logger.Info("no embedded text found, trying OCR",
			observability.String("filename", src.Filename()))
		text = s.extractOCR(ctx, src)
		ocrUsed = true
	}

	text, err = s.hook.Apply(ctx, text)
	if err != nil {
		return Result{}, convErr("postprocess", err)
	}

	s.logger.Info("extraction finished",
		observability.String("filename", src.Filename()),
		observability.Bool("ocr_used", ocrUsed),
		observability.Int(observability.MetricTextBytes, len(text)),
		observability.Duration(observability.MetricConvertTime, time.Since(start)))
	return Result{Text: text, OCRUsed: ocrUsed}, nil
}

// extractEmbedded runs the embedded-text pass. A missing source file is
// fatal; any other failure is swallowed and reported as zero text.
func (s *Standard) extractEmbedded(src *pdf.Source) (string, error) {
	text, err := s.textFn(src)
	if err != nil {
		if NotFound(err) {
			return "", convErr("open source", err)
		}
		s.logger.Warn("embedded text extraction failed, treating as empty",
			observability.String("filename", src.Filename()),
			observability.Error("error", err))
		return "", nil
	}
	return text, nil
}

// extractOCR rasterizes the whole document and recognizes every page in
// order. Any failure degrades the entire fallback to the empty string.
func (s *Standard) extractOCR(ctx context.Context, src *pdf.Source) string {
	start := time.Now()
	pages, err := s.rasterFn(src, pdf.DefaultDPI)
	if err != nil {
		s.logger.Warn("rasterization for OCR failed",
			observability.String("filename", src.Filename()),
			observability.Error("error", err))
		return ""
	}
	opts := []ocr.InputOption{ocr.WithDPI(pdf.DefaultDPI)}
	if len(s.languages) > 0 {
		opts = append(opts, ocr.WithLanguages(s.languages...))
	}
	results, err := ocr.RecognizePages(ctx, s.engine, pages, opts...)
	if err != nil {
		s.logger.Warn("OCR failed",
			observability.String("filename", src.Filename()),
			observability.Error("error", err))
		return ""
	}
	var b strings.Builder
	for _, res := range results {
		b.WriteString(res.PlainText)
		b.WriteString("\n")
	}
	s.logger.Info("OCR pass finished",
		observability.Int(observability.MetricConvertPages, len(pages)),
		observability.Duration(observability.MetricOCRTime, time.Since(start)))
	return b.String()
}

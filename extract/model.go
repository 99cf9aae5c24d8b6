package extract

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wudi/pdf2text/doctags"
	"github.com/wudi/pdf2text/observability"
	"github.com/wudi/pdf2text/pdf"
	"github.com/wudi/pdf2text/postproc"
	"github.com/wudi/pdf2text/vision"
)

// pageSeparator joins per-page Markdown in the model pipeline output.
const pageSeparator = "\n\n---\n\n"

// Model converts each page image through a vision-to-sequence model into
// Markdown. Unlike Standard, this pipeline is fail-fast: any stage failure
// aborts the whole request, and no partial-page output is ever returned.
type Model struct {
	engine vision.Engine
	logger observability.Logger
	hook   *postproc.Hook

	// mu serializes generation calls; neither backend promises reentrancy.
	mu sync.Mutex

	rasterFn func(*pdf.Source, float64) ([]pdf.PageImage, error)
}

// NewModel builds the model extractor around a loaded vision engine.
func NewModel(engine vision.Engine, logger observability.Logger) *Model {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Model{
		engine:   engine,
		logger:   logger,
		rasterFn: pdf.Rasterize,
	}
}

// WithHook attaches an optional post-processing hook applied to the final
// markdown.
func (m *Model) WithHook(hook *postproc.Hook) *Model {
	m.hook = hook
	return m
}

// Extract rasterizes the source and runs one generation pass per page, in
// page order, joining the per-page Markdown with a horizontal-rule
// separator.
func (m *Model) Extract(ctx context.Context, src *pdf.Source) (Result, error) {
	start := time.Now()

	pages, err := m.rasterFn(src, pdf.DefaultDPI)
	if err != nil {
		return Result{}, convErr("rasterize", err)
	}
	m.logger.Info("converted document to page images",
		observability.String("filename", src.Filename()),
		observability.Int(observability.MetricConvertPages, len(pages)))

	parts := make([]string, 0, len(pages))
	for _, page := range pages {
		select {
		case <-ctx.Done():
			return Result{}, convErr("generate", ctx.Err())
		default:
		}
		md, err := m.extractPage(ctx, page)
		if err != nil {
			return Result{}, err
		}
		parts = append(parts, md)
	}

	text := strings.Join(parts, pageSeparator)
	text, err = m.hook.Apply(ctx, text)
	if err != nil {
		return Result{}, convErr("postprocess", err)
	}

	m.logger.Info("model extraction finished",
		observability.String("filename", src.Filename()),
		observability.Int(observability.MetricConvertPages, len(pages)),
		observability.Int(observability.MetricTextBytes, len(text)),
		observability.Duration(observability.MetricModelTime, time.Since(start)))
	return Result{Text: text, OCRUsed: false}, nil
}

// extractPage runs one page through encode, generate and DocTags
// conversion.
func (m *Model) extractPage(ctx context.Context, page pdf.PageImage) (string, error) {
	png, err := page.PNG()
	if err != nil {
		return "", convErr("encode page", err)
	}

	m.mu.Lock()
	raw, err := m.engine.GeneratePage(ctx, vision.GenerateRequest{
		Prompt:   vision.PagePrompt,
		ImagePNG: png,
	})
	m.mu.Unlock()
	if err != nil {
		return "", convErr("generate", err)
	}

	md, err := doctags.ToMarkdown(strings.TrimSpace(raw))
	if err != nil {
		return "", convErr("decode doctags", err)
	}
	return md, nil
}

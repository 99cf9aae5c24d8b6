// Package extract implements the two document conversion pipelines: the
// standard embedded-text path with OCR fallback, and the vision-model path
// producing Markdown. Both share one input contract and one result shape but
// keep deliberately different failure policies.
package extract

import (
	"context"

	"github.com/wudi/pdf2text/pdf"
)

// Result is the final output of one conversion.
type Result struct {
	// Text is the extracted content, possibly empty, never the product of a
	// partial page set.
	Text string
	// OCRUsed reports whether the standard pipeline fell back to OCR. Always
	// false for the model pipeline.
	OCRUsed bool
}

// Extractor converts one document source to text.
type Extractor interface {
	Extract(ctx context.Context, src *pdf.Source) (Result, error)
}

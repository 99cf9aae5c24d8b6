package ocr

import (
	"context"
	"fmt"

	"github.com/wudi/pdf2text/pdf"
)

// RecognizePages converts rasterized pages to OCR inputs and invokes the
// provided engine, returning one result per page in page order. If the
// engine supports batch operation, all pages are submitted in a single call;
// otherwise pages are processed sequentially.
func RecognizePages(ctx context.Context, engine Engine, pages []pdf.PageImage, opts ...InputOption) ([]Result, error) {
	inputs := make([]Input, 0, len(pages))
	for _, page := range pages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		in, err := InputFromPage(page, opts...)
		if err != nil {
			return nil, fmt.Errorf("build input for page %d: %w", page.Index, err)
		}
		inputs = append(inputs, in)
	}
	if b, ok := engine.(BatchEngine); ok {
		return b.RecognizeBatch(ctx, inputs)
	}
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

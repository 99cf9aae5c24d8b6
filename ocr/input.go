package ocr

import (
	"fmt"
	"strconv"

	"github.com/wudi/pdf2text/pdf"
)

// InputOption mutates an OCR input generated from a rasterized page.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// WithTesseractPSM sets the page segmentation mode (PSM) variable for
// Tesseract engines.
func WithTesseractPSM(mode int) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata["tessedit_pageseg_mode"] = strconv.Itoa(mode)
	}
}

// InputFromPage converts a rasterized page into an OCR input using PNG
// encoding. The generated ID is stable per page index to simplify
// correlation with downstream results.
func InputFromPage(page pdf.PageImage, opts ...InputOption) (Input, error) {
	data, err := page.PNG()
	if err != nil {
		return Input{}, fmt.Errorf("encode page image: %w", err)
	}
	in := Input{
		ID:        fmt.Sprintf("page-%d", page.Index),
		Image:     data,
		Format:    ImageFormatPNG,
		PageIndex: page.Index,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}

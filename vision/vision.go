// Package vision defines the contract for vision-to-sequence model backends
// used by the model conversion pipeline. A backend receives one rasterized
// page plus a fixed instruction and returns the raw DocTags continuation the
// model generated.
package vision

import "context"

// PagePrompt is the fixed instruction sent with every page image.
const PagePrompt = "Convert this page to docling."

// Decoding parameters shared by every backend. They mirror the generation
// settings the model was tuned for and are not configurable per request.
const (
	MaxNewTokens = 8192
	Temperature  = 0.7
	TopP         = 0.95
)

// GenerateRequest is one page submitted for generation.
type GenerateRequest struct {
	// Prompt is the instruction text, normally PagePrompt.
	Prompt string
	// ImagePNG is the PNG-encoded page bitmap.
	ImagePNG []byte
}

// Engine is a loaded vision-to-sequence model. Implementations are not
// required to be reentrant; callers serialize access.
type Engine interface {
	Name() string
	// GeneratePage runs one generation pass and returns the decoded
	// continuation with any echoed prompt already stripped.
	GeneratePage(ctx context.Context, req GenerateRequest) (string, error)
}

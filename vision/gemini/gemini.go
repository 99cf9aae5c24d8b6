// Package gemini provides a Gemini-backed vision engine for deployments
// without a local inference runtime.
package gemini

import (
	"context"
	"errors"
	"fmt"

	genai "google.golang.org/genai"

	"github.com/wudi/pdf2text/vision"
)

// Engine implements vision.Engine on top of the Gemini API. Device
// selection does not apply: the model runs remotely.
type Engine struct {
	client *genai.Client
	model  string
}

// New builds a Gemini engine. apiKey is required; model falls back to
// gemini-2.5-flash.
func New(ctx context.Context, apiKey, model string) (*Engine, error) {
	if apiKey == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Engine{client: client, model: model}, nil
}

func (e *Engine) Name() string { return "gemini" }

// GeneratePage submits the page image and instruction as one multimodal
// prompt, carrying the shared decoding parameters.
func (e *Engine) GeneratePage(ctx context.Context, req vision.GenerateRequest) (string, error) {
	content := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: req.Prompt},
			{InlineData: &genai.Blob{MIMEType: "image/png", Data: req.ImagePNG}},
		},
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     ptr(float32(vision.Temperature)),
		TopP:            ptr(float32(vision.TopP)),
		MaxOutputTokens: int32(vision.MaxNewTokens),
	}
	res, err := e.client.Models.GenerateContent(ctx, e.model, []*genai.Content{content}, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return res.Text(), nil
}

func ptr[T any](v T) *T { return &v }

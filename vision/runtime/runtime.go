// Package runtime talks to a locally hosted inference runtime over HTTP.
// The runtime owns tokenization, attention and weights; this client owns the
// one-time device selection, the model load and the per-page generation
// calls.
package runtime

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wudi/pdf2text/observability"
	"github.com/wudi/pdf2text/vision"
)

// devicePriority is the fixed probe order: unified-memory GPU first, then
// discrete GPU, then CPU. First available wins.
var devicePriority = []string{"unified", "cuda", "cpu"}

// dtypeForDevice maps the selected device to the precision the model is
// loaded at.
var dtypeForDevice = map[string]string{
	"unified": "f16",
	"cuda":    "bf16",
	"cpu":     "f32",
}

// Client is a vision.Engine backed by a local inference runtime.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	logger  observability.Logger

	device string
	dtype  string
	loaded bool
}

// New builds a client for the runtime at baseURL. Load must be called before
// the first GeneratePage.
func New(baseURL, model string, logger observability.Logger) *Client {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: 0}, // generation may run for minutes
		logger:  logger,
	}
}

func (c *Client) Name() string { return "runtime" }

// Device reports the device selected by Load, or "" before Load.
func (c *Client) Device() string { return c.device }

type capabilitiesResponse struct {
	Devices []string `json:"devices"`
}

type loadRequest struct {
	Model  string `json:"model"`
	Device string `json:"device"`
	DType  string `json:"dtype"`
}

// Load probes the runtime's devices, picks the first match in priority
// order and loads the model weights onto it. This is a process-lifetime
// decision: calling Load twice is a no-op.
func (c *Client) Load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	var caps capabilitiesResponse
	if err := c.get(ctx, "/v1/capabilities", &caps); err != nil {
		return fmt.Errorf("probe runtime capabilities: %w", err)
	}
	available := make(map[string]bool, len(caps.Devices))
	for _, d := range caps.Devices {
		available[d] = true
	}
	for _, d := range devicePriority {
		if available[d] {
			c.device = d
			break
		}
	}
	if c.device == "" {
		return fmt.Errorf("runtime reports no usable device (got %v)", caps.Devices)
	}
	c.dtype = dtypeForDevice[c.device]
	if c.device == "cpu" {
		c.logger.Warn("no GPU detected, model will run on CPU")
	}

	start := time.Now()
	if err := c.post(ctx, "/v1/models/load", loadRequest{Model: c.model, Device: c.device, DType: c.dtype}, nil); err != nil {
		return fmt.Errorf("load model %s: %w", c.model, err)
	}
	c.loaded = true
	c.logger.Info("model loaded",
		observability.String("model", c.model),
		observability.String("device", c.device),
		observability.String("dtype", c.dtype),
		observability.Duration(observability.MetricModelTime, time.Since(start)))
	return nil
}

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	ImageB64    string  `json:"image_base64"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	Sample      bool    `json:"sample"`
}

type generateResponse struct {
	Text string `json:"text"`
	// Echo is the byte length of the prompt prefix the runtime echoed back
	// at the start of Text; zero when the runtime returns only the
	// continuation.
	Echo int `json:"echo"`
}

// GeneratePage runs one generation pass for a page image and returns the
// continuation text with any echoed prompt stripped.
func (c *Client) GeneratePage(ctx context.Context, req vision.GenerateRequest) (string, error) {
	if !c.loaded {
		return "", fmt.Errorf("model %s is not loaded", c.model)
	}
	payload := generateRequest{
		Model:       c.model,
		Prompt:      req.Prompt,
		ImageB64:    base64.StdEncoding.EncodeToString(req.ImagePNG),
		MaxTokens:   vision.MaxNewTokens,
		Temperature: vision.Temperature,
		TopP:        vision.TopP,
		Sample:      true,
	}
	var res generateResponse
	if err := c.post(ctx, "/v1/generate", payload, &res); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return trimEcho(res.Text, res.Echo, req.Prompt), nil
}

// trimEcho removes the echoed prompt prefix from the generated text, using
// the runtime-reported byte offset when present and falling back to a plain
// prefix match on the prompt.
func trimEcho(text string, echo int, prompt string) string {
	if echo > 0 && echo <= len(text) {
		return strings.TrimLeft(text[echo:], " ")
	}
	return strings.TrimLeft(strings.TrimPrefix(text, prompt), " ")
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("runtime %s: %s: %s", req.URL.Path, res.Status, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode runtime response: %w", err)
	}
	return nil
}

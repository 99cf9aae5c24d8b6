package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wudi/pdf2text/observability"
	"github.com/wudi/pdf2text/vision"
)

type fakeRuntime struct {
	devices      []string
	loads        []loadRequest
	generations  []generateRequest
	generateText string
	generateEcho int
}

func (f *fakeRuntime) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/capabilities", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(capabilitiesResponse{Devices: f.devices})
	})
	mux.HandleFunc("POST /v1/models/load", func(w http.ResponseWriter, r *http.Request) {
		var req loadRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.loads = append(f.loads, req)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /v1/generate", func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.generations = append(f.generations, req)
		json.NewEncoder(w).Encode(generateResponse{Text: f.generateText, Echo: f.generateEcho})
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeRuntime) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-model", observability.NopLogger{})
}

func TestLoadPicksHighestPriorityDevice(t *testing.T) {
	cases := []struct {
		devices []string
		device  string
		dtype   string
	}{
		{[]string{"cpu", "cuda", "unified"}, "unified", "f16"},
		{[]string{"cpu", "cuda"}, "cuda", "bf16"},
		{[]string{"cpu"}, "cpu", "f32"},
	}
	for _, c := range cases {
		f := &fakeRuntime{devices: c.devices}
		client := newTestClient(t, f)
		if err := client.Load(context.Background()); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if client.Device() != c.device {
			t.Fatalf("devices %v: got device %s, want %s", c.devices, client.Device(), c.device)
		}
		if len(f.loads) != 1 {
			t.Fatalf("expected one load call, got %d", len(f.loads))
		}
		if f.loads[0].DType != c.dtype {
			t.Fatalf("devices %v: got dtype %s, want %s", c.devices, f.loads[0].DType, c.dtype)
		}
		if f.loads[0].Model != "test-model" {
			t.Fatalf("unexpected model in load: %s", f.loads[0].Model)
		}
	}
}

func TestLoadNoUsableDevice(t *testing.T) {
	client := newTestClient(t, &fakeRuntime{devices: []string{"tpu"}})
	if err := client.Load(context.Background()); err == nil {
		t.Fatalf("expected error for unusable device list")
	}
}

func TestLoadIsOneTime(t *testing.T) {
	f := &fakeRuntime{devices: []string{"cpu"}}
	client := newTestClient(t, f)
	if err := client.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := client.Load(context.Background()); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if len(f.loads) != 1 {
		t.Fatalf("Load should be one-time, saw %d load calls", len(f.loads))
	}
}

func TestGeneratePageParameters(t *testing.T) {
	f := &fakeRuntime{devices: []string{"cpu"}, generateText: "<text>hi</text>"}
	client := newTestClient(t, f)
	if err := client.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	out, err := client.GeneratePage(context.Background(), vision.GenerateRequest{
		Prompt:   vision.PagePrompt,
		ImagePNG: []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("GeneratePage() error = %v", err)
	}
	if out != "<text>hi</text>" {
		t.Fatalf("unexpected output: %q", out)
	}
	if len(f.generations) != 1 {
		t.Fatalf("expected one generation, got %d", len(f.generations))
	}
	gen := f.generations[0]
	if gen.MaxTokens != vision.MaxNewTokens {
		t.Fatalf("unexpected max tokens: %d", gen.MaxTokens)
	}
	if gen.Temperature != vision.Temperature || gen.TopP != vision.TopP {
		t.Fatalf("unexpected sampling params: %v %v", gen.Temperature, gen.TopP)
	}
	if !gen.Sample {
		t.Fatalf("sampling should be enabled")
	}
	if gen.Prompt != vision.PagePrompt {
		t.Fatalf("unexpected prompt: %q", gen.Prompt)
	}
	if gen.ImageB64 == "" {
		t.Fatalf("expected base64 image payload")
	}
}

func TestGeneratePageTrimsEcho(t *testing.T) {
	prompt := vision.PagePrompt
	f := &fakeRuntime{
		devices:      []string{"cpu"},
		generateText: prompt + " <doctag>rest</doctag>",
		generateEcho: len(prompt),
	}
	client := newTestClient(t, f)
	if err := client.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	out, err := client.GeneratePage(context.Background(), vision.GenerateRequest{Prompt: prompt})
	if err != nil {
		t.Fatalf("GeneratePage() error = %v", err)
	}
	if out != "<doctag>rest</doctag>" {
		t.Fatalf("echo not trimmed: %q", out)
	}
}

func TestGeneratePageTrimsEchoByPrefixFallback(t *testing.T) {
	if got := trimEcho(vision.PagePrompt+" tail", 0, vision.PagePrompt); got != "tail" {
		t.Fatalf("prefix fallback failed: %q", got)
	}
	if got := trimEcho("no echo here", 0, vision.PagePrompt); got != "no echo here" {
		t.Fatalf("unechoed text altered: %q", got)
	}
}

func TestGeneratePageRequiresLoad(t *testing.T) {
	client := newTestClient(t, &fakeRuntime{devices: []string{"cpu"}})
	if _, err := client.GeneratePage(context.Background(), vision.GenerateRequest{}); err == nil {
		t.Fatalf("expected error before Load")
	}
}

func TestRuntimeErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer srv.Close()
	client := New(srv.URL, "test-model", observability.NopLogger{})
	if err := client.Load(context.Background()); err == nil {
		t.Fatalf("expected error from failing runtime")
	}
}

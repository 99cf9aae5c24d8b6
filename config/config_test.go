package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != ":8000" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.MaxUploadSize != 10*1024*1024 {
		t.Fatalf("unexpected max upload size: %d", cfg.MaxUploadSize)
	}
	if !reflect.DeepEqual(cfg.AllowedExtensions, []string{"pdf"}) {
		t.Fatalf("unexpected extensions: %v", cfg.AllowedExtensions)
	}
	if !cfg.OCREnabled {
		t.Fatalf("OCR should default to enabled")
	}
	if cfg.VisionProvider != ProviderRuntime {
		t.Fatalf("unexpected provider: %s", cfg.VisionProvider)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
listen_addr = ":9090"
max_upload_size = 1024
allowed_extensions = ["pdf", "PDF"]
ocr_enabled = false
vision_provider = "gemini"
gemini_api_key = "key"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.MaxUploadSize != 1024 {
		t.Fatalf("unexpected max upload size: %d", cfg.MaxUploadSize)
	}
	if cfg.OCREnabled {
		t.Fatalf("OCR should be disabled")
	}
	if cfg.VisionProvider != ProviderGemini {
		t.Fatalf("unexpected provider: %s", cfg.VisionProvider)
	}
	// Untouched keys keep their defaults.
	if cfg.Model != "ds4sd/SmolDocling-256M-preview" {
		t.Fatalf("unexpected model: %s", cfg.Model)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != ":8000" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PDF2TEXT_MAX_UPLOAD_SIZE", "2048")
	t.Setenv("PDF2TEXT_ALLOWED_EXTENSIONS", "pdf, txt")
	t.Setenv("PDF2TEXT_OCR_ENABLED", "false")
	t.Setenv("PDF2TEXT_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxUploadSize != 2048 {
		t.Fatalf("unexpected max upload size: %d", cfg.MaxUploadSize)
	}
	if !reflect.DeepEqual(cfg.AllowedExtensions, []string{"pdf", "txt"}) {
		t.Fatalf("unexpected extensions: %v", cfg.AllowedExtensions)
	}
	if cfg.OCREnabled {
		t.Fatalf("OCR should be disabled via env")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestCORSOrigins(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("CORS should default to no origins, got %v", cfg.CORSOrigins)
	}

	t.Setenv("PDF2TEXT_CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("unexpected origins: %v", cfg.CORSOrigins)
	}
}

func TestValidation(t *testing.T) {
	t.Setenv("PDF2TEXT_MAX_UPLOAD_SIZE", "0")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for zero max upload size")
	}
	t.Setenv("PDF2TEXT_MAX_UPLOAD_SIZE", "10")
	t.Setenv("PDF2TEXT_VISION_PROVIDER", "llamafile")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("listen_addr = ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

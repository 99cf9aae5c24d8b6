// Package config loads service settings from an optional TOML file with
// PDF2TEXT_* environment variable overrides applied on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Vision model providers accepted by Config.VisionProvider.
const (
	ProviderRuntime = "runtime"
	ProviderGemini  = "gemini"
)

// Config carries every tunable of the conversion service.
type Config struct {
	ListenAddr        string   `toml:"listen_addr"`
	MaxUploadSize     int64    `toml:"max_upload_size"`
	AllowedExtensions []string `toml:"allowed_extensions"`
	CORSOrigins       []string `toml:"cors_origins"`

	OCREnabled   bool     `toml:"ocr_enabled"`
	OCRLanguages []string `toml:"ocr_languages"`

	VisionProvider string `toml:"vision_provider"`
	Model          string `toml:"model"`
	RuntimeURL     string `toml:"runtime_url"`
	GeminiAPIKey   string `toml:"gemini_api_key"`
	GeminiModel    string `toml:"gemini_model"`

	PostScript string `toml:"post_script"`
	LogLevel   string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:        ":8000",
		MaxUploadSize:     10 * 1024 * 1024,
		AllowedExtensions: []string{"pdf"},
		OCREnabled:        true,
		OCRLanguages:      []string{"eng"},
		VisionProvider:    ProviderRuntime,
		Model:             "ds4sd/SmolDocling-256M-preview",
		RuntimeURL:        "http://127.0.0.1:8080",
		GeminiModel:       "gemini-2.5-flash",
		LogLevel:          "info",
	}
}

// Load reads the TOML file at path (a missing file is not an error), applies
// environment overrides and validates the result. An empty path skips the
// file entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// defaults only
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("PDF2TEXT_LISTEN_ADDR"); ok {
		c.ListenAddr = v
	}
	if v, ok := os.LookupEnv("PDF2TEXT_MAX_UPLOAD_SIZE"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxUploadSize = n
		}
	}
	if v, ok := os.LookupEnv("PDF2TEXT_ALLOWED_EXTENSIONS"); ok {
		c.AllowedExtensions = splitList(v)
	}
	if v, ok := os.LookupEnv("PDF2TEXT_CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("PDF2TEXT_OCR_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.OCREnabled = b
		}
	}
	if v, ok := os.LookupEnv("PDF2TEXT_OCR_LANGUAGES"); ok {
		c.OCRLanguages = splitList(v)
	}
	if v, ok := os.LookupEnv("PDF2TEXT_VISION_PROVIDER"); ok {
		c.VisionProvider = v
	}
	if v, ok := os.LookupEnv("PDF2TEXT_MODEL"); ok {
		c.Model = v
	}
	if v, ok := os.LookupEnv("PDF2TEXT_RUNTIME_URL"); ok {
		c.RuntimeURL = v
	}
	if v, ok := os.LookupEnv("PDF2TEXT_GEMINI_API_KEY"); ok {
		c.GeminiAPIKey = v
	}
	if v, ok := os.LookupEnv("PDF2TEXT_GEMINI_MODEL"); ok {
		c.GeminiModel = v
	}
	if v, ok := os.LookupEnv("PDF2TEXT_POST_SCRIPT"); ok {
		c.PostScript = v
	}
	if v, ok := os.LookupEnv("PDF2TEXT_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
}

func (c *Config) validate() error {
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max_upload_size must be positive, got %d", c.MaxUploadSize)
	}
	if len(c.AllowedExtensions) == 0 {
		return fmt.Errorf("allowed_extensions must not be empty")
	}
	switch c.VisionProvider {
	case ProviderRuntime, ProviderGemini:
	default:
		return fmt.Errorf("unknown vision_provider %q", c.VisionProvider)
	}
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

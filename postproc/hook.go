package postproc

import (
	"context"
	"fmt"
	"os"
)

// Hook binds a script file to an engine. A nil *Hook applies the identity
// transform, so callers can hold one unconditionally.
type Hook struct {
	engine Engine
	script string
}

// LoadHook reads the script at path. An empty path yields a nil hook.
func LoadHook(engine Engine, path string) (*Hook, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read post-processing script: %w", err)
	}
	return &Hook{engine: engine, script: string(data)}, nil
}

// Apply runs the transform over text.
func (h *Hook) Apply(ctx context.Context, text string) (string, error) {
	if h == nil {
		return text, nil
	}
	out, err := h.engine.Transform(ctx, h.script, text)
	if err != nil {
		return "", fmt.Errorf("post-processing script: %w", err)
	}
	return out, nil
}

package postproc

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
)

// GojaEngine runs transforms on a goja JavaScript VM. The script sees the
// extracted text as the global `input`; its final expression (or a declared
// `transform(input)` function) produces the replacement text.
type GojaEngine struct{}

func NewEngine() *GojaEngine { return &GojaEngine{} }

func (e *GojaEngine) Transform(ctx context.Context, script, input string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	vm := goja.New()
	if err := vm.Set("input", input); err != nil {
		return "", err
	}

	done := make(chan struct{})
	defer close(done)
	defer vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return "", cause
			}
			return "", context.Canceled
		}
		return "", err
	}

	// A declared transform(input) function takes precedence over the final
	// expression value.
	if tv := vm.Get("transform"); tv != nil {
		if fn, ok := goja.AssertFunction(tv); ok {
			val, err = fn(goja.Undefined(), vm.ToValue(input))
			if err != nil {
				return "", err
			}
		}
	}

	out, ok := val.Export().(string)
	if !ok {
		return "", fmt.Errorf("script must produce a string, got %T", val.Export())
	}
	return out, nil
}

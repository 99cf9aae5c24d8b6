// Package postproc runs an optional operator-supplied JavaScript transform
// over extracted text before it is returned to the client. Typical uses are
// redaction and whitespace normalization.
package postproc

import "context"

// Engine executes a script against a single input string and returns the
// replacement text.
type Engine interface {
	Transform(ctx context.Context, script, input string) (string, error)
}

package domain

import "context"

// Completer generates text from a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

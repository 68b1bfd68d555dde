// Package assist wraps the external assist service used by the enhanced
// naturalization, steering, and sentiment variants. Every consumer of this
// package must fail closed: an assist error always falls back to the
// deterministic default behavior, never aborts a run.
package assist

import "context"

// Client generates a single completion for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

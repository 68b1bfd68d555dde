// Package naturalize transforms scripted user lines into run-time text.
// The deterministic default is a byte-identical pass-through; the enhanced
// variant restates the line through the assist service and falls back to
// pass-through on any failure.
package naturalize

import (
	"context"
	"math/rand"
	"strings"
)

// Request carries the line to transform along with the script persona.
type Request struct {
	Persona  string
	UserLine string
}

// Naturalizer transforms a scripted line. Implementations must be safe for
// concurrent use across runs.
type Naturalizer interface {
	Transform(ctx context.Context, req Request) (string, error)
}

// Passthrough is the deterministic default: it returns the scripted line
// unchanged and never errors, which makes it the universal fallback.
type Passthrough struct{}

func (Passthrough) Transform(_ context.Context, req Request) (string, error) {
	return req.UserLine, nil
}

var fillers = []string{"um", "uh", "you know", "I mean", "like"}

// Disfluency wraps another naturalizer and injects a filler word into a
// fraction of lines, mimicking natural callers. The RNG is seeded by the
// caller so simulation runs stay reproducible.
type Disfluency struct {
	Inner Naturalizer
	Rate  float64
	Rand  *rand.Rand
}

// NewDisfluency creates a seeded disfluency injector. Rate is clamped to
// [0, 1].
func NewDisfluency(inner Naturalizer, rate float64, seed int64) *Disfluency {
	return &Disfluency{
		Inner: inner,
		Rate:  min(max(rate, 0), 1),
		Rand:  rand.New(rand.NewSource(seed)),
	}
}

func (d *Disfluency) Transform(ctx context.Context, req Request) (string, error) {
	text, err := d.Inner.Transform(ctx, req)
	if err != nil {
		return "", err
	}
	if d.Rate == 0 || strings.TrimSpace(text) == "" {
		return text, nil
	}
	if d.Rand.Float64() > d.Rate {
		return text, nil
	}

	words := strings.Fields(text)
	insertAt := d.Rand.Intn(len(words) + 1)
	filler := fillers[d.Rand.Intn(len(fillers))]
	words = append(words[:insertAt], append([]string{filler}, words[insertAt:]...)...)
	return strings.Join(words, " "), nil
}

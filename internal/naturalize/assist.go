package naturalize

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/assist"
)

// Assist restates scripted lines through the assist service, staying in the
// script's persona. It fails closed: any assist error or empty reply falls
// back to the original line for that call.
type Assist struct {
	client assist.Client
	logger *slog.Logger
}

// NewAssist creates an assist-backed naturalizer.
func NewAssist(client assist.Client, logger *slog.Logger) *Assist {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assist{client: client, logger: logger}
}

func (a *Assist) Transform(ctx context.Context, req Request) (string, error) {
	candidate, err := a.client.Generate(ctx, assist.NaturalizePrompt(req.Persona, req.UserLine))
	if err != nil {
		a.logger.Debug("naturalization fell back to scripted line", "error", err)
		return req.UserLine, nil
	}
	if strings.TrimSpace(candidate) == "" {
		return req.UserLine, nil
	}
	return candidate, nil
}

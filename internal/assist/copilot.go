package assist

import (
	"context"
	"fmt"
	"strings"
	"sync"

	copilot "github.com/github/copilot-sdk/go"
)

// copilotSession is just an interface over [*copilot.Session]
type copilotSession interface {
	// On maps to [copilot.Session.On]
	On(handler copilot.SessionEventHandler) func()

	// SendAndWait maps to [copilot.Session.SendAndWait]
	SendAndWait(ctx context.Context, options copilot.MessageOptions) (*copilot.SessionEvent, error)
}

// copilotClient is just an interface over [*copilot.Client]
type copilotClient interface {
	CreateSession(ctx context.Context, config *copilot.SessionConfig) (copilotSession, error)
	Start(ctx context.Context) error
	Stop() error
}

// CopilotClient is the assist Client backed by the Copilot SDK. One client
// is shared across runs; each Generate call uses a fresh session so prompts
// never leak context into each other.
type CopilotClient struct {
	modelID string
	client  copilotClient

	startOnce sync.Once
}

// CopilotClientOptions allows substituting the underlying SDK client,
// used by tests.
type CopilotClientOptions struct {
	NewCopilotClient func(clientOptions *copilot.ClientOptions) copilotClient
}

// NewCopilotClient creates an assist client. modelID can be blank, which
// lets the CLI pick its own fallback model.
func NewCopilotClient(modelID string, options *CopilotClientOptions) *CopilotClient {
	copilotOptions := &copilot.ClientOptions{
		LogLevel:  "error",
		AutoStart: copilot.Bool(false),
	}

	var client copilotClient
	if options == nil || options.NewCopilotClient == nil {
		client = newCopilotClientWrapper(copilotOptions)
	} else {
		client = options.NewCopilotClient(copilotOptions)
	}

	return &CopilotClient{modelID: modelID, client: client}
}

// Generate sends one prompt and returns the assistant's full text reply.
func (c *CopilotClient) Generate(ctx context.Context, prompt string) (string, error) {
	var startErr error

	c.startOnce.Do(func() {
		// NOTE: autostart runs into issues when triggered from separate
		// goroutines, so start explicitly once.
		startErr = c.client.Start(ctx)
	})
	if startErr != nil {
		return "", fmt.Errorf("assist client failed to start: %w", startErr)
	}

	session, err := c.client.CreateSession(ctx, &copilot.SessionConfig{
		Model: c.modelID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create assist session: %w", err)
	}

	var parts []string
	unsubscribe := session.On(func(event copilot.SessionEvent) {
		if event.Type == copilot.AssistantMessage && event.Data.Content != nil {
			parts = append(parts, *event.Data.Content)
		}
	})
	defer unsubscribe()

	if _, err := session.SendAndWait(ctx, copilot.MessageOptions{Prompt: prompt}); err != nil {
		return "", fmt.Errorf("assist prompt failed: %w", err)
	}

	return strings.TrimSpace(strings.Join(parts, "")), nil
}

// Close stops the underlying SDK client.
func (c *CopilotClient) Close() error {
	return c.client.Stop()
}

func newCopilotClientWrapper(clientOptions *copilot.ClientOptions) copilotClient {
	return &copilotClientWrapper{inner: copilot.NewClient(clientOptions)}
}

type copilotClientWrapper struct {
	inner *copilot.Client
}

func (w *copilotClientWrapper) CreateSession(ctx context.Context, config *copilot.SessionConfig) (copilotSession, error) {
	sess, err := w.inner.CreateSession(ctx, config)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (w *copilotClientWrapper) Start(ctx context.Context) error {
	return w.inner.Start(ctx)
}

func (w *copilotClientWrapper) Stop() error {
	return w.inner.Stop()
}

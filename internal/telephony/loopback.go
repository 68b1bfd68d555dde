package telephony

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
)

// Loopback is an in-process provider for local development and tests. Dial
// succeeds without placing a real call, and events are built from the same
// form fields the server's webhook handler reads.
type Loopback struct {
	mu    sync.Mutex
	calls map[string]Call
}

// NewLoopback creates an empty loopback provider.
func NewLoopback() *Loopback {
	return &Loopback{calls: make(map[string]Call)}
}

func (l *Loopback) Name() string { return "loopback" }

func (l *Loopback) Dial(_ context.Context, call Call) (string, error) {
	if call.ToNumber == "" {
		return "", fmt.Errorf("loopback: call for run %s has no destination number", call.RunID)
	}
	callID := "loop-" + uuid.NewString()
	l.mu.Lock()
	l.calls[callID] = call
	l.mu.Unlock()
	return callID, nil
}

func (l *Loopback) Hangup(_ context.Context, callID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.calls[callID]; !ok {
		return fmt.Errorf("loopback: unknown call %s", callID)
	}
	delete(l.calls, callID)
	return nil
}

func (l *Loopback) ParseEvent(form url.Values) (*Event, error) {
	callID := form.Get("call_id")
	if callID == "" {
		return nil, fmt.Errorf("loopback event missing call_id")
	}

	event := &Event{Provider: l.Name(), CallID: callID, Raw: form}
	switch kind := form.Get("event"); kind {
	case "speech":
		event.Type = EventSpeech
		event.Text = form.Get("text")
	case "completed":
		event.Type = EventCompleted
	case "failed":
		event.Type = EventFailed
	case "ringing":
		event.Type = EventRinging
	case "in-progress":
		event.Type = EventInProgress
	default:
		return nil, fmt.Errorf("loopback event has unknown kind %q", kind)
	}
	return event, nil
}

// Active reports whether a call id is still live. Test helper.
func (l *Loopback) Active(callID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.calls[callID]
	return ok
}

var _ Provider = (*Loopback)(nil)

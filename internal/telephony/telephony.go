// Package telephony abstracts the phone-call providers used by live runs.
// A provider places and terminates calls and normalizes its webhook
// payloads into a common event shape the server can correlate with runs.
package telephony

import (
	"context"
	"errors"
	"net/url"
)

// Call describes an outbound call to place.
type Call struct {
	ToNumber   string
	FromNumber string
	RunID      string

	// StatusCallback is the URL the provider posts call events to.
	StatusCallback string
	// MediaURL tells the provider where to fetch call-handling instructions.
	MediaURL string
}

// EventType classifies a normalized provider event.
type EventType string

const (
	EventRinging    EventType = "ringing"
	EventInProgress EventType = "in-progress"
	EventSpeech     EventType = "speech"
	EventCompleted  EventType = "completed"
	EventFailed     EventType = "failed"
)

// Event is a provider webhook payload normalized to the common schema.
type Event struct {
	Provider string
	CallID   string
	Type     EventType
	// Text carries the transcribed agent speech on speech events.
	Text string
	Raw  url.Values
}

// ErrNotSupported is returned by providers that do not implement an
// operation yet.
var ErrNotSupported = errors.New("telephony: operation not supported")

// Provider is implemented per telephony backend.
type Provider interface {
	// Name is the provider label recorded on run results.
	Name() string
	// Dial places an outbound call and returns the provider's call id.
	Dial(ctx context.Context, call Call) (string, error)
	// Hangup terminates an in-flight call.
	Hangup(ctx context.Context, callID string) error
	// ParseEvent normalizes a webhook payload.
	ParseEvent(form url.Values) (*Event, error)
}

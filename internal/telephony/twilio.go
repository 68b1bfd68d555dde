package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// Twilio places calls through the Twilio REST API.
type Twilio struct {
	accountSID        string
	authToken         string
	defaultFromNumber string
	baseURL           string
	httpClient        *http.Client
}

// TwilioOption configures the Twilio provider.
type TwilioOption func(*Twilio)

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(baseURL string) TwilioOption {
	return func(t *Twilio) { t.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) TwilioOption {
	return func(t *Twilio) { t.httpClient = client }
}

// NewTwilio creates a Twilio provider with account credentials and the
// caller id used when a script does not set one.
func NewTwilio(accountSID, authToken, defaultFromNumber string, opts ...TwilioOption) *Twilio {
	t := &Twilio{
		accountSID:        accountSID,
		authToken:         authToken,
		defaultFromNumber: defaultFromNumber,
		baseURL:           twilioAPIBase,
		httpClient:        &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Twilio) Name() string { return "twilio" }

func (t *Twilio) Dial(ctx context.Context, call Call) (string, error) {
	from := call.FromNumber
	if from == "" {
		from = t.defaultFromNumber
	}

	form := url.Values{}
	form.Set("To", call.ToNumber)
	form.Set("From", from)
	if call.MediaURL != "" {
		form.Set("Url", call.MediaURL)
	}
	if call.StatusCallback != "" {
		form.Set("StatusCallback", call.StatusCallback)
	}

	var created struct {
		SID string `json:"sid"`
	}
	if err := t.post(ctx, "/Calls.json", form, &created); err != nil {
		return "", fmt.Errorf("initiate call for run %s: %w", call.RunID, err)
	}
	return created.SID, nil
}

func (t *Twilio) Hangup(ctx context.Context, callID string) error {
	form := url.Values{}
	form.Set("Status", "completed")
	if err := t.post(ctx, "/Calls/"+url.PathEscape(callID)+".json", form, nil); err != nil {
		return fmt.Errorf("hang up call %s: %w", callID, err)
	}
	return nil
}

// ParseEvent normalizes a Twilio status callback. Speech events carry the
// transcription in SpeechResult.
func (t *Twilio) ParseEvent(form url.Values) (*Event, error) {
	callID := form.Get("CallSid")
	if callID == "" {
		return nil, fmt.Errorf("twilio event missing CallSid")
	}

	event := &Event{Provider: t.Name(), CallID: callID, Raw: form}
	if speech := form.Get("SpeechResult"); speech != "" {
		event.Type = EventSpeech
		event.Text = speech
		return event, nil
	}

	switch status := form.Get("CallStatus"); status {
	case "ringing", "queued", "initiated":
		event.Type = EventRinging
	case "in-progress", "answered":
		event.Type = EventInProgress
	case "completed":
		event.Type = EventCompleted
	case "busy", "failed", "no-answer", "canceled":
		event.Type = EventFailed
	default:
		return nil, fmt.Errorf("twilio event has unknown CallStatus %q", status)
	}
	return event, nil
}

func (t *Twilio) post(ctx context.Context, path string, form url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s%s", t.baseURL, url.PathEscape(t.accountSID), path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("twilio API %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ Provider = (*Twilio)(nil)

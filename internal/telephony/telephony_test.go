package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTwilio_Dial(t *testing.T) {
	var gotPath string
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "AC123", user)
		require.Equal(t, "token", pass)

		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "CA999"}`))
	}))
	defer server.Close()

	provider := NewTwilio("AC123", "token", "+15550001111", WithBaseURL(server.URL))

	callID, err := provider.Dial(context.Background(), Call{
		ToNumber:       "+15552223333",
		RunID:          "run-1",
		StatusCallback: "https://harness.example/api/webhook/twilio",
	})
	require.NoError(t, err)
	require.Equal(t, "CA999", callID)
	require.Equal(t, "/Accounts/AC123/Calls.json", gotPath)
	require.Equal(t, "+15552223333", gotForm.Get("To"))
	// Default caller id applies when the script has none.
	require.Equal(t, "+15550001111", gotForm.Get("From"))
	require.Equal(t, "https://harness.example/api/webhook/twilio", gotForm.Get("StatusCallback"))
}

func TestTwilio_DialAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "invalid number"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	provider := NewTwilio("AC123", "token", "+15550001111", WithBaseURL(server.URL))
	_, err := provider.Dial(context.Background(), Call{ToNumber: "bogus", RunID: "run-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid number")
}

func TestTwilio_Hangup(t *testing.T) {
	var gotPath string
	var gotStatus string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotStatus = r.PostForm.Get("Status")
		w.Write([]byte(`{"sid": "CA999", "status": "completed"}`))
	}))
	defer server.Close()

	provider := NewTwilio("AC123", "token", "", WithBaseURL(server.URL))
	require.NoError(t, provider.Hangup(context.Background(), "CA999"))
	require.Equal(t, "/Accounts/AC123/Calls/CA999.json", gotPath)
	require.Equal(t, "completed", gotStatus)
}

func TestTwilio_ParseEvent(t *testing.T) {
	provider := NewTwilio("AC123", "token", "")

	tests := []struct {
		name string
		form url.Values
		want EventType
		text string
	}{
		{
			name: "speech",
			form: url.Values{"CallSid": {"CA1"}, "SpeechResult": {"hello, how can I help?"}},
			want: EventSpeech,
			text: "hello, how can I help?",
		},
		{
			name: "ringing",
			form: url.Values{"CallSid": {"CA1"}, "CallStatus": {"ringing"}},
			want: EventRinging,
		},
		{
			name: "completed",
			form: url.Values{"CallSid": {"CA1"}, "CallStatus": {"completed"}},
			want: EventCompleted,
		},
		{
			name: "no answer",
			form: url.Values{"CallSid": {"CA1"}, "CallStatus": {"no-answer"}},
			want: EventFailed,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			event, err := provider.ParseEvent(tc.form)
			require.NoError(t, err)
			require.Equal(t, tc.want, event.Type)
			require.Equal(t, "CA1", event.CallID)
			require.Equal(t, tc.text, event.Text)
		})
	}

	_, err := provider.ParseEvent(url.Values{"CallStatus": {"ringing"}})
	require.Error(t, err, "missing CallSid")

	_, err = provider.ParseEvent(url.Values{"CallSid": {"CA1"}, "CallStatus": {"teleported"}})
	require.Error(t, err, "unknown status")
}

func TestLoopback(t *testing.T) {
	provider := NewLoopback()
	ctx := context.Background()

	callID, err := provider.Dial(ctx, Call{ToNumber: "+15550001111", RunID: "run-1"})
	require.NoError(t, err)
	require.True(t, provider.Active(callID))

	event, err := provider.ParseEvent(url.Values{
		"call_id": {callID},
		"event":   {"speech"},
		"text":    {"hello"},
	})
	require.NoError(t, err)
	require.Equal(t, EventSpeech, event.Type)
	require.Equal(t, "hello", event.Text)

	require.NoError(t, provider.Hangup(ctx, callID))
	require.False(t, provider.Active(callID))
	require.Error(t, provider.Hangup(ctx, callID))

	_, err = provider.Dial(ctx, Call{RunID: "run-2"})
	require.Error(t, err, "destination required")
}

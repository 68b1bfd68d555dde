// Package transport defines how a user utterance reaches the agent under
// test and how its reply comes back. Simulation transports resolve replies
// synchronously in-process; the callback transport suspends until an
// external provider delivers the reply for the matching run and turn.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// Request carries one user utterance to the agent.
type Request struct {
	RunID     string
	TurnIndex int
	Text      string
}

// Reply is the agent's answer to one request.
type Reply struct {
	Text string
}

// AgentTransport sends a user utterance and obtains the agent's reply.
// Implementations may block awaiting an asynchronous callback; they must
// honor ctx cancellation.
type AgentTransport interface {
	Send(ctx context.Context, req Request) (*Reply, error)
}

// ErrTimeout is wrapped into the error returned when no reply arrives
// within the configured per-turn bound.
var ErrTimeout = errors.New("timed out waiting for agent reply")

// Error is a transport failure: connection errors, malformed callbacks,
// or a timed-out wait. It always carries the run/turn it occurred on so
// abort reasons stay attributable.
type Error struct {
	RunID     string
	TurnIndex int
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport: run %s turn %d: %v", e.RunID, e.TurnIndex, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

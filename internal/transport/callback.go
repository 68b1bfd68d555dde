package transport

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Speaker pushes the user's line out to the live call. Providers that relay
// text-to-speech implement this; tests use it to loop replies back.
type Speaker interface {
	Say(ctx context.Context, runID string, turnIndex int, text string) error
}

// correlation identifies one awaited reply.
type correlation struct {
	runID     string
	turnIndex int
}

type pending struct {
	ch chan result
}

type result struct {
	text string
	err  error
}

// Callback is the live-mode transport. Send registers a waiter keyed by
// (run id, turn index), optionally announces the user line through a
// Speaker, and blocks until Deliver or Fail resolves the waiter, the
// per-turn timeout elapses, or ctx is canceled.
//
// One Callback instance serves many concurrent runs; waiters for different
// runs never interact.
type Callback struct {
	speaker Speaker
	timeout time.Duration

	mu      sync.Mutex
	waiters map[correlation]*pending
}

// CallbackOption configures a Callback transport.
type CallbackOption func(*Callback)

// WithSpeaker wires an outbound speaker for user lines.
func WithSpeaker(s Speaker) CallbackOption {
	return func(c *Callback) { c.speaker = s }
}

// WithTimeout sets the per-turn reply wait bound.
func WithTimeout(d time.Duration) CallbackOption {
	return func(c *Callback) { c.timeout = d }
}

// NewCallback creates a callback transport with a 60s default per-turn
// timeout.
func NewCallback(opts ...CallbackOption) *Callback {
	c := &Callback{
		timeout: 60 * time.Second,
		waiters: make(map[correlation]*pending),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Callback) register(key correlation) (*pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.waiters[key]; exists {
		return nil, fmt.Errorf("turn %d of run %s is already awaiting a reply", key.turnIndex, key.runID)
	}
	p := &pending{ch: make(chan result, 1)}
	c.waiters[key] = p
	return p, nil
}

func (c *Callback) unregister(key correlation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.waiters, key)
}

func (c *Callback) Send(ctx context.Context, req Request) (*Reply, error) {
	key := correlation{runID: req.RunID, turnIndex: req.TurnIndex}

	p, err := c.register(key)
	if err != nil {
		return nil, &Error{RunID: req.RunID, TurnIndex: req.TurnIndex, Err: err}
	}
	defer c.unregister(key)

	if c.speaker != nil {
		if err := c.speaker.Say(ctx, req.RunID, req.TurnIndex, req.Text); err != nil {
			return nil, &Error{RunID: req.RunID, TurnIndex: req.TurnIndex, Err: err}
		}
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res := <-p.ch:
		if res.err != nil {
			return nil, &Error{RunID: req.RunID, TurnIndex: req.TurnIndex, Err: res.err}
		}
		return &Reply{Text: res.text}, nil
	case <-timer.C:
		return nil, &Error{RunID: req.RunID, TurnIndex: req.TurnIndex, Err: ErrTimeout}
	case <-ctx.Done():
		return nil, &Error{RunID: req.RunID, TurnIndex: req.TurnIndex, Err: ctx.Err()}
	}
}

// Deliver resolves the waiter for (runID, turnIndex) with the agent's reply
// text. It returns false when no one is waiting, which callers treat as
// provider chatter rather than an error.
func (c *Callback) Deliver(runID string, turnIndex int, text string) bool {
	return c.resolve(correlation{runID: runID, turnIndex: turnIndex}, result{text: text})
}

// Fail resolves the waiter for (runID, turnIndex) with an error, e.g. when
// the provider reports the call dropped.
func (c *Callback) Fail(runID string, turnIndex int, err error) bool {
	return c.resolve(correlation{runID: runID, turnIndex: turnIndex}, result{err: err})
}

// DeliverToRun resolves whichever turn of runID is currently awaiting a
// reply. The engine awaits at most one turn per run at a time, so provider
// events that carry no turn number still correlate unambiguously.
func (c *Callback) DeliverToRun(runID string, text string) bool {
	return c.resolveRun(runID, result{text: text})
}

// FailRun resolves the awaited turn of runID with an error, e.g. when the
// provider reports the call dropped.
func (c *Callback) FailRun(runID string, err error) bool {
	return c.resolveRun(runID, result{err: err})
}

func (c *Callback) resolveRun(runID string, res result) bool {
	c.mu.Lock()
	var key correlation
	var p *pending
	for k, w := range c.waiters {
		if k.runID == runID {
			key, p = k, w
			break
		}
	}
	if p != nil {
		delete(c.waiters, key)
	}
	c.mu.Unlock()

	if p == nil {
		return false
	}
	p.ch <- res
	return true
}

func (c *Callback) resolve(key correlation, res result) bool {
	c.mu.Lock()
	p, ok := c.waiters[key]
	if ok {
		delete(c.waiters, key)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	p.ch <- res
	return true
}

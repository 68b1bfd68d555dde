package webapi

import "sync"

// callRegistry correlates provider call ids with run ids for the lifetime
// of a live call.
type callRegistry struct {
	mu    sync.Mutex
	byRun map[string]string // run id -> call id
	runs  map[string]string // call id -> run id
}

func newCallRegistry() *callRegistry {
	return &callRegistry{
		byRun: make(map[string]string),
		runs:  make(map[string]string),
	}
}

func (c *callRegistry) bind(callID, runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[callID] = runID
	c.byRun[runID] = callID
}

func (c *callRegistry) runFor(callID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[callID]
}

func (c *callRegistry) callFor(runID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byRun[runID]
}

func (c *callRegistry) release(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if callID, ok := c.byRun[runID]; ok {
		delete(c.runs, callID)
		delete(c.byRun, runID)
	}
}

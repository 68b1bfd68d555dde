package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// maxTranscriptEntries bounds stored transcripts so a chatty provider
// cannot grow a run record without limit.
const maxTranscriptEntries = 1000

// Memory is the in-memory store. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	scripts map[string]*models.Script
	runs    map[string]*models.RunResult
	order   []string // run ids in creation order
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		scripts: make(map[string]*models.Script),
		runs:    make(map[string]*models.RunResult),
	}
}

func (m *Memory) GetScript(_ context.Context, id string) (*models.Script, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	script, ok := m.scripts[id]
	if !ok {
		return nil, fmt.Errorf("script %q: %w", id, ErrNotFound)
	}
	return snapshotScript(script), nil
}

func (m *Memory) ListScripts(_ context.Context) ([]*models.Script, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	scripts := make([]*models.Script, 0, len(m.scripts))
	for _, s := range m.scripts {
		scripts = append(scripts, snapshotScript(s))
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].ID < scripts[j].ID })
	return scripts, nil
}

func (m *Memory) PutScript(_ context.Context, script *models.Script) error {
	if err := script.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[script.ID] = snapshotScript(script)
	return nil
}

func (m *Memory) DeleteScript(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scripts[id]; !ok {
		return fmt.Errorf("script %q: %w", id, ErrNotFound)
	}
	delete(m.scripts, id)
	return nil
}

func (m *Memory) CreateRun(_ context.Context, run *models.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.RunID]; exists {
		return fmt.Errorf("run %q: %w", run.RunID, ErrRunExists)
	}
	m.runs[run.RunID] = snapshotRun(run)
	m.order = append(m.order, run.RunID)
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (*models.RunResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return snapshotRun(run), nil
}

func (m *Memory) ListRecentRuns(_ context.Context, limit int) ([]*models.RunResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 10
	}

	runs := make([]*models.RunResult, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, snapshotRun(m.runs[m.order[i]]))
	}
	return runs, nil
}

func (m *Memory) UpdateRun(_ context.Context, run *models.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.RunID]; !ok {
		return fmt.Errorf("run %q: %w", run.RunID, ErrNotFound)
	}

	stored := snapshotRun(run)
	if len(stored.Transcript) > maxTranscriptEntries {
		stored.Transcript = stored.Transcript[len(stored.Transcript)-maxTranscriptEntries:]
	}
	m.runs[run.RunID] = stored
	return nil
}

// snapshotScript deep-copies a script so store contents never alias the
// caller's copy.
func snapshotScript(script *models.Script) *models.Script {
	copied := *script
	copied.Turns = make([]models.TurnExpectation, len(script.Turns))
	for i, turn := range script.Turns {
		turn.ExpectedKeywords = append([]string(nil), turn.ExpectedKeywords...)
		copied.Turns[i] = turn
	}
	return &copied
}

// snapshotRun deep-copies a run record so store contents never alias the
// engine's working copy.
func snapshotRun(run *models.RunResult) *models.RunResult {
	data, err := json.Marshal(run)
	if err != nil {
		// RunResult contains only marshalable fields.
		panic(fmt.Sprintf("marshal run %s: %v", run.RunID, err))
	}
	var copied models.RunResult
	if err := json.Unmarshal(data, &copied); err != nil {
		panic(fmt.Sprintf("unmarshal run %s: %v", run.RunID, err))
	}
	return &copied
}

var _ Store = (*Memory)(nil)

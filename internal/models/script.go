package models

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CallDirection is the direction of the phone call for live runs.
type CallDirection string

const (
	// DirectionInbound means the simulated caller dials the agent.
	DirectionInbound CallDirection = "inbound"
	// DirectionOutbound means the agent dials the simulated caller.
	DirectionOutbound CallDirection = "outbound"
)

// TurnExpectation is one scripted user-utterance/agent-reply pair.
//
// The field names here (turn_index, user_line, expected_keywords, exact_match)
// are a stable contract relied on by external script-authoring tools. Renaming
// or retyping them is a breaking change.
type TurnExpectation struct {
	// TurnIndex is the 1-based position of this turn within the script.
	TurnIndex int `yaml:"turn_index" json:"turn_index"`

	// UserLine is the line the simulated caller speaks for this turn.
	UserLine string `yaml:"user_line" json:"user_line"`

	// ExpectedKeywords lists strings the agent reply must contain
	// (case-insensitive). Pre-split; never comma-joined.
	ExpectedKeywords []string `yaml:"expected_keywords" json:"expected_keywords"`

	// ExactMatch requires the agent reply to equal the joined expected
	// keywords after whitespace/case normalization, instead of the
	// substring check.
	ExactMatch bool `yaml:"exact_match,omitempty" json:"exact_match"`
}

// Script is the ordered, immutable description of expected turns for one
// test case. Validate before use; the run engine rejects invalid scripts
// before any turn executes.
type Script struct {
	ID      string            `yaml:"id" json:"id"`
	Persona string            `yaml:"persona" json:"persona"`
	Turns   []TurnExpectation `yaml:"turns" json:"turns"`

	// Call configuration for live runs. Ignored in simulation mode.
	ToNumber   string        `yaml:"to_number,omitempty" json:"to_number,omitempty"`
	FromNumber string        `yaml:"from_number,omitempty" json:"from_number,omitempty"`
	Direction  CallDirection `yaml:"call_direction,omitempty" json:"call_direction,omitempty"`
}

// ValidationError describes a malformed script. It is reported to the caller
// synchronously, before any turn runs.
type ValidationError struct {
	ScriptID string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.ScriptID == "" {
		return fmt.Sprintf("invalid script: %s", e.Message)
	}
	return fmt.Sprintf("invalid script %q: %s", e.ScriptID, e.Message)
}

// Validate checks the script's structural invariants: at least one turn,
// contiguous 1-based turn indices with no duplicates, and non-empty keywords.
func (s *Script) Validate() error {
	if s.ID == "" {
		return &ValidationError{Message: "script id is required"}
	}
	if len(s.Turns) == 0 {
		return &ValidationError{ScriptID: s.ID, Message: "script requires at least one turn"}
	}
	for i, turn := range s.Turns {
		want := i + 1
		if turn.TurnIndex != want {
			return &ValidationError{
				ScriptID: s.ID,
				Message:  fmt.Sprintf("turns must be sequential starting at 1: position %d has turn_index %d", want, turn.TurnIndex),
			}
		}
		if strings.TrimSpace(turn.UserLine) == "" {
			return &ValidationError{
				ScriptID: s.ID,
				Message:  fmt.Sprintf("turn %d: user_line is required", want),
			}
		}
		if !turn.ExactMatch && len(turn.ExpectedKeywords) == 0 {
			return &ValidationError{
				ScriptID: s.ID,
				Message:  fmt.Sprintf("turn %d: expected_keywords is required", want),
			}
		}
		for _, kw := range turn.ExpectedKeywords {
			if strings.TrimSpace(kw) == "" {
				return &ValidationError{
					ScriptID: s.ID,
					Message:  fmt.Sprintf("turn %d: keywords cannot be empty or whitespace", want),
				}
			}
		}
	}
	return nil
}

// Turn returns the expectation at the given 1-based index, or nil.
func (s *Script) Turn(index int) *TurnExpectation {
	if index < 1 || index > len(s.Turns) {
		return nil
	}
	return &s.Turns[index-1]
}

// LoadScript loads and validates a script from a YAML file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}

	if err := script.Validate(); err != nil {
		return nil, err
	}

	return &script, nil
}

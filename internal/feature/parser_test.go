package feature

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleFeature = `Feature: Customer support line
  Callers reach the support agent and ask common questions.

  Scenario: Basic greeting
    Given a test case with id "greeting-basic"
    And the persona is "Polite first-time caller"
    And turn 1 where user says "Hello, is anyone there?"
    And the agent should respond with keywords "hello, help"
    And turn 2 where user says "Thanks, goodbye"
    And the agent should respond with keywords "goodbye"

  Scenario: Opening hours
    Given a test case with id "hours-exact"
    And turn 1 where user says "What are your opening hours?"
    And exact match is required
    And the agent should respond with keywords "we are open 9am to 5pm"
`

func TestParse(t *testing.T) {
	scripts, err := Parse(sampleFeature)
	require.NoError(t, err)
	require.Len(t, scripts, 2)

	greeting := scripts[0]
	require.Equal(t, "greeting-basic", greeting.ID)
	require.Equal(t, "Polite first-time caller", greeting.Persona)
	require.Len(t, greeting.Turns, 2)
	require.Equal(t, "Hello, is anyone there?", greeting.Turns[0].UserLine)
	require.Equal(t, []string{"hello", "help"}, greeting.Turns[0].ExpectedKeywords)
	require.False(t, greeting.Turns[0].ExactMatch)

	hours := scripts[1]
	require.Equal(t, DefaultPersona, hours.Persona)
	require.True(t, hours.Turns[0].ExactMatch)
}

func TestParse_DerivesIDFromScenarioName(t *testing.T) {
	scripts, err := Parse(`Scenario: Billing: Refund flow!
  Given turn 1 where user says "hi"
  And the agent should respond with keywords "hello"
`)
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	require.Equal(t, "billing_refund_flow", scripts[0].ID)
}

func TestParse_SkipsScenariosWithoutTurns(t *testing.T) {
	scripts, err := Parse(`Scenario: Narrative only
  This scenario describes intent but has no steps yet.
`)
	require.NoError(t, err)
	require.Empty(t, scripts)
}

func TestParse_RejectsDanglingSteps(t *testing.T) {
	_, err := Parse(`Scenario: Broken
  Given the agent should respond with keywords "hello"
`)
	require.Error(t, err)

	_, err = Parse(`Scenario: Broken too
  Given exact match is required
`)
	require.Error(t, err)

	// An exact match step after the keywords step lands outside the turn
	// too; the error spells out where the step belongs.
	_, err = Parse(`Scenario: Misordered
  Given a test case with id "misordered"
  And turn 1 where user says "hi"
  And the agent should respond with keywords "hello"
  And exact match is required
`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "before its keywords step")
}

func TestParse_RejectsInvalidScripts(t *testing.T) {
	// Turn indexes must be contiguous from 1.
	_, err := Parse(`Scenario: Gapped
  Given a test case with id "gapped"
  And turn 1 where user says "hi"
  And the agent should respond with keywords "hello"
  And turn 3 where user says "bye"
  And the agent should respond with keywords "goodbye"
`)
	require.Error(t, err)
}

func TestParseDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "support.feature"), []byte(sampleFeature), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	scripts, err := ParseDir(dir)
	require.NoError(t, err)
	require.Len(t, scripts, 2)

	missing, err := ParseDir(filepath.Join(dir, "does-not-exist"))
	require.NoError(t, err)
	require.Empty(t, missing)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "ghost.feature"))
	require.Error(t, err)
}

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/projectconfig"
)

const testScriptYAML = `id: greeting
persona: A polite caller.
turns:
  - turn_index: 1
    user_line: "Hello there."
    expected_keywords:
      - hello
  - turn_index: 2
    user_line: "What are your hours?"
    expected_keywords:
      - open
      - hours
`

func writeTestScript(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "greeting.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testScriptYAML), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand_KeywordEchoPasses(t *testing.T) {
	dir := t.TempDir()
	scriptPath := writeTestScript(t, dir)
	outPath := filepath.Join(dir, "results.json")
	junitPath := filepath.Join(dir, "report.xml")

	out, err := runCLI(t, "run", scriptPath,
		"--output", outPath,
		"--junit", junitPath,
		"--transcript-dir", filepath.Join(dir, "transcripts"))
	require.NoError(t, err)
	assert.Contains(t, out, "greeting")
	assert.Contains(t, out, "✓ pass")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"script_id": "greeting"`)

	junit, err := os.ReadFile(junitPath)
	require.NoError(t, err)
	assert.Contains(t, string(junit), "<testsuite")

	entries, err := os.ReadDir(filepath.Join(dir, "transcripts"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunCommand_FailureFromCannedReplies(t *testing.T) {
	dir := t.TempDir()
	scriptPath := writeTestScript(t, dir)

	replies := `greeting:
  1: "hello, welcome"
  2: "we are closed forever"
`
	repliesFile := filepath.Join(dir, "replies.yaml")
	require.NoError(t, os.WriteFile(repliesFile, []byte(replies), 0o644))

	out, err := runCLI(t, "run", scriptPath, "--replies", repliesFile, "-v")
	require.Error(t, err)

	var failure *TestFailureError
	require.True(t, errors.As(err, &failure))
	assert.Contains(t, failure.Message, "1 of 1")
	assert.Contains(t, out, "missing keywords: open")
}

func TestRunCommand_DirectoryWithFeatures(t *testing.T) {
	dir := t.TempDir()
	writeTestScript(t, dir)

	featureSrc := `Scenario: Hours question
  Given a test case with id "hours-question"
  Given turn 1 where user says "When do you open?"
  And the agent reply contains keywords "open"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hours.feature"), []byte(featureSrc), 0o644))

	out, err := runCLI(t, "run", dir, "--parallel", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "greeting")
	assert.Contains(t, out, "hours-question")
}

func TestRunCommand_GitHubCommentFormat(t *testing.T) {
	dir := t.TempDir()
	scriptPath := writeTestScript(t, dir)

	// github-comment output goes to stdout; we only assert the run succeeds.
	_, err := runCLI(t, "run", scriptPath, "--format", "github-comment")
	require.NoError(t, err)
}

func TestRunCommand_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	scriptPath := writeTestScript(t, dir)

	_, err := runCLI(t, "run", scriptPath, "--format", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRunCommand_NoScripts(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, "run", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scripts found")
}

func TestLoadScripts_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	scriptPath := writeTestScript(t, dir)

	scripts, err := loadScripts([]string{scriptPath}, projectconfig.New())
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, "greeting", scripts[0].ID)
}

func TestLoadScripts_MissingPath(t *testing.T) {
	_, err := loadScripts([]string{"/does/not/exist.yaml"}, projectconfig.New())
	assert.Error(t, err)
}

func TestLoadReplies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "replies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("greeting:\n  1: \"hi\"\n"), 0o644))

	replies, err := loadReplies(path)
	require.NoError(t, err)
	assert.Equal(t, "hi", replies["greeting"][1])

	empty, err := loadReplies("")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

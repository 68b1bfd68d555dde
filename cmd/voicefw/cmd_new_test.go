package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func runCLIWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewCommand_NonInteractiveTemplate(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	out, err := runCLIWithInput(t, "", "new", "support-call")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	data, err := os.ReadFile(filepath.Join(dir, "scripts", "support-call.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "id: support-call")
	assert.Contains(t, string(data), "expected_keywords:")
}

func TestNewCommand_RejectsExisting(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	_, err := runCLIWithInput(t, "", "new", "support-call")
	require.NoError(t, err)

	_, err = runCLIWithInput(t, "", "new", "support-call")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestNewCommand_RejectsInvalidID(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	_, err := runCLIWithInput(t, "", "new", "../escape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid path characters")
}

func TestNewCommand_RequiresIDWithoutTTY(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	_, err := runCLIWithInput(t, "", "new")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required in non-interactive mode")
}

package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{"valid kebab-case", "billing-refund", false, ""},
		{"valid snake_case", "billing_refund", false, ""},
		{"valid simple", "greeting", false, ""},
		{"empty", "", true, "must not be empty"},
		{"path traversal dots", "../evil", true, "invalid path characters"},
		{"forward slash", "a/b", true, "invalid path characters"},
		{"backslash", "a\\b", true, "invalid path characters"},
		{"traversal masked by clean", "a/..", true, "invalid path characters"},
		{"nested traversal", "a/../b", true, "invalid path characters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				if tc.errMsg != "" {
					assert.Contains(t, err.Error(), tc.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"billing-refund", "Billing Refund"},
		{"billing_refund_flow", "Billing Refund Flow"},
		{"greeting", "Greeting"},
		{"a-b-c", "A B C"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, TitleCase(tc.input))
		})
	}
}

func TestExampleScriptYAML(t *testing.T) {
	content := ExampleScriptYAML("example-greeting")

	assert.Contains(t, content, "id: example-greeting")
	assert.Contains(t, content, "persona:")
	assert.Contains(t, content, "turn_index: 1")
	assert.Contains(t, content, "turn_index: 2")
	assert.Contains(t, content, "expected_keywords:")
}

func TestExampleFeature(t *testing.T) {
	content := ExampleFeature("example-greeting")

	assert.Contains(t, content, "Scenario: Example Greeting")
	assert.Contains(t, content, `Given a test case with id "example-greeting"`)
	assert.Contains(t, content, `Given turn 1 where user says`)
	assert.Contains(t, content, `keywords "help, account"`)
}

func TestInitProject(t *testing.T) {
	dir := t.TempDir()

	created, skipped, err := InitProject(dir)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Len(t, created, 3)

	for _, d := range []string{"scripts", "features", "results", "transcripts"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	data, err := os.ReadFile(filepath.Join(dir, ".voicefw.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode: simulation")
}

func TestInitProject_SkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	custom := []byte("defaults:\n  mode: live\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".voicefw.yaml"), custom, 0o644))

	created, skipped, err := InitProject(dir)
	require.NoError(t, err)
	assert.Contains(t, skipped, ".voicefw.yaml")
	assert.Len(t, created, 2)

	// Existing config untouched
	data, err := os.ReadFile(filepath.Join(dir, ".voicefw.yaml"))
	require.NoError(t, err)
	assert.Equal(t, custom, data)
}

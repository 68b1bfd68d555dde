// Package scaffold provides shared template functions for generating
// project config, example scripts, and feature files used by both
// voicefw init and voicefw new.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateName rejects script ids with path-traversal characters or empty ids.
// Script ids become filenames, so anything that escapes the scripts directory
// is refused here.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("script id must not be empty")
	}
	cleaned := filepath.Clean(name)
	if cleaned == ".." || strings.Contains(cleaned, "/") || strings.Contains(cleaned, "\\") {
		return fmt.Errorf("script id %q contains invalid path characters", name)
	}
	return nil
}

// TitleCase converts a kebab-case or snake_case id to Title Case.
func TitleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ConfigYAML returns a default .voicefw.yaml for a new project.
func ConfigYAML() string {
	return `# Project configuration for the voicefw conversation harness.
paths:
  scripts: scripts/
  features: features/
  results: results/
  transcripts: transcripts/

defaults:
  mode: simulation
  max_attempts: 3
  turn_timeout: 60
  workers: 4

# assist:
#   enabled: true
#   model: gpt-4o

# server:
#   port: 8080
#   db: harness.db

# telephony:
#   provider: twilio
#   params:
#     account_sid: ACxxxxxxxx
#     auth_token: your-token
#     from_number: "+15550001111"
`
}

// ExampleScriptYAML returns a starter script for the given id.
func ExampleScriptYAML(id string) string {
	return fmt.Sprintf(`id: %s
persona: A polite customer calling about their account.
turns:
  - turn_index: 1
    user_line: "Hello, I need some help with my account."
    expected_keywords:
      - help
      - account
  - turn_index: 2
    user_line: "Can you tell me my current balance?"
    expected_keywords:
      - balance
`, id)
}

// ExampleFeature returns a starter Gherkin feature file covering the same
// conversation as ExampleScriptYAML.
func ExampleFeature(id string) string {
	name := TitleCase(id)
	return fmt.Sprintf(`Scenario: %s
  Given a test case with id "%s"
  And a persona of "A polite customer calling about their account."
  Given turn 1 where user says "Hello, I need some help with my account."
  And the agent reply contains keywords "help, account"
  Given turn 2 where user says "Can you tell me my current balance?"
  And the agent reply contains keywords "balance"
`, name, id)
}

// InitProject writes the default project layout under dir: the config file,
// the scripts/features/results directories, and one example of each.
// Existing files are left untouched and reported back to the caller.
func InitProject(dir string) (created, skipped []string, err error) {
	files := map[string]string{
		".voicefw.yaml": ConfigYAML(),
		filepath.Join("scripts", "example-greeting.yaml"):     ExampleScriptYAML("example-greeting"),
		filepath.Join("features", "example-greeting.feature"): ExampleFeature("example-greeting"),
	}
	dirs := []string{"scripts", "features", "results", "transcripts"}

	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating %s: %w", d, err)
		}
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if _, statErr := os.Stat(path); statErr == nil {
			skipped = append(skipped, name)
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, nil, fmt.Errorf("writing %s: %w", name, err)
		}
		created = append(created, name)
	}
	return created, skipped, nil
}

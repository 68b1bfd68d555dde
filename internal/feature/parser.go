// Package feature parses Gherkin .feature files into scripts. Only the
// scenario steps this harness defines are recognized; any other Gherkin
// line is ignored, so feature files can carry narrative text freely.
package feature

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

var (
	scenarioPattern   = regexp.MustCompile(`^Scenario:\s*(.+)$`)
	scriptIDPattern   = regexp.MustCompile(`^Given a test case with id "([^"]+)"$`)
	personaPattern    = regexp.MustCompile(`^(?:Given|And) the persona is "([^"]+)"$`)
	turnInputPattern  = regexp.MustCompile(`^(?:Given|And) turn (\d+) where user says "([^"]+)"$`)
	keywordsPattern   = regexp.MustCompile(`^(?:Given|And) the agent should respond with keywords "([^"]+)"$`)
	exactMatchPattern = regexp.MustCompile(`^(?:Given|And) exact match is required$`)

	idSanitizer = regexp.MustCompile(`[^a-z0-9]+`)
)

// DefaultPersona is used when a scenario omits the persona step.
const DefaultPersona = "Default Persona"

// ParseFile reads a .feature file and returns one script per scenario.
// Scenarios without any turn steps are skipped. Parsed scripts are validated
// before being returned.
func ParseFile(path string) ([]*models.Script, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature file: %w", err)
	}
	scripts, err := Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scripts, nil
}

// Parse parses feature file content.
func Parse(content string) ([]*models.Script, error) {
	var scripts []*models.Script
	for _, scenario := range splitScenarios(content) {
		script, err := parseScenario(scenario)
		if err != nil {
			return nil, err
		}
		if script == nil {
			continue
		}
		if err := script.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", script.ID, err)
		}
		scripts = append(scripts, script)
	}
	return scripts, nil
}

// ParseDir parses every .feature file in a directory. A missing directory
// yields no scripts rather than an error.
func ParseDir(dir string) ([]*models.Script, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.feature"))
	if err != nil {
		return nil, err
	}

	var scripts []*models.Script
	for _, path := range paths {
		parsed, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, parsed...)
	}
	return scripts, nil
}

// splitScenarios chunks the file at each "Scenario:" marker, dropping the
// feature header.
func splitScenarios(content string) []string {
	var scenarios []string
	var current []string

	for _, line := range strings.Split(content, "\n") {
		if scenarioPattern.MatchString(strings.TrimSpace(line)) {
			if len(current) > 0 {
				scenarios = append(scenarios, strings.Join(current, "\n"))
			}
			current = []string{line}
			continue
		}
		if current != nil {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		scenarios = append(scenarios, strings.Join(current, "\n"))
	}
	return scenarios
}

func parseScenario(text string) (*models.Script, error) {
	script := &models.Script{Persona: DefaultPersona}
	var scenarioName string
	var current *models.TurnExpectation

	flush := func() {
		if current != nil {
			script.Turns = append(script.Turns, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if m := scenarioPattern.FindStringSubmatch(line); m != nil {
			scenarioName = m[1]
			continue
		}
		if m := scriptIDPattern.FindStringSubmatch(line); m != nil {
			script.ID = m[1]
			continue
		}
		if m := personaPattern.FindStringSubmatch(line); m != nil {
			script.Persona = m[1]
			continue
		}
		if m := turnInputPattern.FindStringSubmatch(line); m != nil {
			flush()
			index, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("scenario %q: bad turn index %q", scenarioName, m[1])
			}
			current = &models.TurnExpectation{TurnIndex: index, UserLine: m[2]}
			continue
		}
		if exactMatchPattern.MatchString(line) {
			if current == nil {
				// The keywords step closes the turn, so this also catches an
				// exact match step placed after it.
				return nil, fmt.Errorf(
					"scenario %q: the exact match step must come after the turn's user-line step and before its keywords step",
					scenarioName)
			}
			current.ExactMatch = true
			continue
		}
		if m := keywordsPattern.FindStringSubmatch(line); m != nil {
			if current == nil {
				return nil, fmt.Errorf("scenario %q: keywords step outside a turn", scenarioName)
			}
			for _, kw := range strings.Split(m[1], ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					current.ExpectedKeywords = append(current.ExpectedKeywords, kw)
				}
			}
			flush()
			continue
		}
	}
	flush()

	if len(script.Turns) == 0 {
		return nil, nil
	}
	if script.ID == "" {
		// Derive an id from the scenario name so a bare scenario still runs.
		script.ID = strings.Trim(idSanitizer.ReplaceAllString(strings.ToLower(scenarioName), "_"), "_")
	}
	return script, nil
}

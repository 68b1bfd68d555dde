// Package wizard implements the interactive script-authoring form behind
// voicefw new.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/scaffold"
)

// TurnSpec is one turn collected by the wizard, with keywords still in their
// raw comma-separated form.
type TurnSpec struct {
	UserLine    string
	KeywordsRaw string
	ExactMatch  bool
}

// ScriptSpec holds all fields collected during the interactive wizard.
type ScriptSpec struct {
	ID        string
	Persona   string
	Direction string
	ToNumber  string
	Turns     []TurnSpec
}

// RunScriptWizard runs interactive huh forms to collect a script definition.
// If initialID is non-empty, it pre-populates the id field. Turns are
// collected one at a time until the author declines to add another.
func RunScriptWizard(in io.Reader, out io.Writer, initialID string) (*ScriptSpec, error) {
	spec := &ScriptSpec{ID: initialID}

	metaForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Script id").
				Description("A kebab-case id for your test case").
				Placeholder("billing-refund").
				Value(&spec.ID).
				Validate(func(s string) error {
					return scaffold.ValidateName(strings.TrimSpace(s))
				}),
			huh.NewInput().
				Title("Persona").
				Description("Who is the simulated caller?").
				Placeholder("A polite customer calling about their account").
				Value(&spec.Persona),
			huh.NewSelect[string]().
				Title("Call direction").
				Description("Only used for live telephony runs").
				Options(
					huh.NewOption("outbound (harness dials the agent)", "outbound"),
					huh.NewOption("inbound (agent dials the harness)", "inbound"),
				).
				Value(&spec.Direction),
			huh.NewInput().
				Title("Agent phone number").
				Description("E.164 number to dial for live runs; leave blank for simulation only").
				Placeholder("+15550001111").
				Value(&spec.ToNumber),
		),
	).
		WithInput(in).
		WithOutput(out)

	if err := runForm(metaForm, in); err != nil {
		return nil, err
	}

	for {
		var turn TurnSpec
		addAnother := true

		turnForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("Turn %d: user line", len(spec.Turns)+1)).
					Description("What the simulated caller says").
					Value(&turn.UserLine).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("user line is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("Expected keywords").
					Description("Comma-separated strings the agent reply must contain").
					Placeholder("refund, processed").
					Value(&turn.KeywordsRaw).
					Validate(func(s string) error {
						if len(splitAndTrim(s)) == 0 {
							return fmt.Errorf("at least one keyword is required")
						}
						return nil
					}),
				huh.NewConfirm().
					Title("Exact match?").
					Description("Require the reply to equal the keywords exactly instead of containing them").
					Value(&turn.ExactMatch),
				huh.NewConfirm().
					Title("Add another turn?").
					Value(&addAnother),
			),
		).
			WithInput(in).
			WithOutput(out)

		if err := runForm(turnForm, in); err != nil {
			return nil, err
		}

		spec.Turns = append(spec.Turns, turn)
		if !addAnother {
			break
		}
	}

	spec.ID = strings.TrimSpace(spec.ID)
	spec.Persona = strings.TrimSpace(spec.Persona)
	spec.ToNumber = strings.TrimSpace(spec.ToNumber)
	return spec, nil
}

// runForm runs a huh form, switching to accessible mode for non-TTY input
// (e.g. tests, piped input).
func runForm(form *huh.Form, in io.Reader) error {
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}
	if err := form.Run(); err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}
	return nil
}

// Script converts the collected spec into a validated Script.
func (s *ScriptSpec) Script() (*models.Script, error) {
	script := &models.Script{
		ID:        s.ID,
		Persona:   s.Persona,
		ToNumber:  s.ToNumber,
		Direction: models.CallDirection(s.Direction),
	}
	for i, turn := range s.Turns {
		script.Turns = append(script.Turns, models.TurnExpectation{
			TurnIndex:        i + 1,
			UserLine:         strings.TrimSpace(turn.UserLine),
			ExpectedKeywords: splitAndTrim(turn.KeywordsRaw),
			ExactMatch:       turn.ExactMatch,
		})
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return script, nil
}

// GenerateScriptYAML renders the spec as script YAML ready to write to the
// scripts directory.
func GenerateScriptYAML(spec *ScriptSpec) (string, error) {
	script, err := spec.Script()
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(script)
	if err != nil {
		return "", fmt.Errorf("rendering script yaml: %w", err)
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

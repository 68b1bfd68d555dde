package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/projectconfig"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/scaffold"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/wizard"
)

func newNewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [script-id]",
		Short: "Create a new test script",
		Long: `Create a new conversation test script in the scripts directory.

When running in a terminal (TTY), launches an interactive wizard that collects
the persona, call configuration, and each scripted turn. In non-interactive
environments (CI, pipes), writes a starter template instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: newCommandE,
	}

	return cmd
}

func newCommandE(cmd *cobra.Command, args []string) error {
	var scriptID string
	if len(args) == 1 {
		scriptID = args[0]
		if err := scaffold.ValidateName(scriptID); err != nil {
			return err
		}
	}

	cfg, err := projectconfig.Load(".")
	if err != nil {
		return err
	}

	// Check TTY from the command's input stream, not os.Stdin directly.
	inReader := cmd.InOrStdin()
	isTTY := false
	if f, ok := inReader.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	var content string
	if isTTY {
		spec, err := wizard.RunScriptWizard(inReader, cmd.OutOrStdout(), scriptID)
		if err != nil {
			return err
		}
		if scriptID != "" && spec.ID != scriptID {
			return fmt.Errorf("wizard id %q does not match CLI argument %q", spec.ID, scriptID)
		}
		scriptID = spec.ID
		content, err = wizard.GenerateScriptYAML(spec)
		if err != nil {
			return err
		}
	} else {
		if scriptID == "" {
			return fmt.Errorf("script id argument is required in non-interactive mode")
		}
		content = scaffold.ExampleScriptYAML(scriptID)
	}

	if err := os.MkdirAll(cfg.Paths.Scripts, 0o755); err != nil {
		return fmt.Errorf("creating scripts directory: %w", err)
	}

	path := filepath.Join(cfg.Paths.Scripts, scriptID+".yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("script %s already exists", path)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing script: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}

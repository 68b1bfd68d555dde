package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/feature"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/projectconfig"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/validation"
)

func newCasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List and validate test cases",
	}

	cmd.AddCommand(newCasesListCommand())
	cmd.AddCommand(newCasesValidateCommand())

	return cmd
}

func newCasesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List test cases from script and feature files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := projectconfig.Load(".")
			if err != nil {
				return err
			}

			var scripts []*models.Script
			if len(args) == 1 {
				scripts, err = loadScripts(args, cfg)
			} else {
				scripts, err = loadScripts(nil, cfg)
			}
			if err != nil {
				return err
			}
			if len(scripts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No test cases found.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-6s %s\n", "ID", "Turns", "Persona")
			for _, script := range scripts {
				persona := script.Persona
				if persona == "" {
					persona = "-"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-6d %s\n", script.ID, len(script.Turns), persona)
			}
			return nil
		},
	}
}

func newCasesValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]...",
		Short: "Validate script files against the schema and feature files against the step grammar",
		Long: `Validate test case files without running anything.

Script YAML files are checked against the script schema and the structural
rules (sequential turn indices, non-empty lines and keywords). Feature files
are checked by parsing them fully. With no arguments, the configured scripts
and features directories are validated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := projectconfig.Load(".")
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				paths = collectCaseFiles(cfg)
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No test case files found.")
				return nil
			}

			invalid := 0
			for _, path := range paths {
				problems := validateCaseFile(path)
				if len(problems) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", path)
					continue
				}
				invalid++
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n", path)
				for _, p := range problems {
					fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", p)
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d file(s) failed validation", invalid, len(paths))
			}
			return nil
		},
	}
}

// collectCaseFiles globs the configured scripts and features directories.
func collectCaseFiles(cfg *projectconfig.ProjectConfig) []string {
	var paths []string
	for _, pattern := range []string{
		filepath.Join(cfg.Paths.Scripts, "*.yaml"),
		filepath.Join(cfg.Paths.Features, "*.feature"),
	} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		paths = append(paths, matches...)
	}
	return paths
}

// validateCaseFile returns the problems found in one file, empty when valid.
func validateCaseFile(path string) []string {
	if strings.HasSuffix(path, ".feature") {
		if _, err := feature.ParseFile(path); err != nil {
			return []string{err.Error()}
		}
		return nil
	}

	problems, err := validation.ValidateScriptFile(path)
	if err != nil {
		return []string{err.Error()}
	}
	if len(problems) > 0 {
		return problems
	}

	// Schema-clean files still get the structural check (sequential indices).
	if _, err := models.LoadScript(path); err != nil {
		return []string{err.Error()}
	}
	return nil
}

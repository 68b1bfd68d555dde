package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/scaffold"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize a conversation test project",
		Long: `Initialize a project directory for conversation tests.

Creates .voicefw.yaml with commented defaults, the scripts/, features/,
results/, and transcripts/ directories, and one example script and feature
file. Existing files are never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			created, skipped, err := scaffold.InitProject(dir)
			if err != nil {
				return err
			}

			for _, name := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "  create %s\n", name)
			}
			for _, name := range skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "  skip %s (already exists)\n", name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nProject initialized. Try: voicefw run")
			return nil
		},
	}
}

package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voicefw",
		Short: "voicefw - scripted conversation tests for voice agents",
		Long: `voicefw is a command-line harness for testing conversational voice agents.

It replays scripted multi-turn conversations against an agent, evaluates each
reply positionally against expected keywords, and reports a per-turn scorecard.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newEvalCommand())
	cmd.AddCommand(newCasesCommand())
	cmd.AddCommand(newNewCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newServeCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

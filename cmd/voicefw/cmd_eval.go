package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/evaluate"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/reporting"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/transcript"
)

func newEvalCommand() *cobra.Command {
	var scriptPath string
	var evalInterpret bool

	cmd := &cobra.Command{
		Use:   "eval <transcript.json|transcript.json.gz>...",
		Short: "Re-evaluate saved transcripts offline",
		Long: `Re-evaluate saved run transcripts without executing anything.

Each argument is a transcript file written by voicefw run --transcript-dir,
plain JSON or gzipped. With --script, the transcript is re-scored against
that script instead of the stored report, which is how you check whether an
edited script would have passed a past conversation.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var script *models.Script
			if scriptPath != "" {
				loaded, err := models.LoadScript(scriptPath)
				if err != nil {
					return err
				}
				script = loaded
			}

			var runs []*models.RunResult
			for _, path := range args {
				run, err := loadTranscript(path)
				if err != nil {
					return err
				}
				if script != nil {
					run.Report = evaluate.Evaluate(script, run.Transcript)
				}
				if run.Report == nil {
					return fmt.Errorf("%s has no stored report; pass --script to evaluate it", path)
				}
				runs = append(runs, run)
			}

			printScorecard(cmd.OutOrStdout(), runs)
			for _, run := range runs {
				printTurnDetail(cmd.OutOrStdout(), run)
				if evalInterpret {
					fmt.Fprint(cmd.OutOrStdout(), reporting.FormatSummaryReport(run))
					fmt.Fprintln(cmd.OutOrStdout())
				}
			}

			failed := 0
			for _, run := range runs {
				if !run.Report.Passed() {
					failed++
				}
			}
			if failed > 0 {
				return &TestFailureError{
					Message: fmt.Sprintf("%d of %d transcript(s) failed evaluation", failed, len(runs)),
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scriptPath, "script", "", "Re-evaluate against this script instead of the stored report")
	cmd.Flags().BoolVar(&evalInterpret, "interpret", false, "Print a plain-language interpretation of each transcript")

	return cmd
}

func loadTranscript(path string) (*models.RunResult, error) {
	if strings.HasSuffix(path, ".gz") {
		return transcript.ReadArchive(path)
	}
	return transcript.Load(path)
}

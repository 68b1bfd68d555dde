package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/engine"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/feature"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/naturalize"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/projectconfig"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/reporting"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/sentiment"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/spinner"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/store"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/transcript"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/transport"
)

var (
	outputPath     string
	junitPath      string
	transcriptDir  string
	archiveResults bool
	repliesPath    string
	parallel       bool
	workers        int
	maxAttempts    int
	disfluency     float64
	disfluencySeed int64
	interpret      bool
	format         string
	verbose        bool
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [script.yaml | dir | cases.feature]...",
		Short: "Run scripted conversations in simulation mode",
		Long: `Run scripted conversations against a simulated agent.

Scripts are loaded from the given YAML files, directories, or Gherkin feature
files. With no arguments, the scripts and features directories from
.voicefw.yaml are used.

By default the simulated agent echoes each turn's expected keywords, which
validates script structure end to end. Use --replies to feed canned agent
replies instead and exercise real failure paths.`,
		RunE: runCommandE,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON file for run results")
	cmd.Flags().StringVar(&junitPath, "junit", "", "Write a JUnit XML report to this path")
	cmd.Flags().StringVar(&transcriptDir, "transcript-dir", "", "Directory to save per-run transcript JSON files")
	cmd.Flags().BoolVar(&archiveResults, "archive", false, "Gzip saved transcripts (requires --transcript-dir)")
	cmd.Flags().StringVar(&repliesPath, "replies", "", "YAML file of canned agent replies keyed by script id and turn")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Run scripts concurrently")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent workers (default: 4, requires --parallel)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Per-turn attempt bound when steering retries (default: 3)")
	cmd.Flags().Float64Var(&disfluency, "disfluency", 0, "Probability of injecting filler words into user lines (0..1)")
	cmd.Flags().Int64Var(&disfluencySeed, "seed", 0, "Random seed for disfluency injection (0: time-based)")
	cmd.Flags().BoolVar(&interpret, "interpret", false, "Print a plain-language interpretation of each run")
	cmd.Flags().StringVar(&format, "format", "default", "Output format: default, github-comment")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-turn detail")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return err
	}

	scripts, err := loadScripts(args, cfg)
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		return fmt.Errorf("no scripts found; pass script paths or run voicefw init")
	}

	replies, err := loadReplies(repliesPath)
	if err != nil {
		return err
	}

	stopSpinner := func() {}
	if format == "default" && !verbose {
		stopSpinner = spinner.Start(cmd.ErrOrStderr(),
			fmt.Sprintf("Running %d conversation(s)...", len(scripts)))
	}
	runs, err := executeScripts(cmd.Context(), cfg, scripts, replies)
	stopSpinner()
	if err != nil {
		return err
	}

	switch format {
	case "github-comment":
		fmt.Print(FormatGitHubComment(runs))
	case "default":
		printScorecard(cmd.OutOrStdout(), runs)
		if verbose {
			for _, run := range runs {
				printTurnDetail(cmd.OutOrStdout(), run)
			}
		}
		if interpret {
			for _, run := range runs {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprint(cmd.OutOrStdout(), reporting.FormatSummaryReport(run))
			}
		}
	default:
		return fmt.Errorf("unknown output format: %s (supported: default, github-comment)", format)
	}

	if err := saveResults(runs); err != nil {
		return err
	}

	failed := 0
	for _, run := range runs {
		if run.Report == nil || !run.Report.Passed() {
			failed++
		}
	}
	if failed > 0 {
		return &TestFailureError{
			Message: fmt.Sprintf("%d of %d conversation(s) failed", failed, len(runs)),
		}
	}
	return nil
}

// executeScripts runs every script, optionally in parallel, preserving input
// order in the returned slice.
func executeScripts(ctx context.Context, cfg *projectconfig.ProjectConfig, scripts []*models.Script, replies map[string]map[int]string) ([]*models.RunResult, error) {
	runStore := store.NewMemory()
	runs := make([]*models.RunResult, len(scripts))

	group, ctx := errgroup.WithContext(ctx)
	if parallel || boolValue(cfg.Defaults.Parallel) {
		w := workers
		if w <= 0 {
			w = cfg.Defaults.Workers
		}
		if w <= 0 {
			w = projectconfig.DefaultWorkers
		}
		group.SetLimit(w)
	} else {
		group.SetLimit(1)
	}

	for i, script := range scripts {
		group.Go(func() error {
			eng := engine.NewEngine(runStore, agentFor(script, replies), engineOptions(cfg, script)...)
			run, err := eng.Execute(ctx, script)
			if err != nil {
				return fmt.Errorf("script %s: %w", script.ID, err)
			}
			runs[i] = run
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// agentFor picks the simulated transport for one script: canned replies when
// provided, keyword echo otherwise.
func agentFor(script *models.Script, replies map[string]map[int]string) transport.AgentTransport {
	if r, ok := replies[script.ID]; ok {
		return &transport.Scripted{Replies: r}
	}
	return transport.NewKeywordEcho(script)
}

func engineOptions(cfg *projectconfig.ProjectConfig, script *models.Script) []engine.Option {
	opts := []engine.Option{
		engine.WithScorer(sentiment.RuleBased{}),
	}

	attempts := maxAttempts
	if attempts == 0 {
		attempts = cfg.Defaults.MaxAttempts
	}
	if attempts > 0 {
		opts = append(opts, engine.WithMaxAttempts(attempts))
	}

	rate := disfluency
	if rate == 0 && cfg.Defaults.DisfluencyRate != nil {
		rate = *cfg.Defaults.DisfluencyRate
	}
	if rate > 0 {
		seed := disfluencySeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		opts = append(opts, engine.WithNaturalizer(
			naturalize.NewDisfluency(naturalize.Passthrough{}, rate, seed)))
	}

	return opts
}

// loadScripts resolves the argument list to validated scripts. Each argument
// may be a script YAML file, a .feature file, or a directory holding either.
// With no arguments the configured scripts and features directories are used.
func loadScripts(args []string, cfg *projectconfig.ProjectConfig) ([]*models.Script, error) {
	if len(args) == 0 {
		var scripts []*models.Script
		fromDir, err := loadScriptDir(cfg.Paths.Scripts)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, fromDir...)

		fromFeatures, err := feature.ParseDir(cfg.Paths.Features)
		if err != nil {
			return nil, err
		}
		return append(scripts, fromFeatures...), nil
	}

	var scripts []*models.Script
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", arg, err)
		}
		switch {
		case info.IsDir():
			fromDir, err := loadScriptDir(arg)
			if err != nil {
				return nil, err
			}
			fromFeatures, err := feature.ParseDir(arg)
			if err != nil {
				return nil, err
			}
			scripts = append(scripts, fromDir...)
			scripts = append(scripts, fromFeatures...)
		case strings.HasSuffix(arg, ".feature"):
			parsed, err := feature.ParseFile(arg)
			if err != nil {
				return nil, err
			}
			scripts = append(scripts, parsed...)
		default:
			script, err := models.LoadScript(arg)
			if err != nil {
				return nil, err
			}
			scripts = append(scripts, script)
		}
	}
	return scripts, nil
}

// loadScriptDir loads every *.yaml script under dir. A missing directory is
// not an error, mirroring feature.ParseDir.
func loadScriptDir(dir string) ([]*models.Script, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	var scripts []*models.Script
	for _, path := range matches {
		script, err := models.LoadScript(path)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	return scripts, nil
}

// loadReplies parses the canned-replies file: script id → turn index → reply.
func loadReplies(path string) (map[string]map[int]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replies file: %w", err)
	}
	var replies map[string]map[int]string
	if err := yaml.Unmarshal(data, &replies); err != nil {
		return nil, fmt.Errorf("parsing replies file %s: %w", path, err)
	}
	return replies, nil
}

// saveResults writes the requested output artifacts for finished runs.
func saveResults(runs []*models.RunResult) error {
	if outputPath != "" {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("saving results: %w", err)
		}
		fmt.Printf("Results saved to: %s\n", outputPath)
	}

	if junitPath != "" {
		if err := reporting.WriteJUnitXML(runs, junitPath); err != nil {
			return fmt.Errorf("writing junit report: %w", err)
		}
		fmt.Printf("JUnit report saved to: %s\n", junitPath)
	}

	if transcriptDir != "" {
		for _, run := range runs {
			var err error
			if archiveResults {
				_, err = transcript.Archive(transcriptDir, run)
			} else {
				_, err = transcript.Write(transcriptDir, run)
			}
			if err != nil {
				return fmt.Errorf("saving transcript for %s: %w", run.ScriptID, err)
			}
		}
		fmt.Printf("Transcripts saved to: %s\n", transcriptDir)
	}

	return nil
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

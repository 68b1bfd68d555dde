// Package projectconfig provides the ProjectConfig struct and loader for
// .voicefw.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Default values for project configuration. These are the single source of
// truth — New() references them and no other code should duplicate them.
const (
	DefaultScriptsDir     = "scripts/"
	DefaultFeaturesDir    = "features/"
	DefaultResultsDir     = "results/"
	DefaultTranscriptsDir = "transcripts/"

	DefaultMode        = "simulation"
	DefaultMaxAttempts = 3
	DefaultTurnTimeout = 60
	DefaultWorkers     = 4

	DefaultAssistModel = "gpt-4o"

	DefaultServerPort = 8080
	DefaultServerDB   = "" // empty means in-memory
)

// PathsConfig holds directory paths for scripts, features, and results.
type PathsConfig struct {
	Scripts     string `yaml:"scripts,omitempty"`
	Features    string `yaml:"features,omitempty"`
	Results     string `yaml:"results,omitempty"`
	Transcripts string `yaml:"transcripts,omitempty"`
}

// DefaultsConfig holds default execution parameters.
type DefaultsConfig struct {
	Mode           string   `yaml:"mode,omitempty"`
	MaxAttempts    int      `yaml:"max_attempts,omitempty"`
	TurnTimeoutSec int      `yaml:"turn_timeout,omitempty"`
	Parallel       *bool    `yaml:"parallel,omitempty"`
	Workers        int      `yaml:"workers,omitempty"`
	Verbose        *bool    `yaml:"verbose,omitempty"`
	DisfluencyRate *float64 `yaml:"disfluency_rate,omitempty"`
	Seed           int64    `yaml:"seed,omitempty"`
}

// AssistConfig holds settings for the LLM-backed capabilities.
type AssistConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	DB             string   `yaml:"db,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// TelephonyConfig holds the provider selection and its provider-specific
// parameters. Params stays schemaless in YAML; each provider decodes the
// fields it needs.
type TelephonyConfig struct {
	Provider string         `yaml:"provider,omitempty"`
	Params   map[string]any `yaml:"params,omitempty"`
}

// TwilioParams are the Twilio-specific fields of TelephonyConfig.Params.
type TwilioParams struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
}

// TwilioParams decodes the provider params into Twilio's shape. Missing
// credentials are reported here, not at dial time.
func (t *TelephonyConfig) TwilioParams() (*TwilioParams, error) {
	var params TwilioParams
	if err := mapstructure.Decode(t.Params, &params); err != nil {
		return nil, fmt.Errorf("decoding twilio params: %w", err)
	}
	if params.AccountSID == "" || params.AuthToken == "" {
		return nil, errors.New("twilio params require account_sid and auth_token")
	}
	return &params, nil
}

// ProjectConfig is the top-level configuration loaded from .voicefw.yaml.
type ProjectConfig struct {
	Paths     PathsConfig     `yaml:"paths,omitempty"`
	Defaults  DefaultsConfig  `yaml:"defaults,omitempty"`
	Assist    AssistConfig    `yaml:"assist,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Telephony TelephonyConfig `yaml:"telephony,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Scripts:     DefaultScriptsDir,
			Features:    DefaultFeaturesDir,
			Results:     DefaultResultsDir,
			Transcripts: DefaultTranscriptsDir,
		},
		Defaults: DefaultsConfig{
			Mode:           DefaultMode,
			MaxAttempts:    DefaultMaxAttempts,
			TurnTimeoutSec: DefaultTurnTimeout,
			Parallel:       boolPtr(false),
			Workers:        DefaultWorkers,
			Verbose:        boolPtr(false),
		},
		Assist: AssistConfig{
			Enabled: boolPtr(false),
			Model:   DefaultAssistModel,
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
			DB:   DefaultServerDB,
		},
	}
}

// Load finds .voicefw.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading .voicefw.yaml: %w", err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing .voicefw.yaml: %w", err)
	}

	// Merge file values onto defaults.
	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .voicefw.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found. Propagates real I/O
// errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ".voicefw.yaml")
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Scripts != "" {
		dst.Paths.Scripts = src.Paths.Scripts
	}
	if src.Paths.Features != "" {
		dst.Paths.Features = src.Paths.Features
	}
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}
	if src.Paths.Transcripts != "" {
		dst.Paths.Transcripts = src.Paths.Transcripts
	}

	// Defaults
	if src.Defaults.Mode != "" {
		dst.Defaults.Mode = src.Defaults.Mode
	}
	if src.Defaults.MaxAttempts != 0 {
		dst.Defaults.MaxAttempts = src.Defaults.MaxAttempts
	}
	if src.Defaults.TurnTimeoutSec != 0 {
		dst.Defaults.TurnTimeoutSec = src.Defaults.TurnTimeoutSec
	}
	if src.Defaults.Parallel != nil {
		dst.Defaults.Parallel = src.Defaults.Parallel
	}
	if src.Defaults.Workers != 0 {
		dst.Defaults.Workers = src.Defaults.Workers
	}
	if src.Defaults.Verbose != nil {
		dst.Defaults.Verbose = src.Defaults.Verbose
	}
	if src.Defaults.DisfluencyRate != nil {
		dst.Defaults.DisfluencyRate = src.Defaults.DisfluencyRate
	}
	if src.Defaults.Seed != 0 {
		dst.Defaults.Seed = src.Defaults.Seed
	}

	// Assist
	if src.Assist.Enabled != nil {
		dst.Assist.Enabled = src.Assist.Enabled
	}
	if src.Assist.Model != "" {
		dst.Assist.Model = src.Assist.Model
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.DB != "" {
		dst.Server.DB = src.Server.DB
	}
	if len(src.Server.AllowedOrigins) > 0 {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}

	// Telephony
	if src.Telephony.Provider != "" {
		dst.Telephony.Provider = src.Telephony.Provider
	}
	if len(src.Telephony.Params) > 0 {
		dst.Telephony.Params = src.Telephony.Params
	}
}

func boolPtr(b bool) *bool {
	return &b
}

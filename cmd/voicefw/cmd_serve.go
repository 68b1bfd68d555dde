package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/assist"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/engine"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/naturalize"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/projectconfig"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/sentiment"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/steering"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/store"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/telephony"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/transport"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/webapi"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var port int
	var seedScripts bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the REST API server for managing scripts and runs.

The server stores scripts and run results in memory by default, or in a
SQLite database when server.db is set in .voicefw.yaml. Live telephony runs
are enabled when a telephony provider is configured; provider webhooks are
received on /api/webhook/{provider}.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := projectconfig.Load(".")
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			logger := slog.Default()

			st, cleanup, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if seedScripts {
				if err := store.Seed(cmd.Context(), st); err != nil {
					return fmt.Errorf("seeding sample scripts: %w", err)
				}
			}

			opts := []webapi.HandlerOption{
				webapi.WithLogger(logger),
				webapi.WithEngineOptions(serveEngineOptions(cfg, logger)...),
			}

			provider, err := buildProvider(cfg)
			if err != nil {
				return err
			}
			if provider != nil {
				timeout := time.Duration(cfg.Defaults.TurnTimeoutSec) * time.Second
				callback := transport.NewCallback(transport.WithTimeout(timeout))
				opts = append(opts, webapi.WithTelephony(provider, callback))
				logger.Info("live runs enabled", "provider", provider.Name())
			}

			srv, err := webserver.New(webserver.Config{
				Port:           cfg.Server.Port,
				Handlers:       webapi.NewHandlers(st, opts...),
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Logger:         logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides .voicefw.yaml)")
	cmd.Flags().BoolVar(&seedScripts, "seed", false, "Seed the store with sample scripts")

	return cmd
}

// openStore picks the run store from config: SQLite when server.db is set,
// in-memory otherwise.
func openStore(cfg *projectconfig.ProjectConfig) (store.Store, func(), error) {
	if cfg.Server.DB == "" {
		return store.NewMemory(), func() {}, nil
	}
	db, err := store.NewSQLite(cfg.Server.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store %s: %w", cfg.Server.DB, err)
	}
	return db, func() { _ = db.Close() }, nil
}

// buildProvider constructs the configured telephony provider, or nil when
// live runs are not configured.
func buildProvider(cfg *projectconfig.ProjectConfig) (telephony.Provider, error) {
	switch cfg.Telephony.Provider {
	case "":
		return nil, nil
	case "twilio":
		params, err := cfg.Telephony.TwilioParams()
		if err != nil {
			return nil, err
		}
		return telephony.NewTwilio(params.AccountSID, params.AuthToken, params.FromNumber), nil
	case "loopback":
		return telephony.NewLoopback(), nil
	default:
		return nil, fmt.Errorf("unknown telephony provider: %s", cfg.Telephony.Provider)
	}
}

// serveEngineOptions builds the engine options shared by every server run:
// attempt bounds from config, and the assist-backed capabilities when assist
// is enabled.
func serveEngineOptions(cfg *projectconfig.ProjectConfig, logger *slog.Logger) []engine.Option {
	opts := []engine.Option{
		engine.WithMaxAttempts(cfg.Defaults.MaxAttempts),
	}
	if cfg.Defaults.TurnTimeoutSec > 0 {
		opts = append(opts, engine.WithTurnTimeout(time.Duration(cfg.Defaults.TurnTimeoutSec)*time.Second))
	}

	if boolValue(cfg.Assist.Enabled) {
		client := assist.NewCopilotClient(cfg.Assist.Model, nil)
		opts = append(opts,
			engine.WithNaturalizer(naturalize.NewAssist(client, logger)),
			engine.WithSteering(steering.NewAssist(client, logger)),
			engine.WithScorer(sentiment.NewAssist(client, logger)),
		)
	} else {
		opts = append(opts, engine.WithScorer(sentiment.RuleBased{}))
	}

	return opts
}

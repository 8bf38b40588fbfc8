package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/recipenav/recipenav/internal/collection"
	"github.com/recipenav/recipenav/internal/config"
	"github.com/recipenav/recipenav/internal/remote"
	"github.com/recipenav/recipenav/internal/session"
	"github.com/recipenav/recipenav/internal/syncer"
)

// appEnv bundles the wired sync engine for a single command invocation.
type appEnv struct {
	cfg      config.ClientConfig
	client   *remote.Client
	sessions *session.Manager
	store    *collection.Store
	pipeline *syncer.Pipeline
	logger   *slog.Logger
}

// newEnv loads configuration and wires the client-side engine.
func newEnv(opts *RootOptions) (*appEnv, error) {
	cfg, err := config.LoadClient(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Server != "" {
		cfg.ServerURL = opts.Server
	}

	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	credsPath := cfg.CredentialsFile
	if credsPath == "" {
		credsPath, err = session.DefaultCredentialsPath()
		if err != nil {
			return nil, fmt.Errorf("resolve credentials path: %w", err)
		}
	}

	client := remote.NewClient(cfg.ServerURL, nil)
	sessions := session.NewManager(client, session.NewFileStore(credsPath))
	store := collection.NewStore()
	pipeline := syncer.NewPipeline(store, client, sessions)

	return &appEnv{
		cfg:      cfg,
		client:   client,
		sessions: sessions,
		store:    store,
		pipeline: pipeline,
		logger:   logger,
	}, nil
}

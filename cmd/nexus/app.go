package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/whikwon/nexusnote/application/concepts"
	"github.com/whikwon/nexusnote/application/session"
	domainconfig "github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/infrastructure/config"
	"github.com/whikwon/nexusnote/infrastructure/remote"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// app is the client core assembled for one command invocation
type app struct {
	cfg        *config.ClientConfig
	logger     *zap.Logger
	api        *remote.Client
	concepts   *concepts.Store
	controller *session.Controller
}

type contextKey struct{}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nexusnote", "config.yaml")
}

func newApp(configPath, serverURL string) (*app, error) {
	cfg, err := config.LoadClientConfig(configPath)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	domainCfg := domainconfig.DefaultDomainConfig()
	domainCfg.AllowBareHighlights = cfg.AllowBareHighlights

	api := remote.NewClient(cfg.ServerURL,
		remote.WithTimeout(cfg.Timeout),
		remote.WithToken(cfg.Token),
		remote.WithLogger(logger),
	)
	conceptStore := concepts.NewStore(api, domainCfg, logger)
	blobs, err := session.NewBlobRegistry()
	if err != nil {
		return nil, fmt.Errorf("create blob registry: %w", err)
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		api:        api,
		concepts:   conceptStore,
		controller: session.NewController(api, conceptStore, blobs, domainCfg, logger),
	}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.WarnLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log_level %q: %w", level, err)
		}
	}
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	zapCfg.OutputPaths = []string{"stderr"}
	return zapCfg.Build()
}

func (a *app) close() {
	if err := a.controller.Shutdown(); err != nil {
		a.logger.Warn("failed to release document handles", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// open loads a document into a Ready session
func (a *app) open(ctx context.Context, id string) (session.Info, error) {
	info, err := a.controller.Open(ctx, valueobjects.DocumentID(id))
	if err != nil {
		return session.Info{}, err
	}
	if info.State != session.StateReady {
		if info.Err != nil {
			return info, info.Err
		}
		return info, pkgerrors.NewConflictError(fmt.Sprintf("document %s is %s", id, info.State))
	}
	return info, nil
}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(contextKey{}).(*app)
}

// rootCmd owns the app built for the running command. Close must run after
// Execute on every path, since cobra skips post-run hooks when RunE fails.
type rootCmd struct {
	*cobra.Command
	app *app
}

// Close releases the session handles and flushes the logger
func (r *rootCmd) Close() {
	if r.app != nil {
		r.app.close()
		r.app = nil
	}
}

func newRootCmd() *rootCmd {
	var (
		configPath string
		serverURL  string
	)

	r := &rootCmd{}
	root := &cobra.Command{
		Use:           "nexus",
		Short:         "Read, annotate and link PDF documents from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			a, err := newApp(configPath, serverURL)
			if err != nil {
				return err
			}
			r.app = a
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, a))
			return nil
		},
	}
	r.Command = root

	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "client config file")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL (overrides config)")

	root.AddCommand(
		newDocumentsCmd(),
		newOpenCmd(),
		newAnnotateCmd(),
		newAnnotationsCmd(),
		newConceptsCmd(),
		newTokenCmd(),
		newHealthCmd(),
	)
	return r
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.api.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is healthy\n", a.cfg.ServerURL)
			return nil
		},
	}
}

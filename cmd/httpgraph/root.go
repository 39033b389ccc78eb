package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanpama/httpgraph/internal/blueprint"
	"github.com/hanpama/httpgraph/internal/config"
	"github.com/hanpama/httpgraph/internal/eventbus"
	"github.com/hanpama/httpgraph/internal/events"
	"github.com/hanpama/httpgraph/internal/logging"
	"github.com/hanpama/httpgraph/internal/otel"
	"github.com/hanpama/httpgraph/internal/settings"
	"github.com/hanpama/httpgraph/internal/valid"
)

// Version is set at build time.
var Version = "dev"

// app holds what the persistent pre-run sets up for subcommands.
type app struct {
	settings *settings.Settings
	logger   *zap.Logger
	shutdown []func(context.Context) error
}

func newRootCommand(a *app) *cobra.Command {
	var settingsFile string

	root := &cobra.Command{
		Use:   "httpgraph",
		Short: "Compile HTTP-backed graph configurations and resolve fields against them",
		Long: `httpgraph reads a graph configuration (GraphQL SDL or YAML) whose fields are
resolved by upstream HTTP endpoints, validates it into a blueprint and resolves
fields over HTTP with request batching.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.start(cmd, settingsFile)
		},
	}
	root.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (default: ./httpgraph.yaml if present)")
	settings.AddFlags(root.PersistentFlags())

	root.AddCommand(
		newCheckCommand(a),
		newCompileCommand(a),
		newCallCommand(a),
		newVersionCommand(),
	)
	return root
}

func (a *app) start(cmd *cobra.Command, settingsFile string) error {
	s, err := settings.Load(settingsFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.settings = s

	logger, err := logging.New(s.Log.Level, s.Log.Development)
	if err != nil {
		return err
	}
	a.logger = logger

	eventbus.Use(eventbus.New())
	unsubscribe := logging.Subscribe(logger)
	a.shutdown = append(a.shutdown, func(context.Context) error {
		unsubscribe()
		_ = logger.Sync()
		return nil
	})

	otelShutdown, err := otel.Setup(s.Otel.Endpoint, s.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	a.shutdown = append(a.shutdown, otelShutdown)
	return nil
}

// stop runs shutdown hooks in reverse order.
func (a *app) stop(ctx context.Context) error {
	var errs []error
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.shutdown = nil
	eventbus.Use(nil)
	return errors.Join(errs...)
}

// transcode loads the configuration at path and builds its blueprint. A
// configuration that fails to load is reported as an error; one that fails
// validation is returned as an invalid result.
func transcode(ctx context.Context, path string) (valid.Valid[*blueprint.Blueprint], error) {
	start := time.Now()
	cfg, err := config.Load(path)
	if err != nil {
		return valid.Valid[*blueprint.Blueprint]{}, err
	}
	res := blueprint.Build(cfg)

	e := events.Transcode{Source: path, Types: len(cfg.Types), Causes: len(res.Causes())}
	if res.IsValid() {
		e.Endpoints = len(res.Value().Endpoints)
	}
	e.Duration = time.Since(start)
	eventbus.Publish(ctx, e)
	return res, nil
}

// load is transcode for commands that need a valid blueprint.
func load(ctx context.Context, path string) (*blueprint.Blueprint, error) {
	res, err := transcode(ctx, path)
	if err != nil {
		return nil, err
	}
	return res.Result()
}

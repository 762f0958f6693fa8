// Package app wires the core engine to its transports and runs the server
// lifecycle.
package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/argostroloji/mircbook/internal/config"
	"github.com/argostroloji/mircbook/internal/core"
	"github.com/argostroloji/mircbook/internal/metrics"
	"github.com/argostroloji/mircbook/internal/skills"
	transporthttp "github.com/argostroloji/mircbook/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	hub             *core.Hub
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application: profile store, registry, channel table
// with its seeded default channels, hub, and HTTP server.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	profiles, err := skills.NewStore(cfg.ProfileDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init profile store: %w", err)
	}

	m := metrics.New()
	registry := core.NewRegistry(cfg.ReservedName, cfg.ReservedSecretHash, profiles, logger)
	channels := core.NewTable(cfg.GlobalOperators, logger)

	for _, seed := range cfg.DefaultChannels {
		if _, err := channels.Create(seed.Name, "", seed.Topic); err != nil {
			return nil, fmt.Errorf("seed channel %s: %w", seed.Name, err)
		}
	}

	hub := core.NewHub(registry, channels, core.Options{
		DefaultChannel:    cfg.DefaultChannel(),
		ObserverPrefix:    cfg.ObserverPrefix,
		HeartbeatInterval: cfg.HeartbeatInterval,
	}, m, logger)

	server := transporthttp.NewServer(hub, registry, channels, cfg, m, logger)

	return &App{
		server:          server,
		hub:             hub,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}, nil
}

// Run starts the hub and HTTP server and blocks until context cancellation
// or a fatal listen error. On cancellation the hub notifies every client
// before the HTTP server is torn down.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/editorbridge/api"
	"github.com/wricardo/mcp-training/editorbridge/bridge/codec"
	"github.com/wricardo/mcp-training/editorbridge/bridge/config"
	"github.com/wricardo/mcp-training/editorbridge/bridge/dispatch"
	"github.com/wricardo/mcp-training/editorbridge/bridge/executor"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains"
	"github.com/wricardo/mcp-training/editorbridge/host"
	"github.com/wricardo/mcp-training/editorbridge/telemetry"
	bridgemcp "github.com/wricardo/mcp-training/editorbridge/transport/mcp"
	"github.com/wricardo/mcp-training/editorbridge/transport/websocket"
)

// bridgeApp is one fully wired bridge: host, registry, execution bridge,
// dispatcher and event hub.
type bridgeApp struct {
	settings   config.Settings
	profile    *config.Profile
	logger     *slog.Logger
	host       *host.Host
	registry   *registry.Registry
	bridge     *executor.Bridge
	dispatcher *dispatch.Dispatcher
	hub        *websocket.Hub
	domains    []string

	closers []func(context.Context) error
}

// newLogger builds the process logger from settings.
func newLogger(s config.Settings) (*slog.Logger, io.Closer, error) {
	return telemetry.NewLogger(telemetry.LogOptions{
		Level:  s.LogLevel,
		Format: s.LogFormat,
		File:   s.LogFile,
	})
}

// loadProfile resolves the active profile from the config directory.
func loadProfile(s config.Settings) (*config.Profile, error) {
	manager, err := config.NewManager(s.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if s.Profile == "" || s.Profile == config.DefaultProfile {
		return manager.Default(), nil
	}
	profile, err := manager.Load(s.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %q: %w", s.Profile, err)
	}
	return profile, nil
}

// newBridgeApp wires every component. Nothing is started; see start.
func newBridgeApp(ctx context.Context, s config.Settings, logger *slog.Logger) (*bridgeApp, error) {
	profile, err := loadProfile(s)
	if err != nil {
		return nil, err
	}
	timeout, err := s.EffectiveTimeout(profile)
	if err != nil {
		return nil, err
	}

	a := &bridgeApp{settings: s, profile: profile, logger: logger}

	shutdownTracing, err := telemetry.SetupTracing(ctx, "editor-bridge", s.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	var store host.LevelStore = host.NewMemoryLevelStore()
	if s.SnapshotDir != "" {
		fs, err := host.NewFileLevelStore(s.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open level store: %w", err)
		}
		store = fs
	}

	a.host, err = host.New(profile.HostSeed(), host.WithLevelStore(store))
	if err != nil {
		return nil, fmt.Errorf("failed to create host: %w", err)
	}

	a.bridge = executor.New(executor.Options{
		Timeout: timeout,
		Logger:  logger,
		OnDiscard: func(t *executor.Ticket, r codec.Result) {
			logger.Debug("late result discarded", "ticket", t.ID, "command", t.Descriptor.Name, "ok", r.OK())
		},
	})

	a.registry = registry.New()
	a.domains, err = domains.Register(a.registry, domains.Options{
		Host:     a.host,
		Stats:    a.bridge,
		Version:  Version,
		Disabled: s.Disabled(profile),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register domains: %w", err)
	}
	a.registry.Seal()

	a.hub = websocket.NewHub(logger)
	a.dispatcher = dispatch.New(a.registry, a.bridge, dispatch.Options{
		Observer: a.hub,
		Logger:   logger,
	})

	logger.Info("bridge ready",
		"profile", profile.Name,
		"domains", a.domains,
		"commands", a.registry.Len(),
		"host_timeout", a.bridge.Timeout(),
	)
	return a, nil
}

// start runs the host thread and the event hub until ctx ends.
func (a *bridgeApp) start(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		if err := a.bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("host thread: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.hub.Run(ctx)
		return nil
	})
}

// apiServer builds the HTTP handler with the /mcp endpoint mounted.
func (a *bridgeApp) apiServer() *api.Server {
	return api.NewServer(api.Options{
		Name:       AppName,
		Version:    Version,
		Addr:       a.settings.Addr,
		Dispatcher: a.dispatcher,
		Catalog:    a.registry,
		Stats:      a.bridge,
		Host:       a.host,
		Hub:        a.hub,
		MCP:        bridgemcp.NewServer(a.dispatcher, a.registry.List(), Version),
		Logger:     a.logger,
	})
}

// close fails pending work and flushes telemetry.
func (a *bridgeApp) close(ctx context.Context) {
	a.bridge.Close()
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			a.logger.Warn("shutdown error", "error", err)
		}
	}
}

// serve runs the HTTP listener until ctx ends, then shuts down gracefully.
func (a *bridgeApp) serve(ctx context.Context) error {
	// WriteTimeout leaves room for a host-thread command to time out on its own.
	httpServer := &http.Server{
		Addr:         a.settings.Addr,
		Handler:      a.apiServer(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: a.bridge.Timeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	a.start(gctx, g)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "addr", a.settings.Addr)
		a.logger.Info("endpoints",
			"api", fmt.Sprintf("http://%s/api", a.settings.Addr),
			"ws", fmt.Sprintf("ws://%s/ws?topic=<domain|*>", a.settings.Addr),
			"mcp", fmt.Sprintf("http://%s/mcp", a.settings.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.close(closeCtx)
	a.logger.Info("server stopped")
	return err
}

// Command editorbridge starts the editor command bridge.
//
// It supports two commands:
//  1. "serve" (default) runs the HTTP listener with the REST API, the event
//     WebSocket and an /mcp endpoint
//  2. "stdio-mcp" runs an MCP stdio server, proxying to a bridge that is
//     already listening or running one in-process when none is
//
// The command catalog a profile produces is printed by cmd/catalog.
//
// Settings come from MCP_BRIDGE_* environment variables (a .env file is
// loaded first) and are overridden by flags.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/editorbridge/bridge/config"
	bridgemcp "github.com/wricardo/mcp-training/editorbridge/transport/mcp"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Editor Bridge"
)

// main loads .env, then runs the selected command until SIGINT or SIGTERM.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the command line.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:           "editorbridge",
		Usage:          AppName + " - remote command bridge for an in-memory game editor",
		Version:        Version,
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (MCP_BRIDGE_ADDR)"},
			&cli.StringFlag{Name: "config-dir", Usage: "profile directory (MCP_BRIDGE_CONFIG_DIR)"},
			&cli.StringFlag{Name: "profile", Usage: "profile name (MCP_BRIDGE_PROFILE)"},
			&cli.DurationFlag{Name: "host-timeout", Usage: "host-thread command timeout (MCP_BRIDGE_HOST_TIMEOUT)"},
			&cli.StringSliceFlag{Name: "disable", Usage: "domain to disable, repeatable (MCP_BRIDGE_DISABLED_DOMAINS)"},
			&cli.StringFlag{Name: "snapshot-dir", Usage: "level snapshot directory (MCP_BRIDGE_SNAPSHOT_DIR)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (MCP_BRIDGE_LOG_LEVEL)"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json (MCP_BRIDGE_LOG_FORMAT)"},
			&cli.StringFlag{Name: "log-file", Usage: "rotate logs into this file instead of stderr (MCP_BRIDGE_LOG_FILE)"},
			&cli.StringFlag{Name: "otel-endpoint", Usage: "OTLP/HTTP trace endpoint (MCP_BRIDGE_OTEL_ENDPOINT)"},
		},
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "run the HTTP listener with API, WebSocket and MCP endpoint",
				Action:  runServe,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run an MCP stdio server",
				Action:  runStdioMCP,
			},
		},
	}
}

// settingsFromCommand reads the environment and applies flags that were set.
func settingsFromCommand(cmd *cli.Command) (config.Settings, error) {
	s, err := config.LoadSettings()
	if err != nil {
		return config.Settings{}, err
	}

	stringFlags := map[string]*string{
		"addr":          &s.Addr,
		"config-dir":    &s.ConfigDir,
		"profile":       &s.Profile,
		"snapshot-dir":  &s.SnapshotDir,
		"log-level":     &s.LogLevel,
		"log-format":    &s.LogFormat,
		"log-file":      &s.LogFile,
		"otel-endpoint": &s.OTelEndpoint,
	}
	for name, field := range stringFlags {
		if cmd.IsSet(name) {
			*field = cmd.String(name)
		}
	}
	if cmd.IsSet("host-timeout") {
		s.HostTimeout = cmd.Duration("host-timeout")
	}
	if cmd.IsSet("disable") {
		s.DisabledDomains = append(s.DisabledDomains, cmd.StringSlice("disable")...)
	}
	return s, nil
}

// setup resolves settings and builds the logger. The returned cleanup
// closes the log file.
func setup(cmd *cli.Command) (config.Settings, *slog.Logger, func(), error) {
	s, err := settingsFromCommand(cmd)
	if err != nil {
		return config.Settings{}, nil, nil, err
	}
	logger, closer, err := newLogger(s)
	if err != nil {
		return config.Settings{}, nil, nil, err
	}
	slog.SetDefault(logger)
	return s, logger, func() { closer.Close() }, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	s, logger, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("starting", "app", AppName, "version", Version, "mode", "serve")
	a, err := newBridgeApp(ctx, s, logger)
	if err != nil {
		return err
	}
	return a.serve(ctx)
}

// runStdioMCP serves MCP on stdin/stdout. A bridge already listening on
// the configured address is reused over HTTP; otherwise the bridge runs
// in-process. stdout belongs to the protocol, so logs go to stderr or the
// log file.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	s, logger, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("starting", "app", AppName, "version", Version, "mode", "stdio-mcp")

	mcpServer, stopBridge, err := stdioBackend(ctx, s, logger)
	if err != nil {
		return err
	}
	defer stopBridge()

	logger.Info("MCP stdio server ready", "tools", len(mcpServer.Tools()))
	if err := server.ServeStdio(mcpServer.MCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// stdioBackend picks the Caller behind the stdio tools.
func stdioBackend(ctx context.Context, s config.Settings, logger *slog.Logger) (*bridgemcp.Server, func(), error) {
	baseURL := "http://" + s.Addr
	external := bridgemcp.NewHTTPCaller(baseURL)

	logger.Info("checking for external bridge", "url", baseURL)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	err := external.Ping(pingCtx)
	cancel()
	if err == nil {
		catalog, err := external.Catalog(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read catalog from %s: %w", baseURL, err)
		}
		logger.Info("external bridge found, proxying tool calls", "url", baseURL, "commands", len(catalog))
		return bridgemcp.NewServer(external, catalog, Version), func() {}, nil
	}

	logger.Info("no external bridge found, running in-process", "reason", err)
	a, err := newBridgeApp(ctx, s, logger)
	if err != nil {
		return nil, nil, err
	}

	runCtx, stopRun := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	a.start(gctx, g)

	stop := func() {
		stopRun()
		if err := g.Wait(); err != nil {
			logger.Error("bridge stopped with error", "error", err)
		}
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.close(closeCtx)
	}
	return bridgemcp.NewServer(a.dispatcher, a.registry.List(), Version), stop, nil
}

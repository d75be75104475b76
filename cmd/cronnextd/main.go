package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"cronnext/internal/api"
	"cronnext/internal/config"
	"cronnext/internal/logging"
	cronnextmcp "cronnext/internal/mcp"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// stdout carries protocol frames in MCP stdio mode.
	var logger *slog.Logger
	if cfg.Mode == "mcp" {
		logger = logging.NewWriter(os.Stderr, cfg.Log)
	} else {
		var closer io.Closer
		logger, closer = logging.New(cfg.Log)
		defer closer.Close()
	}

	location := cfg.Location()
	mcpServer := cronnextmcp.NewMCPServer(logger, location, cfg.Preview)

	switch cfg.Mode {
	case "mcp":
		runMCPMode(mcpServer, logger)
	case "both":
		runHTTPMode(cfg, mcpServer.Handler(), logger, location)
	default:
		runHTTPMode(cfg, nil, logger, location)
	}
}

// runHTTPMode serves the REST API, optionally with the MCP endpoint mounted
// at /mcp, until SIGINT/SIGTERM.
func runHTTPMode(cfg *config.Config, mcpHandler http.Handler, logger *slog.Logger, location *time.Location) {
	server, err := api.NewServer(api.Options{
		Addr:      cfg.Server.Addr,
		AuthToken: cfg.Server.AuthToken,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
		Preview:   cfg.Preview,
		Location:  location,
		MCP:       mcpHandler,
	}, logger)
	if err != nil {
		logger.Error("create server", "err", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info("received signal", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "err", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "err", err)
	}
	logger.Info("shutdown complete")
}

// runMCPMode serves MCP over stdio until stdin closes or a signal arrives.
func runMCPMode(mcpServer *cronnextmcp.MCPServer, logger *slog.Logger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		logger.Info("received signal, shutting down", "signal", sig.String())
		os.Exit(0)
	}()

	if err := mcpServer.Run(); err != nil {
		logger.Error("mcp server error", "err", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/acrobyte007/Sustainability/internal/adapters/mcp"
	"github.com/acrobyte007/Sustainability/internal/bootstrap"
	"github.com/acrobyte007/Sustainability/internal/config"
	"github.com/acrobyte007/Sustainability/internal/observability/logging"
)

// Stdout carries the MCP protocol, so logs go to stderr.
func main() {
	cfg := config.Load()
	logger := logging.New(os.Stderr, "mcp", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{ExtractionOnly: true})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(mcpadapter.NewHandlers(app.ExtractUC, logger))
	if err := mcpadapter.ServeStdio(srv); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}

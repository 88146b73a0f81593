// cmd/nutrition-meter/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nutrition-meter/internal/config"
	"nutrition-meter/internal/logger"
	"nutrition-meter/internal/server"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to YAML config file")
	transport  = flag.String("transport", "", "Transport mode: http")
	port       = flag.Int("port", 0, "Port for HTTP transport")
	host       = flag.String("host", "", "Host address")
	address    = flag.String("address", "", "Address (alias for host)")
	journalDSN = flag.String("journal-dsn", "", "SQLite DSN for the action journal (in-memory by default)")
	logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("nutrition-meter version 1.0.0")
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg)

	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	srv, err := server.NewTrackerServer(cfg, log)
	if err != nil {
		log.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		log.Info("received shutdown signal")
	case err := <-errCh:
		log.Error("server error", "error", err)
	}

	log.Info("shutting down")
	cancel()
	if err := srv.Stop(); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}

// applyFlags overrides cfg with flags given on the command line.
func applyFlags(cfg *config.Config) {
	if *transport != "" {
		cfg.Transport = *transport
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *address != "" {
		cfg.Host = *address
	}
	if *journalDSN != "" {
		cfg.JournalDSN = *journalDSN
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
}

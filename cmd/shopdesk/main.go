// Command shopdesk serves the back office API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("shopdesk %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	cfg, err := LoadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	logger := SetupLogger(cfg)
	logger.Info("starting shopdesk",
		"version", Version,
		"config", *configPath,
		"database", cfg.Database.DSN,
	)

	ctx := context.Background()

	server, err := NewServer(ctx, cfg, logger)
	if err != nil {
		return exitCode(logger, "failed to create server", err)
	}

	if err := server.Start(ctx); err != nil {
		return exitCode(logger, "server error", err)
	}

	return ExitSuccess
}

func exitCode(logger interface{ Error(string, ...any) }, msg string, err error) int {
	var sErr *ServerError
	if errors.As(err, &sErr) {
		logger.Error(msg, "error", sErr.Err, "operation", sErr.Op)
		return sErr.ExitCode
	}
	logger.Error(msg, "error", err)
	return ExitConfigError
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/fiisheet/internal/config"
	"github.com/nao1215/fiisheet/internal/log"
	"github.com/spf13/cobra"
)

// buildConfig creates a Config from the global flags, the configuration
// file and the environment. Targets are the job names given as arguments.
func buildConfig(cmd *cobra.Command, targets []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = boolFlag(cmd, "verbose")
	cfg.ConfigFilePath = stringFlag(cmd, "config")
	if format := stringFlag(cmd, "log-format"); format != "" {
		cfg.LogFormat = format
	}
	cfg.Targets = targets

	// If the user explicitly named a config file, error if not found.
	// Otherwise fall back to the built-in job.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, configError(fmt.Errorf("failed to load config file %s: %w", configPath, err))
		}
		cfg.File = file
	case cfg.ConfigFilePath != "":
		return nil, configError(fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath))
	default:
		cfg.File = config.DefaultFile()
	}

	cfg.File.ApplyEnv(os.Getenv, targets)
	return cfg, nil
}

// validate runs the configuration checks and marks failures as
// configuration errors.
func validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return configError(err)
	}
	return nil
}

// setupLogger creates the secure structured logger writing to stderr.
func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := log.NewLogger(os.Stderr, cfg.LogFormat, cfg.Verbose)
	if err != nil {
		return nil, configError(err)
	}
	return logger, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// boolFlag reads a flag from the command, falling back to false when the
// command was built without it.
func boolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}
	return v
}

// stringFlag reads a string flag, falling back to "" when it is missing.
func stringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return v
}

// isCancelled reports whether err comes from an interrupted run.
func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

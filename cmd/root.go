package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhcgn/emlbox/config"
	"github.com/dhcgn/emlbox/convert"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "dev"

// NewRootCmd assembles the emlbox command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "emlbox",
		Short:         "A simple and quick bidirectional converter between mbox and eml formats",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterPersistentFlags(rootCmd)

	rootCmd.AddCommand(newEmlToMboxCmd(), newMboxToEmlCmd(), newMboxStatsCmd())
	return rootCmd
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// filePathArg validates the positional argument at index as a file path.
func filePathArg(index int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if index < len(args) {
			return convert.ValidateFilePath(args[index])
		}
		return nil
	}
}

// setup loads the configuration and installs the logger for one command run.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.LoadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	logger, cleanup, err := setupLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, cleanup, nil
}

func setupLogger(cfg config.Config, out io.Writer) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("emlbox-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(out, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(out, opts)
	return slog.New(handler), cleanup, nil
}

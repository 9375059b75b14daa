package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/lightheap/heap/alloc"
	"github.com/joshuapare/lightheap/heap/diag"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	logDir  string
	preset  string
)

// logger is replaced by PersistentPreRunE when --log-dir is given.
var (
	logger    = slog.New(slog.NewTextHandler(io.Discard, nil))
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Drive and inspect lightheap arenas",
	Long: `heapctl exercises the lightheap fixed-arena allocator. It replays
allocation scripts, runs randomized stress workloads with invariant checks,
and inspects arena images written to disk.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, closer, err := diag.OpenLog(diag.LogOptions{
			Enabled: logDir != "",
			LogDir:  logDir,
			Prefix:  "heapctl-",
			Level:   logLevel(),
		})
		if err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
		logger, logCloser = log, closer
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Write JSON logs to this directory")
	rootCmd.PersistentFlags().
		StringVar(&preset, "config", "default", "Allocator preset (minimal, default, debug)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// configByName resolves a preset name to a config that logs to logger.
func configByName(name string) (alloc.Config, error) {
	var cfg alloc.Config
	switch strings.ToLower(name) {
	case "minimal":
		cfg = alloc.MinimalConfig
	case "default", "":
		cfg = alloc.DefaultConfig
	case "debug":
		cfg = alloc.DebugConfig
	default:
		return cfg, fmt.Errorf("unknown config preset: %s (must be minimal, default, or debug)", name)
	}
	cfg.Logger = logger
	return cfg, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/lfallstrom/mdu/internal/config"
	"github.com/lfallstrom/mdu/internal/du"
)

// Injected at build time via -ldflags; defaults to "dev".
var version = "dev"

// errPermission marks the exit-nonzero path for permission failures. The
// diagnostics were already written during the traversal, so main exits
// without printing anything further.
var errPermission = errors.New("permission denied during traversal")

func main() {
	err := newRootCmd().Execute()
	switch {
	case err == nil:
	case errors.Is(err, errPermission):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "mdu: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		jobs       int
		logLevel   string
		progress   bool
	)

	cmd := &cobra.Command{
		Use:   "mdu [flags] path [path...]",
		Short: "Sum disk usage in 512-byte blocks using a pool of workers",
		Long: `mdu computes the total disk usage, in 512-byte blocks, of each path
given, traversing directory trees with -j worker threads. Output is one
line per path: the block total, a tab, and the path as supplied.`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// ── Logging (initial — reconfigured below from config) ─────
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})))

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Flags beat the config file.
			if cmd.Flags().Changed("jobs") {
				cfg.Jobs = jobs
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("progress") {
				cfg.Progress = progress
			}
			if cfg.Jobs < 1 {
				return fmt.Errorf("invalid thread count: %d", cfg.Jobs)
			}

			level := parseLogLevel(cfg.LogLevel)
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))

			if _, err := maxprocs.Set(maxprocs.Logger(func(format string, a ...any) {
				slog.Debug(fmt.Sprintf(format, a...))
			})); err != nil {
				slog.Warn("set GOMAXPROCS", "error", err)
			}

			slog.Debug("mdu starting",
				"version", version,
				"jobs", cfg.Jobs,
				"roots", args)

			prog := &du.Progress{}
			if cfg.Progress || (level <= slog.LevelDebug && isatty.IsTerminal(os.Stderr.Fd())) {
				stop := make(chan struct{})
				done := make(chan struct{})
				go func() {
					defer close(done)
					prog.Report(cfg.Interval(), stop)
				}()
				defer func() {
					close(stop)
					<-done
				}()
			}

			runner := &du.Runner{
				Workers:  cfg.Jobs,
				Stdout:   cmd.OutOrStdout(),
				Stderr:   cmd.ErrOrStderr(),
				Progress: prog,
			}
			ok, err := runner.Run(args)
			if err != nil {
				return err
			}
			if !ok {
				return errPermission
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 1, "number of worker threads")
	cmd.Flags().StringVar(&configPath, "config", "mdu.yaml", "path to config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&progress, "progress", false, "log traversal progress to stderr")
	return cmd
}

// parseLogLevel converts a config string ("debug", "info", "warn", "error")
// to its slog.Level equivalent. Unknown values default to Info.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

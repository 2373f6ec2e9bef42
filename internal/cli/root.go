// Package cli provides the estatekit command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/estatekit/internal/config"
	"github.com/JonMunkholm/estatekit/internal/core"
	"github.com/JonMunkholm/estatekit/internal/logging"
)

// Version is set at build time.
var Version = "dev"

// errSilent marks failures whose output has already been written.
var errSilent = errors.New("silent failure")

// app is the state shared by every command. Configuration is loaded once
// flags are parsed so --data-dir and the log flags override the environment.
type app struct {
	cfg     *config.Config
	opts    []core.Option
	service *core.Service
}

// NewRootCmd creates the root command. Options are passed to the service,
// which lets tests inject a limiter or observer.
func NewRootCmd(opts ...core.Option) *cobra.Command {
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "estatekit",
		Short: "Validate, clean and summarize housing datasets",
		Long: `estatekit loads a comma-separated housing dataset, normalizes its column
names, marks NA cells as missing and converts numeric text to numbers.

It reports missing required columns and summary statistics per column:
count, none ratio, mode, min, max, mean, median and a percentile.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.String("data-dir", "", "directory dataset file names are resolved against (env DATA_DIR)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.String("log-format", "", "log format: text or json (env LOG_FORMAT)")

	root.AddCommand(
		a.newValidateCommand(),
		a.newCleanCommand(),
		a.newDescribeCommand(),
		newVersionCommand(),
	)
	return root
}

// setup loads configuration with flag overrides, configures logging on
// stderr so reports on stdout stay clean, and builds the service.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging.SetupWriter(cmd.ErrOrStderr(), a.cfg.Logging.Level, a.cfg.Logging.Format)
	a.service = core.NewService(a.cfg, a.opts...)
	return nil
}

// Execute runs the root command and prints a user-facing error on failure.
// Configuration errors wrap config.ErrInvalid.
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	reportError(root.ErrOrStderr(), err)
	return err
}

func reportError(w io.Writer, err error) {
	switch {
	case err == nil, errors.Is(err, errSilent):
	case core.IsUserFacing(err):
		fmt.Fprintf(w, "Error: %s\n", core.FormatUserError(err))
		logging.FromContext(context.Background()).Debug("command failed", "error", err)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}

// openOutput returns stdout for "" or "-", otherwise creates path. The
// returned close function reports the file's close error.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "estatekit %s\n", Version)
		},
	}
}

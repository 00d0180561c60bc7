package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/gdlgraph"
	"github.com/jward/gdlgraph/internal/config"
	"github.com/jward/gdlgraph/internal/logging"
)

var (
	flagConfig   string
	flagRoots    []string
	flagFormat   string
	flagLogLevel string
)

// Set by the root command before any subcommand runs.
var (
	cfg    *config.Config
	logger = zap.NewNop()
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flagConfig, flagRoots, flagFormat, flagLogLevel = "", nil, "json", ""
	errorHandled = false

	root := &cobra.Command{
		Use:           "gdlgraph",
		Short:         "Macro call graph for GDL library parts",
		Long:          "gdlgraph parses GDL library parts, indexes a workspace of them and answers call hierarchy queries between their scripts.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(flagFormat); err != nil {
				return err
			}
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		// No Run — prints help by default.
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "TOML config file (default: gdlgraph.toml in the working directory, if present)")
	root.PersistentFlags().StringSliceVar(&flagRoots, "root", nil, "workspace root to index (repeatable; default: config roots or the working directory)")
	root.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error")

	root.AddCommand(newParseCmd())
	root.AddCommand(newPartsCmd())
	root.AddCommand(newCallsCmd())
	root.AddCommand(newWatchCmd())
	return root
}

// setup loads the configuration, applies flag overrides and builds the logger.
func setup() error {
	path := flagConfig
	if path == "" {
		path = "gdlgraph.toml"
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		c.Log.Level = flagLogLevel
	}
	if len(flagRoots) > 0 {
		c.Roots = flagRoots
	}
	if err := c.Validate(); err != nil {
		return err
	}
	l, err := logging.New(c.Log)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

// workspaceRoots returns the absolute configured roots, or the working
// directory when none are configured.
func workspaceRoots() ([]string, error) {
	roots := cfg.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("resolving root %q: %w", r, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

// openEngine creates an engine from the configuration. When refresh is set
// the workspace is indexed before returning.
func openEngine(ctx context.Context, refresh bool) (*gdlgraph.Engine, error) {
	roots, err := workspaceRoots()
	if err != nil {
		return nil, err
	}
	e, err := gdlgraph.New(roots,
		gdlgraph.WithLogger(logger),
		gdlgraph.WithConcurrency(cfg.Concurrency),
		gdlgraph.WithMarker(cfg.Index.Marker),
		gdlgraph.WithGitignore(cfg.Index.RespectGitignore),
		gdlgraph.WithExclude(cfg.Index.Exclude...),
	)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	if refresh {
		start := time.Now()
		if err := e.Refresh(ctx); err != nil {
			e.Close()
			return nil, fmt.Errorf("indexing: %w", err)
		}
		logger.Debug("indexed workspace", zap.Int("parts", len(e.Parts())), zap.Duration("took", time.Since(start)))
	}
	return e, nil
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return filepath.Clean(file), nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

// outputResult writes a CLIResult to w in the selected format.
func outputResult(w io.Writer, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to w as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(w io.Writer, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

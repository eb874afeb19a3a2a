// Command stapy builds static sites from JSON page data and templates.
//
// Usage:
//
//	stapy [-config stapy.yaml] [-log-level info] build [-watch] [env ...]
//	stapy [-config stapy.yaml] render [-env local] <path>
//	stapy [-config stapy.yaml] query [-disabled] "<query>"
//	stapy plugins
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/randalmurphal/stapy/pkg/stapy/config"
	sterrors "github.com/randalmurphal/stapy/pkg/stapy/errors"
)

// Exit codes.
const (
	exitFailure    = 1
	exitUsage      = 2
	exitSyntax     = 3
	exitCapability = 4
	exitIO         = 5
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: exitUsage, Err: fmt.Errorf(format, args...)}
}

// exitCode maps an error to the process exit code by category.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch sterrors.Categorize(err) {
	case sterrors.CategorySyntax:
		return exitSyntax
	case sterrors.CategoryCapability:
		return exitCapability
	case sterrors.CategoryIO, sterrors.CategoryLookup:
		return exitIO
	}
	return exitFailure
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "stapy:", err)
			os.Exit(exitCode(err))
		}
	}
}

const usage = `stapy - static site generator

Usage:
  stapy [options] build [-watch] [env ...]   write every enabled page for each environment
  stapy [options] render [-env name] <path>  print one rendered page
  stapy [options] query [-disabled] <query>  print the records a query selects
  stapy [options] plugins                    list enabled plugins

Options:
`

// run parses args and executes one command.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	flags := flag.NewFlagSet("stapy", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	configPath := flags.String("config", "stapy.yaml", "Path to the configuration file.")
	logLevel := flags.String("log-level", "", "Override the configured log level: debug, info, warn, error.")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return &ExitError{Code: exitUsage, Err: err}
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return usageError("missing command")
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("config %s: %w", *configPath, err)}
	}
	if *logLevel != "" {
		settings.LogLevel = strings.ToLower(*logLevel)
	}
	level, err := settings.Level()
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	a, err := newApp(settings, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	cmd, rest := flags.Arg(0), flags.Args()[1:]
	switch cmd {
	case "build":
		return a.build(ctx, stdout, stderr, rest)
	case "render":
		return a.render(ctx, stdout, stderr, rest)
	case "query":
		return a.query(ctx, stdout, stderr, rest)
	case "plugins":
		for _, name := range a.registry.Plugins() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	default:
		flags.Usage()
		return usageError("unknown command %q", cmd)
	}
}

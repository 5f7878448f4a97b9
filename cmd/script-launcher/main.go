package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/schema"
	"github.com/ormasoftchile/script-launcher/pkg/launcher"
	"github.com/ormasoftchile/script-launcher/pkg/logging"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const programName = "script-launcher"

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// root flags
var (
	configPath     string
	execute        bool
	nonInteractive bool
	verbose        bool
	quiet          bool
	useConsole     bool
	tracePath      string
)

var rootCmd = &cobra.Command{
	Use:   programName,
	Short: "Run shell scripts named in a JSON file",
	Long: `Shell script orchestration in an optional terminal user interface.

Steps are read from a JSON (or YAML) document with a project name, a
description and an ordered list of {"label", "cmd"} steps. Each step can be
run on demand from the TUI or the console, or all of them can be run at once
with --execute. --noninteractive runs everything without a user interface.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return launcher.Run(ctx, rootOptions())
}

func rootOptions() launcher.Options {
	return launcher.Options{
		ConfigPath:     configPath,
		Execute:        execute,
		NonInteractive: nonInteractive,
		Console:        useConsole,
		Verbosity:      verbosity(verbose, quiet),
		TracePath:      tracePath,
		Args:           os.Args,
	}
}

func verbosity(verbose, quiet bool) logging.Verbosity {
	switch {
	case quiet:
		return logging.Quiet
	case verbose:
		return logging.Verbose
	default:
		return logging.Normal
	}
}

// printError reports a command failure. Configuration problems get a hint
// pointing at --help.
func printError(w io.Writer, err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "🚩 Interrupted")
		return
	}
	var ce *schema.ConfigError
	if errors.As(err, &ce) {
		fmt.Fprintf(w, "🚩 %v\nTry %s --help for help\n", err, programName)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configPath, "json", "j", schema.DefaultConfigFile, "name a JSON file containing scripts to run")
	f.BoolVarP(&execute, "execute", "e", false, "execute all scripts immediately")
	f.BoolVarP(&nonInteractive, "noninteractive", "n", false, "run without a user interface; implies -e")
	f.BoolVarP(&verbose, "verbose", "v", false, "more explanatory output than the default; conflicts with -q")
	f.BoolVarP(&quiet, "quiet", "q", false, "less explanatory output than the default; conflicts with -v")
	f.BoolVar(&useConsole, "console", false, "use a line-oriented console instead of the TUI")
	f.StringVar(&tracePath, "trace", "", "write a hash-chained JSONL trace of the session to this file")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/schema"
	"github.com/ormasoftchile/script-launcher/pkg/launcher"
	"github.com/ormasoftchile/script-launcher/pkg/logging"
	"github.com/ormasoftchile/script-launcher/pkg/report"
)

// fileArg returns the optional positional config file, falling back to
// the root --json default.
func fileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return schema.DefaultConfigFile
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a configuration file without running anything",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := launcher.Open(launcher.Options{ConfigPath: fileArg(args)})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (%d steps)\n", s.Options.ConfigPath, s.Registry.Count())
	return nil
}

// --- list ---

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "Show the steps configured for execution",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := launcher.Open(launcher.Options{ConfigPath: fileArg(args)})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	steps := s.Registry.Steps()

	switch listFormat {
	case "json":
		return report.WriteStepsJSON(out, steps)
	case "table":
		report.ConfigureColor(report.IsTerminal(out))
		fmt.Fprintln(out, report.StepsTable(steps, nil))
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table or json)", listFormat)
	}
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for configuration files",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := schema.GenerateJSONSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	var out json.RawMessage = data
	formatted, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("format schema: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(formatted))
	return nil
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp [file]",
	Short: "Serve the configured steps as MCP tools over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing the
list_steps, run_step, run_all and status tools. Diagnostics go to stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	if _, err := logging.Configure(os.Stderr, verbosity(verbose, quiet).Level()); err != nil {
		return err
	}
	s, err := launcher.Open(launcher.Options{
		ConfigPath: fileArg(args),
		TracePath:  tracePath,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.ServeMCP(ctx, version, os.Stdin, os.Stdout)
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (build: %s)\n", programName, version, commit)
	},
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "table", "Output format: table or json")

	mcpCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log debug diagnostics to stderr")
	mcpCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "log warnings only")
	mcpCmd.Flags().StringVar(&tracePath, "trace", "", "write a hash-chained JSONL trace of the session to this file")
	mcpCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

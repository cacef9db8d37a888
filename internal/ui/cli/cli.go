package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pyimports/internal/shared/observability"
	"pyimports/internal/shared/version"
)

type cliOptions struct {
	configPath    string
	stringImports bool
	minDots       int
	format        string
	output        string
	verbose       bool
}

// Run executes the pyimports command line and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func NewRootCommand() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "pyimports",
		Short: "Extract the modules a Python source file imports",
		Long: `pyimports reports every module a Python file imports, mapped to the first
line it appears on. Besides import statements it recognizes __import__("x")
calls and, optionally, string literals that look like dotted module names.

A trailing "# pants: ignore" comment suppresses the imports on its line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(observability.NewLogger(cmd.ErrOrStderr(), opts.verbose))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to config file (default ./pyimports.toml when present)")
	flags.BoolVar(&opts.stringImports, "string-imports", false, "treat dotted string literals as imports")
	flags.IntVar(&opts.minDots, "min-dots", 2, "minimum dots a string literal needs to count as an import")
	flags.StringVarP(&opts.format, "format", "f", "json", "output format (json, yaml, tsv)")
	flags.StringVarP(&opts.output, "output", "o", "", "write output to a file instead of stdout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		parseCmd(opts),
		scanCmd(opts),
		watchCmd(opts),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pyimports %s\n", version.String())
		},
	}
}

// Main is the entry point used by cmd/pyimports.
func Main() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

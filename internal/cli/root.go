// Package cli implements the cobra-based CLI commands for botstrap.
//
// Each subcommand (setup, doctor, manifest, resolve, env) is defined in
// its own file within this package. This file defines the root command
// that serves as the parent for all subcommands and handles global flags.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantforge/botstrap/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When true, all output uses structured JSON format for machine consumption.
	// When false (default), output uses human-readable text format.
	jsonOutput bool

	// verbose enables debug-level logging on stderr.
	verbose bool
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action. It only provides
// help text and global flags; actual functionality is provided by
// subcommands (setup, doctor, manifest, resolve, env).
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "botstrap",
		Short: "Bootstrap the trading bot's Python environment",
		Long: `botstrap provisions everything the trading bot needs before its first run:
it validates pyproject.toml, checks that the uv package manager is installed,
creates the virtual environment, installs the declared dependencies, seeds
the .env secrets file from its template, and prepares the logs directory.

Run "botstrap setup" for the full bootstrap, or "botstrap doctor" to check
an existing installation without changing anything.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	// PersistentFlags are inherited by all subcommands. This is the cobra
	// mechanism for global flags: any flag defined here is automatically
	// available in every subcommand without re-declaration.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	// Register subcommands. Each subcommand is defined in its own file
	// (setup.go, doctor.go, etc.) and returns a *cobra.Command.
	rootCmd.AddCommand(NewSetupCommand())
	rootCmd.AddCommand(NewDoctorCommand())
	rootCmd.AddCommand(NewManifestCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewEnvCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into appropriate OS exit codes. CLIError types carry their own
// exit codes; other errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		// CLIError carries its own exit code (tool missing, manifest
		// invalid, install failed, ...). errors.As also unwraps errors
		// that wrap a CLIError deeper in the chain.
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		// Generic error: exit with code 1.
		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode, because stdout is
		// reserved for successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		// Text format: "Error: <message>" on stderr.
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// Package cli — env.go implements the "botstrap env" command group:
// "env init" seeds the .env secrets file from its template, and
// "env check" verifies the bot's required API credentials are filled in.
package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quantforge/botstrap/internal/config"
	"github.com/quantforge/botstrap/internal/envfile"
	"github.com/quantforge/botstrap/internal/installer"
	"github.com/quantforge/botstrap/internal/model"
)

// envFlags holds the flag values shared by the env subcommands.
type envFlags struct {
	manifestPath string // --manifest: anchors the project root
	show         bool   // --show: print redacted values (check only)
}

// NewEnvCommand creates the "env" command group with its init and check
// subcommands.
func NewEnvCommand() *cobra.Command {
	flags := &envFlags{}

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage the .env secrets file",
	}

	cmd.PersistentFlags().StringVar(&flags.manifestPath, "manifest", "", "Path to pyproject.toml (default: search upward from cwd)")

	cmd.AddCommand(newEnvInitCommand(flags))
	cmd.AddCommand(newEnvCheckCommand(flags))

	return cmd
}

// newEnvInitCommand creates the "env init" subcommand.
func newEnvInitCommand(flags *envFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Seed .env from .env.example",
		Long: `Create the .env secrets file by copying .env.example. An existing .env
is never overwritten. The new file is created with owner-only permissions
since it will hold the bot's API credentials.

Examples:
  botstrap env init`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvInit(flags)
		},
	}
}

// newEnvCheckCommand creates the "env check" subcommand.
func newEnvCheckCommand(flags *envFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify required API credentials are set",
		Long: `Check that every required key (by default BINANCE_API_KEY and
BINANCE_API_SECRET) is present in .env with a real value: non-empty and
not a leftover placeholder from the template.

Exit code is 6 when any key is missing or unusable.

Examples:
  botstrap env check
  botstrap env check --show`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvCheck(flags)
		},
	}

	cmd.Flags().BoolVar(&flags.show, "show", false, "Print redacted values alongside each key")

	return cmd
}

// envPaths resolves the project root and the configured secrets paths.
func envPaths(manifestFlag string) (envPath, samplePath string, requiredKeys []string, err error) {
	manifestPath, err := locateManifest(manifestFlag)
	if err != nil {
		return "", "", nil, err
	}
	root := installer.ProjectRootOf(manifestPath)

	cfg, err := config.Load(root)
	if err != nil {
		return "", "", nil, model.WrapCLIError(model.ExitGeneralError, "failed to load botstrap.json", err)
	}

	return filepath.Join(root, cfg.EnvFile), filepath.Join(root, cfg.EnvSample), cfg.RequiredEnvKeys, nil
}

// runEnvInit seeds the secrets file from the template.
func runEnvInit(flags *envFlags) error {
	envPath, samplePath, _, err := envPaths(flags.manifestPath)
	if err != nil {
		return err
	}

	seeded, err := envfile.Seed(samplePath, envPath)
	if err != nil {
		return model.WrapCLIError(model.ExitEnvFileError, "failed to seed secrets file", err)
	}

	if IsJSONOutput() {
		out := struct {
			Path   string `json:"path"`
			Seeded bool   `json:"seeded"`
		}{Path: envPath, Seeded: seeded}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if seeded {
		fmt.Printf("Created %s from template. Fill in your API credentials before running the bot.\n", envPath)
	} else {
		fmt.Printf("%s already exists, leaving it untouched.\n", envPath)
	}
	return nil
}

// runEnvCheck verifies every required key and reports per-key status.
func runEnvCheck(flags *envFlags) error {
	envPath, _, requiredKeys, err := envPaths(flags.manifestPath)
	if err != nil {
		return err
	}

	statuses, err := envfile.Check(envPath, requiredKeys)
	if err != nil {
		return model.WrapCLIError(model.ExitEnvFileError, "secrets file check failed", err)
	}

	printEnvCheckResults(envPath, statuses, flags.show)

	if !envfile.AllOK(statuses) {
		bad := 0
		for _, s := range statuses {
			if !s.OK() {
				bad++
			}
		}
		return model.NewCLIError(model.ExitEnvFileError,
			fmt.Sprintf("%d required key(s) missing or unusable in %s", bad, envPath))
	}
	return nil
}

// printEnvCheckResults outputs per-key statuses in text or JSON format.
// Values are always redacted; the raw secrets never reach the output.
func printEnvCheckResults(envPath string, statuses []envfile.KeyStatus, show bool) {
	if IsJSONOutput() {
		out := struct {
			Path string              `json:"path"`
			Keys []envfile.KeyStatus `json:"keys"`
			OK   bool                `json:"ok"`
		}{Path: envPath, Keys: statuses, OK: envfile.AllOK(statuses)}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, s := range statuses {
		line := fmt.Sprintf("%-6s %s", statusBadge(keyCheckStatus(s)), s.Key)
		switch {
		case !s.Present:
			line += "  (missing)"
		case s.Empty:
			line += "  (empty)"
		case s.Placeholder:
			line += "  (placeholder value)"
		case show:
			line += "  " + envfile.Redact(s.Value)
		}
		fmt.Println(line)
	}
}

// keyCheckStatus maps a key status onto the doctor check scale.
func keyCheckStatus(s envfile.KeyStatus) model.CheckStatus {
	if s.OK() {
		return model.CheckOK
	}
	return model.CheckFail
}

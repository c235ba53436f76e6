// Package cli — doctor.go implements the "botstrap doctor" command.
//
// The doctor command inspects an existing installation without changing
// anything: it verifies the package manager, the manifest, the virtual
// environment, the secrets file, and the logs directory, then reports
// each check's status. It is the read-only counterpart of setup.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quantforge/botstrap/internal/config"
	"github.com/quantforge/botstrap/internal/envfile"
	"github.com/quantforge/botstrap/internal/installer"
	"github.com/quantforge/botstrap/internal/logging"
	"github.com/quantforge/botstrap/internal/manifest"
	"github.com/quantforge/botstrap/internal/model"
)

// doctorFlags holds the flag values for the doctor command.
type doctorFlags struct {
	manifestPath string // --manifest: explicit pyproject.toml path
}

// NewDoctorCommand creates the "doctor" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewDoctorCommand() *cobra.Command {
	flags := &doctorFlags{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the installation without changing anything",
		Long: `Run read-only health checks against the current installation:

  - uv package manager present and responsive
  - pyproject.toml found and valid
  - virtual environment provisioned
  - .env secrets file present with usable API credentials
  - logs directory present

Exit code is 0 when nothing failed (warnings allowed) and 1 otherwise.

Examples:
  botstrap doctor
  botstrap doctor --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Path to pyproject.toml (default: search upward from cwd)")

	return cmd
}

// runDoctor executes every health check and reports the results. Checks
// never abort the run: a missing tool still lets the manifest and secrets
// checks produce useful output.
func runDoctor(ctx context.Context, flags *doctorFlags) error {
	log := logging.New(verbose)
	defer func() { _ = log.Sync() }()

	var results []model.CheckResult
	runner := installer.NewRunner()

	// Without a manifest there is no project root, so config and the
	// path-dependent checks fall back to the working directory.
	manifestPath, manifestErr := locateManifest(flags.manifestPath)
	projectRoot, _ := os.Getwd()
	if manifestErr == nil {
		projectRoot = installer.ProjectRootOf(manifestPath)
	}

	cfg, err := config.Load(projectRoot)
	if err != nil {
		results = append(results, model.CheckResult{
			Name:    "config",
			Status:  model.CheckFail,
			Detail:  err.Error(),
		})
		cfg = config.Default()
	}

	// Check 1: package manager.
	results = append(results, checkTool(ctx, runner, cfg.Tool))

	// Check 2: manifest.
	results = append(results, checkManifest(manifestPath, manifestErr))

	// Check 3: virtual environment.
	results = append(results, checkVenv(cfg.VenvPath(projectRoot)))

	// Check 4: secrets file and required keys.
	results = append(results, checkEnvFile(filepath.Join(projectRoot, cfg.EnvFile), cfg.RequiredEnvKeys))

	// Check 5: logs directory.
	results = append(results, checkLogsDir(cfg.LogsPath(projectRoot)))

	printDoctorResults(results)

	if model.WorstStatus(results) == model.CheckFail {
		failed := 0
		for _, r := range results {
			if r.Status == model.CheckFail {
				failed++
			}
		}
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("%d check(s) failed", failed))
	}
	return nil
}

// checkTool verifies the package manager is on PATH and responsive.
func checkTool(ctx context.Context, runner installer.Runner, tool string) model.CheckResult {
	info, err := installer.DetectTool(ctx, runner, tool)
	if err != nil {
		return model.CheckResult{
			Name:    "tool",
			Status:  model.CheckFail,
			Detail:  fmt.Sprintf("%s not usable: install it with: pip install %s", tool, tool),
		}
	}
	return model.CheckResult{
		Name:    "tool",
		Status:  model.CheckOK,
		Detail:  fmt.Sprintf("%s (%s)", info.Version, info.Path),
	}
}

// checkManifest verifies pyproject.toml exists and compiles cleanly.
func checkManifest(path string, findErr error) model.CheckResult {
	if findErr != nil {
		return model.CheckResult{
			Name:    "manifest",
			Status:  model.CheckFail,
			Detail:  findErr.Error(),
		}
	}

	m, verrs, err := manifest.LoadAndCompile(path)
	if err != nil {
		return model.CheckResult{
			Name:    "manifest",
			Status:  model.CheckFail,
			Detail:  err.Error(),
		}
	}
	if len(verrs) > 0 {
		return model.CheckResult{
			Name:    "manifest",
			Status:  model.CheckFail,
			Detail:  fmt.Sprintf("%s has %d validation error(s); run \"botstrap manifest validate\"", path, len(verrs)),
		}
	}

	return model.CheckResult{
		Name:    "manifest",
		Status:  model.CheckOK,
		Detail:  fmt.Sprintf("%s (%d core dependencies)", path, len(m.Core)),
	}
}

// checkVenv reports whether the virtual environment is provisioned.
// A missing venv is a warning, not a failure: setup creates it.
func checkVenv(venvPath string) model.CheckResult {
	if installer.VenvExists(venvPath) {
		return model.CheckResult{
			Name:    "venv",
			Status:  model.CheckOK,
			Detail:  venvPath,
		}
	}
	return model.CheckResult{
		Name:    "venv",
		Status:  model.CheckWarn,
		Detail:  fmt.Sprintf("%s not provisioned; run \"botstrap setup\"", venvPath),
	}
}

// checkEnvFile reports the state of the secrets file and its required
// keys. Placeholder or empty credentials fail the check: the bot cannot
// authenticate with template values.
func checkEnvFile(envPath string, requiredKeys []string) model.CheckResult {
	statuses, err := envfile.Check(envPath, requiredKeys)
	if err != nil {
		return model.CheckResult{
			Name:    "env",
			Status:  model.CheckWarn,
			Detail:  fmt.Sprintf("%v; run \"botstrap env init\"", err),
		}
	}

	var bad []string
	for _, s := range statuses {
		if !s.OK() {
			bad = append(bad, s.Key)
		}
	}
	if len(bad) > 0 {
		return model.CheckResult{
			Name:    "env",
			Status:  model.CheckFail,
			Detail:  fmt.Sprintf("%s: missing or placeholder values for %s", envPath, strings.Join(bad, ", ")),
		}
	}

	return model.CheckResult{
		Name:    "env",
		Status:  model.CheckOK,
		Detail:  fmt.Sprintf("%s (%d keys set)", envPath, len(statuses)),
	}
}

// checkLogsDir reports whether the bot's log directory exists.
func checkLogsDir(path string) model.CheckResult {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return model.CheckResult{
			Name:    "logs",
			Status:  model.CheckOK,
			Detail:  path,
		}
	}
	return model.CheckResult{
		Name:    "logs",
		Status:  model.CheckWarn,
		Detail:  fmt.Sprintf("%s missing; run \"botstrap setup\"", path),
	}
}

// printDoctorResults outputs the check results in text or JSON format.
func printDoctorResults(results []model.CheckResult) {
	if IsJSONOutput() {
		out := struct {
			Checks []model.CheckResult `json:"checks"`
			Status string              `json:"status"`
		}{
			Checks: results,
			Status: model.WorstStatus(results).String(),
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, r := range results {
		fmt.Printf("%-6s %-10s %s\n", statusBadge(r.Status), r.Name, r.Detail)
	}
}

// statusBadge maps a check status to its fixed-width text marker.
func statusBadge(s model.CheckStatus) string {
	switch s {
	case model.CheckOK:
		return "[ok]"
	case model.CheckWarn:
		return "[warn]"
	default:
		return "[fail]"
	}
}

// Package cli — setup.go implements the "botstrap setup" command.
//
// The setup command is the primary user-facing operation. It performs the
// full environment bootstrap that the bot needs before its first run.
//
// Orchestration steps:
//  1. Locate and compile pyproject.toml
//  2. Load botstrap.json overrides (if present)
//  3. Detect the uv package manager on PATH
//  4. Create the virtual environment (unless it already exists)
//  5. Install core dependencies plus selected groups, in manifest order
//  6. Ensure the logs directory
//  7. Seed .env from .env.example (never overwrites an existing .env)
//  8. Output the setup report (text or JSON)
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantforge/botstrap/internal/config"
	"github.com/quantforge/botstrap/internal/envfile"
	"github.com/quantforge/botstrap/internal/installer"
	"github.com/quantforge/botstrap/internal/logging"
	"github.com/quantforge/botstrap/internal/manifest"
	"github.com/quantforge/botstrap/internal/model"
)

// setupFlags holds the flag values for the setup command.
// These are bound to cobra flags in NewSetupCommand.
type setupFlags struct {
	manifestPath string   // --manifest: explicit pyproject.toml path
	venvDir      string   // --venv: virtual environment directory override
	groups       []string // --group: dependency groups to install (repeatable)
	noInstall    bool     // --no-install: provision only, skip dependency installs
	skipEnv      bool     // --skip-env: don't seed the secrets file
}

// NewSetupCommand creates the "setup" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewSetupCommand() *cobra.Command {
	flags := &setupFlags{}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Bootstrap the bot's Python environment end to end",
		Long: `Validate the dependency manifest, create the virtual environment, and
install every declared dependency with uv.

The command also prepares the runtime surroundings the bot expects: the
logs directory, and a .env secrets file seeded from .env.example when no
.env exists yet. An existing .env is never touched.

Examples:
  botstrap setup
  botstrap setup --group dev
  botstrap setup --no-install
  botstrap setup --manifest ./bot/pyproject.toml --venv ./bot/.venv`,

		// No positional arguments: the manifest is located automatically
		// or given via --manifest.
		Args: cobra.NoArgs,

		// RunE is used instead of Run so we can return errors. Cobra will
		// pass them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context(), flags)
		},
	}

	// Register command-specific flags.
	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Path to pyproject.toml (default: search upward from cwd)")
	cmd.Flags().StringVar(&flags.venvDir, "venv", "", "Virtual environment directory (default: from botstrap.json or .venv)")
	cmd.Flags().StringArrayVar(&flags.groups, "group", nil, "Dependency group to install in addition to core (repeatable)")
	cmd.Flags().BoolVar(&flags.noInstall, "no-install", false, "Create the environment only, don't install dependencies")
	cmd.Flags().BoolVar(&flags.skipEnv, "skip-env", false, "Don't seed the .env secrets file")

	return cmd
}

// runSetup is the main orchestration function for the setup command.
func runSetup(ctx context.Context, flags *setupFlags) error {
	log := logging.New(verbose)
	defer func() { _ = log.Sync() }()

	report := &model.SetupReport{CreatedAt: time.Now().UTC()}

	// Step 1: Locate and compile the manifest.
	manifestPath, err := locateManifest(flags.manifestPath)
	if err != nil {
		return err
	}
	log.Debug("using manifest", zap.String("path", manifestPath))

	m, verrs, err := manifest.LoadAndCompile(manifestPath)
	if err != nil {
		return err // Load already returns CLIError with the right code
	}
	if len(verrs) > 0 {
		printValidationErrors(manifestPath, verrs)
		return model.NewCLIError(model.ExitManifestInvalid,
			fmt.Sprintf("%s has %d validation error(s)", manifestPath, len(verrs)))
	}
	report.ProjectName = m.Name
	report.PythonRequirement = m.RequiresPython.String()

	// Step 2: Load configuration overrides from botstrap.json.
	projectRoot := installer.ProjectRootOf(manifestPath)
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to load botstrap.json", err)
	}

	// Step 3: Detect the package manager. A missing tool is the original
	// installer's documented failure: exit code 1 with an install hint.
	runner := installer.NewRunner()
	tool, err := installer.DetectTool(ctx, runner, cfg.Tool)
	if err != nil {
		return err
	}
	report.ToolVersion = tool.Version
	log.Debug("detected package manager",
		zap.String("path", tool.Path),
		zap.String("version", tool.Version),
	)

	// Step 4: Create the virtual environment. The Python version floor
	// comes from requires-python so uv picks a compatible interpreter.
	venvPath := flags.venvDir
	if venvPath == "" {
		venvPath = cfg.VenvPath(projectRoot)
	}
	venvPath, err = filepath.Abs(venvPath)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to resolve venv path", err)
	}

	created, err := installer.EnsureVenv(ctx, runner, log, cfg.Tool, venvPath, m.RequiresPython.MinimumVersion())
	if err != nil {
		return err
	}
	report.VenvPath = venvPath
	report.VenvCreated = created

	// Step 5: Install dependencies, unless --no-install.
	groups := flags.groups
	if groups == nil {
		groups = cfg.DefaultGroups
	}

	reqs, err := m.Requirements(groups...)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid dependency group selection", err)
	}

	if !flags.noInstall {
		inst := installer.New(cfg.Tool, venvPath, log)
		steps := inst.InstallAll(ctx, reqs)
		annotateGroups(steps, m, groups)
		report.Steps = steps

		if report.Failed() {
			printSetupReport(report, venvPath)
			succeeded, failed, skipped := report.Counts()
			return model.NewCLIError(model.ExitInstallFailed,
				fmt.Sprintf("dependency installation failed (%d succeeded, %d failed, %d skipped)",
					succeeded, failed, skipped))
		}
	} else {
		log.Debug("skipping dependency installation (--no-install)")
	}

	// Step 6: Ensure the logs directory the bot writes to.
	logsPath := cfg.LogsPath(projectRoot)
	if _, err := installer.EnsureLogsDir(logsPath); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to create logs directory", err)
	}
	report.LogsDir = logsPath

	// Step 7: Seed the secrets file from its template.
	if !flags.skipEnv {
		envPath := filepath.Join(projectRoot, cfg.EnvFile)
		samplePath := filepath.Join(projectRoot, cfg.EnvSample)

		seeded, err := envfile.Seed(samplePath, envPath)
		if err != nil {
			return model.WrapCLIError(model.ExitEnvFileError, "failed to seed secrets file", err)
		}
		report.EnvFile = envPath
		report.EnvFileSeeded = seeded
	}

	// Step 8: Output results.
	printSetupReport(report, venvPath)
	return nil
}

// locateManifest resolves the manifest path: the explicit --manifest flag
// when given, otherwise an upward search from the working directory.
func locateManifest(flagPath string) (string, error) {
	if flagPath != "" {
		abs, err := filepath.Abs(flagPath)
		if err != nil {
			return "", model.WrapCLIError(model.ExitGeneralError, "failed to resolve manifest path", err)
		}
		if info, err := os.Stat(abs); err != nil || info.IsDir() {
			return "", model.NewCLIError(model.ExitManifestNotFound,
				fmt.Sprintf("%s not found", abs))
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}
	return manifest.Find(cwd)
}

// annotateGroups stamps each install step with the dependency group it
// came from. Requirements lists core dependencies first, then each
// selected group's, in order, so group membership follows from position.
func annotateGroups(steps []model.InstallStep, m *manifest.Manifest, groups []string) {
	i := len(m.Core)
	for _, g := range groups {
		for range m.Groups[g] {
			if i >= len(steps) {
				return
			}
			steps[i].Group = g
			i++
		}
	}
}

// printValidationErrors lists manifest validation problems on stderr,
// one per line, before the command exits with the manifest-invalid code.
func printValidationErrors(path string, verrs []manifest.ValidationError) {
	fmt.Fprintf(os.Stderr, "%s is invalid:\n", path)
	for _, verr := range verrs {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", verr.Field, verr.Message)
	}
}

// printSetupReport outputs the setup results in text or JSON format.
func printSetupReport(report *model.SetupReport, venvPath string) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}
	printSetupReportText(report, venvPath)
}

// printSetupReportText outputs the setup report as human-readable text,
// ending with the activation command and credential reminder.
func printSetupReportText(report *model.SetupReport, venvPath string) {
	fmt.Printf("Project: %s\n", report.ProjectName)
	fmt.Printf("Tool:    %s\n", report.ToolVersion)

	if report.VenvCreated {
		fmt.Printf("Venv:    %s (created)\n", report.VenvPath)
	} else {
		fmt.Printf("Venv:    %s (existing)\n", report.VenvPath)
	}

	if len(report.Steps) > 0 {
		fmt.Println()
		fmt.Println("Dependencies:")
		for _, step := range report.Steps {
			label := step.Requirement
			if step.Group != "" {
				label = fmt.Sprintf("%s [%s]", step.Requirement, step.Group)
			}
			fmt.Printf("  %-9s %s\n", step.Status.String(), label)
			if step.Status == model.StepFailed && step.Output != "" {
				fmt.Printf("            %s\n", firstLine(step.Output))
			}
		}

		succeeded, failed, skipped := report.Counts()
		fmt.Println()
		fmt.Printf("Installed %d, failed %d, skipped %d\n", succeeded, failed, skipped)
	}

	if report.Failed() {
		return
	}

	if report.EnvFileSeeded {
		fmt.Println()
		fmt.Printf("Created %s from template. Fill in your API credentials before running the bot.\n", report.EnvFile)
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  %s\n", installer.ActivationCommand(venvPath))
}

// firstLine returns the first line of a multi-line string, for compact
// inline display of tool output.
func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

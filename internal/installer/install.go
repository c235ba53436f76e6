package installer

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/quantforge/botstrap/internal/manifest"
	"github.com/quantforge/botstrap/internal/model"
)

// Installer runs dependency install steps against a provisioned virtual
// environment.
type Installer struct {
	// Tool is the package manager binary name.
	Tool string

	// VenvPath is the environment the installs target.
	VenvPath string

	// Runner executes external commands.
	Runner Runner

	// Log receives per-step diagnostics.
	Log *zap.Logger
}

// New creates an Installer with the production command runner.
func New(tool, venvPath string, log *zap.Logger) *Installer {
	return &Installer{
		Tool:     tool,
		VenvPath: venvPath,
		Runner:   NewRunner(),
		Log:      log,
	}
}

// InstallAll installs each requirement in order, one
// "<tool> pip install --python <venv-python> <spec>" per step.
//
// The sequence is strictly sequential and aborts at the first failure:
// remaining steps are marked skipped rather than attempted, because a
// broken environment makes later results meaningless. The returned slice
// always has one terminal-status entry per requirement, in input order.
func (inst *Installer) InstallAll(ctx context.Context, reqs []manifest.Requirement) []model.InstallStep {
	steps := make([]model.InstallStep, len(reqs))
	python := VenvPython(inst.VenvPath)

	aborted := false
	for i := range reqs {
		steps[i] = model.InstallStep{
			Requirement: reqs[i].Raw,
			Status:      model.StepPending,
		}

		if aborted {
			steps[i].Status = model.StepSkipped
			continue
		}

		spec := reqs[i].InstallSpec()
		inst.Log.Debug("installing dependency",
			zap.String("requirement", reqs[i].Raw),
			zap.String("spec", spec),
		)

		start := time.Now()
		output, err := inst.Runner.Run(ctx, "", inst.Tool, "pip", "install", "--python", python, spec)
		steps[i].Duration = time.Since(start)

		if err != nil {
			steps[i].Status = model.StepFailed
			steps[i].Output = output
			steps[i].Error = err.Error()
			aborted = true

			inst.Log.Debug("install step failed",
				zap.String("requirement", reqs[i].Raw),
				zap.Error(err),
			)
			continue
		}

		steps[i].Status = model.StepSucceeded
		inst.Log.Debug("install step succeeded",
			zap.String("requirement", reqs[i].Raw),
			zap.Duration("took", steps[i].Duration),
		)
	}

	return steps
}

// EnsureLogsDir creates the bot's log directory when missing. Returns
// true when this call created it. Mirrors the original setup script,
// which provisioned a logs/ directory alongside the environment.
func EnsureLogsDir(path string) (bool, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return false, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, err
	}
	return true, nil
}

// ProjectRootOf returns the directory containing the manifest file — the
// reference point every relative path (venv, logs, env files) resolves
// against.
func ProjectRootOf(manifestPath string) string {
	return filepath.Dir(manifestPath)
}

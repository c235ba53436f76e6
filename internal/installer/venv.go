package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/quantforge/botstrap/internal/model"
)

// venvMarker is the file every Python virtual environment carries at its
// root. Its presence is how we distinguish a reusable environment from a
// directory that merely shares the name.
const venvMarker = "pyvenv.cfg"

// VenvExists reports whether path holds a virtual environment.
func VenvExists(path string) bool {
	info, err := os.Stat(filepath.Join(path, venvMarker))
	return err == nil && !info.IsDir()
}

// EnsureVenv creates the virtual environment at path unless one already
// exists there. pythonVersion, when non-empty, pins the interpreter
// (derived from the manifest's requires-python floor). Returns true when
// this call created the environment.
//
// Creation runs "<tool> venv <path> [--python <version>]". Failures map
// to exit code 4.
func EnsureVenv(ctx context.Context, runner Runner, log *zap.Logger, tool, path, pythonVersion string) (bool, error) {
	if VenvExists(path) {
		log.Debug("reusing existing virtual environment", zap.String("path", path))
		return false, nil
	}

	args := []string{"venv", path}
	if pythonVersion != "" {
		args = append(args, "--python", pythonVersion)
	}

	log.Debug("creating virtual environment",
		zap.String("path", path),
		zap.String("python", pythonVersion),
	)

	output, err := runner.Run(ctx, "", tool, args...)
	if err != nil {
		return false, model.WrapCLIError(
			model.ExitVenvFailed,
			fmt.Sprintf("failed to create virtual environment at %s: %s", path, output),
			err,
		)
	}

	return true, nil
}

// VenvPython returns the interpreter path inside the environment.
// Layout differs by platform: bin/python on Unix, Scripts\python.exe on
// Windows.
func VenvPython(venvPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvPath, "Scripts", "python.exe")
	}
	return filepath.Join(venvPath, "bin", "python")
}

// ActivationCommand returns the shell command a user runs to activate the
// environment, for the "next steps" output at the end of setup.
func ActivationCommand(venvPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvPath, "Scripts", "activate.bat")
	}
	return "source " + filepath.Join(venvPath, "bin", "activate")
}

package installer

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantforge/botstrap/internal/model"
)

// ToolInfo describes the detected package manager binary.
type ToolInfo struct {
	// Name is the binary name the tool was looked up by (normally "uv").
	Name string `json:"name"`

	// Path is the absolute path resolved on PATH.
	Path string `json:"path"`

	// Version is the tool's reported version string (e.g., "uv 0.4.18").
	Version string `json:"version"`
}

// DetectTool verifies the package manager is installed and responsive.
//
// It checks PATH first, then runs "<tool> --version" as a liveness probe —
// a binary that exists but cannot report its version is as unusable as a
// missing one.
//
// A missing tool returns a CLIError with exit code 1 and an install hint,
// preserving the original installer's only documented error contract.
func DetectTool(ctx context.Context, runner Runner, tool string) (*ToolInfo, error) {
	path, err := runner.LookPath(tool)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitToolNotFound,
			fmt.Sprintf("%s package manager not found on PATH. Install it with: pip install %s", tool, tool),
			err,
		)
	}

	output, err := runner.Run(ctx, "", tool, "--version")
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitToolNotFound,
			fmt.Sprintf("%s is installed at %s but failed to run", tool, path),
			err,
		)
	}

	// uv prints a single line like "uv 0.4.18 (homebrew 2024-09-12)".
	// Keep the first line; multi-line version banners exist in other tools.
	version := output
	if idx := strings.IndexByte(output, '\n'); idx >= 0 {
		version = output[:idx]
	}

	return &ToolInfo{
		Name:    tool,
		Path:    path,
		Version: strings.TrimSpace(version),
	}, nil
}

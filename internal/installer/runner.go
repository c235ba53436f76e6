package installer

import (
	"context"
	"os"
	"os/exec"
	"strings"
)

// Runner abstracts external command execution. The production
// implementation shells out via os/exec; tests substitute a fake so the
// package can be exercised without a uv binary installed.
type Runner interface {
	// Run executes name with args in dir (empty dir means the current
	// directory) and returns the combined stdout/stderr output.
	Run(ctx context.Context, dir, name string, args ...string) (string, error)

	// LookPath reports the absolute path of name on PATH.
	LookPath(name string) (string, error)
}

// execRunner is the production Runner backed by os/exec.
type execRunner struct{}

// NewRunner returns the production Runner.
func NewRunner() Runner {
	return execRunner{}
}

// Run executes the command and captures combined output. The child
// inherits the current process environment; uv reads its cache and index
// settings from there.
func (execRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	// CombinedOutput interleaves stdout and stderr the way a terminal
	// would, which is what we show the user when a step fails.
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

// LookPath defers to exec.LookPath.
func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

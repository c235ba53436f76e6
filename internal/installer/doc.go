// Package installer provisions the project environment by invoking the
// uv package manager as an external tool.
//
// This package wraps the uv CLI (via os/exec) to detect the tool, create
// the virtual environment, and install each manifest requirement. It is
// the Go counterpart of the original installer script's linear sequence —
// check tool presence, create environment, install each dependency — with
// one deliberate upgrade: every step's outcome is detected and reported
// instead of silently depending on the external tool's own exit behavior.
//
// Design decisions:
//   - We shell out to uv rather than reimplementing package installation,
//     exactly as the original did; uv owns resolution, wheels, and caches.
//   - Installs run strictly sequentially in manifest order. The original
//     process was sequential, and uv serializes environment mutation
//     anyway; concurrency here would only scramble output.
//   - All commands go through the Runner seam so tests can substitute a
//     fake without a uv binary on PATH.
//   - Tool-absence errors carry exit code 1, the original installer's
//     documented contract.
package installer

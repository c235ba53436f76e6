package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// StepStatus represents the lifecycle state of a single bootstrap step.
// The state transitions are:
//
//	Pending → Running → Succeeded
//	Pending → Running → Failed
//	Pending → Skipped (an earlier step failed, or the step was disabled)
type StepStatus string

const (
	// StepPending indicates the step has not started yet.
	StepPending StepStatus = "pending"

	// StepRunning indicates the step is currently executing.
	StepRunning StepStatus = "running"

	// StepSucceeded indicates the step completed without error.
	StepSucceeded StepStatus = "succeeded"

	// StepFailed indicates the step executed and returned an error.
	// The captured output of the external tool explains the failure.
	StepFailed StepStatus = "failed"

	// StepSkipped indicates the step never executed, either because an
	// earlier step failed (the bootstrap sequence is strictly sequential)
	// or because a flag such as --no-install disabled it.
	StepSkipped StepStatus = "skipped"
)

// String returns the string representation of StepStatus.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (s StepStatus) String() string {
	return string(s)
}

// IsValid checks whether the StepStatus value is one of the
// predefined valid states.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepPending, StepRunning, StepSucceeded, StepFailed, StepSkipped:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status is a final state — one that a
// finished bootstrap run is allowed to report for a step.
func (s StepStatus) IsTerminal() bool {
	return s == StepSucceeded || s == StepFailed || s == StepSkipped
}

// ParseStepStatus converts a string to a StepStatus.
// Returns an error if the string does not match any valid status.
func ParseStepStatus(s string) (StepStatus, error) {
	status := StepStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid step status: %q (valid: pending, running, succeeded, failed, skipped)", s)
	}
	return status, nil
}

// InstallStep records the outcome of installing a single requirement.
// Steps are produced in manifest order and executed strictly sequentially,
// matching the original installer's linear command sequence.
type InstallStep struct {
	// Requirement is the requirement string as it appears in the manifest
	// (e.g., "binance-connector>=3.0.0").
	Requirement string `json:"requirement"`

	// Group is the dependency group the requirement came from.
	// Empty for the core [project] dependencies.
	Group string `json:"group,omitempty"`

	// Status is the terminal state of the step after the run.
	Status StepStatus `json:"status"`

	// Output is the combined stdout/stderr of the package manager
	// invocation. Populated for failed steps so the user can see the
	// tool's own diagnostics; trimmed for succeeded steps.
	Output string `json:"output,omitempty"`

	// Duration is how long the install command ran.
	Duration time.Duration `json:"duration,omitempty"`

	// Error is the error message when Status is failed.
	Error string `json:"error,omitempty"`
}

// SetupReport is the aggregate result of a bootstrap run. It is the
// primary output of the "botstrap setup" command, rendered as text or
// JSON depending on the --json flag.
type SetupReport struct {
	// ProjectName is the normalized project name from the manifest.
	ProjectName string `json:"projectName"`

	// ToolVersion is the detected version of the package manager
	// (e.g., "uv 0.4.18").
	ToolVersion string `json:"toolVersion"`

	// PythonRequirement is the requires-python specifier from the
	// manifest, if declared.
	PythonRequirement string `json:"pythonRequirement,omitempty"`

	// VenvPath is the absolute path of the virtual environment directory.
	VenvPath string `json:"venvPath"`

	// VenvCreated is true when this run created the environment, false
	// when an existing one was reused.
	VenvCreated bool `json:"venvCreated"`

	// Steps holds the per-requirement install outcomes in execution order.
	Steps []InstallStep `json:"steps,omitempty"`

	// EnvFile is the path of the secrets file, when one was seeded or
	// already present.
	EnvFile string `json:"envFile,omitempty"`

	// EnvFileSeeded is true when this run copied .env.example into place.
	EnvFileSeeded bool `json:"envFileSeeded"`

	// LogsDir is the path of the logs directory ensured by the run.
	LogsDir string `json:"logsDir,omitempty"`

	// CreatedAt is the timestamp the bootstrap run started.
	CreatedAt time.Time `json:"createdAt"`
}

// Failed reports whether any install step in the report failed.
func (r *SetupReport) Failed() bool {
	for i := range r.Steps {
		if r.Steps[i].Status == StepFailed {
			return true
		}
	}
	return false
}

// Counts returns the number of succeeded, failed, and skipped steps.
func (r *SetupReport) Counts() (succeeded, failed, skipped int) {
	for i := range r.Steps {
		switch r.Steps[i].Status {
		case StepSucceeded:
			succeeded++
		case StepFailed:
			failed++
		case StepSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// CheckStatus classifies a single doctor check outcome.
type CheckStatus string

const (
	// CheckOK indicates the check passed.
	CheckOK CheckStatus = "ok"

	// CheckWarn indicates a non-fatal problem (e.g., a secrets key still
	// holding the placeholder value from .env.example).
	CheckWarn CheckStatus = "warn"

	// CheckFail indicates the check found a problem that prevents the
	// bot project from running.
	CheckFail CheckStatus = "fail"
)

// String returns the string representation of CheckStatus.
func (s CheckStatus) String() string {
	return string(s)
}

// IsValid checks whether the CheckStatus value is one of the
// predefined valid states.
func (s CheckStatus) IsValid() bool {
	switch s {
	case CheckOK, CheckWarn, CheckFail:
		return true
	default:
		return false
	}
}

// CheckResult is a single row in the doctor report.
type CheckResult struct {
	// Name identifies the check (e.g., "package manager", "secrets file").
	Name string `json:"name"`

	// Status is the outcome classification.
	Status CheckStatus `json:"status"`

	// Detail is a human-readable explanation of the outcome.
	Detail string `json:"detail,omitempty"`
}

// WorstStatus returns the most severe status present in the results.
// Severity order: fail > warn > ok. An empty slice is reported as ok.
func WorstStatus(results []CheckResult) CheckStatus {
	worst := CheckOK
	for i := range results {
		switch results[i].Status {
		case CheckFail:
			return CheckFail
		case CheckWarn:
			worst = CheckWarn
		}
	}
	return worst
}

// nameRegex validates PEP 503 normalized package and project names:
// lowercase alphanumerics separated by single hyphens.
var nameRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// normalizeSeparators collapses runs of the PEP 503 separator characters
// ("-", "_", ".") into a single hyphen.
var normalizeSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizeName converts a package or project name to its PEP 503
// normalized form: lowercase, with runs of "-", "_", and "." collapsed
// to a single "-". Two requirements naming "TA_Lib" and "ta-lib" refer
// to the same package; normalization makes duplicate detection and
// index lookups canonical.
func NormalizeName(name string) string {
	return normalizeSeparators.ReplaceAllString(strings.ToLower(name), "-")
}

// ValidateName checks if the given name is a valid normalized package or
// project name. Callers should pass the result of NormalizeName; the raw
// manifest spellings are allowed to differ.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid name %q: must contain only lowercase alphanumerics separated by hyphens", name)
	}
	return nil
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
//
// ExitToolNotFound is deliberately 1: the original installer's only error
// contract was "exit with code 1 and an explicit message when the package
// manager is absent", and that contract is preserved.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitToolNotFound indicates the expected package-management tool is
	// not on PATH. Shares the value of the general error code so the
	// original installer's exit contract holds.
	ExitToolNotFound ExitCode = 1

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitManifestNotFound indicates pyproject.toml was not found in the
	// project directory or any of its ancestors.
	ExitManifestNotFound ExitCode = 2

	// ExitManifestInvalid indicates the manifest was found but failed
	// schema or requirement validation.
	ExitManifestInvalid ExitCode = 3

	// ExitVenvFailed indicates the virtual environment could not be
	// created.
	ExitVenvFailed ExitCode = 4

	// ExitInstallFailed indicates one or more dependency install steps
	// failed.
	ExitInstallFailed ExitCode = 5

	// ExitEnvFileError indicates the secrets file is missing, unreadable,
	// or fails the required-key check.
	ExitEnvFileError ExitCode = 6

	// ExitResolveFailed indicates one or more dependencies could not be
	// resolved against the package index.
	ExitResolveFailed ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

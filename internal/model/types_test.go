package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStepStatus_Parse verifies string-to-StepStatus conversion, including
// case normalization and rejection of unknown values.
func TestStepStatus_Parse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    StepStatus
		wantErr bool
	}{
		{name: "pending", input: "pending", want: StepPending},
		{name: "running", input: "running", want: StepRunning},
		{name: "succeeded", input: "succeeded", want: StepSucceeded},
		{name: "failed", input: "failed", want: StepFailed},
		{name: "skipped", input: "skipped", want: StepSkipped},
		{name: "uppercase is normalized", input: "FAILED", want: StepFailed},
		{name: "unknown value rejected", input: "done", wantErr: true},
		{name: "empty string rejected", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStepStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestStepStatus_IsTerminal verifies that only finished states count as
// terminal. A completed bootstrap run must never report pending or running
// steps.
func TestStepStatus_IsTerminal(t *testing.T) {
	assert.True(t, StepSucceeded.IsTerminal())
	assert.True(t, StepFailed.IsTerminal())
	assert.True(t, StepSkipped.IsTerminal())
	assert.False(t, StepPending.IsTerminal())
	assert.False(t, StepRunning.IsTerminal())
}

// TestSetupReport_Counts verifies the per-status step tally and the
// Failed() aggregate used by the CLI to decide the exit code.
func TestSetupReport_Counts(t *testing.T) {
	report := &SetupReport{
		Steps: []InstallStep{
			{Requirement: "binance-connector>=3.0.0", Status: StepSucceeded},
			{Requirement: "numpy>=1.24.0", Status: StepSucceeded},
			{Requirement: "ta-lib>=0.4.28", Status: StepFailed, Error: "wheel build failed"},
			{Requirement: "pandas>=2.0.0", Status: StepSkipped},
			{Requirement: "ruff>=0.1.0", Status: StepSkipped},
		},
	}

	succeeded, failed, skipped := report.Counts()
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, skipped)
	assert.True(t, report.Failed())
}

// TestSetupReport_Failed_AllSucceeded verifies the happy-path aggregate.
func TestSetupReport_Failed_AllSucceeded(t *testing.T) {
	report := &SetupReport{
		Steps: []InstallStep{
			{Requirement: "numpy>=1.24.0", Status: StepSucceeded},
		},
	}
	assert.False(t, report.Failed())
}

// TestWorstStatus verifies severity ordering: fail > warn > ok.
func TestWorstStatus(t *testing.T) {
	tests := []struct {
		name    string
		results []CheckResult
		want    CheckStatus
	}{
		{name: "empty is ok", results: nil, want: CheckOK},
		{
			name: "all ok",
			results: []CheckResult{
				{Name: "package manager", Status: CheckOK},
				{Name: "virtual environment", Status: CheckOK},
			},
			want: CheckOK,
		},
		{
			name: "warn dominates ok",
			results: []CheckResult{
				{Name: "package manager", Status: CheckOK},
				{Name: "secrets file", Status: CheckWarn},
			},
			want: CheckWarn,
		},
		{
			name: "fail dominates warn",
			results: []CheckResult{
				{Name: "secrets file", Status: CheckWarn},
				{Name: "package manager", Status: CheckFail},
				{Name: "logs directory", Status: CheckOK},
			},
			want: CheckFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WorstStatus(tt.results))
		})
	}
}

// TestNormalizeName verifies PEP 503 name normalization: lowercase with
// runs of "-", "_", "." collapsed into a single hyphen.
func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "TA_Lib", want: "ta-lib"},
		{input: "binance-connector", want: "binance-connector"},
		{input: "python-dotenv-vault", want: "python-dotenv-vault"},
		{input: "Django", want: "django"},
		{input: "zope.interface", want: "zope-interface"},
		{input: "a__-..b", want: "a-b"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}

// TestValidateName verifies that only normalized names pass validation.
func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("ta-lib"))
	assert.NoError(t, ValidateName("numpy"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("TA-Lib"), "uppercase must be normalized first")
	assert.Error(t, ValidateName("-leading"))
	assert.Error(t, ValidateName("trailing-"))
	assert.Error(t, ValidateName("double--hyphen"))
}

// TestCLIError verifies message formatting and error unwrapping, which the
// CLI layer relies on when translating errors to exit codes.
func TestCLIError(t *testing.T) {
	underlying := errors.New("exec: \"uv\": executable file not found in $PATH")

	wrapped := WrapCLIError(ExitToolNotFound, "uv package manager not found on PATH", underlying)
	assert.Equal(t, ExitToolNotFound, wrapped.Code)
	assert.Contains(t, wrapped.Error(), "uv package manager not found on PATH")
	assert.Contains(t, wrapped.Error(), "executable file not found")
	assert.True(t, errors.Is(wrapped, underlying))

	plain := NewCLIError(ExitManifestNotFound, "pyproject.toml not found")
	assert.Equal(t, "pyproject.toml not found", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

// TestExitCodes pins the exit-code contract. ExitToolNotFound must stay 1:
// that is the only exit behavior the original installer documented.
func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitCode(0), ExitSuccess)
	assert.Equal(t, ExitCode(1), ExitToolNotFound)
	assert.Equal(t, ExitCode(1), ExitGeneralError)
	assert.Equal(t, ExitCode(2), ExitManifestNotFound)
	assert.Equal(t, ExitCode(3), ExitManifestInvalid)
	assert.Equal(t, ExitCode(4), ExitVenvFailed)
	assert.Equal(t, ExitCode(5), ExitInstallFailed)
	assert.Equal(t, ExitCode(6), ExitEnvFileError)
	assert.Equal(t, ExitCode(7), ExitResolveFailed)
}

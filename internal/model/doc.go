// Package model defines the domain types and value objects for the
// botstrap CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (SetupReport, InstallStep, CheckResult, etc.) are transient
// representations produced by a single bootstrap or inspection run — there
// are no persistent state files beyond what the provisioning steps create
// on disk (the virtual environment, the logs directory, the secrets file).
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model

// Package manifest handles parsing, compilation, and validation of the
// project dependency manifest (pyproject.toml) for the botstrap CLI.
//
// The manifest is the single source of truth for what the bootstrap
// process installs:
//
//   - [project] metadata: name, requires-python, core dependencies
//   - [dependency-groups] (PEP 735) or [project.optional-dependencies]:
//     named tool groups such as dev, lint, test, docs
//   - [tool.uv.sources]: direct-URL overrides, used by the project for the
//     prebuilt ta-lib wheel
//   - [tool.ruff] / [tool.mypy]: linter and type-checker configuration,
//     carried opaquely (botstrap surfaces their presence but never
//     interprets them)
//
// TOML parsing uses github.com/pelletier/go-toml/v2. Requirement strings
// follow a PEP 508 subset (name, extras, version specifiers, direct URL
// references); version specifier evaluation is backed by
// github.com/hashicorp/go-version with PEP 440 operators translated into
// go-version constraint syntax.
package manifest

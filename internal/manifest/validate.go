// validate.go compiles the raw pyproject.toml structure into a Manifest
// while collecting every schema violation, rather than stopping at the
// first. The CLI reports the full list so a user can fix the manifest in
// one pass.
package manifest

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/quantforge/botstrap/internal/model"
)

// ValidationError represents a specific validation failure in the
// dependency manifest.
type ValidationError struct {
	// Field is the TOML field path that failed validation
	// (e.g., "project.dependencies[2]").
	Field string `json:"field"`

	// Message describes what's wrong with the field value.
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest validation error: %s: %s", e.Field, e.Message)
}

// Compile builds a Manifest from the raw TOML structure and returns it
// together with all validation errors found. The returned manifest is
// usable even when errors are present (invalid entries are omitted), which
// lets "manifest list" still show the parseable parts; commands that
// mutate the environment must refuse to proceed when len(errs) > 0.
//
// Checks performed:
//   - project.name is present and normalizes to a valid package name
//   - requires-python, when present, parses as a specifier set
//   - every core and group requirement string parses
//   - duplicate dependency names (after normalization) within a section
//   - every [tool.uv.sources] key refers to a declared dependency
//   - every source URL is absolute https
func Compile(pp *PyProject, path string) (*Manifest, []ValidationError) {
	var errs []ValidationError

	m := &Manifest{
		Path:    path,
		Version: pp.Project.Version,
		HasRuff: len(pp.Tool.Ruff) > 0,
		HasMypy: len(pp.Tool.Mypy) > 0,
	}

	// Project name.
	if pp.Project.Name == "" {
		errs = append(errs, ValidationError{
			Field:   "project.name",
			Message: "name is required",
		})
	} else {
		m.Name = model.NormalizeName(pp.Project.Name)
		if err := model.ValidateName(m.Name); err != nil {
			errs = append(errs, ValidationError{
				Field:   "project.name",
				Message: err.Error(),
			})
		}
	}

	// Interpreter requirement.
	if pp.Project.RequiresPython != "" {
		specs, err := ParseSpecifierSet(pp.Project.RequiresPython)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   "project.requires-python",
				Message: err.Error(),
			})
		} else {
			m.RequiresPython = specs
		}
	}

	// Core dependencies.
	m.Core, errs = compileRequirements(pp.Project.Dependencies, "project.dependencies", errs)

	// Dependency groups. [dependency-groups] (PEP 735) takes precedence;
	// [project.optional-dependencies] is the accepted fallback. Declaring
	// both is ambiguous and flagged.
	groupTables := pp.DependencyGroups
	groupField := "dependency-groups"
	if len(groupTables) == 0 {
		groupTables = pp.Project.OptionalDependencies
		groupField = "project.optional-dependencies"
	} else if len(pp.Project.OptionalDependencies) > 0 {
		errs = append(errs, ValidationError{
			Field:   "project.optional-dependencies",
			Message: "both dependency-groups and optional-dependencies declare groups; dependency-groups wins",
		})
	}

	if len(groupTables) > 0 {
		m.Groups = make(map[string][]Requirement, len(groupTables))
		for _, name := range sortedKeys(groupTables) {
			field := fmt.Sprintf("%s.%s", groupField, name)
			normalized := model.NormalizeName(name)
			if err := model.ValidateName(normalized); err != nil {
				errs = append(errs, ValidationError{Field: field, Message: err.Error()})
				continue
			}
			var reqs []Requirement
			reqs, errs = compileRequirements(groupTables[name], field, errs)
			m.Groups[normalized] = reqs
		}
	}

	// Custom sources.
	if len(pp.Tool.UV.Sources) > 0 {
		declared := declaredNames(m)
		m.Sources = make(map[string]string, len(pp.Tool.UV.Sources))
		for _, name := range sortedKeys(pp.Tool.UV.Sources) {
			field := fmt.Sprintf("tool.uv.sources.%s", name)
			src := pp.Tool.UV.Sources[name]
			normalized := model.NormalizeName(name)

			if !declared[normalized] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("source refers to %q, which is not a declared dependency", name),
				})
				continue
			}
			if msg := validateSourceURL(src.URL); msg != "" {
				errs = append(errs, ValidationError{Field: field + ".url", Message: msg})
				continue
			}
			m.Sources[normalized] = src.URL
		}
	}

	return m, errs
}

// compileRequirements parses a list of requirement strings, appending any
// parse failures and intra-section duplicates to errs. Invalid entries are
// dropped from the result.
func compileRequirements(raw []string, field string, errs []ValidationError) ([]Requirement, []ValidationError) {
	var reqs []Requirement
	seen := make(map[string]string, len(raw))

	for i, line := range raw {
		entryField := fmt.Sprintf("%s[%d]", field, i)

		req, err := ParseRequirement(line)
		if err != nil {
			errs = append(errs, ValidationError{Field: entryField, Message: err.Error()})
			continue
		}

		if prev, dup := seen[req.Normalized]; dup {
			errs = append(errs, ValidationError{
				Field:   entryField,
				Message: fmt.Sprintf("duplicate dependency %q (already declared as %q)", req.Name, prev),
			})
			continue
		}
		seen[req.Normalized] = req.Raw

		reqs = append(reqs, *req)
	}
	return reqs, errs
}

// validateSourceURL checks that a custom source URL is absolute https.
// Plain http would silently download artifacts over an unauthenticated
// channel, so it is rejected rather than warned about.
func validateSourceURL(raw string) string {
	if raw == "" {
		return "url is required"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid url: %v", err)
	}
	if u.Scheme != "https" {
		return fmt.Sprintf("url must use https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "url must be absolute"
	}
	return ""
}

// declaredNames collects the normalized names of every dependency in the
// manifest, across the core list and all groups.
func declaredNames(m *Manifest) map[string]bool {
	names := make(map[string]bool, len(m.Core))
	for i := range m.Core {
		names[m.Core[i].Normalized] = true
	}
	for _, reqs := range m.Groups {
		for i := range reqs {
			names[reqs[i].Normalized] = true
		}
	}
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

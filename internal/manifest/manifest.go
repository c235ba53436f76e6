package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/quantforge/botstrap/internal/model"
)

// FileName is the standard dependency manifest file name.
const FileName = "pyproject.toml"

// PyProject mirrors the raw TOML structure of pyproject.toml. Only the
// tables botstrap consumes are declared; everything else is ignored by
// the TOML decoder.
type PyProject struct {
	// Project is the standard [project] metadata table.
	Project Project `toml:"project"`

	// DependencyGroups is the PEP 735 [dependency-groups] table mapping
	// group name (dev, lint, test, docs) to requirement strings.
	DependencyGroups map[string][]string `toml:"dependency-groups"`

	// Tool carries tool-specific tables: uv sources plus the linter and
	// type-checker configuration blocks.
	Tool Tool `toml:"tool"`
}

// Project is the [project] table of pyproject.toml.
type Project struct {
	// Name is the project name as written. May use any PEP 508 spelling;
	// comparisons use the normalized form.
	Name string `toml:"name"`

	// Version is the declared project version.
	Version string `toml:"version"`

	// Description is the one-line project summary.
	Description string `toml:"description"`

	// RequiresPython is the interpreter version specifier set,
	// e.g. ">=3.9".
	RequiresPython string `toml:"requires-python"`

	// Dependencies lists the core runtime requirement strings.
	Dependencies []string `toml:"dependencies"`

	// OptionalDependencies is the older [project.optional-dependencies]
	// grouping form, accepted as a fallback when [dependency-groups]
	// is absent.
	OptionalDependencies map[string][]string `toml:"optional-dependencies"`
}

// Tool is the [tool] table. Ruff and Mypy are kept as opaque maps: the
// bootstrap surfaces whether the project configures them but never
// interprets their settings.
type Tool struct {
	UV   UVTool         `toml:"uv"`
	Ruff map[string]any `toml:"ruff"`
	Mypy map[string]any `toml:"mypy"`
}

// UVTool is the [tool.uv] table.
type UVTool struct {
	// Sources maps a dependency name to a custom package source,
	// e.g. the direct URL of the prebuilt ta-lib wheel.
	Sources map[string]UVSource `toml:"sources"`
}

// UVSource is a single [tool.uv.sources.<name>] entry.
type UVSource struct {
	// URL is a direct artifact URL (wheel or sdist).
	URL string `toml:"url"`
}

// Manifest is the compiled, validated view of a pyproject.toml: names
// normalized, requirement strings parsed, and group contents resolved.
// Instances are produced by Compile and are read-only afterwards.
type Manifest struct {
	// Path is the absolute path the manifest was loaded from.
	Path string `json:"path"`

	// Name is the normalized project name.
	Name string `json:"name"`

	// Version is the declared project version.
	Version string `json:"version,omitempty"`

	// RequiresPython is the parsed interpreter specifier set.
	// Nil when [project] declares none.
	RequiresPython SpecifierSet `json:"requiresPython,omitempty"`

	// Core holds the parsed [project].dependencies requirements in
	// manifest order.
	Core []Requirement `json:"core"`

	// Groups maps group name to its parsed requirements. Populated from
	// [dependency-groups] when present, otherwise from
	// [project.optional-dependencies].
	Groups map[string][]Requirement `json:"groups,omitempty"`

	// Sources maps normalized dependency names to direct artifact URLs
	// from [tool.uv.sources].
	Sources map[string]string `json:"sources,omitempty"`

	// HasRuff and HasMypy report whether the manifest carries linter and
	// type-checker configuration blocks.
	HasRuff bool `json:"hasRuff"`
	HasMypy bool `json:"hasMypy"`
}

// GroupNames returns the declared group names in sorted order.
func (m *Manifest) GroupNames() []string {
	names := make([]string, 0, len(m.Groups))
	for name := range m.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Requirements returns the core requirements followed by the requirements
// of each selected group, in manifest order within each section. A direct
// source from [tool.uv.sources] overrides the requirement's URL. Unknown
// group names produce an error.
func (m *Manifest) Requirements(groups ...string) ([]Requirement, error) {
	out := make([]Requirement, 0, len(m.Core))
	out = append(out, m.applySources(m.Core)...)

	for _, g := range groups {
		reqs, ok := m.Groups[g]
		if !ok {
			return nil, fmt.Errorf("unknown dependency group %q (declared: %v)", g, m.GroupNames())
		}
		out = append(out, m.applySources(reqs)...)
	}
	return out, nil
}

// applySources returns a copy of reqs with [tool.uv.sources] direct URLs
// applied. The manifest's own structures are never mutated.
func (m *Manifest) applySources(reqs []Requirement) []Requirement {
	out := make([]Requirement, len(reqs))
	copy(out, reqs)
	for i := range out {
		if url, ok := m.Sources[out[i].Normalized]; ok && out[i].URL == "" {
			out[i].URL = url
		}
	}
	return out
}

// Load reads and decodes a pyproject.toml file into its raw structure.
// Schema and requirement validation happen separately in Compile/Validate,
// so that a single run can report every problem rather than the first.
//
// Returns a CLIError with ExitManifestNotFound when the file does not
// exist, and ExitManifestInvalid when it is not valid TOML.
func Load(path string) (*PyProject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitManifestNotFound,
				fmt.Sprintf("dependency manifest not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var pp PyProject
	if err := toml.Unmarshal(data, &pp); err != nil {
		return nil, model.WrapCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("failed to parse %s", path),
			err,
		)
	}

	return &pp, nil
}

// Find locates the dependency manifest by searching the start directory
// and then each of its ancestors, so the CLI works from anywhere inside
// the project tree. Returns the absolute path of the first pyproject.toml
// found, or a CLIError with ExitManifestNotFound.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", model.NewCLIError(
		model.ExitManifestNotFound,
		fmt.Sprintf("%s not found in %s or any parent directory", FileName, startDir),
	)
}

// LoadAndCompile is the common path used by the CLI: locate nothing,
// just load the given file and compile it, returning the manifest and
// any validation errors found.
func LoadAndCompile(path string) (*Manifest, []ValidationError, error) {
	pp, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	m, verrs := Compile(pp, path)
	return m, verrs, nil
}

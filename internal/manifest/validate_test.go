package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompile_OptionalDependenciesFallback verifies that the older
// [project.optional-dependencies] grouping form is accepted when
// [dependency-groups] is absent.
func TestCompile_OptionalDependenciesFallback(t *testing.T) {
	pp := &PyProject{
		Project: Project{
			Name:         "binance-qqe-bot",
			Dependencies: []string{"numpy>=1.24.0"},
			OptionalDependencies: map[string][]string{
				"dev": {"ruff>=0.1.0"},
			},
		},
	}

	m, verrs := Compile(pp, "pyproject.toml")
	require.Empty(t, verrs)
	require.Contains(t, m.Groups, "dev")
	assert.Equal(t, "ruff", m.Groups["dev"][0].Normalized)
}

// TestCompile_BothGroupFormsFlagged verifies that declaring groups in both
// tables is reported, with [dependency-groups] winning.
func TestCompile_BothGroupFormsFlagged(t *testing.T) {
	pp := &PyProject{
		Project: Project{
			Name:         "binance-qqe-bot",
			Dependencies: []string{"numpy>=1.24.0"},
			OptionalDependencies: map[string][]string{
				"dev": {"mypy>=1.8.0"},
			},
		},
		DependencyGroups: map[string][]string{
			"dev": {"ruff>=0.1.0"},
		},
	}

	m, verrs := Compile(pp, "pyproject.toml")
	require.Len(t, verrs, 1)
	assert.Equal(t, "project.optional-dependencies", verrs[0].Field)

	require.Contains(t, m.Groups, "dev")
	assert.Equal(t, "ruff", m.Groups["dev"][0].Normalized, "dependency-groups takes precedence")
}

// TestValidateSourceURL covers the source URL rules: absolute https only.
func TestValidateSourceURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantOK bool
	}{
		{name: "https wheel url", url: "https://example.com/TA_Lib-0.4.28.whl", wantOK: true},
		{name: "empty", url: "", wantOK: false},
		{name: "plain http", url: "http://example.com/pkg.whl", wantOK: false},
		{name: "relative path", url: "wheels/pkg.whl", wantOK: false},
		{name: "file scheme", url: "file:///tmp/pkg.whl", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validateSourceURL(tt.url)
			if tt.wantOK {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

// TestValidationError_Error verifies the rendered message carries the
// field path.
func TestValidationError_Error(t *testing.T) {
	ve := &ValidationError{Field: "project.dependencies[2]", Message: "duplicate dependency"}
	assert.Contains(t, ve.Error(), "project.dependencies[2]")
	assert.Contains(t, ve.Error(), "duplicate dependency")
}

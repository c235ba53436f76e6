package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantforge/botstrap/internal/manifest"
	"github.com/quantforge/botstrap/internal/model"
)

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "error: no such package", firstLine("error: no such package\nhint: check the name"))
	assert.Equal(t, "single line", firstLine("single line"))
	assert.Equal(t, "", firstLine(""))
	assert.Equal(t, "", firstLine("\ntrailing"))
}

func TestAnnotateGroups(t *testing.T) {
	parse := func(raw string) manifest.Requirement {
		req, err := manifest.ParseRequirement(raw)
		require.NoError(t, err)
		return *req
	}

	m := &manifest.Manifest{
		Core: []manifest.Requirement{
			parse("binance-connector>=3.0.0"),
			parse("numpy>=1.24.0"),
		},
		Groups: map[string][]manifest.Requirement{
			"dev":  {parse("ruff>=0.1.0")},
			"test": {parse("pytest>=8.0"), parse("pytest-cov>=5.0")},
		},
	}

	steps := []model.InstallStep{
		{Requirement: "binance-connector>=3.0.0"},
		{Requirement: "numpy>=1.24.0"},
		{Requirement: "ruff>=0.1.0"},
		{Requirement: "pytest>=8.0"},
		{Requirement: "pytest-cov>=5.0"},
	}

	annotateGroups(steps, m, []string{"dev", "test"})

	assert.Empty(t, steps[0].Group)
	assert.Empty(t, steps[1].Group)
	assert.Equal(t, "dev", steps[2].Group)
	assert.Equal(t, "test", steps[3].Group)
	assert.Equal(t, "test", steps[4].Group)
}

func TestAnnotateGroups_NoGroups(t *testing.T) {
	m := &manifest.Manifest{}
	steps := []model.InstallStep{{Requirement: "numpy>=1.24.0"}}

	annotateGroups(steps, m, nil)

	assert.Empty(t, steps[0].Group)
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantforge/botstrap/internal/manifest"
)

func TestBuildListing(t *testing.T) {
	parse := func(raw string) manifest.Requirement {
		req, err := manifest.ParseRequirement(raw)
		require.NoError(t, err)
		return *req
	}
	pythonSpec, err := manifest.ParseSpecifierSet(">=3.11")
	require.NoError(t, err)

	m := &manifest.Manifest{
		Name:           "qqe-trading-bot",
		Version:        "0.1.0",
		RequiresPython: pythonSpec,
		Core: []manifest.Requirement{
			parse("binance-connector>=3.0.0"),
			parse("ta-lib>=0.4.28"),
		},
		Groups: map[string][]manifest.Requirement{
			"dev": {parse("ruff>=0.1.0")},
		},
		Sources: map[string]string{
			"ta-lib": "https://example.com/ta_lib-0.4.28.tar.gz",
		},
	}

	listing := buildListing(m)

	assert.Equal(t, "qqe-trading-bot", listing.Name)
	assert.Equal(t, "0.1.0", listing.Version)
	assert.Equal(t, ">=3.11", listing.RequiresPython)

	require.Len(t, listing.Core, 2)
	assert.Equal(t, "binance-connector", listing.Core[0].Name)
	assert.Equal(t, ">=3.0.0", listing.Core[0].Specifier)
	assert.Empty(t, listing.Core[0].URL)

	// The direct source URL from [tool.uv.sources] is applied.
	assert.Equal(t, "ta-lib", listing.Core[1].Name)
	assert.Equal(t, "https://example.com/ta_lib-0.4.28.tar.gz", listing.Core[1].URL)

	require.Len(t, listing.Groups["dev"], 1)
	assert.Equal(t, "ruff", listing.Groups["dev"][0].Name)
}

func TestSortedGroupNames(t *testing.T) {
	groups := map[string][]listedRequirement{
		"test": nil,
		"dev":  nil,
		"docs": nil,
	}
	assert.Equal(t, []string{"dev", "docs", "test"}, sortedGroupNames(groups))
	assert.Empty(t, sortedGroupNames(nil))
}

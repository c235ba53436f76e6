package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseRequirement verifies the PEP 508 subset parser against the
// requirement shapes the project manifest actually uses, plus the error
// cases the validator depends on.
func TestParseRequirement(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantName   string
		wantNorm   string
		wantExtras []string
		wantSpecs  string
		wantURL    string
		wantErr    bool
	}{
		{
			name:      "simple minimum bound",
			input:     "binance-connector>=3.0.0",
			wantName:  "binance-connector",
			wantNorm:  "binance-connector",
			wantSpecs: ">=3.0.0",
		},
		{
			name:      "underscored name normalizes",
			input:     "TA_Lib>=0.4.28",
			wantName:  "TA_Lib",
			wantNorm:  "ta-lib",
			wantSpecs: ">=0.4.28",
		},
		{
			name:     "bare name has empty specifier set",
			input:    "ruff",
			wantName: "ruff",
			wantNorm: "ruff",
		},
		{
			name:      "multiple clauses",
			input:     "numpy>=1.24.0,<2",
			wantName:  "numpy",
			wantNorm:  "numpy",
			wantSpecs: ">=1.24.0,<2",
		},
		{
			name:      "whitespace between tokens",
			input:     "pandas >= 2.0.0, < 3.0.0",
			wantName:  "pandas",
			wantNorm:  "pandas",
			wantSpecs: ">=2.0.0,<3.0.0",
		},
		{
			name:       "extras",
			input:      "uvicorn[standard]>=0.23",
			wantName:   "uvicorn",
			wantNorm:   "uvicorn",
			wantExtras: []string{"standard"},
			wantSpecs:  ">=0.23",
		},
		{
			name:      "compatible release operator",
			input:     "python-dotenv-vault~=0.6.0",
			wantName:  "python-dotenv-vault",
			wantNorm:  "python-dotenv-vault",
			wantSpecs: "~=0.6.0",
		},
		{
			name:      "wildcard equality",
			input:     "plotly==5.18.*",
			wantName:  "plotly",
			wantNorm:  "plotly",
			wantSpecs: "==5.18.*",
		},
		{
			name:     "direct url reference",
			input:    "ta-lib @ https://example.com/TA_Lib-0.4.28-cp312-win_amd64.whl",
			wantName: "ta-lib",
			wantNorm: "ta-lib",
			wantURL:  "https://example.com/TA_Lib-0.4.28-cp312-win_amd64.whl",
		},
		{name: "empty string", input: "", wantErr: true},
		{name: "environment marker rejected", input: "pandas; python_version < '3.12'", wantErr: true},
		{name: "missing operator", input: "numpy 1.24", wantErr: true},
		{name: "operator without version", input: "numpy>=", wantErr: true},
		{name: "garbage specifier", input: "plotly>==>5", wantErr: true},
		{name: "unterminated extras", input: "uvicorn[standard>=0.23", wantErr: true},
		{name: "url without target", input: "ta-lib @ ", wantErr: true},
		{name: "invalid name", input: "-numpy>=1.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequirement(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.input, req.Raw)
			assert.Equal(t, tt.wantName, req.Name)
			assert.Equal(t, tt.wantNorm, req.Normalized)
			assert.Equal(t, tt.wantExtras, req.Extras)
			assert.Equal(t, tt.wantSpecs, req.Specifiers.String())
			assert.Equal(t, tt.wantURL, req.URL)
		})
	}
}

// TestSpecifierSet_Check verifies PEP 440 operator semantics through the
// go-version translation layer.
func TestSpecifierSet_Check(t *testing.T) {
	tests := []struct {
		specs   string
		version string
		want    bool
	}{
		{specs: ">=3.0.0", version: "3.0.0", want: true},
		{specs: ">=3.0.0", version: "3.7.2", want: true},
		{specs: ">=3.0.0", version: "2.9.9", want: false},
		{specs: ">=1.24.0,<2", version: "1.26.4", want: true},
		{specs: ">=1.24.0,<2", version: "2.0.0", want: false},
		{specs: "==2.0.1", version: "2.0.1", want: true},
		{specs: "==2.0.1", version: "2.0.2", want: false},
		{specs: "!=2.0.1", version: "2.0.2", want: true},
		{specs: "!=2.0.1", version: "2.0.1", want: false},
		// Compatible release: ~=0.6.0 means >=0.6.0, ==0.6.*.
		{specs: "~=0.6.0", version: "0.6.4", want: true},
		{specs: "~=0.6.0", version: "0.7.0", want: false},
		{specs: "~=0.6.0", version: "0.5.9", want: false},
		// Wildcard equality: ==5.18.* means >=5.18.0, <5.19.0.
		{specs: "==5.18.*", version: "5.18.2", want: true},
		{specs: "==5.18.*", version: "5.19.0", want: false},
		{specs: "==1.*", version: "1.9.3", want: true},
		{specs: "==1.*", version: "2.0.0", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.specs+" vs "+tt.version, func(t *testing.T) {
			set, err := ParseSpecifierSet(tt.specs)
			require.NoError(t, err)

			got, err := set.Check(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestSpecifierSet_Check_UnparseableVersion verifies that a version the
// underlying library cannot parse is reported as an error, not a silent
// mismatch — callers decide whether to skip it.
func TestSpecifierSet_Check_UnparseableVersion(t *testing.T) {
	set, err := ParseSpecifierSet(">=1.0")
	require.NoError(t, err)

	_, err = set.Check("not-a-version")
	assert.Error(t, err)
}

// TestSpecifierSet_MinimumVersion verifies the interpreter-pinning helper
// used by venv provisioning.
func TestSpecifierSet_MinimumVersion(t *testing.T) {
	tests := []struct {
		specs string
		want  string
	}{
		{specs: ">=3.9", want: "3.9"},
		{specs: ">=3.9,<3.13", want: "3.9"},
		{specs: "==3.11.4", want: "3.11.4"},
		{specs: "<3.13", want: ""},
		{specs: "~=3.10.2", want: "3.10.2"},
	}

	for _, tt := range tests {
		t.Run(tt.specs, func(t *testing.T) {
			set, err := ParseSpecifierSet(tt.specs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.MinimumVersion())
		})
	}
}

// TestRequirement_InstallSpec verifies the argument handed to the package
// manager: direct URLs win over name+specifier forms.
func TestRequirement_InstallSpec(t *testing.T) {
	named, err := ParseRequirement("numpy>=1.24.0")
	require.NoError(t, err)
	assert.Equal(t, "numpy>=1.24.0", named.InstallSpec())
	assert.False(t, named.IsDirect())

	withExtras, err := ParseRequirement("uvicorn[standard]>=0.23")
	require.NoError(t, err)
	assert.Equal(t, "uvicorn[standard]>=0.23", withExtras.InstallSpec())

	direct, err := ParseRequirement("ta-lib @ https://example.com/ta_lib.whl")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/ta_lib.whl", direct.InstallSpec())
	assert.True(t, direct.IsDirect())
}

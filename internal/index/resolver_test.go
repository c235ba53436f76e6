package index

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantforge/botstrap/internal/manifest"
)

// fakeIndex serves canned project documents keyed by package name.
func fakeIndex(t *testing.T, projects map[string][]string, latest map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for name, versions := range projects {
		releases := ""
		for i, v := range versions {
			if i > 0 {
				releases += ","
			}
			releases += fmt.Sprintf("%q: []", v)
		}
		body := fmt.Sprintf(`{"info": {"name": %q, "version": %q}, "releases": {%s}}`,
			name, latest[name], releases)
		mux.HandleFunc("/pypi/"+name+"/json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
	}
	return httptest.NewServer(mux)
}

func mustRequirement(t *testing.T, raw string) manifest.Requirement {
	t.Helper()
	req, err := manifest.ParseRequirement(raw)
	require.NoError(t, err)
	return *req
}

func testResolver(server *httptest.Server) *Resolver {
	client := NewClient(server.URL, 5*time.Second)
	limiter := NewRateLimiter(100, time.Millisecond)
	return NewResolver(client, limiter, 4, zap.NewNop())
}

func TestResolver_Resolve(t *testing.T) {
	server := fakeIndex(t,
		map[string][]string{
			"binance-connector": {"2.0.0", "3.0.0", "3.12.0"},
			"numpy":             {"1.22.0", "1.24.0", "2.1.0"},
			"pandas":            {"1.5.3"},
		},
		map[string]string{
			"binance-connector": "3.12.0",
			"numpy":             "2.1.0",
			"pandas":            "1.5.3",
		},
	)
	defer server.Close()

	reqs := []manifest.Requirement{
		mustRequirement(t, "binance-connector>=3.0.0"),
		mustRequirement(t, "numpy>=1.24.0"),
		mustRequirement(t, "pandas>=2.0.0"),
		mustRequirement(t, "no-such-package>=1.0"),
	}

	results, err := testResolver(server).Resolve(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, OutcomeFound, results[0].Outcome)
	assert.Equal(t, "3.12.0", results[0].Version)

	assert.Equal(t, OutcomeFound, results[1].Outcome)
	assert.Equal(t, "2.1.0", results[1].Version)

	assert.Equal(t, OutcomeUnsatisfied, results[2].Outcome)
	assert.Contains(t, results[2].Detail, "pandas")
	assert.Contains(t, results[2].Detail, "1.5.3")

	assert.Equal(t, OutcomeNotFound, results[3].Outcome)

	assert.False(t, AllOK(results))
	assert.True(t, AllOK(results[:2]))
}

func TestResolver_Resolve_SkipsUnparseableReleases(t *testing.T) {
	server := fakeIndex(t,
		map[string][]string{
			// "1!2.0.0" carries a PEP 440 epoch the version library
			// cannot parse; it must not poison resolution.
			"ta-lib": {"0.4.28", "0.4.30", "1!2.0.0"},
		},
		map[string]string{"ta-lib": "0.4.30"},
	)
	defer server.Close()

	reqs := []manifest.Requirement{mustRequirement(t, "ta-lib>=0.4.28")}
	results, err := testResolver(server).Resolve(context.Background(), reqs)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFound, results[0].Outcome)
	assert.Equal(t, "0.4.30", results[0].Version)
}

func TestResolver_Resolve_ServerErrorRecordedPerResult(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reqs := []manifest.Requirement{
		mustRequirement(t, "numpy>=1.24.0"),
		mustRequirement(t, "pandas>=2.0.0"),
	}
	results, err := testResolver(server).Resolve(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Both lookups ran; one failure does not abort the rest.
	assert.EqualValues(t, 2, calls.Load())
	for _, res := range results {
		assert.Equal(t, OutcomeError, res.Outcome)
		assert.NotEmpty(t, res.Detail)
	}
}

func TestResolver_Resolve_DirectURL(t *testing.T) {
	artifact := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ta_lib-0.4.28.tar.gz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer artifact.Close()

	present := mustRequirement(t, "ta-lib>=0.4.28")
	present.URL = artifact.URL + "/ta_lib-0.4.28.tar.gz"

	missing := mustRequirement(t, "ruff>=0.1.0")
	missing.URL = artifact.URL + "/ruff-gone.whl"

	results, err := testResolver(artifact).Resolve(context.Background(), []manifest.Requirement{present, missing})
	require.NoError(t, err)

	assert.Equal(t, OutcomeFound, results[0].Outcome)
	assert.Empty(t, results[0].Version)

	assert.Equal(t, OutcomeError, results[1].Outcome)
	assert.Contains(t, results[1].Detail, "404")
}

func TestResolver_Resolve_ContextCancelled(t *testing.T) {
	server := fakeIndex(t,
		map[string][]string{"numpy": {"2.1.0"}},
		map[string]string{"numpy": "2.1.0"},
	)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// An empty token bucket forces Wait to observe the cancelled context.
	client := NewClient(server.URL, 5*time.Second)
	limiter := NewRateLimiter(0, time.Hour)
	resolver := NewResolver(client, limiter, 2, zap.NewNop())

	_, err := resolver.Resolve(ctx, []manifest.Requirement{mustRequirement(t, "numpy>=1.24.0")})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is returned by Project when the index has no package under
// the requested name.
var ErrNotFound = errors.New("package not found in index")

// userAgent identifies botstrap to the index, as its API guidelines ask.
const userAgent = "botstrap (+https://github.com/quantforge/botstrap)"

// Client is a minimal PyPI JSON API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given index base URL (e.g.,
// "https://pypi.org"). The timeout bounds each individual request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ProjectInfo is the subset of the index's project document that
// resolution needs.
type ProjectInfo struct {
	// Name is the index's canonical spelling of the package name.
	Name string

	// LatestVersion is the index's current release.
	LatestVersion string

	// Versions lists every published release version string, unordered.
	Versions []string
}

// projectDocument mirrors the JSON API response shape. The releases map
// is keyed by version string; the values (per-file artifact lists) are
// irrelevant here and decoded into RawMessage to avoid the cost of
// materializing them.
type projectDocument struct {
	Info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"info"`
	Releases map[string]json.RawMessage `json:"releases"`
}

// Project fetches the project document for a normalized package name.
// Returns ErrNotFound for unknown packages.
func (c *Client) Project(ctx context.Context, name string) (*ProjectInfo, error) {
	url := fmt.Sprintf("%s/pypi/%s/json", c.baseURL, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("index request for %q failed: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		// fallthrough to decode
	case http.StatusNotFound:
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	default:
		return nil, fmt.Errorf("index returned %s for %q", resp.Status, name)
	}

	var doc projectDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode index response for %q: %w", name, err)
	}

	info := &ProjectInfo{
		Name:          doc.Info.Name,
		LatestVersion: doc.Info.Version,
		Versions:      make([]string, 0, len(doc.Releases)),
	}
	for version := range doc.Releases {
		info.Versions = append(info.Versions, version)
	}
	return info, nil
}

// CheckURL probes a direct artifact URL with a HEAD request. Used for
// requirements that bypass the index via [tool.uv.sources].
func (c *Client) CheckURL(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("artifact probe failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read and discard any body so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("artifact returned %s", resp.Status)
	}
	return nil
}

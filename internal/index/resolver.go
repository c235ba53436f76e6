package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	goversion "github.com/hashicorp/go-version"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quantforge/botstrap/internal/manifest"
)

// Outcome classifies a single requirement's resolution result.
type Outcome string

const (
	// OutcomeFound means the package exists and at least one release
	// satisfies the requirement's specifiers.
	OutcomeFound Outcome = "found"

	// OutcomeNotFound means the index has no package under the name.
	OutcomeNotFound Outcome = "not-found"

	// OutcomeUnsatisfied means the package exists but no parseable
	// release satisfies the specifiers.
	OutcomeUnsatisfied Outcome = "unsatisfied"

	// OutcomeError means the lookup itself failed (network, index error).
	OutcomeError Outcome = "error"
)

// Result is the resolution outcome for one requirement.
type Result struct {
	// Requirement is the raw requirement string.
	Requirement string `json:"requirement"`

	// Name is the normalized package name, empty for pure-URL checks.
	Name string `json:"name,omitempty"`

	// Outcome classifies the result.
	Outcome Outcome `json:"outcome"`

	// Version is the best (highest) satisfying release for found
	// packages resolved by name.
	Version string `json:"version,omitempty"`

	// Detail carries the failure explanation for everything but found.
	Detail string `json:"detail,omitempty"`
}

// OK reports whether the requirement resolved successfully.
func (r Result) OK() bool {
	return r.Outcome == OutcomeFound
}

// AllOK reports whether every result resolved successfully.
func AllOK(results []Result) bool {
	for i := range results {
		if !results[i].OK() {
			return false
		}
	}
	return true
}

// Resolver checks manifest requirements against the package index with
// bounded concurrency and rate limiting.
type Resolver struct {
	client      *Client
	limiter     *RateLimiter
	concurrency int
	log         *zap.Logger
}

// DefaultConcurrency bounds simultaneous index requests.
const DefaultConcurrency = 4

// NewResolver creates a Resolver. concurrency <= 0 selects
// DefaultConcurrency. The limiter may be generous — PyPI tolerates modest
// burst traffic — but must exist so a huge manifest stays polite.
func NewResolver(client *Client, limiter *RateLimiter, concurrency int, log *zap.Logger) *Resolver {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Resolver{
		client:      client,
		limiter:     limiter,
		concurrency: concurrency,
		log:         log,
	}
}

// Resolve checks every requirement and returns one Result per input, in
// input order. Individual lookup failures are recorded in their Result
// rather than aborting the batch; only context cancellation stops the
// run early.
func (r *Resolver) Resolve(ctx context.Context, reqs []manifest.Requirement) ([]Result, error) {
	results := make([]Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i := range reqs {
		i := i
		g.Go(func() error {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
			started := time.Now()
			results[i] = r.resolveOne(ctx, reqs[i])
			r.log.Debug("resolved requirement",
				zap.String("requirement", reqs[i].Raw),
				zap.String("outcome", string(results[i].Outcome)),
				zap.Duration("took", time.Since(started)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// resolveOne checks a single requirement.
func (r *Resolver) resolveOne(ctx context.Context, req manifest.Requirement) Result {
	result := Result{
		Requirement: req.Raw,
		Name:        req.Normalized,
	}

	// Direct references bypass the index: probe the artifact URL.
	if req.IsDirect() {
		if err := r.client.CheckURL(ctx, req.URL); err != nil {
			result.Outcome = OutcomeError
			result.Detail = err.Error()
			return result
		}
		result.Outcome = OutcomeFound
		return result
	}

	info, err := r.client.Project(ctx, req.Normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			result.Outcome = OutcomeNotFound
			result.Detail = fmt.Sprintf("no package named %q in the index", req.Normalized)
		} else {
			result.Outcome = OutcomeError
			result.Detail = err.Error()
		}
		return result
	}

	best := bestSatisfying(req.Specifiers, info.Versions)
	if best == "" {
		result.Outcome = OutcomeUnsatisfied
		result.Detail = fmt.Sprintf("no release of %q satisfies %s (latest: %s)",
			req.Normalized, req.Specifiers.String(), info.LatestVersion)
		return result
	}

	result.Outcome = OutcomeFound
	result.Version = best
	return result
}

// bestSatisfying returns the highest release that satisfies the
// specifier set, or the empty string when none does. Release strings the
// version library cannot parse (epoch markers, local versions) are
// skipped: an exotic version string should never fail a resolution that
// a normal release can satisfy.
func bestSatisfying(specs manifest.SpecifierSet, versions []string) string {
	var best *goversion.Version
	var bestRaw string

	for _, raw := range versions {
		ok, err := specs.Check(raw)
		if err != nil || !ok {
			continue
		}
		v, err := goversion.NewVersion(raw)
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestRaw = raw
		}
	}
	return bestRaw
}

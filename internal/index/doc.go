// Package index resolves manifest dependencies against a Python package
// index.
//
// Resolution answers the manifest's one external invariant: every
// declared dependency name must exist in the package index, and at least
// one published release must satisfy its version specifiers. Direct-URL
// requirements are checked by probing the artifact URL instead.
//
// The Client speaks the PyPI JSON API (GET /pypi/<name>/json). The
// Resolver fans requests out with a bounded errgroup and throttles them
// through a token-bucket rate limiter, so a large manifest never hammers
// the index.
package index

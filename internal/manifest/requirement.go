package manifest

import (
	"fmt"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/quantforge/botstrap/internal/model"
)

// Specifier is a single PEP 440 version clause such as ">=3.0.0" or
// "==1.2.*". The original operator and version text are preserved for
// display; evaluation translates them to go-version constraints.
type Specifier struct {
	// Op is the comparison operator: ==, !=, >=, <=, >, <, ~=, or ===.
	Op string `json:"op"`

	// Version is the version text the operator applies to. May end in
	// ".*" only when Op is "==" or "!=".
	Version string `json:"version"`
}

// String returns the clause in its canonical written form.
func (s Specifier) String() string {
	return s.Op + s.Version
}

// constraint translates the clause into go-version constraint syntax.
//
// Translation table (PEP 440 → go-version):
//
//	>=X, <=X, >X, <X  →  unchanged
//	!=X               →  unchanged
//	==X               →  = X
//	===X              →  = X   (arbitrary equality, treated as exact)
//	~=X.Y.Z           →  ~> X.Y.Z   (compatible release: >= X.Y.Z, < X.(Y+1).0)
//	==X.Y.*           →  ~> X.Y.0   (wildcard equality: >= X.Y.0, < X.(Y+1).0)
func (s Specifier) constraint() (goversion.Constraints, error) {
	op := s.Op
	ver := s.Version

	if strings.HasSuffix(ver, ".*") {
		if op != "==" {
			return nil, fmt.Errorf("wildcard version %q is only valid with the == operator", s.String())
		}
		base := strings.TrimSuffix(ver, ".*")
		return goversion.NewConstraint("~> " + base + ".0")
	}

	switch op {
	case "==", "===":
		op = "="
	case "~=":
		op = "~>"
	}

	return goversion.NewConstraint(op + " " + ver)
}

// SpecifierSet is the conjunction of all clauses in a requirement
// (e.g., ">=1.24.0,<2"). A version satisfies the set when it satisfies
// every clause.
type SpecifierSet []Specifier

// String returns the comma-joined canonical form of the set.
func (ss SpecifierSet) String() string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// Check reports whether the given version string satisfies every clause
// in the set. The version must parse under go-version rules; callers
// filtering index release lists should skip unparseable versions rather
// than treating them as matches.
func (ss SpecifierSet) Check(versionStr string) (bool, error) {
	v, err := goversion.NewVersion(versionStr)
	if err != nil {
		return false, fmt.Errorf("unparseable version %q: %w", versionStr, err)
	}

	for _, s := range ss {
		c, err := s.constraint()
		if err != nil {
			return false, err
		}
		if !c.Check(v) {
			return false, nil
		}
	}
	return true, nil
}

// Validate checks that every clause in the set translates into a valid
// go-version constraint, without evaluating it against any version.
func (ss SpecifierSet) Validate() error {
	for _, s := range ss {
		if _, err := s.constraint(); err != nil {
			return fmt.Errorf("invalid specifier %q: %w", s.String(), err)
		}
	}
	return nil
}

// MinimumVersion returns the lowest version bound declared by an inclusive
// ordering clause (>= or ==), or the empty string when the set declares
// none. The bootstrap uses this to pin the interpreter version when
// creating the virtual environment from requires-python (e.g., ">=3.9"
// pins python 3.9).
func (ss SpecifierSet) MinimumVersion() string {
	var minV *goversion.Version
	var raw string
	for _, s := range ss {
		if s.Op != ">=" && s.Op != "==" && s.Op != "~=" {
			continue
		}
		ver := strings.TrimSuffix(s.Version, ".*")
		v, err := goversion.NewVersion(ver)
		if err != nil {
			continue
		}
		if minV == nil || v.LessThan(minV) {
			minV = v
			raw = ver
		}
	}
	return raw
}

// Requirement is a parsed dependency declaration from the manifest.
// Exactly one of Specifiers and URL carries the version selection:
// a direct URL reference ("name @ https://…") bypasses index resolution
// entirely and installs the referenced artifact.
type Requirement struct {
	// Raw is the requirement string exactly as written in the manifest.
	Raw string `json:"raw"`

	// Name is the package name as written (case and separators preserved).
	Name string `json:"name"`

	// Normalized is the PEP 503 normalized form of Name, used for
	// duplicate detection, source matching, and index lookups.
	Normalized string `json:"normalized"`

	// Extras lists requested optional feature sets (e.g., "binary").
	Extras []string `json:"extras,omitempty"`

	// Specifiers is the version clause set. Empty means "any version".
	Specifiers SpecifierSet `json:"specifiers,omitempty"`

	// URL is the direct reference target for "name @ url" requirements.
	URL string `json:"url,omitempty"`
}

// IsDirect reports whether the requirement is a direct URL reference.
func (r *Requirement) IsDirect() bool {
	return r.URL != ""
}

// InstallSpec returns the argument handed to the package manager for this
// requirement: the direct URL when one is declared, otherwise the
// name[extras]specifiers form.
func (r *Requirement) InstallSpec() string {
	if r.URL != "" {
		return r.URL
	}
	spec := r.Name
	if len(r.Extras) > 0 {
		spec += "[" + strings.Join(r.Extras, ",") + "]"
	}
	return spec + r.Specifiers.String()
}

// rawNameRegex matches package names as PEP 508 allows them to be written:
// alphanumeric start and end, with ".", "_", "-" permitted in between.
var rawNameRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// specifierOps lists the recognized comparison operators, longest first so
// that ">=" is matched before ">".
var specifierOps = []string{"===", "==", "!=", "~=", ">=", "<=", ">", "<"}

// ParseRequirement parses a single PEP 508 requirement string.
//
// Supported grammar (whitespace insignificant between tokens):
//
//	name[extra1,extra2]>=1.0,<2.0
//	name @ https://example.com/pkg-1.0-py3-none-any.whl
//
// Environment markers ("; python_version < ...") are not supported and
// produce an error: the manifest this tool owns never uses them, and
// silently ignoring a marker would change install semantics.
func ParseRequirement(raw string) (*Requirement, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("empty requirement")
	}
	if strings.Contains(s, ";") {
		return nil, fmt.Errorf("requirement %q: environment markers are not supported", raw)
	}

	req := &Requirement{Raw: raw}

	// Direct URL reference: "name @ url".
	if name, url, ok := strings.Cut(s, "@"); ok {
		req.Name = strings.TrimSpace(name)
		req.URL = strings.TrimSpace(url)
		if req.URL == "" {
			return nil, fmt.Errorf("requirement %q: direct reference is missing a URL", raw)
		}
		// Extras may still precede the "@".
		base, extras, err := splitExtras(req.Name)
		if err != nil {
			return nil, fmt.Errorf("requirement %q: %w", raw, err)
		}
		req.Name = base
		req.Extras = extras
		if err := validateRawName(req.Name, raw); err != nil {
			return nil, err
		}
		req.Normalized = model.NormalizeName(req.Name)
		return req, nil
	}

	// Split the name (and optional extras) from the specifier clauses.
	// The name ends at the first operator character, '[' handling aside.
	nameEnd := len(s)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '[' {
			close := strings.IndexByte(s[i:], ']')
			if close < 0 {
				return nil, fmt.Errorf("requirement %q: unterminated extras bracket", raw)
			}
			i += close
			continue
		}
		if c == '=' || c == '!' || c == '~' || c == '>' || c == '<' || c == ' ' {
			nameEnd = i
			break
		}
	}

	namePart := strings.TrimSpace(s[:nameEnd])
	specPart := strings.TrimSpace(s[nameEnd:])

	base, extras, err := splitExtras(namePart)
	if err != nil {
		return nil, fmt.Errorf("requirement %q: %w", raw, err)
	}
	req.Name = base
	req.Extras = extras
	if err := validateRawName(req.Name, raw); err != nil {
		return nil, err
	}
	req.Normalized = model.NormalizeName(req.Name)

	if specPart != "" {
		specs, err := parseSpecifierSet(specPart)
		if err != nil {
			return nil, fmt.Errorf("requirement %q: %w", raw, err)
		}
		req.Specifiers = specs
	}

	return req, nil
}

// ParseSpecifierSet parses a comma-separated list of version clauses,
// e.g. ">=3.9" or ">=1.24.0, <2". Used directly for requires-python.
func ParseSpecifierSet(s string) (SpecifierSet, error) {
	return parseSpecifierSet(strings.TrimSpace(s))
}

func parseSpecifierSet(s string) (SpecifierSet, error) {
	var set SpecifierSet
	for _, clause := range strings.Split(s, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return nil, fmt.Errorf("empty version clause")
		}

		var op string
		for _, candidate := range specifierOps {
			if strings.HasPrefix(clause, candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return nil, fmt.Errorf("version clause %q has no comparison operator", clause)
		}

		ver := strings.TrimSpace(strings.TrimPrefix(clause, op))
		if ver == "" {
			return nil, fmt.Errorf("version clause %q has no version", clause)
		}

		spec := Specifier{Op: op, Version: ver}
		if _, err := spec.constraint(); err != nil {
			return nil, err
		}
		set = append(set, spec)
	}
	return set, nil
}

// splitExtras separates "name[extra1,extra2]" into the bare name and the
// extras list. A missing bracket section yields a nil slice.
func splitExtras(namePart string) (string, []string, error) {
	open := strings.IndexByte(namePart, '[')
	if open < 0 {
		return namePart, nil, nil
	}
	if !strings.HasSuffix(namePart, "]") {
		return "", nil, fmt.Errorf("malformed extras in %q", namePart)
	}

	base := strings.TrimSpace(namePart[:open])
	inner := namePart[open+1 : len(namePart)-1]

	var extras []string
	for _, e := range strings.Split(inner, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			return "", nil, fmt.Errorf("empty extra in %q", namePart)
		}
		extras = append(extras, e)
	}
	return base, extras, nil
}

func validateRawName(name, raw string) error {
	if name == "" {
		return fmt.Errorf("requirement %q: missing package name", raw)
	}
	if !rawNameRegex.MatchString(name) {
		return fmt.Errorf("requirement %q: invalid package name %q", raw, name)
	}
	return nil
}

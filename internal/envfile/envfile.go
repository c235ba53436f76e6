// Package envfile manages the project's runtime secrets file (.env).
//
// The trading bot reads its Binance credentials from environment
// variables loaded out of a local .env file. botstrap's job ends at the
// file's shape: seeding it from .env.example, and verifying the required
// keys are present and filled in. The values are never logged, never
// validated against the exchange, and never used.
//
// Parsing uses github.com/joho/godotenv in read-only mode — the current
// process environment is never mutated.
package envfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// KeyStatus describes one required key's state in the secrets file.
type KeyStatus struct {
	// Key is the environment variable name.
	Key string `json:"key"`

	// Present is true when the key appears in the file at all.
	Present bool `json:"present"`

	// Empty is true when the key is present but has no value.
	Empty bool `json:"empty"`

	// Placeholder is true when the value still looks like the template
	// text from .env.example (e.g., "your_api_key_here").
	Placeholder bool `json:"placeholder"`

	// Value is the raw value from the file. Never serialized; callers
	// that display it must pass it through Redact first.
	Value string `json:"-"`
}

// OK reports whether the key is usable: present, non-empty, and not a
// leftover placeholder.
func (k KeyStatus) OK() bool {
	return k.Present && !k.Empty && !k.Placeholder
}

// Check reads the secrets file and reports the status of every required
// key. The file's other keys are ignored. Returns an error when the file
// does not exist or cannot be parsed.
func Check(path string, requiredKeys []string) ([]KeyStatus, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("secrets file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to parse secrets file %s: %w", path, err)
	}

	statuses := make([]KeyStatus, 0, len(requiredKeys))
	for _, key := range requiredKeys {
		value, present := values[key]
		statuses = append(statuses, KeyStatus{
			Key:         key,
			Present:     present,
			Empty:       present && strings.TrimSpace(value) == "",
			Placeholder: present && isPlaceholder(value),
			Value:       value,
		})
	}
	return statuses, nil
}

// AllOK reports whether every key status passes.
func AllOK(statuses []KeyStatus) bool {
	for _, s := range statuses {
		if !s.OK() {
			return false
		}
	}
	return true
}

// Seed creates the secrets file by copying the sample template. It
// refuses to touch an existing secrets file — a populated .env must never
// be overwritten by tooling. Returns true when a file was created, false
// when one already existed.
func Seed(samplePath, envPath string) (bool, error) {
	if _, err := os.Stat(envPath); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat %s: %w", envPath, err)
	}

	data, err := os.ReadFile(samplePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("sample file not found: %s", samplePath)
		}
		return false, fmt.Errorf("failed to read %s: %w", samplePath, err)
	}

	// 0600: the file will hold API credentials once the user fills it in.
	if err := os.WriteFile(envPath, data, 0o600); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", envPath, err)
	}
	return true, nil
}

// isPlaceholder detects template values commonly left in seeded secrets
// files: "your_api_key_here", "changeme", "<your key>", and the like.
func isPlaceholder(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "changeme", v == "todo", v == "xxx":
		return true
	case strings.HasPrefix(v, "your_"), strings.HasSuffix(v, "_here"):
		return true
	case strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">"):
		return true
	default:
		return false
	}
}

// Redact masks a secret for display. Short values are fully masked;
// longer ones keep the last four characters so a user can tell which of
// several keys is loaded without exposing it.
func Redact(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

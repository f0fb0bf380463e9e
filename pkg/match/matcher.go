// Package match filters object keys with glob patterns.
package match

import (
	"errors"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher evaluates glob patterns against object keys.
//
// A key matches when it matches at least one include pattern and no
// exclude pattern. The zero include set is rejected at construction.
// A Matcher is safe for concurrent use after creation.
type Matcher struct {
	includes []string
	excludes []string
	prefix   string
}

// Config configures a Matcher.
type Config struct {
	// Includes are glob patterns keys must match (at least one).
	Includes []string

	// Excludes are glob patterns keys must not match (any).
	Excludes []string
}

var (
	// ErrNoIncludes is returned when no include patterns are provided.
	ErrNoIncludes = errors.New("at least one include pattern is required")

	// ErrInvalidPattern is returned when a pattern cannot be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// PatternError wraps pattern-related errors with context.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "pattern " + e.Pattern + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// New creates a Matcher from the given configuration.
func New(cfg Config) (*Matcher, error) {
	if len(cfg.Includes) == 0 {
		return nil, ErrNoIncludes
	}
	for _, raw := range append(append([]string{}, cfg.Includes...), cfg.Excludes...) {
		if !doublestar.ValidatePattern(raw) {
			return nil, &PatternError{Pattern: raw, Err: ErrInvalidPattern}
		}
	}
	return &Matcher{
		includes: cfg.Includes,
		excludes: cfg.Excludes,
		prefix:   commonPrefix(cfg.Includes),
	}, nil
}

// Match reports whether the key satisfies the include/exclude patterns.
// Keys are matched as-is; object keys are opaque strings.
func (m *Matcher) Match(key string) bool {
	matched := false
	for _, inc := range m.includes {
		if ok, _ := doublestar.Match(inc, key); ok {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, exc := range m.excludes {
		if ok, _ := doublestar.Match(exc, key); ok {
			return false
		}
	}
	return true
}

// Prefix returns the longest static key prefix shared by all include
// patterns. It can seed a list operation to reduce the keys fetched.
// An empty result means a full listing is required.
func (m *Matcher) Prefix() string {
	return m.prefix
}

// staticPrefix extracts the pattern text before the first glob
// metacharacter, truncated to the last complete path segment.
func staticPrefix(pattern string) string {
	meta := strings.IndexAny(pattern, "*?[{")
	if meta == -1 {
		return pattern
	}
	head := pattern[:meta]
	slash := strings.LastIndex(head, "/")
	if slash < 0 {
		return ""
	}
	return head[:slash+1]
}

func commonPrefix(patterns []string) string {
	common := staticPrefix(patterns[0])
	for _, p := range patterns[1:] {
		sp := staticPrefix(p)
		for !strings.HasPrefix(sp, common) {
			slash := strings.LastIndex(strings.TrimSuffix(common, "/"), "/")
			if slash < 0 {
				return ""
			}
			common = common[:slash+1]
		}
	}
	return common
}

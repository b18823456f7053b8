// Package semver wraps github.com/Masterminds/semver/v3 behind the small
// matching surface the resolver needs. The [Matcher] interface is the
// injection point: production code uses [NodeMatcher], tests substitute
// deterministic fakes so resolution logic can be exercised without parsing
// real ranges.
package semver

import (
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Matcher selects versions satisfying npm-style range expressions.
type Matcher interface {
	// MaxSatisfying returns the highest version in versions that satisfies
	// rangeExpr, and whether any did.
	MaxSatisfying(versions []string, rangeExpr string) (string, bool)

	// Satisfies reports whether a single version satisfies rangeExpr.
	Satisfies(version, rangeExpr string) bool
}

// IsWildcard reports whether a range expression means "any version".
// The literals "*", "x", and "latest" select the maximum known version
// rather than being parsed as range syntax.
func IsWildcard(rangeExpr string) bool {
	switch rangeExpr {
	case "*", "x", "latest":
		return true
	}
	return false
}

// NodeMatcher implements Matcher with node-style semver range semantics.
type NodeMatcher struct{}

// New returns the production Matcher.
func New() NodeMatcher { return NodeMatcher{} }

// MaxSatisfying returns the highest version satisfying rangeExpr.
// Wildcard ranges pick the maximum parseable version. Unparseable catalog
// entries are skipped rather than failing the whole match.
func (NodeMatcher) MaxSatisfying(versions []string, rangeExpr string) (string, bool) {
	if IsWildcard(rangeExpr) {
		return maxVersion(versions)
	}

	c, err := mm.NewConstraint(rangeExpr)
	if err != nil {
		return "", false
	}

	var best *mm.Version
	var bestRaw string
	for _, raw := range versions {
		v, err := mm.NewVersion(raw)
		if err != nil {
			continue
		}
		if !c.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestRaw = raw
		}
	}
	return bestRaw, best != nil
}

// Satisfies reports whether version satisfies rangeExpr.
// Wildcard ranges are satisfied by any parseable version.
func (NodeMatcher) Satisfies(version, rangeExpr string) bool {
	v, err := mm.NewVersion(version)
	if err != nil {
		return false
	}
	if IsWildcard(rangeExpr) {
		return true
	}
	c, err := mm.NewConstraint(rangeExpr)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// Compare compares two version strings, returning -1, 0, or 1.
// Unparseable versions sort before parseable ones; two unparseable
// versions fall back to string comparison.
func Compare(a, b string) int {
	va, errA := mm.NewVersion(a)
	vb, errB := mm.NewVersion(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(vb)
}

func maxVersion(versions []string) (string, bool) {
	var best *mm.Version
	var bestRaw string
	for _, raw := range versions {
		v, err := mm.NewVersion(raw)
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestRaw = raw
		}
	}
	return bestRaw, best != nil
}

// Ensure NodeMatcher implements Matcher.
var _ Matcher = NodeMatcher{}

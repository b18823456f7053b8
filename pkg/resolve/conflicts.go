package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/pakt-pm/pakt/pkg/semver"
)

// Conflict is a package name recorded with two or more distinct specifiers.
type Conflict struct {
	Name  string
	Specs []string // first-seen order, as recorded in the tree
}

// String renders the user-facing conflict description. The specifiers
// appear verbatim, in the order they were observed.
func (c Conflict) String() string {
	return fmt.Sprintf("Package '%s' has conflicting version requirements: %s",
		c.Name, strings.Join(c.Specs, ", "))
}

// Detect returns the conflicts in t, ordered by the tree's key insertion
// order. A name with a single specifier is never a conflict.
func Detect(t *Tree) []Conflict {
	var conflicts []Conflict
	for _, name := range t.Names() {
		specs := t.Specs(name)
		if len(specs) > 1 {
			conflicts = append(conflicts, Conflict{Name: name, Specs: specs})
		}
	}
	return conflicts
}

// Result aggregates a resolution attempt.
type Result struct {
	OK       bool              // true iff no unresolved conflicts remain
	Messages []string          // resolved descriptions first, then unresolved
	Resolved map[string]string // name → concrete version, successes only
}

// Resolver finds single concrete versions satisfying all of a conflict's
// specifiers.
type Resolver struct {
	catalog CatalogSource
	matcher semver.Matcher
	logf    func(string, ...any)
}

// NewResolver creates a Resolver. logf may be nil.
func NewResolver(catalog CatalogSource, matcher semver.Matcher, logf func(string, ...any)) *Resolver {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Resolver{catalog: catalog, matcher: matcher, logf: logf}
}

// Resolve attempts each conflict independently. Messages group all resolved
// conflicts before all unresolved ones, each group in input order. Catalog
// fetch failures and empty candidate sets both surface as unresolved
// entries rather than errors.
func (r *Resolver) Resolve(ctx context.Context, conflicts []Conflict) Result {
	var resolved, unresolved []string
	versions := make(map[string]string)

	for _, c := range conflicts {
		version, ok := r.compatibleVersion(ctx, c)
		if ok {
			resolved = append(resolved, fmt.Sprintf("Resolved conflict for '%s': using version %s", c.Name, version))
			versions[c.Name] = version
		} else {
			unresolved = append(unresolved, c.String())
		}
	}

	return Result{
		OK:       len(unresolved) == 0,
		Messages: append(resolved, unresolved...),
		Resolved: versions,
	}
}

// compatibleVersion finds one version satisfying every specifier in c.
// Candidates must satisfy the full intersection; the final pick re-runs the
// matcher over the candidates using the lexicographically smallest
// specifier (caret prefix stripped, then re-applied) as a simple tie-break
// favoring the most restrictive-looking declared range.
func (r *Resolver) compatibleVersion(ctx context.Context, c Conflict) (string, bool) {
	catalog, err := r.catalog.FetchVersionCatalog(ctx, c.Name)
	if err != nil {
		r.logf("version catalog for %s: %v", c.Name, err)
		return "", false
	}

	var candidates []string
	for _, version := range catalog {
		if satisfiesAll(r.matcher, version, c.Specs) {
			candidates = append(candidates, version)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	minSpec := c.Specs[0]
	for _, s := range c.Specs[1:] {
		if s < minSpec {
			minSpec = s
		}
	}
	return r.matcher.MaxSatisfying(candidates, "^"+strings.TrimLeft(minSpec, "^"))
}

func satisfiesAll(m semver.Matcher, version string, specs []string) bool {
	for _, spec := range specs {
		if !m.Satisfies(version, spec) {
			return false
		}
	}
	return true
}

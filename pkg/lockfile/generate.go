package lockfile

import (
	"context"
	"sort"
	"strings"

	"github.com/pakt-pm/pakt/pkg/errors"
	"github.com/pakt-pm/pakt/pkg/manifest"
	"github.com/pakt-pm/pakt/pkg/resolve"
	"github.com/pakt-pm/pakt/pkg/semver"
)

// Generator produces a lockfile from a manifest's dependencies.
type Generator struct {
	src     resolve.Source
	matcher semver.Matcher

	// Logger receives skip notices for packages that fail to resolve
	// during the walk. Optional.
	Logger func(string, ...any)
}

// NewGenerator creates a Generator over the given registry source.
func NewGenerator(src resolve.Source, matcher semver.Matcher) *Generator {
	return &Generator{src: src, matcher: matcher}
}

func (g *Generator) logf(format string, args ...any) {
	if g.Logger != nil {
		g.Logger(format, args...)
	}
}

// Generate re-validates the dependency tree and, if it is conflict-free
// (or fully resolvable), walks it into a lockfile. Conflicted names use
// the resolver's concrete version everywhere they appear.
//
// Unresolvable conflicts abort generation. Individual fetch failures
// during the walk are logged and skipped so one broken package does not
// lose the rest of the tree.
func (g *Generator) Generate(ctx context.Context, m *manifest.Manifest) (*File, error) {
	engine := resolve.NewEngine(g.src, g.matcher)
	engine.Logger = g.Logger

	result, err := engine.CheckAndResolve(ctx, m.Dependencies.Entries())
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, errors.New(errors.ErrCodeUnresolvedConflicts,
			"cannot generate lockfile: %s", strings.Join(result.Messages, "; "))
	}

	file := New(m.Name)
	for _, d := range m.Dependencies.Entries() {
		g.walk(ctx, file, "", d.Name, d.Spec, nil, result.Resolved)
	}
	return file, nil
}

// walk records one tree position and descends into its dependencies. Each
// visit fetches metadata fresh, so the same name can pin different versions
// at different tree positions. ancestors holds the names on the path from
// the root to here; a name already on its own path is a cycle and is
// skipped, while duplicates across sibling subtrees are kept.
func (g *Generator) walk(ctx context.Context, file *File, parent, name, spec string, ancestors []string, overrides map[string]string) {
	for _, a := range ancestors {
		if a == name {
			return
		}
	}

	if v, ok := overrides[name]; ok {
		spec = v
	}

	meta, err := g.src.FetchMetadata(ctx, name, spec)
	if err != nil {
		g.logf("skipping %s@%s: %v", name, spec, err)
		return
	}

	path := parent + "packages/" + name
	file.Packages[path] = Entry{
		Version:      meta.Version,
		Resolved:     meta.Tarball,
		Integrity:    meta.Integrity,
		Dependencies: dependenciesOf(meta.Dependencies),
	}

	chain := make([]string, 0, len(ancestors)+1)
	chain = append(chain, ancestors...)
	chain = append(chain, name)
	for _, depName := range sortedKeys(meta.Dependencies) {
		g.walk(ctx, file, path+"/", depName, meta.Dependencies[depName], chain, overrides)
	}
}

func dependenciesOf(deps map[string]string) map[string]string {
	if len(deps) == 0 {
		return nil
	}
	out := make(map[string]string, len(deps))
	for name, spec := range deps {
		out[name] = spec
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

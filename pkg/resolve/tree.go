// Package resolve implements the dependency resolution engine: transitive
// tree expansion, conflict detection, and compatible-version resolution.
//
// The registry and version matcher are injected interfaces so the whole
// engine runs against deterministic fakes in tests.
package resolve

import (
	"context"
	"sort"

	"github.com/pakt-pm/pakt/pkg/manifest"
	"github.com/pakt-pm/pakt/pkg/registry"
)

// MetadataSource resolves a name and specifier to concrete package metadata.
type MetadataSource interface {
	FetchMetadata(ctx context.Context, name, spec string) (*registry.Metadata, error)
}

// CatalogSource lists every published version of a package.
type CatalogSource interface {
	FetchVersionCatalog(ctx context.Context, name string) ([]string, error)
}

// Source is the registry surface the engine needs.
type Source interface {
	MetadataSource
	CatalogSource
}

// Tree maps each package name to the distinct version specifiers observed
// for it anywhere in the transitive graph. Both the names and each name's
// specifiers keep first-seen order, which makes conflict reports
// deterministic.
type Tree struct {
	names []string
	specs map[string][]string
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{specs: make(map[string][]string)}
}

// add records spec for name, ignoring exact duplicates.
func (t *Tree) add(name, spec string) {
	existing, seen := t.specs[name]
	if !seen {
		t.names = append(t.names, name)
	}
	for _, s := range existing {
		if s == spec {
			return
		}
	}
	t.specs[name] = append(existing, spec)
}

// Names returns the package names in first-seen order.
func (t *Tree) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Specs returns the distinct specifiers recorded for name, in first-seen order.
func (t *Tree) Specs(name string) []string {
	specs := t.specs[name]
	out := make([]string, len(specs))
	copy(out, specs)
	return out
}

// Len returns the number of distinct package names in the tree.
func (t *Tree) Len() int { return len(t.names) }

// BuildTree expands the manifest dependencies into the full transitive
// tree. It walks depth-first with an explicit stack and a traversal-wide
// visited set keyed by package name: every specifier encountered for a name
// is recorded, but each name's own dependencies are expanded only once (on
// first visit, using the specifier that triggered it). This bounds the walk
// to one metadata fetch per distinct name and terminates on cycles.
//
// Any metadata fetch failure aborts the whole build; partial trees are
// never returned.
func BuildTree(ctx context.Context, src MetadataSource, deps []manifest.Dependency) (*Tree, error) {
	tree := NewTree()
	visited := make(map[string]bool)

	// Stack of pending edges. Top-level entries are pushed in reverse so
	// the first manifest entry is expanded first.
	stack := make([]manifest.Dependency, 0, len(deps))
	for i := len(deps) - 1; i >= 0; i-- {
		stack = append(stack, deps[i])
	}

	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		tree.add(d.Name, d.Spec)
		if visited[d.Name] {
			continue
		}
		visited[d.Name] = true

		meta, err := src.FetchMetadata(ctx, d.Name, d.Spec)
		if err != nil {
			return nil, err
		}

		names := make([]string, 0, len(meta.Dependencies))
		for name := range meta.Dependencies {
			names = append(names, name)
		}
		sort.Strings(names)
		for i := len(names) - 1; i >= 0; i-- {
			stack = append(stack, manifest.Dependency{Name: names[i], Spec: meta.Dependencies[names[i]]})
		}
	}

	return tree, nil
}

// Package install turns a resolved dependency tree into a download plan
// and executes it with a bounded worker pool.
package install

import (
	"context"
	"sort"

	"github.com/pakt-pm/pakt/pkg/manifest"
	"github.com/pakt-pm/pakt/pkg/resolve"
)

// Item is one tarball to download.
type Item struct {
	Name      string
	Version   string
	Tarball   string
	Integrity string
}

// Key identifies the item for deduplication.
func (i Item) Key() string { return i.Name + "@" + i.Version }

// Planner walks the dependency tree and collects the distinct package
// versions that need downloading.
type Planner struct {
	src resolve.MetadataSource

	// Logger receives skip notices for packages that fail to resolve.
	// Optional.
	Logger func(string, ...any)
}

// NewPlanner creates a Planner over the given registry source.
func NewPlanner(src resolve.MetadataSource) *Planner {
	return &Planner{src: src}
}

func (p *Planner) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger(format, args...)
	}
}

// Plan expands deps transitively and returns one Item per distinct
// name@version pair, in first-seen order. The same name at two different
// versions yields two items; the same concrete version reached through
// several paths yields one, and its subtree is descended only on the first
// encounter, so shared (diamond) subtrees cost one walk, not one per path.
// Packages that fail to resolve are logged and skipped along with their
// subtrees.
func (p *Planner) Plan(ctx context.Context, deps []manifest.Dependency) ([]Item, error) {
	var items []Item
	seen := make(map[string]bool)

	var walk func(name, spec string, ancestors []string) error
	walk = func(name, spec string, ancestors []string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, a := range ancestors {
			if a == name {
				return nil
			}
		}

		meta, err := p.src.FetchMetadata(ctx, name, spec)
		if err != nil {
			p.logf("skipping %s@%s: %v", name, spec, err)
			return nil
		}

		item := Item{Name: meta.Name, Version: meta.Version, Tarball: meta.Tarball, Integrity: meta.Integrity}
		if seen[item.Key()] {
			return nil
		}
		seen[item.Key()] = true
		items = append(items, item)

		chain := make([]string, 0, len(ancestors)+1)
		chain = append(chain, ancestors...)
		chain = append(chain, name)

		names := make([]string, 0, len(meta.Dependencies))
		for depName := range meta.Dependencies {
			names = append(names, depName)
		}
		sort.Strings(names)
		for _, depName := range names {
			if err := walk(depName, meta.Dependencies[depName], chain); err != nil {
				return err
			}
		}
		return nil
	}

	for _, d := range deps {
		if err := walk(d.Name, d.Spec, nil); err != nil {
			return nil, err
		}
	}
	return items, nil
}

package resolve

import (
	"context"

	"github.com/pakt-pm/pakt/pkg/manifest"
	"github.com/pakt-pm/pakt/pkg/semver"
)

// NoConflictsMessage is reported when the tree contains no conflicts.
const NoConflictsMessage = "No conflicts detected."

// Engine ties tree building, conflict detection, and resolution together.
type Engine struct {
	src     Source
	matcher semver.Matcher

	// Logger receives progress and recoverable-failure messages.
	// Optional; defaults to a no-op.
	Logger func(string, ...any)
}

// NewEngine creates an Engine over the given registry source and matcher.
func NewEngine(src Source, matcher semver.Matcher) *Engine {
	return &Engine{src: src, matcher: matcher}
}

func (e *Engine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger(format, args...)
	}
}

// CheckAndResolve builds the transitive tree for deps, detects conflicts,
// and attempts to resolve them.
//
// With no conflicts it short-circuits to an OK result carrying the manifest
// specifiers unchanged. With conflicts it returns the resolver's result
// directly: a partial resolution surfaces as OK=false together with
// whatever subset was resolved, and callers decide whether to proceed.
//
// Tree-building failures are fatal and returned as errors; resolution
// failures are recovered into the Result.
func (e *Engine) CheckAndResolve(ctx context.Context, deps []manifest.Dependency) (Result, error) {
	tree, err := BuildTree(ctx, e.src, deps)
	if err != nil {
		return Result{}, err
	}

	conflicts := Detect(tree)
	if len(conflicts) == 0 {
		resolved := make(map[string]string, len(deps))
		for _, d := range deps {
			resolved[d.Name] = d.Spec
		}
		return Result{OK: true, Messages: []string{NoConflictsMessage}, Resolved: resolved}, nil
	}

	e.logf("detected %d conflicts", len(conflicts))
	return NewResolver(e.src, e.matcher, e.Logger).Resolve(ctx, conflicts), nil
}

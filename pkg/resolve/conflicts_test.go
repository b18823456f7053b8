package resolve

import (
	"context"
	"reflect"
	"testing"

	"github.com/pakt-pm/pakt/pkg/semver"
)

func treeOf(entries map[string][]string, order []string) *Tree {
	t := NewTree()
	for _, name := range order {
		for _, spec := range entries[name] {
			t.add(name, spec)
		}
	}
	return t
}

func TestDetectNoSharedNames(t *testing.T) {
	tree := treeOf(map[string][]string{
		"a": {"^1.0.0"},
		"b": {"~2.0.0"},
		"c": {"3.1.4"},
	}, []string{"a", "b", "c"})

	if got := Detect(tree); len(got) != 0 {
		t.Errorf("Detect() = %v, want empty", got)
	}
}

func TestDetectSingleSpecifierNeverConflicts(t *testing.T) {
	tree := treeOf(map[string][]string{
		"solo":     {"^1.0.0"},
		"disputed": {"^1.0.0", "^2.0.0"},
	}, []string{"solo", "disputed"})

	conflicts := Detect(tree)
	if len(conflicts) != 1 {
		t.Fatalf("Detect() returned %d conflicts, want 1", len(conflicts))
	}
	if conflicts[0].Name != "disputed" {
		t.Errorf("conflict name = %q, want %q", conflicts[0].Name, "disputed")
	}
}

func TestDetectOrderFollowsTreeInsertion(t *testing.T) {
	tree := treeOf(map[string][]string{
		"zebra": {"^1.0.0", "^2.0.0"},
		"alpha": {"^1.0.0", "^3.0.0"},
	}, []string{"zebra", "alpha"})

	conflicts := Detect(tree)
	if len(conflicts) != 2 || conflicts[0].Name != "zebra" || conflicts[1].Name != "alpha" {
		t.Errorf("Detect() order = %v, want insertion order [zebra alpha]", conflicts)
	}
}

func TestConflictString(t *testing.T) {
	c := Conflict{Name: "left-pad", Specs: []string{"^1.0.0", "^1.2.0"}}
	want := "Package 'left-pad' has conflicting version requirements: ^1.0.0, ^1.2.0"
	if got := c.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestResolveOverlappingRanges(t *testing.T) {
	src := newFakeSource(map[string]fakePackage{
		"shared": {versions: []string{"1.0.0", "1.1.0", "1.2.0"}},
	})
	r := NewResolver(src, semver.New(), nil)

	result := r.Resolve(context.Background(), []Conflict{
		{Name: "shared", Specs: []string{"^1.0.0", "^1.2.0"}},
	})

	if !result.OK {
		t.Fatalf("Resolve() not OK: %v", result.Messages)
	}
	if got := result.Resolved["shared"]; got != "1.2.0" {
		t.Errorf("Resolved[shared] = %q, want %q", got, "1.2.0")
	}
	want := []string{"Resolved conflict for 'shared': using version 1.2.0"}
	if !reflect.DeepEqual(result.Messages, want) {
		t.Errorf("Messages = %v, want %v", result.Messages, want)
	}
}

func TestResolveDisjointRanges(t *testing.T) {
	src := newFakeSource(map[string]fakePackage{
		"shared": {versions: []string{"1.0.0", "1.1.0", "2.0.0"}},
	})
	r := NewResolver(src, semver.New(), nil)

	result := r.Resolve(context.Background(), []Conflict{
		{Name: "shared", Specs: []string{"^1.0.0", "^2.0.0"}},
	})

	if result.OK {
		t.Error("Resolve() OK for disjoint ranges, want unresolved")
	}
	if len(result.Resolved) != 0 {
		t.Errorf("Resolved = %v, want empty", result.Resolved)
	}
	want := []string{"Package 'shared' has conflicting version requirements: ^1.0.0, ^2.0.0"}
	if !reflect.DeepEqual(result.Messages, want) {
		t.Errorf("Messages = %v, want %v", result.Messages, want)
	}
}

func TestResolveGroupsResolvedBeforeUnresolved(t *testing.T) {
	src := newFakeSource(map[string]fakePackage{
		"bad-one":  {versions: []string{"1.0.0", "2.0.0"}},
		"good-one": {versions: []string{"1.0.0", "1.5.0"}},
		"bad-two":  {versions: []string{"3.0.0", "4.0.0"}},
	})
	r := NewResolver(src, semver.New(), nil)

	result := r.Resolve(context.Background(), []Conflict{
		{Name: "bad-one", Specs: []string{"^1.0.0", "^2.0.0"}},
		{Name: "good-one", Specs: []string{"^1.0.0", "^1.5.0"}},
		{Name: "bad-two", Specs: []string{"^3.0.0", "^4.0.0"}},
	})

	if result.OK {
		t.Error("Resolve() OK with unresolved conflicts remaining")
	}
	want := []string{
		"Resolved conflict for 'good-one': using version 1.5.0",
		"Package 'bad-one' has conflicting version requirements: ^1.0.0, ^2.0.0",
		"Package 'bad-two' has conflicting version requirements: ^3.0.0, ^4.0.0",
	}
	if !reflect.DeepEqual(result.Messages, want) {
		t.Errorf("Messages = %v, want %v", result.Messages, want)
	}
	if got := result.Resolved["good-one"]; got != "1.5.0" {
		t.Errorf("Resolved[good-one] = %q, want partial resolution kept", got)
	}
}

func TestResolveUnknownPackageBecomesUnresolved(t *testing.T) {
	r := NewResolver(newFakeSource(nil), semver.New(), nil)

	result := r.Resolve(context.Background(), []Conflict{
		{Name: "ghost", Specs: []string{"^1.0.0", "^2.0.0"}},
	})
	if result.OK {
		t.Error("Resolve() OK when the catalog fetch failed")
	}
	if len(result.Messages) != 1 {
		t.Fatalf("Messages = %v, want one unresolved entry", result.Messages)
	}
}

func TestResolveTieBreakUsesSmallestSpecifier(t *testing.T) {
	// Both candidates satisfy both ranges; the final pick re-filters with
	// the lexicographically smallest specifier, so the maximum of the
	// candidate set wins.
	src := newFakeSource(map[string]fakePackage{
		"shared": {versions: []string{"1.0.0", "1.2.0", "1.5.0"}},
	})
	r := NewResolver(src, semver.New(), nil)

	result := r.Resolve(context.Background(), []Conflict{
		{Name: "shared", Specs: []string{"^1.2.0", "^1.0.0"}},
	})
	if !result.OK {
		t.Fatalf("Resolve() not OK: %v", result.Messages)
	}
	if got := result.Resolved["shared"]; got != "1.5.0" {
		t.Errorf("Resolved[shared] = %q, want %q", got, "1.5.0")
	}
}

// Package render draws the dependency tree as a Graphviz node-link
// diagram. The lockfile is the input: its packages/ paths already encode
// the parent/child edges and the pinned versions label the nodes.
package render

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/pakt-pm/pakt/pkg/lockfile"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes the pinned version in node labels. When false,
	// only the package name is shown.
	Detailed bool
}

type edge struct {
	from, to string
}

// ToDOT converts a lockfile into Graphviz DOT. The project itself is the
// root node; each distinct name@version in the tree becomes one node, so a
// package reached through several paths collapses into a single node with
// multiple incoming edges.
func ToDOT(f *lockfile.File, opts Options) string {
	root := f.Name
	if root == "" {
		root = "project"
	}

	nodes := map[string]string{root: root} // id → label
	edgeSet := map[edge]bool{}

	for path, entry := range f.Packages {
		chain := splitPath(path)
		if len(chain) == 0 {
			continue
		}

		id := chain[len(chain)-1] + "@" + entry.Version
		label := chain[len(chain)-1]
		if opts.Detailed {
			label = fmt.Sprintf("%s\n%s", chain[len(chain)-1], entry.Version)
		}
		nodes[id] = label

		parent := root
		if len(chain) > 1 {
			parentPath := "packages/" + strings.Join(chain[:len(chain)-1], "/packages/")
			if pe, ok := f.Packages[parentPath]; ok {
				parent = chain[len(chain)-2] + "@" + pe.Version
			}
		}
		edgeSet[edge{from: parent, to: id}] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range sortedNodeIDs(nodes, root) {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", id, nodes[id])
	}

	buf.WriteString("\n")
	for _, e := range sortedEdges(edgeSet) {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.from, e.to)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// splitPath turns "packages/a/packages/b" into ["a", "b"].
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "packages/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/packages/")
}

func sortedNodeIDs(nodes map[string]string, root string) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		if id != root {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return append([]string{root}, ids...)
}

func sortedEdges(set map[edge]bool) []edge {
	edges := make([]edge, 0, len(set))
	for e := range set {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	return edges
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

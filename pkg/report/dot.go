package report

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/depresolve/pkg/deps"
)

// DOTOptions configures DOT output.
type DOTOptions struct {
	// DirectOnly drops transitive dependencies not reachable from a direct
	// one through child links.
	DirectOnly bool
	// Versions includes versions in node labels.
	Versions bool
}

// DOT renders a subproject's dependencies as a Graphviz digraph rooted at
// the subproject directory. Direct dependencies hang off the root; child
// links become edges. Dependencies with unknown transitivity hang off the
// root with dashed edges.
func DOT(sp deps.ResolvedSubproject, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	root := sp.RootDir
	fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=lightblue];\n", root, root+"\n"+string(sp.Ecosystem))

	byName := make(map[string]deps.FoundDependency)
	for _, d := range sp.Dependencies {
		if _, ok := byName[d.Package]; !ok {
			byName[d.Package] = d
		}
	}
	keep := reachable(sp.Dependencies, byName, opts.DirectOnly)

	var nodes, edges []string
	seen := make(map[string]bool)
	for _, d := range sp.Dependencies {
		id := nodeID(d.Package, d.Version)
		if !keep[d.Package] || seen[id] {
			continue
		}
		seen[id] = true
		nodes = append(nodes, fmt.Sprintf("  %q [%s];\n", id, nodeAttrs(d, opts.Versions)))
		switch d.Transitivity {
		case deps.Direct:
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", root, id))
		case deps.Unknown:
			edges = append(edges, fmt.Sprintf("  %q -> %q [style=dashed];\n", root, id))
		}
		for _, c := range d.Children {
			if !keep[c.Package] {
				continue
			}
			version := c.Version
			if version == "" {
				version = byName[c.Package].Version
			}
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", id, nodeID(c.Package, version)))
		}
	}
	slices.Sort(edges)
	edges = slices.Compact(edges)

	for _, n := range nodes {
		buf.WriteString(n)
	}
	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(pkg, version string) string {
	if version == "" {
		return pkg
	}
	return pkg + "@" + version
}

func nodeAttrs(d deps.FoundDependency, versions bool) string {
	label := d.Package
	if versions && d.Version != "" {
		label += "\n" + d.Version
	}
	attrs := fmt.Sprintf("label=%q", label)
	if d.Transitivity == deps.Transitive {
		attrs += ", fillcolor=whitesmoke, fontcolor=dimgray"
	}
	return attrs
}

// reachable returns the package names to draw. Without directOnly every
// package is kept.
func reachable(found []deps.FoundDependency, byName map[string]deps.FoundDependency, directOnly bool) map[string]bool {
	keep := make(map[string]bool)
	var stack []string
	for _, d := range found {
		if !directOnly || d.Transitivity != deps.Transitive {
			stack = append(stack, d.Package)
		}
	}
	if !directOnly {
		for _, name := range stack {
			keep[name] = true
		}
		return keep
	}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if keep[name] {
			continue
		}
		keep[name] = true
		for _, c := range byName[name].Children {
			stack = append(stack, c.Package)
		}
	}
	return keep
}

// SVG renders DOT source with Graphviz.
func SVG(ctx context.Context, dot string) ([]byte, error) {
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
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one
// sized by its viewBox so browsers scale the drawing.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

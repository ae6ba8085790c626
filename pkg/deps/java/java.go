// Package java parses JVM dependency listings: the text output of
// `mvn dependency:tree` and Gradle's dependency lock file.
package java

import (
	"io/fs"
	"strings"

	"github.com/matzehuels/depresolve/pkg/deps"
)

type treeNode struct {
	dep   *deps.FoundDependency
	depth int
}

// ParseMavenDepTree parses the output of
// `mvn dependency:tree -DoutputFile=maven_dep_tree.txt`. Depth-one entries
// are direct; each entry's children are the entries nested under it.
func ParseMavenDepTree(fsys fs.FS, lockfilePath, _ string) ([]deps.FoundDependency, []deps.ParserError) {
	data, perr := deps.ReadFile(fsys, lockfilePath)
	if perr != nil {
		return nil, []deps.ParserError{*perr}
	}

	var (
		found []*deps.FoundDependency
		errs  []deps.ParserError
		stack []treeNode
	)
	for lineNo, text := range deps.Lines(data) {
		line := strings.TrimRight(text, " ")
		if line == "" {
			continue
		}
		depth, coord := splitTreeLine(line)
		if depth == 0 {
			// Project coordinate; a multi-module listing starts a new tree.
			if strings.Count(coord, ":") < 3 {
				errs = append(errs, deps.ParserError{Path: lockfilePath, Line: lineNo, Text: line, Reason: "unrecognized Maven coordinate"})
			}
			stack = stack[:0]
			continue
		}
		name, version, ok := parseCoordinate(coord)
		if !ok {
			errs = append(errs, deps.ParserError{Path: lockfilePath, Line: lineNo, Text: line, Reason: "unrecognized Maven coordinate"})
			continue
		}

		dep := &deps.FoundDependency{
			Package:      name,
			Version:      version,
			Ecosystem:    deps.EcosystemMaven,
			Transitivity: deps.Transitive,
			LockfilePath: lockfilePath,
			Line:         lineNo,
		}
		if depth == 1 {
			dep.Transitivity = deps.Direct
		}

		for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1].dep
			parent.Children = append(parent.Children, deps.DependencyChild{Package: name, Version: version})
		}
		stack = append(stack, treeNode{dep: dep, depth: depth})
		found = append(found, dep)
	}

	out := make([]deps.FoundDependency, len(found))
	for i, d := range found {
		out[i] = *d
	}
	return out, errs
}

// splitTreeLine strips the "+- ", "|  " and "\- " tree drawing and returns
// the nesting depth with the remaining coordinate.
func splitTreeLine(line string) (int, string) {
	i := 0
	for i < len(line) && strings.ContainsRune("|+-\\ ", rune(line[i])) {
		i++
	}
	return (i + 2) / 3, line[i:]
}

// parseCoordinate reads group:artifact:type[:classifier]:version:scope,
// ignoring trailing annotations such as "(optional)".
func parseCoordinate(coord string) (name, version string, ok bool) {
	coord, _, _ = strings.Cut(coord, " ")
	parts := strings.Split(coord, ":")
	if len(parts) < 5 || len(parts) > 6 {
		return "", "", false
	}
	return parts[0] + ":" + parts[1], parts[len(parts)-2], true
}

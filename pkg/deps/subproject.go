package deps

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Subproject is a unit of dependency declaration: a root directory and the
// source its dependencies are read from.
type Subproject struct {
	RootDir string
	Source  DependencySource
}

// ID returns a stable identifier derived from the source's display paths.
func (s Subproject) ID() string {
	sum := sha256.Sum256([]byte(strings.Join(s.Source.DisplayPaths(), ",")))
	return hex.EncodeToString(sum[:])
}

// ResolutionMethod records how a subproject's dependencies were obtained.
type ResolutionMethod string

const (
	MethodLockfileParsing ResolutionMethod = "lockfile_parsing"
	MethodDynamic         ResolutionMethod = "dynamic"
)

// ResolvedStats summarizes a resolved subproject.
type ResolvedStats struct {
	Method          ResolutionMethod `json:"resolution_method"`
	DependencyCount int              `json:"dependency_count"`
	Ecosystem       Ecosystem        `json:"ecosystem"`
}

// SubprojectStats is the reporting form of a subproject.
type SubprojectStats struct {
	ID       string         `json:"subproject_id"`
	Sources  []SourceFile   `json:"dependency_sources"`
	Resolved *ResolvedStats `json:"resolved_stats,omitempty"`
}

// Stats returns the subproject's stats without resolution details.
func (s Subproject) Stats() SubprojectStats {
	return SubprojectStats{ID: s.ID(), Sources: s.Source.Stats()}
}

// UnresolvedSubproject is a subproject no ecosystem could be determined for.
type UnresolvedSubproject struct {
	Subproject
	Errors []DependencyError
}

// ResolvedSubproject is a subproject with its dependencies.
type ResolvedSubproject struct {
	Subproject
	Ecosystem    Ecosystem
	Dependencies []FoundDependency
	Method       ResolutionMethod
	Errors       []DependencyError
}

// Stats returns the subproject's stats including resolution details.
func (r ResolvedSubproject) Stats() SubprojectStats {
	st := r.Subproject.Stats()
	st.Resolved = &ResolvedStats{
		Method:          r.Method,
		DependencyCount: len(r.Dependencies),
		Ecosystem:       r.Ecosystem,
	}
	return st
}

// DependenciesBySource groups dependencies by the lockfile they came from.
// Dependencies without a lockfile path are returned separately.
func (r ResolvedSubproject) DependenciesBySource() (map[string][]FoundDependency, []FoundDependency) {
	bySource := make(map[string][]FoundDependency)
	var unknown []FoundDependency
	for _, d := range r.Dependencies {
		if d.LockfilePath == "" {
			unknown = append(unknown, d)
			continue
		}
		bySource[d.LockfilePath] = append(bySource[d.LockfilePath], d)
	}
	return bySource, unknown
}

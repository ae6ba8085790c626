// Package report turns a scan result into output documents: a JSON report
// for downstream tooling and Graphviz renderings of a subproject's
// dependency tree.
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/depresolve/pkg/deps"
	"github.com/matzehuels/depresolve/pkg/resolve"
)

// Report is the JSON document written by `depresolve scan --format json`.
type Report struct {
	ScanID     string            `json:"scan_id"`
	Root       string            `json:"root"`
	StartedAt  time.Time         `json:"started_at"`
	Ecosystems []EcosystemReport `json:"ecosystems"`
	Unresolved []Unresolved      `json:"unresolved"`
	// Targets are the files read to produce dependency facts.
	Targets []string `json:"dependency_targets"`
}

// EcosystemReport groups the resolved subprojects of one ecosystem.
type EcosystemReport struct {
	Ecosystem   deps.Ecosystem `json:"ecosystem"`
	Subprojects []Resolved     `json:"subprojects"`
}

// Resolved is one resolved subproject.
type Resolved struct {
	deps.SubprojectStats
	RootDir      string                 `json:"root_dir"`
	Dependencies []deps.FoundDependency `json:"dependencies"`
	Errors       []deps.ErrorRecord     `json:"errors"`
}

// Unresolved is one subproject without an ecosystem.
type Unresolved struct {
	deps.SubprojectStats
	RootDir string             `json:"root_dir"`
	Errors  []deps.ErrorRecord `json:"errors"`
}

// Build assembles a report for a scan of root that started at started.
func Build(root string, started time.Time, res resolve.Result) Report {
	r := Report{
		ScanID:     uuid.NewString(),
		Root:       root,
		StartedAt:  started.UTC(),
		Ecosystems: []EcosystemReport{},
		Unresolved: []Unresolved{},
		Targets:    res.Targets,
	}
	if r.Targets == nil {
		r.Targets = []string{}
	}
	for _, eco := range res.Ecosystems() {
		er := EcosystemReport{Ecosystem: eco}
		for _, sp := range res.Resolved[eco] {
			found := sp.Dependencies
			if found == nil {
				found = []deps.FoundDependency{}
			}
			er.Subprojects = append(er.Subprojects, Resolved{
				SubprojectStats: sp.Stats(),
				RootDir:         sp.RootDir,
				Dependencies:    found,
				Errors:          deps.Records(sp.Errors),
			})
		}
		r.Ecosystems = append(r.Ecosystems, er)
	}
	for _, u := range res.Unresolved {
		r.Unresolved = append(r.Unresolved, Unresolved{
			SubprojectStats: u.Stats(),
			RootDir:         u.RootDir,
			Errors:          deps.Records(u.Errors),
		})
	}
	return r
}

// WriteJSON writes r as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Summary counts the contents of a report.
type Summary struct {
	Subprojects  int
	Unresolved   int
	Dependencies int
	Direct       int
	Errors       int
}

// Summarize counts r.
func (r Report) Summarize() Summary {
	s := Summary{Unresolved: len(r.Unresolved)}
	for _, er := range r.Ecosystems {
		for _, sp := range er.Subprojects {
			s.Subprojects++
			s.Dependencies += len(sp.Dependencies)
			s.Errors += len(sp.Errors)
			for _, d := range sp.Dependencies {
				if d.Transitivity == deps.Direct {
					s.Direct++
				}
			}
		}
	}
	for _, u := range r.Unresolved {
		s.Errors += len(u.Errors)
	}
	return s
}

package deps

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Manifest references a manifest file by kind and repository-relative path.
type Manifest struct {
	Kind ManifestKind `json:"kind"`
	Path string       `json:"path"`
}

// Lockfile references a lockfile by kind and repository-relative path.
type Lockfile struct {
	Kind LockfileKind `json:"kind"`
	Path string       `json:"path"`
}

// SourceFile is the flattened stats form of a manifest or lockfile reference.
type SourceFile struct {
	Kind    string `json:"kind"` // "manifest" or "lockfile"
	SubKind string `json:"sub_kind"`
	Path    string `json:"path"`
}

func (m Manifest) stats() SourceFile {
	return SourceFile{Kind: "manifest", SubKind: string(m.Kind), Path: m.Path}
}

func (l Lockfile) stats() SourceFile {
	return SourceFile{Kind: "lockfile", SubKind: string(l.Kind), Path: l.Path}
}

// DependencySource describes where a subproject's dependencies come from.
// Implementations are ManifestOnly, LockfileOnly, ManifestLockfile and
// MultiLockfile; the set is sealed.
type DependencySource interface {
	// DisplayPaths returns the paths that identify this source to users.
	DisplayPaths() []string
	// Stats returns the source files in reporting order.
	Stats() []SourceFile
	// Accept calls the visitor method matching the concrete variant.
	Accept(v SourceVisitor)

	json.Marshaler
	sealed()
}

// LockfileSource is a DependencySource backed by exactly one lockfile.
// Only these variants may appear inside a MultiLockfile.
type LockfileSource interface {
	DependencySource
	LockfileRef() Lockfile
}

// SourceVisitor handles each DependencySource variant.
type SourceVisitor interface {
	VisitManifestOnly(ManifestOnly)
	VisitLockfileOnly(LockfileOnly)
	VisitManifestLockfile(ManifestLockfile)
	VisitMultiLockfile(MultiLockfile)
}

// ManifestOnly is a manifest with no lockfile.
type ManifestOnly struct {
	Manifest Manifest
}

func (s ManifestOnly) DisplayPaths() []string { return []string{s.Manifest.Path} }
func (s ManifestOnly) Stats() []SourceFile    { return []SourceFile{s.Manifest.stats()} }
func (s ManifestOnly) Accept(v SourceVisitor) { v.VisitManifestOnly(s) }
func (s ManifestOnly) sealed()                {}
func (s ManifestOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSource{Type: typeManifestOnly, Manifest: &s.Manifest})
}

// LockfileOnly is a lockfile with no sibling manifest.
type LockfileOnly struct {
	Lockfile Lockfile
}

func (s LockfileOnly) DisplayPaths() []string { return []string{s.Lockfile.Path} }
func (s LockfileOnly) Stats() []SourceFile    { return []SourceFile{s.Lockfile.stats()} }
func (s LockfileOnly) Accept(v SourceVisitor) { v.VisitLockfileOnly(s) }
func (s LockfileOnly) LockfileRef() Lockfile  { return s.Lockfile }
func (s LockfileOnly) sealed()                {}
func (s LockfileOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSource{Type: typeLockfileOnly, Lockfile: &s.Lockfile})
}

// ManifestLockfile pairs a manifest with its lockfile.
type ManifestLockfile struct {
	Manifest Manifest
	Lockfile Lockfile
}

func (s ManifestLockfile) DisplayPaths() []string { return []string{s.Lockfile.Path} }
func (s ManifestLockfile) Accept(v SourceVisitor) { v.VisitManifestLockfile(s) }
func (s ManifestLockfile) LockfileRef() Lockfile  { return s.Lockfile }
func (s ManifestLockfile) sealed()                {}

// Stats lists the lockfile before the manifest.
func (s ManifestLockfile) Stats() []SourceFile {
	return []SourceFile{s.Lockfile.stats(), s.Manifest.stats()}
}

func (s ManifestLockfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSource{Type: typeManifestLockfile, Manifest: &s.Manifest, Lockfile: &s.Lockfile})
}

// MultiLockfile groups several lockfile sources of one ecosystem that share
// a subproject root. Build it with NewMultiLockfile.
type MultiLockfile struct {
	sources   []LockfileSource
	ecosystem Ecosystem
}

// ErrEmptyMultiLockfile is returned when a MultiLockfile has no children.
var ErrEmptyMultiLockfile = errors.New("multi-lockfile source has no children")

// NewMultiLockfile validates that sources is non-empty and that every child
// lockfile belongs to the same ecosystem.
func NewMultiLockfile(sources ...LockfileSource) (MultiLockfile, error) {
	if len(sources) == 0 {
		return MultiLockfile{}, ErrEmptyMultiLockfile
	}
	eco := sources[0].LockfileRef().Kind.Ecosystem()
	for _, s := range sources[1:] {
		if got := s.LockfileRef().Kind.Ecosystem(); got != eco {
			return MultiLockfile{}, fmt.Errorf("multi-lockfile mixes ecosystems %s and %s (%s)",
				eco, got, s.LockfileRef().Path)
		}
	}
	return MultiLockfile{sources: sources, ecosystem: eco}, nil
}

// Sources returns the children in resolution order.
func (s MultiLockfile) Sources() []LockfileSource {
	return append([]LockfileSource(nil), s.sources...)
}

// Ecosystem returns the ecosystem shared by every child.
func (s MultiLockfile) Ecosystem() Ecosystem { return s.ecosystem }

func (s MultiLockfile) Accept(v SourceVisitor) { v.VisitMultiLockfile(s) }
func (s MultiLockfile) sealed()                {}

func (s MultiLockfile) DisplayPaths() []string {
	var paths []string
	for _, c := range s.sources {
		paths = append(paths, c.DisplayPaths()...)
	}
	return paths
}

func (s MultiLockfile) Stats() []SourceFile {
	var files []SourceFile
	for _, c := range s.sources {
		files = append(files, c.Stats()...)
	}
	return files
}

func (s MultiLockfile) MarshalJSON() ([]byte, error) {
	children := make([]json.RawMessage, 0, len(s.sources))
	for _, c := range s.sources {
		data, err := c.MarshalJSON()
		if err != nil {
			return nil, err
		}
		children = append(children, data)
	}
	return json.Marshal(wireSource{Type: typeMultiLockfile, Sources: children})
}

// ReferencedPaths returns every distinct path a source reads, in stats order.
func ReferencedPaths(src DependencySource) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, f := range src.Stats() {
		if !seen[f.Path] {
			seen[f.Path] = true
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// ManifestOf returns the manifest of a source, if it has exactly one.
func ManifestOf(src DependencySource) (Manifest, bool) {
	switch s := src.(type) {
	case ManifestOnly:
		return s.Manifest, true
	case ManifestLockfile:
		return s.Manifest, true
	}
	return Manifest{}, false
}

const (
	typeManifestOnly     = "manifest_only"
	typeLockfileOnly     = "lockfile_only"
	typeManifestLockfile = "manifest_lockfile"
	typeMultiLockfile    = "multi_lockfile"
)

type wireSource struct {
	Type     string            `json:"type"`
	Manifest *Manifest         `json:"manifest,omitempty"`
	Lockfile *Lockfile         `json:"lockfile,omitempty"`
	Sources  []json.RawMessage `json:"sources,omitempty"`
}

// DecodeSource parses the JSON wire form produced by a source's MarshalJSON.
func DecodeSource(data []byte) (DependencySource, error) {
	var w wireSource
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode dependency source: %w", err)
	}
	switch w.Type {
	case typeManifestOnly:
		m, err := w.manifest()
		if err != nil {
			return nil, err
		}
		return ManifestOnly{Manifest: m}, nil
	case typeLockfileOnly:
		l, err := w.lockfile()
		if err != nil {
			return nil, err
		}
		return LockfileOnly{Lockfile: l}, nil
	case typeManifestLockfile:
		m, err := w.manifest()
		if err != nil {
			return nil, err
		}
		l, err := w.lockfile()
		if err != nil {
			return nil, err
		}
		return ManifestLockfile{Manifest: m, Lockfile: l}, nil
	case typeMultiLockfile:
		children := make([]LockfileSource, 0, len(w.Sources))
		for _, raw := range w.Sources {
			child, err := DecodeSource(raw)
			if err != nil {
				return nil, err
			}
			ls, ok := child.(LockfileSource)
			if !ok {
				return nil, fmt.Errorf("decode dependency source: %T cannot be nested in a multi-lockfile", child)
			}
			children = append(children, ls)
		}
		multi, err := NewMultiLockfile(children...)
		if err != nil {
			return nil, fmt.Errorf("decode dependency source: %w", err)
		}
		return multi, nil
	}
	return nil, fmt.Errorf("decode dependency source: unknown type %q", w.Type)
}

func (w wireSource) manifest() (Manifest, error) {
	if w.Manifest == nil || !w.Manifest.Kind.Valid() {
		return Manifest{}, fmt.Errorf("decode dependency source: %s requires a valid manifest", w.Type)
	}
	return *w.Manifest, nil
}

func (w wireSource) lockfile() (Lockfile, error) {
	if w.Lockfile == nil || !w.Lockfile.Kind.Valid() {
		return Lockfile{}, fmt.Errorf("decode dependency source: %s requires a valid lockfile", w.Type)
	}
	return *w.Lockfile, nil
}

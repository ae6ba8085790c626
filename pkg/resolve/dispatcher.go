// Package resolve turns discovered subprojects into resolved dependency
// sets. [Dispatcher] handles one dependency source, choosing between static
// lockfile parsing and dynamic resolution; [ResolveAll] runs discovery and
// dispatch for a whole scan.
package resolve

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depresolve/pkg/deps"
	"github.com/matzehuels/depresolve/pkg/observability"
	"github.com/matzehuels/depresolve/pkg/rpc"
)

// DynamicResolver computes dependencies for a source by running package
// manager tooling. *rpc.Client implements it.
type DynamicResolver interface {
	Resolve(ctx context.Context, src deps.DependencySource) rpc.Result
}

// Policy controls when dynamic resolution is used.
type Policy struct {
	// AllowDynamic permits dynamic resolution at all.
	AllowDynamic bool
	// PreferDynamicGraph tries dynamic resolution before the lockfile for
	// manifests in the dispatcher's GraphManifests.
	PreferDynamicGraph bool
}

// Outcome is the result of resolving one dependency source. A nil
// Ecosystem means the source could not be resolved.
type Outcome struct {
	Ecosystem    *deps.Ecosystem
	Dependencies []deps.FoundDependency
	Errors       []deps.DependencyError
	// Targets are the files read to produce Dependencies.
	Targets []string
	Method  deps.ResolutionMethod
}

// Resolved reports whether an ecosystem was determined.
func (o Outcome) Resolved() bool { return o.Ecosystem != nil }

// Dispatcher resolves dependency sources. The zero value parses nothing;
// use NewDispatcher for the built-in tables.
type Dispatcher struct {
	// FS is the repository that source paths are relative to.
	FS             fs.FS
	Parsers        map[deps.LockfileKind]deps.Parser
	GraphManifests map[deps.ManifestKind]bool
	// Dynamic may be nil, which disables dynamic resolution.
	Dynamic DynamicResolver
	Logger  *log.Logger
}

// NewDispatcher returns a dispatcher over fsys with the built-in parser and
// graph-manifest tables.
func NewDispatcher(fsys fs.FS, dynamic DynamicResolver, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		FS:             fsys,
		Parsers:        Parsers,
		GraphManifests: GraphManifests,
		Dynamic:        dynamic,
		Logger:         logger,
	}
}

// Resolve resolves src under policy. It never fails: problems are reported
// in Outcome.Errors, and an unresolvable source has a nil Ecosystem.
func (d *Dispatcher) Resolve(ctx context.Context, src deps.DependencySource, policy Policy) Outcome {
	v := &dispatch{ctx: ctx, d: d, policy: policy}
	src.Accept(v)
	return v.out
}

type dispatch struct {
	ctx    context.Context
	d      *Dispatcher
	policy Policy
	out    Outcome
}

func (v *dispatch) VisitLockfileOnly(s deps.LockfileOnly) {
	v.out = v.d.resolveLockfile(v.ctx, s, nil, v.policy)
}

func (v *dispatch) VisitManifestLockfile(s deps.ManifestLockfile) {
	v.out = v.d.resolveLockfile(v.ctx, s, &s.Manifest, v.policy)
}

func (v *dispatch) VisitManifestOnly(s deps.ManifestOnly) {
	v.out = v.d.resolveManifest(v.ctx, s, v.policy)
}

func (v *dispatch) VisitMultiLockfile(s deps.MultiLockfile) {
	out := Outcome{Method: deps.MethodLockfileParsing}
	for _, child := range s.Sources() {
		r := v.d.Resolve(v.ctx, child, v.policy)
		out.Dependencies = append(out.Dependencies, r.Dependencies...)
		out.Errors = append(out.Errors, r.Errors...)
		out.Targets = append(out.Targets, r.Targets...)
		if r.Resolved() {
			eco := s.Ecosystem()
			out.Ecosystem = &eco
		}
		if r.Method == deps.MethodDynamic {
			out.Method = deps.MethodDynamic
		}
	}
	v.out = out
}

func (d *Dispatcher) resolveLockfile(ctx context.Context, src deps.LockfileSource, manifest *deps.Manifest, policy Policy) Outcome {
	lock := src.LockfileRef()
	parse, ok := d.Parsers[lock.Kind]
	if !ok {
		return Outcome{Errors: []deps.DependencyError{deps.ResolutionError{
			Path:    lock.Path,
			Kind:    deps.UnsupportedManifest,
			Message: fmt.Sprintf("no parser registered for lockfile kind %s", lock.Kind),
		}}}
	}

	var errs []deps.DependencyError
	if manifest != nil && policy.AllowDynamic && policy.PreferDynamicGraph && d.GraphManifests[manifest.Kind] && d.Dynamic != nil {
		res := d.Dynamic.Resolve(ctx, src)
		if res.OK() {
			return d.dynamicOutcome(src, res)
		}
		errs = failureErrors(src, res)
		d.logger().Warn("dynamic resolution failed, parsing lockfile", "manifest", manifest.Path, "status", res.Status)
		observability.Resolution().OnDynamicFallback(ctx, manifest.Path, errs[0])
	}

	manifestPath := ""
	if manifest != nil {
		manifestPath = manifest.Path
	}
	found, perrs := parse(d.FS, lock.Path, manifestPath)
	eco := lock.Kind.Ecosystem()
	return Outcome{
		Ecosystem:    &eco,
		Dependencies: found,
		Errors:       append(errs, deps.ParserErrors(perrs)...),
		Targets:      deps.ReferencedPaths(src),
		Method:       deps.MethodLockfileParsing,
	}
}

func (d *Dispatcher) resolveManifest(ctx context.Context, src deps.ManifestOnly, policy Policy) Outcome {
	if !policy.AllowDynamic || d.Dynamic == nil {
		return Outcome{Errors: []deps.DependencyError{deps.ResolutionError{
			Path:    src.Manifest.Path,
			Kind:    deps.UnsupportedManifest,
			Message: "no lockfile found and dynamic resolution is disabled",
		}}}
	}
	res := d.Dynamic.Resolve(ctx, src)
	if !res.OK() {
		return Outcome{Errors: failureErrors(src, res)}
	}
	return d.dynamicOutcome(src, res)
}

// dynamicOutcome records a successful dynamic resolution. Only the manifest
// is a target: the resolver, not the scan, produced the dependency facts.
func (d *Dispatcher) dynamicOutcome(src deps.DependencySource, res rpc.Result) Outcome {
	eco := res.Ecosystem
	out := Outcome{
		Ecosystem:    &eco,
		Dependencies: res.Dependencies,
		Errors:       res.Errors,
		Method:       deps.MethodDynamic,
	}
	if m, ok := deps.ManifestOf(src); ok {
		out.Targets = []string{m.Path}
	}
	return out
}

func (d *Dispatcher) logger() *log.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return log.Default()
}

// failureErrors returns the errors of a failed dynamic call, synthesizing
// one when the resolver gave no detail.
func failureErrors(src deps.DependencySource, res rpc.Result) []deps.DependencyError {
	if len(res.Errors) > 0 {
		return res.Errors
	}
	e := deps.ResolutionError{Path: rpc.SourcePath(src)}
	switch res.Status {
	case rpc.StatusTimeout:
		e.Kind, e.Message = deps.Timeout, "dynamic resolution timed out"
	case rpc.StatusAbsent:
		e.Kind, e.Message = deps.TransportFailure, "dynamic resolver unavailable"
	default:
		e.Kind, e.Message = deps.ToolFailure, "dynamic resolution failed without detail"
	}
	return []deps.DependencyError{e}
}

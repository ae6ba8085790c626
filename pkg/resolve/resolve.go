package resolve

import (
	"context"
	"errors"
	"maps"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/depresolve/pkg/deps"
	"github.com/matzehuels/depresolve/pkg/deps/matcher"
	"github.com/matzehuels/depresolve/pkg/observability"
)

// Options configures ResolveAll.
type Options struct {
	// Matchers defaults to matcher.Matchers.
	Matchers []matcher.Matcher
	Policy   Policy
	// Concurrency bounds parallel subproject resolution; zero means
	// GOMAXPROCS.
	Concurrency int
	// Dispatcher is required.
	Dispatcher *Dispatcher
}

// ErrNoDispatcher is returned by ResolveAll when Options.Dispatcher is nil.
var ErrNoDispatcher = errors.New("resolve: no dispatcher configured")

// Result is the outcome of a scan.
type Result struct {
	Unresolved []deps.UnresolvedSubproject
	Resolved   map[deps.Ecosystem][]deps.ResolvedSubproject
	// Targets are the files read to produce dependency facts, in
	// discovery order without duplicates.
	Targets []string
}

// Ecosystems returns the ecosystems with at least one resolved subproject,
// sorted.
func (r Result) Ecosystems() []deps.Ecosystem {
	return slices.Sorted(maps.Keys(r.Resolved))
}

// AllResolved returns every resolved subproject, grouped by ecosystem in
// Ecosystems order.
func (r Result) AllResolved() []deps.ResolvedSubproject {
	var out []deps.ResolvedSubproject
	for _, eco := range r.Ecosystems() {
		out = append(out, r.Resolved[eco]...)
	}
	return out
}

// ResolveAll discovers subprojects among candidates and resolves each one.
// Subprojects are resolved concurrently; results are merged in discovery
// order so the buckets are deterministic. Apart from a missing dispatcher,
// only context cancellation is returned as an error.
func ResolveAll(ctx context.Context, candidates []string, opts Options) (Result, error) {
	if opts.Dispatcher == nil {
		return Result{}, ErrNoDispatcher
	}
	matchers := opts.Matchers
	if matchers == nil {
		matchers = matcher.Matchers
	}
	hooks := observability.Resolution()

	subprojects := matcher.FindSubprojects(candidates, matchers)
	hooks.OnDiscover(ctx, len(candidates), len(subprojects))

	outcomes := make([]Outcome, len(subprojects))
	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, sp := range subprojects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id := sp.ID()
			hooks.OnResolveStart(gctx, id, sp.RootDir)
			start := time.Now()
			out := opts.Dispatcher.Resolve(gctx, sp.Source, opts.Policy)
			outcomes[i] = out

			eco := ""
			if out.Ecosystem != nil {
				eco = string(*out.Ecosystem)
			}
			hooks.OnResolveComplete(gctx, id, eco, string(out.Method), len(out.Dependencies), time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return merge(subprojects, outcomes), nil
}

func merge(subprojects []deps.Subproject, outcomes []Outcome) Result {
	res := Result{Resolved: make(map[deps.Ecosystem][]deps.ResolvedSubproject)}
	seen := make(map[string]bool)
	for i, sp := range subprojects {
		out := outcomes[i]
		if !out.Resolved() {
			res.Unresolved = append(res.Unresolved, deps.UnresolvedSubproject{Subproject: sp, Errors: out.Errors})
			continue
		}
		eco := *out.Ecosystem
		res.Resolved[eco] = append(res.Resolved[eco], deps.ResolvedSubproject{
			Subproject:   sp,
			Ecosystem:    eco,
			Dependencies: out.Dependencies,
			Method:       out.Method,
			Errors:       out.Errors,
		})
		for _, t := range out.Targets {
			if !seen[t] {
				seen[t] = true
				res.Targets = append(res.Targets, t)
			}
		}
	}
	return res
}

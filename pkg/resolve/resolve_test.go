package resolve

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"slices"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depresolve/pkg/deps"
	"github.com/matzehuels/depresolve/pkg/deps/matcher"
	"github.com/matzehuels/depresolve/pkg/rpc"
)

var (
	pomXML   = deps.Manifest{Kind: deps.ManifestPomXML, Path: "svc/pom.xml"}
	depTree  = deps.Lockfile{Kind: deps.LockfileMavenDepTree, Path: "svc/maven_dep_tree.txt"}
	mavenDep = deps.FoundDependency{Package: "junit:junit", Version: "4.13.2", Ecosystem: deps.EcosystemMaven, Transitivity: deps.Direct}
)

// stubParser returns one dependency named after the lockfile it was given.
func stubParser(eco deps.Ecosystem) deps.Parser {
	return func(_ fs.FS, lockfile, _ string) ([]deps.FoundDependency, []deps.ParserError) {
		return []deps.FoundDependency{{Package: "static", Version: "1.0", Ecosystem: eco, LockfilePath: lockfile}}, nil
	}
}

type stubDynamic struct {
	result rpc.Result
	calls  atomic.Int32
}

func (s *stubDynamic) Resolve(context.Context, deps.DependencySource) rpc.Result {
	s.calls.Add(1)
	return s.result
}

func newTestDispatcher(dynamic DynamicResolver) *Dispatcher {
	d := &Dispatcher{
		Parsers: map[deps.LockfileKind]deps.Parser{
			deps.LockfileMavenDepTree:    stubParser(deps.EcosystemMaven),
			deps.LockfilePipfileLock:     stubParser(deps.EcosystemPyPI),
			deps.LockfilePipRequirements: stubParser(deps.EcosystemPyPI),
		},
		GraphManifests: GraphManifests,
		Logger:         log.New(io.Discard),
	}
	if dynamic != nil {
		d.Dynamic = dynamic
	}
	return d
}

func okResult() rpc.Result {
	return rpc.Result{Status: rpc.StatusOK, Ecosystem: deps.EcosystemMaven, Dependencies: []deps.FoundDependency{mavenDep}}
}

func errResult() rpc.Result {
	return rpc.Result{Status: rpc.StatusErr, Errors: []deps.DependencyError{
		deps.ResolutionError{Path: pomXML.Path, Kind: deps.ToolFailure, Message: "mvn exited 1"},
	}}
}

func resolutionKinds(errs []deps.DependencyError) []deps.ResolutionErrorKind {
	var kinds []deps.ResolutionErrorKind
	for _, err := range errs {
		var re deps.ResolutionError
		if errors.As(err, &re) {
			kinds = append(kinds, re.Kind)
		}
	}
	return kinds
}

func TestDispatcherManifestLockfile(t *testing.T) {
	pair := deps.ManifestLockfile{Manifest: pomXML, Lockfile: depTree}
	preferDynamic := Policy{AllowDynamic: true, PreferDynamicGraph: true}

	tests := []struct {
		name       string
		dynamic    rpc.Result
		policy     Policy
		wantPkg    string
		wantMethod deps.ResolutionMethod
		wantKinds  []deps.ResolutionErrorKind
		wantCalls  int32
	}{
		{"static only", okResult(), Policy{}, "static", deps.MethodLockfileParsing, nil, 0},
		{"dynamic allowed but not preferred", okResult(), Policy{AllowDynamic: true}, "static", deps.MethodLockfileParsing, nil, 0},
		{"preferred dynamic succeeds", okResult(), preferDynamic, "junit:junit", deps.MethodDynamic, nil, 1},
		{"preferred dynamic fails", errResult(), preferDynamic, "static", deps.MethodLockfileParsing, []deps.ResolutionErrorKind{deps.ToolFailure}, 1},
		{"preferred dynamic times out", rpc.Result{Status: rpc.StatusTimeout}, preferDynamic, "static", deps.MethodLockfileParsing, []deps.ResolutionErrorKind{deps.Timeout}, 1},
		{"resolver absent", rpc.Result{Status: rpc.StatusAbsent}, preferDynamic, "static", deps.MethodLockfileParsing, []deps.ResolutionErrorKind{deps.TransportFailure}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dyn := &stubDynamic{result: tt.dynamic}
			out := newTestDispatcher(dyn).Resolve(context.Background(), pair, tt.policy)

			if !out.Resolved() || *out.Ecosystem != deps.EcosystemMaven {
				t.Fatalf("Ecosystem = %v, want maven", out.Ecosystem)
			}
			if len(out.Dependencies) != 1 || out.Dependencies[0].Package != tt.wantPkg {
				t.Errorf("Dependencies = %+v, want one %s", out.Dependencies, tt.wantPkg)
			}
			if out.Method != tt.wantMethod {
				t.Errorf("Method = %s, want %s", out.Method, tt.wantMethod)
			}
			if got := resolutionKinds(out.Errors); !slices.Equal(got, tt.wantKinds) {
				t.Errorf("error kinds = %v, want %v", got, tt.wantKinds)
			}
			if n := dyn.calls.Load(); n != tt.wantCalls {
				t.Errorf("dynamic calls = %d, want %d", n, tt.wantCalls)
			}
			wantTargets := []string{depTree.Path, pomXML.Path}
			if tt.wantMethod == deps.MethodDynamic {
				wantTargets = []string{pomXML.Path}
			}
			if !slices.Equal(out.Targets, wantTargets) {
				t.Errorf("Targets = %v, want %v", out.Targets, wantTargets)
			}
		})
	}
}

func TestDispatcherLockfileOnlyNeverGoesDynamic(t *testing.T) {
	dyn := &stubDynamic{result: okResult()}
	out := newTestDispatcher(dyn).Resolve(context.Background(), deps.LockfileOnly{Lockfile: depTree},
		Policy{AllowDynamic: true, PreferDynamicGraph: true})
	if dyn.calls.Load() != 0 {
		t.Error("dynamic resolver called for a lockfile-only source")
	}
	if out.Method != deps.MethodLockfileParsing || len(out.Dependencies) != 1 {
		t.Errorf("Outcome = %+v", out)
	}
}

func TestDispatcherNonGraphManifestParsesStatically(t *testing.T) {
	pair := deps.ManifestLockfile{
		Manifest: deps.Manifest{Kind: deps.ManifestPipfile, Path: "Pipfile"},
		Lockfile: deps.Lockfile{Kind: deps.LockfilePipfileLock, Path: "Pipfile.lock"},
	}
	dyn := &stubDynamic{result: okResult()}
	out := newTestDispatcher(dyn).Resolve(context.Background(), pair, Policy{AllowDynamic: true, PreferDynamicGraph: true})
	if dyn.calls.Load() != 0 {
		t.Error("dynamic resolver called for a manifest outside the graph allow-list")
	}
	if *out.Ecosystem != deps.EcosystemPyPI {
		t.Errorf("Ecosystem = %s", *out.Ecosystem)
	}
}

func TestDispatcherManifestOnly(t *testing.T) {
	src := deps.ManifestOnly{Manifest: pomXML}
	tests := []struct {
		name      string
		dynamic   *stubDynamic
		policy    Policy
		resolved  bool
		wantKinds []deps.ResolutionErrorKind
	}{
		{"dynamic disabled", &stubDynamic{result: okResult()}, Policy{}, false, []deps.ResolutionErrorKind{deps.UnsupportedManifest}},
		{"no resolver configured", nil, Policy{AllowDynamic: true}, false, []deps.ResolutionErrorKind{deps.UnsupportedManifest}},
		{"dynamic succeeds", &stubDynamic{result: okResult()}, Policy{AllowDynamic: true}, true, nil},
		{"dynamic fails", &stubDynamic{result: errResult()}, Policy{AllowDynamic: true}, false, []deps.ResolutionErrorKind{deps.ToolFailure}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dyn DynamicResolver
			if tt.dynamic != nil {
				dyn = tt.dynamic
			}
			out := newTestDispatcher(dyn).Resolve(context.Background(), src, tt.policy)
			if out.Resolved() != tt.resolved {
				t.Fatalf("Resolved = %v, want %v", out.Resolved(), tt.resolved)
			}
			if got := resolutionKinds(out.Errors); !slices.Equal(got, tt.wantKinds) {
				t.Errorf("error kinds = %v, want %v", got, tt.wantKinds)
			}
			if tt.resolved {
				if out.Method != deps.MethodDynamic || len(out.Dependencies) != 1 {
					t.Errorf("Outcome = %+v", out)
				}
				if !slices.Equal(out.Targets, []string{pomXML.Path}) {
					t.Errorf("Targets = %v, want [%s]", out.Targets, pomXML.Path)
				}
			} else if len(out.Dependencies) != 0 || len(out.Targets) != 0 {
				t.Errorf("unresolved outcome carries data: %+v", out)
			}
		})
	}
}

func TestDispatcherMissingParser(t *testing.T) {
	src := deps.LockfileOnly{Lockfile: deps.Lockfile{Kind: deps.LockfileMixLock, Path: "mix.lock"}}
	out := newTestDispatcher(nil).Resolve(context.Background(), src, Policy{})
	if out.Resolved() {
		t.Fatalf("Ecosystem = %s, want unresolved", *out.Ecosystem)
	}
	if got := resolutionKinds(out.Errors); !slices.Equal(got, []deps.ResolutionErrorKind{deps.UnsupportedManifest}) {
		t.Errorf("error kinds = %v", got)
	}
}

func TestDispatcherMultiLockfile(t *testing.T) {
	a := deps.LockfileOnly{Lockfile: deps.Lockfile{Kind: deps.LockfilePipRequirements, Path: "requirements/dev.txt"}}
	b := deps.ManifestLockfile{
		Manifest: deps.Manifest{Kind: deps.ManifestRequirementsIn, Path: "requirements/test.in"},
		Lockfile: deps.Lockfile{Kind: deps.LockfilePipRequirements, Path: "requirements/test.txt"},
	}
	multi, err := deps.NewMultiLockfile(a, b)
	if err != nil {
		t.Fatal(err)
	}

	d := newTestDispatcher(nil)
	d.Parsers[deps.LockfilePipRequirements] = func(_ fs.FS, lockfile, _ string) ([]deps.FoundDependency, []deps.ParserError) {
		return []deps.FoundDependency{{Package: lockfile, Ecosystem: deps.EcosystemPyPI}},
			[]deps.ParserError{{Path: lockfile, Line: 1, Reason: "bad line"}}
	}
	out := d.Resolve(context.Background(), multi, Policy{})

	if !out.Resolved() || *out.Ecosystem != deps.EcosystemPyPI {
		t.Fatalf("Ecosystem = %v, want pypi", out.Ecosystem)
	}
	var pkgs []string
	for _, dep := range out.Dependencies {
		pkgs = append(pkgs, dep.Package)
	}
	if want := []string{"requirements/dev.txt", "requirements/test.txt"}; !slices.Equal(pkgs, want) {
		t.Errorf("Dependencies = %v, want %v", pkgs, want)
	}
	if len(out.Errors) != 2 {
		t.Errorf("Errors = %v, want 2", out.Errors)
	}
	if want := []string{"requirements/dev.txt", "requirements/test.txt", "requirements/test.in"}; !slices.Equal(out.Targets, want) {
		t.Errorf("Targets = %v, want %v", out.Targets, want)
	}
	if out.Method != deps.MethodLockfileParsing {
		t.Errorf("Method = %s", out.Method)
	}
}

func TestDispatcherParsesFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"svc/maven_dep_tree.txt": {Data: []byte("com.example:svc:jar:1.0.0\n+- junit:junit:jar:4.13.2:test\n")},
	}
	d := NewDispatcher(fsys, nil, log.New(io.Discard))
	out := d.Resolve(context.Background(), deps.LockfileOnly{Lockfile: depTree}, Policy{})
	if !out.Resolved() || len(out.Dependencies) != 1 {
		t.Fatalf("Outcome = %+v", out)
	}
	if got := out.Dependencies[0]; got.Package != "junit:junit" || got.Version != "4.13.2" {
		t.Errorf("dependency = %+v", got)
	}
}

func TestParsersCoverEveryLockfileKind(t *testing.T) {
	for _, kind := range deps.LockfileKinds() {
		if Parsers[kind] == nil {
			t.Errorf("no parser for %s", kind)
		}
	}
}

func TestResolveAllScenarioLockfileOnly(t *testing.T) {
	d := newTestDispatcher(nil)
	d.Parsers[deps.LockfilePipfileLock] = func(fs.FS, string, string) ([]deps.FoundDependency, []deps.ParserError) {
		return []deps.FoundDependency{{Package: "requests", Version: "2.26.0", Ecosystem: deps.EcosystemPyPI}}, nil
	}
	res, err := ResolveAll(context.Background(), []string{"Pipfile.lock"}, Options{Dispatcher: d})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Unresolved) != 0 {
		t.Errorf("Unresolved = %v", res.Unresolved)
	}
	pypi := res.Resolved[deps.EcosystemPyPI]
	if len(pypi) != 1 || len(pypi[0].Dependencies) != 1 || pypi[0].Dependencies[0].Package != "requests" {
		t.Fatalf("Resolved = %+v", res.Resolved)
	}
	if !slices.Equal(res.Targets, []string{"Pipfile.lock"}) {
		t.Errorf("Targets = %v", res.Targets)
	}
}

func TestResolveAllBucketsAndOrder(t *testing.T) {
	candidates := []string{
		"b/requirements.txt",
		"a/requirements.txt",
		"a/requirements.in",
		"svc/pom.xml",
		"svc/maven_dep_tree.txt",
		"legacy/pom.xml",
		"README.md",
	}
	opts := Options{
		Matchers:    matcher.Matchers,
		Concurrency: 3,
		Dispatcher:  newTestDispatcher(nil),
	}
	first, err := ResolveAll(context.Background(), candidates, opts)
	if err != nil {
		t.Fatal(err)
	}

	if got := first.Ecosystems(); !slices.Equal(got, []deps.Ecosystem{deps.EcosystemMaven, deps.EcosystemPyPI}) {
		t.Errorf("Ecosystems = %v", got)
	}
	var roots []string
	for _, sp := range first.AllResolved() {
		roots = append(roots, sp.RootDir)
	}
	if want := []string{"svc", "a", "b"}; !slices.Equal(roots, want) {
		t.Errorf("resolved roots = %v, want %v", roots, want)
	}
	if len(first.Unresolved) != 1 || first.Unresolved[0].RootDir != "legacy" {
		t.Errorf("Unresolved = %+v, want legacy/pom.xml", first.Unresolved)
	}
	if slices.Contains(first.Targets, "legacy/pom.xml") || slices.Contains(first.Targets, "README.md") {
		t.Errorf("Targets = %v include files not read for dependencies", first.Targets)
	}

	for range 5 {
		again, err := ResolveAll(context.Background(), candidates, opts)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(again.Targets, first.Targets) {
			t.Fatalf("Targets differ between runs: %v vs %v", again.Targets, first.Targets)
		}
	}
}

func TestResolveAllWithoutDispatcher(t *testing.T) {
	_, err := ResolveAll(context.Background(), []string{"Pipfile.lock"}, Options{})
	if !errors.Is(err, ErrNoDispatcher) {
		t.Errorf("err = %v, want ErrNoDispatcher", err)
	}
}

func TestResolveAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ResolveAll(ctx, []string{"Pipfile.lock"}, Options{Dispatcher: newTestDispatcher(nil)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

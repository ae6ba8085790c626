package deps

import (
	"errors"
	"slices"
	"testing"
)

var (
	reqTxt  = LockfileOnly{Lockfile: Lockfile{Kind: LockfilePipRequirements, Path: "requirements.txt"}}
	reqDev  = ManifestLockfile{Manifest: Manifest{Kind: ManifestRequirementsIn, Path: "requirements/dev.in"}, Lockfile: Lockfile{Kind: LockfilePipRequirements, Path: "requirements/dev.txt"}}
	pkgLock = ManifestLockfile{Manifest: Manifest{Kind: ManifestPackageJSON, Path: "web/package.json"}, Lockfile: Lockfile{Kind: LockfileNPMPackageLock, Path: "web/package-lock.json"}}
)

func TestDisplayPaths(t *testing.T) {
	multi, err := NewMultiLockfile(reqTxt, reqDev)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		src  DependencySource
		want []string
	}{
		{"manifest only", ManifestOnly{Manifest: Manifest{Kind: ManifestPomXML, Path: "svc/pom.xml"}}, []string{"svc/pom.xml"}},
		{"lockfile only", reqTxt, []string{"requirements.txt"}},
		{"manifest lockfile", pkgLock, []string{"web/package-lock.json"}},
		{"multi lockfile", multi, []string{"requirements.txt", "requirements/dev.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.src.DisplayPaths(); !slices.Equal(got, tt.want) {
				t.Errorf("DisplayPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManifestLockfileStatsOrder(t *testing.T) {
	stats := pkgLock.Stats()
	if len(stats) != 2 {
		t.Fatalf("len(Stats()) = %d, want 2", len(stats))
	}
	if stats[0].Kind != "lockfile" || stats[0].SubKind != string(LockfileNPMPackageLock) {
		t.Errorf("Stats()[0] = %+v, want the lockfile", stats[0])
	}
	if stats[1].Kind != "manifest" || stats[1].Path != "web/package.json" {
		t.Errorf("Stats()[1] = %+v, want the manifest", stats[1])
	}
}

func TestNewMultiLockfile(t *testing.T) {
	if _, err := NewMultiLockfile(); !errors.Is(err, ErrEmptyMultiLockfile) {
		t.Errorf("NewMultiLockfile() error = %v, want ErrEmptyMultiLockfile", err)
	}
	if _, err := NewMultiLockfile(reqTxt, pkgLock); err == nil {
		t.Error("NewMultiLockfile(pypi, npm) succeeded, want ecosystem mismatch error")
	}

	m, err := NewMultiLockfile(reqTxt, reqDev)
	if err != nil {
		t.Fatalf("NewMultiLockfile: %v", err)
	}
	if m.Ecosystem() != EcosystemPyPI {
		t.Errorf("Ecosystem() = %s, want pypi", m.Ecosystem())
	}
	if got := len(m.Stats()); got != 3 {
		t.Errorf("len(Stats()) = %d, want 3", got)
	}
}

func TestDecodeSource(t *testing.T) {
	multi, _ := NewMultiLockfile(reqTxt, reqDev)
	sources := []DependencySource{
		ManifestOnly{Manifest: Manifest{Kind: ManifestBuildGradle, Path: "build.gradle"}},
		reqTxt,
		pkgLock,
		multi,
	}
	for _, src := range sources {
		data, err := src.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON: %v", err)
		}
		got, err := DecodeSource(data)
		if err != nil {
			t.Fatalf("DecodeSource(%s): %v", data, err)
		}
		if !slices.Equal(got.Stats(), src.Stats()) {
			t.Errorf("DecodeSource(%s).Stats() = %v, want %v", data, got.Stats(), src.Stats())
		}
	}
}

func TestDecodeSourceRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown type", `{"type":"bogus"}`},
		{"missing manifest", `{"type":"manifest_only"}`},
		{"unknown lockfile kind", `{"type":"lockfile_only","lockfile":{"kind":"uv_lock","path":"uv.lock"}}`},
		{"nested manifest only", `{"type":"multi_lockfile","sources":[{"type":"manifest_only","manifest":{"kind":"pom_xml","path":"pom.xml"}}]}`},
		{"empty multi", `{"type":"multi_lockfile","sources":[]}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeSource([]byte(tt.data)); err == nil {
				t.Errorf("DecodeSource(%s) succeeded, want error", tt.data)
			}
		})
	}
}

func TestReferencedPaths(t *testing.T) {
	gomod := ManifestLockfile{
		Manifest: Manifest{Kind: ManifestGoMod, Path: "go.mod"},
		Lockfile: Lockfile{Kind: LockfileGoMod, Path: "go.mod"},
	}
	if got := ReferencedPaths(gomod); !slices.Equal(got, []string{"go.mod"}) {
		t.Errorf("ReferencedPaths(go.mod) = %v, want [go.mod]", got)
	}
}

func TestLockfileKindsHaveEcosystems(t *testing.T) {
	if got := len(LockfileKinds()); got != 16 {
		t.Errorf("len(LockfileKinds()) = %d, want 16", got)
	}
	for _, k := range LockfileKinds() {
		if k.Ecosystem() == "" {
			t.Errorf("%s has no ecosystem", k)
		}
	}
}

func TestParseEcosystem(t *testing.T) {
	if e, err := ParseEcosystem(" PyPI "); err != nil || e != EcosystemPyPI {
		t.Errorf("ParseEcosystem(PyPI) = %q, %v", e, err)
	}
	if _, err := ParseEcosystem("conda"); err == nil {
		t.Error("ParseEcosystem(conda) succeeded, want error")
	}
}

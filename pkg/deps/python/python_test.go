package python

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/matzehuels/depresolve/pkg/deps"
)

func byName(found []deps.FoundDependency) map[string]deps.FoundDependency {
	out := make(map[string]deps.FoundDependency, len(found))
	for _, d := range found {
		out[d.Package] = d
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Requests", "requests"},
		{"typing_extensions", "typing-extensions"},
		{"zope.interface", "zope-interface"},
		{"Foo__Bar", "foo-bar"},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRequirements(t *testing.T) {
	dir := t.TempDir()
	lock := `#
# This file is autogenerated by pip-compile
#
certifi==2021.5.30 \
    --hash=sha256:50b1e4f8446b06f41be7dd6338db18e0990601dce795c2b1686458aa7e8fa7d8 \
    --hash=sha256:2bbf76fd432960138b3ef6dda3dde0544f27cbf8546c458e60baf371917ba9ee
    # via requests
Requests[socks]==2.26.0 ; python_version >= "3.6"
    # via -r requirements.in
urllib3>=1.26
-e ./local-package
git+https://github.com/user/repo.git
--index-url https://pypi.org/simple
`
	manifest := "requests\n"
	if err := os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte(lock), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "requirements.in"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	found, errs := ParseRequirements(os.DirFS(dir), "requirements.txt", "requirements.in")
	if len(found) != 2 {
		t.Fatalf("len(found) = %d, want 2: %+v", len(found), found)
	}
	if len(errs) != 1 || errs[0].Line != 10 {
		t.Errorf("errs = %+v, want one unpinned error on line 10", errs)
	}

	got := byName(found)
	certifi := got["certifi"]
	if certifi.Version != "2021.5.30" || certifi.Transitivity != deps.Transitive || certifi.Line != 4 {
		t.Errorf("certifi = %+v", certifi)
	}
	if n := len(certifi.AllowedHashes["sha256"]); n != 2 {
		t.Errorf("certifi has %d sha256 hashes, want 2", n)
	}
	requests := got["requests"]
	if requests.Version != "2.26.0" || requests.Transitivity != deps.Direct {
		t.Errorf("requests = %+v", requests)
	}
	if requests.LockfilePath != "requirements.txt" || requests.Ecosystem != deps.EcosystemPyPI {
		t.Errorf("requests = %+v", requests)
	}
}

func TestParseRequirementsWithoutManifest(t *testing.T) {
	fsys := fstest.MapFS{"reqs/requirements.txt": {Data: []byte("flask==2.0.1\n")}}
	found, errs := ParseRequirements(fsys, "reqs/requirements.txt", "")
	if len(errs) != 0 || len(found) != 1 {
		t.Fatalf("ParseRequirements = %+v, %+v", found, errs)
	}
	if found[0].Transitivity != deps.Unknown {
		t.Errorf("Transitivity = %s, want unknown", found[0].Transitivity)
	}
}

func TestParseRequirementsMissingFile(t *testing.T) {
	found, errs := ParseRequirements(fstest.MapFS{}, "requirements.txt", "")
	if found != nil || len(errs) != 1 {
		t.Errorf("ParseRequirements(missing) = %v, %v", found, errs)
	}
}

func TestParsePipfileLock(t *testing.T) {
	fsys := fstest.MapFS{
		"Pipfile.lock": {Data: []byte(`{
  "_meta": {"hash": {"sha256": "abc"}},
  "default": {
    "requests": {"version": "==2.26.0", "hashes": ["sha256:aaa", "sha256:bbb"]},
    "idna": {"version": "==3.2"},
    "mylib": {"git": "https://github.com/me/mylib.git"}
  },
  "develop": {
    "pytest": {"version": "==6.2.4"},
    "broken": {}
  }
}`)},
		"Pipfile": {Data: []byte("[packages]\nrequests = \"*\"\n\n[dev-packages]\npytest = \"*\"\n")},
	}

	found, errs := ParsePipfileLock(fsys, "Pipfile.lock", "Pipfile")
	if len(found) != 3 {
		t.Fatalf("len(found) = %d, want 3: %+v", len(found), found)
	}
	if len(errs) != 1 {
		t.Errorf("errs = %+v, want 1", errs)
	}
	got := byName(found)
	if got["requests"].Transitivity != deps.Direct || got["idna"].Transitivity != deps.Transitive {
		t.Errorf("transitivity = %s/%s", got["requests"].Transitivity, got["idna"].Transitivity)
	}
	if got["pytest"].Version != "6.2.4" {
		t.Errorf("pytest version = %q", got["pytest"].Version)
	}
	if len(got["requests"].AllowedHashes["sha256"]) != 2 {
		t.Errorf("requests hashes = %v", got["requests"].AllowedHashes)
	}
}

func TestParsePipfileLockInvalid(t *testing.T) {
	fsys := fstest.MapFS{"Pipfile.lock": {Data: []byte(`{"default": [`)}}
	found, errs := ParsePipfileLock(fsys, "Pipfile.lock", "")
	if len(found) != 0 || len(errs) != 1 {
		t.Errorf("ParsePipfileLock(invalid) = %v, %v", found, errs)
	}
}

func TestParsePoetryLock(t *testing.T) {
	fsys := fstest.MapFS{
		"poetry.lock": {Data: []byte(`
[[package]]
name = "requests"
version = "2.26.0"
description = "Python HTTP for Humans."
category = "main"

[package.dependencies]
certifi = ">=2017.4.17"
idna = {version = ">=2.5,<4", markers = "python_version >= \"3\""}

[[package]]
name = "certifi"
version = "2021.5.30"
category = "main"

[[package]]
name = "idna"
version = "3.2"
category = "main"

[metadata]
lock-version = "1.1"
`)},
		"pyproject.toml": {Data: []byte(`
[tool.poetry.dependencies]
python = "^3.9"
requests = "^2.26.0"

[tool.poetry.group.dev.dependencies]
pytest = "^6.2.4"
`)},
	}

	found, errs := ParsePoetryLock(fsys, "poetry.lock", "pyproject.toml")
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if len(found) != 3 {
		t.Fatalf("len(found) = %d, want 3", len(found))
	}
	got := byName(found)
	req := got["requests"]
	if req.Transitivity != deps.Direct || got["certifi"].Transitivity != deps.Transitive {
		t.Errorf("transitivity = %s/%s", req.Transitivity, got["certifi"].Transitivity)
	}
	want := []deps.DependencyChild{{Package: "certifi", Version: "2021.5.30"}, {Package: "idna", Version: "3.2"}}
	if len(req.Children) != 2 || req.Children[0] != want[0] || req.Children[1] != want[1] {
		t.Errorf("requests children = %v, want %v", req.Children, want)
	}
}

func TestParsePoetryLockInvalid(t *testing.T) {
	fsys := fstest.MapFS{"poetry.lock": {Data: []byte("[[package]\nname = ")}}
	_, errs := ParsePoetryLock(fsys, "poetry.lock", "")
	if len(errs) != 1 || errs[0].Line == 0 {
		t.Errorf("errs = %+v, want one positioned TOML error", errs)
	}
}

func TestParseRequirementsLongLine(t *testing.T) {
	digest := strings.Repeat("a", 2<<20)
	lock := "a==1.0 \\\n    --hash=sha256:" + digest + "\nb==2.0\n"
	fsys := fstest.MapFS{"requirements.txt": {Data: []byte(lock)}}

	found, errs := ParseRequirements(fsys, "requirements.txt", "")
	if len(errs) != 0 || len(found) != 2 {
		t.Fatalf("ParseRequirements = %d found, errors %+v; want 2 found", len(found), errs)
	}
	got := byName(found)
	if h := got["a"].AllowedHashes["sha256"]; len(h) != 1 || len(h[0]) != len(digest) {
		t.Errorf("a hashes truncated or missing")
	}
	if b := got["b"]; b.Version != "2.0" || b.Line != 3 {
		t.Errorf("b = %+v", b)
	}
}

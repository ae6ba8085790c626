package javascript

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/matzehuels/depresolve/pkg/deps"
)

func byName(found []deps.FoundDependency) map[string]deps.FoundDependency {
	out := make(map[string]deps.FoundDependency, len(found))
	for _, d := range found {
		out[d.Package+"@"+d.Version] = d
	}
	return out
}

func TestIntegrityHashes(t *testing.T) {
	got := integrityHashes("sha512-abc== sha1-def")
	if len(got["sha512"]) != 1 || got["sha512"][0] != "abc==" || got["sha1"][0] != "def" {
		t.Errorf("integrityHashes = %v", got)
	}
	if integrityHashes("") != nil {
		t.Error("integrityHashes(\"\") should be nil")
	}
}

func TestSplitSpec(t *testing.T) {
	tests := []struct{ spec, name, rest string }{
		{"lodash@^4.17.21", "lodash", "^4.17.21"},
		{"@babel/core@7.0.0", "@babel/core", "7.0.0"},
		{"@babel/core", "@babel/core", ""},
		{"lodash@npm:^4.17.21", "lodash", "npm:^4.17.21"},
	}
	for _, tt := range tests {
		name, rest := splitSpec(tt.spec)
		if name != tt.name || rest != tt.rest {
			t.Errorf("splitSpec(%q) = %q, %q", tt.spec, name, rest)
		}
	}
}

func TestParsePackageLockV3(t *testing.T) {
	fsys := fstest.MapFS{"web/package-lock.json": {Data: []byte(`{
  "name": "web",
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "web", "dependencies": {"express": "^4.18.0"}, "devDependencies": {"jest": "^29.0.0"}},
    "node_modules/express": {"version": "4.18.2", "resolved": "https://registry.npmjs.org/express/-/express-4.18.2.tgz", "integrity": "sha512-xyz", "dependencies": {"debug": "2.6.9"}},
    "node_modules/debug": {"version": "4.3.4"},
    "node_modules/express/node_modules/debug": {"version": "2.6.9"},
    "node_modules/jest": {"version": "29.7.0", "dev": true},
    "node_modules/local": {"resolved": "packages/local", "link": true}
  }
}`)}}

	found, errs := ParsePackageLock(fsys, "web/package-lock.json", "")
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if len(found) != 4 {
		t.Fatalf("len(found) = %d, want 4: %+v", len(found), found)
	}
	got := byName(found)
	express := got["express@4.18.2"]
	if express.Transitivity != deps.Direct || express.AllowedHashes["sha512"][0] != "xyz" {
		t.Errorf("express = %+v", express)
	}
	if len(express.Children) != 1 || express.Children[0].Version != "2.6.9" {
		t.Errorf("express children = %v, want nested debug 2.6.9", express.Children)
	}
	if got["debug@4.3.4"].Transitivity != deps.Transitive || got["debug@2.6.9"].Transitivity != deps.Transitive {
		t.Error("debug copies should be transitive")
	}
	if got["jest@29.7.0"].Transitivity != deps.Direct {
		t.Error("devDependencies should be direct")
	}
}

func TestParsePackageLockV1(t *testing.T) {
	fsys := fstest.MapFS{
		"package-lock.json": {Data: []byte(`{
  "lockfileVersion": 1,
  "dependencies": {
    "left-pad": {"version": "1.3.0", "requires": {"util": "^1.0.0"}},
    "util": {"version": "1.0.0", "dependencies": {"inherits": {"version": "2.0.1"}}}
  }
}`)},
		"package.json": {Data: []byte(`{"name": "app", "dependencies": {"left-pad": "^1.3.0"}}`)},
	}

	found, errs := ParsePackageLock(fsys, "package-lock.json", "package.json")
	if len(errs) != 0 || len(found) != 3 {
		t.Fatalf("ParsePackageLock = %+v, %v", found, errs)
	}
	got := byName(found)
	if got["left-pad@1.3.0"].Transitivity != deps.Direct {
		t.Error("left-pad should be direct")
	}
	if got["util@1.0.0"].Transitivity != deps.Transitive || got["inherits@2.0.1"].Transitivity != deps.Transitive {
		t.Error("util and inherits should be transitive")
	}
}

func TestParsePackageLockInvalid(t *testing.T) {
	fsys := fstest.MapFS{"package-lock.json": {Data: []byte(`{`)}}
	found, errs := ParsePackageLock(fsys, "package-lock.json", "")
	if found != nil || len(errs) != 1 {
		t.Errorf("ParsePackageLock(invalid) = %v, %v", found, errs)
	}
}

const classicYarn = `# THIS IS AN AUTOGENERATED FILE. DO NOT EDIT THIS FILE DIRECTLY.
# yarn lockfile v1


"@babel/code-frame@^7.0.0", "@babel/code-frame@^7.10.4":
  version "7.12.13"
  resolved "https://registry.yarnpkg.com/@babel/code-frame/-/code-frame-7.12.13.tgz"
  integrity sha512-abc
  dependencies:
    "@babel/highlight" "^7.10.4"

"@babel/highlight@^7.10.4":
  version "7.13.10"
  resolved "https://registry.yarnpkg.com/@babel/highlight/-/highlight-7.13.10.tgz"

broken@^1.0.0:
  resolved "https://example.com/broken.tgz"
`

func TestParseYarnLockClassic(t *testing.T) {
	fsys := fstest.MapFS{
		"yarn.lock":    {Data: []byte(classicYarn)},
		"package.json": {Data: []byte(`{"devDependencies": {"@babel/code-frame": "^7.0.0"}}`)},
	}
	found, errs := ParseYarnLock(fsys, "yarn.lock", "package.json")
	if len(errs) != 1 || errs[0].Line != 16 {
		t.Errorf("errs = %+v, want one error on line 16", errs)
	}
	if len(found) != 2 {
		t.Fatalf("len(found) = %d, want 2", len(found))
	}
	frame := found[0]
	if frame.Package != "@babel/code-frame" || frame.Version != "7.12.13" || frame.Line != 5 {
		t.Errorf("code-frame = %+v", frame)
	}
	if frame.Transitivity != deps.Direct || found[1].Transitivity != deps.Transitive {
		t.Errorf("transitivity = %s/%s", frame.Transitivity, found[1].Transitivity)
	}
	want := deps.DependencyChild{Package: "@babel/highlight", Version: "7.13.10"}
	if len(frame.Children) != 1 || frame.Children[0] != want {
		t.Errorf("children = %v, want %v", frame.Children, want)
	}
}

func TestParseYarnLockBerry(t *testing.T) {
	fsys := fstest.MapFS{"yarn.lock": {Data: []byte(`# This file is generated by running "yarn install"

__metadata:
  version: 6
  cacheKey: 8

"app@workspace:.":
  version: 0.0.0-use.local
  resolution: "app@workspace:."
  languageName: unknown
  linkType: soft

"js-tokens@npm:^3.0.0 || ^4.0.0":
  version: 4.0.0
  resolution: "js-tokens@npm:4.0.0"
  languageName: node
  linkType: hard

"loose-envify@npm:^1.1.0":
  version: 1.4.0
  resolution: "loose-envify@npm:1.4.0"
  dependencies:
    js-tokens: ^3.0.0 || ^4.0.0
  languageName: node
  linkType: hard
`)}}
	found, errs := ParseYarnLock(fsys, "yarn.lock", "")
	if len(errs) != 0 || len(found) != 2 {
		t.Fatalf("ParseYarnLock = %+v, %v", found, errs)
	}
	got := byName(found)
	envify := got["loose-envify@1.4.0"]
	if envify.Transitivity != deps.Unknown {
		t.Errorf("Transitivity = %s, want unknown", envify.Transitivity)
	}
	if len(envify.Children) != 1 || envify.Children[0].Version != "4.0.0" {
		t.Errorf("children = %v", envify.Children)
	}
}

func TestParsePnpmLock(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"v5", `lockfileVersion: 5.4
specifiers:
  react: ^18.2.0
dependencies:
  react: 18.2.0
packages:
  /react/18.2.0:
    resolution: {integrity: sha512-react}
    dependencies:
      loose-envify: 1.4.0
    dev: false
  /loose-envify/1.4.0:
    resolution: {integrity: sha512-envify}
    dev: false
`},
		{"v6", `lockfileVersion: '6.0'
dependencies:
  react:
    specifier: ^18.2.0
    version: 18.2.0
packages:
  /react@18.2.0:
    resolution: {integrity: sha512-react}
    dependencies:
      loose-envify: 1.4.0
  /loose-envify@1.4.0:
    resolution: {integrity: sha512-envify}
`},
		{"v9", `lockfileVersion: '9.0'
importers:
  .:
    dependencies:
      react:
        specifier: ^18.2.0
        version: 18.2.0
packages:
  react@18.2.0:
    resolution: {integrity: sha512-react}
  loose-envify@1.4.0:
    resolution: {integrity: sha512-envify}
snapshots:
  react@18.2.0:
    dependencies:
      loose-envify: 1.4.0
  loose-envify@1.4.0: {}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{"pnpm-lock.yaml": {Data: []byte(tt.data)}}
			found, errs := ParsePnpmLock(fsys, "pnpm-lock.yaml", "")
			if len(errs) != 0 || len(found) != 2 {
				t.Fatalf("ParsePnpmLock = %+v, %v", found, errs)
			}
			got := byName(found)
			react, ok := got["react@18.2.0"]
			if !ok || react.Transitivity != deps.Direct {
				t.Fatalf("react = %+v", react)
			}
			if got["loose-envify@1.4.0"].Transitivity != deps.Transitive {
				t.Error("loose-envify should be transitive")
			}
			if len(react.Children) != 1 || react.Children[0] != (deps.DependencyChild{Package: "loose-envify", Version: "1.4.0"}) {
				t.Errorf("react children = %v", react.Children)
			}
			if react.AllowedHashes["sha512"][0] != "react" {
				t.Errorf("react hashes = %v", react.AllowedHashes)
			}
		})
	}
}

func TestSplitPnpmKey(t *testing.T) {
	tests := []struct {
		key           string
		slash         bool
		name, version string
	}{
		{"/@babel/core/7.0.0", true, "@babel/core", "7.0.0"},
		{"/react-dom/18.2.0_react@18.2.0", true, "react-dom", "18.2.0"},
		{"/@babel/core@7.0.0", false, "@babel/core", "7.0.0"},
		{"react-dom@18.2.0(react@18.2.0)", false, "react-dom", "18.2.0"},
	}
	for _, tt := range tests {
		name, version, ok := splitPnpmKey(tt.key, tt.slash)
		if !ok || name != tt.name || version != tt.version {
			t.Errorf("splitPnpmKey(%q) = %q, %q, %v", tt.key, name, version, ok)
		}
	}
}

func TestParseYarnLockClassicLongLine(t *testing.T) {
	url := "https://registry.yarnpkg.com/big/-/big-1.0.0.tgz#" + strings.Repeat("f", 70*1024)
	lock := "big@^1.0.0:\n  version \"1.0.0\"\n  resolved \"" + url + "\"\n\n" +
		"small@^2.0.0:\n  version \"2.0.0\"\n"
	fsys := fstest.MapFS{"yarn.lock": {Data: []byte(lock)}}

	found, errs := ParseYarnLock(fsys, "yarn.lock", "")
	if len(errs) != 0 || len(found) != 2 {
		t.Fatalf("ParseYarnLock = %d found, errors %+v; want 2 found", len(found), errs)
	}
	got := byName(found)
	if got["big@1.0.0"].ResolvedURL != url {
		t.Errorf("big resolved URL truncated")
	}
	if small := got["small@2.0.0"]; small.Line != 5 {
		t.Errorf("small = %+v", small)
	}
}

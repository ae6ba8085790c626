package errors

import (
	"strings"
	"testing"

	"github.com/matzehuels/depresolve/pkg/deps"
)

func TestValidateManifestFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"poetry.lock", "poetry.lock", false},
		{"requirements.txt", "requirements.txt", false},
		{"dotted", ".depresolve.yaml", false},
		{"dep tree", "maven_dep_tree.txt", false},

		{"empty", "", true},
		{"with path /", "path/to/file", true},
		{"with path \\", "path\\to\\file", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"control char", "pom\x01.xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateManifestFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateManifestFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidManifest) {
				t.Errorf("code = %s, want %s", GetCode(err), ErrCodeInvalidManifest)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"http", "http://127.0.0.1:8377", false},
		{"https with path", "https://resolver.internal/base", false},

		{"empty", "", true},
		{"no scheme", "resolver.internal", true},
		{"ftp", "ftp://example.com", true},
		{"no host", "http://", true},
		{"unparseable", "http://[::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "pom.xml", false},
		{"nested", "services/api/requirements.txt", false},
		{"dotted dir", ".github/requirements.txt", false},
		{"double dot in name", "a/..b/pom.xml", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secret", true},
		{"inner traversal", "a/../../b", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSource(t *testing.T) {
	good := deps.ManifestLockfile{
		Manifest: deps.Manifest{Kind: deps.ManifestPomXML, Path: "svc/pom.xml"},
		Lockfile: deps.Lockfile{Kind: deps.LockfileMavenDepTree, Path: "svc/maven_dep_tree.txt"},
	}
	if err := ValidateSource(good); err != nil {
		t.Errorf("ValidateSource(good) = %v", err)
	}

	bad := deps.ManifestOnly{Manifest: deps.Manifest{Kind: deps.ManifestPomXML, Path: "../outside/pom.xml"}}
	if err := ValidateSource(bad); !Is(err, ErrCodeInvalidPath) {
		t.Errorf("ValidateSource(bad) = %v, want %s", err, ErrCodeInvalidPath)
	}
}

func TestValidateEcosystem(t *testing.T) {
	got, err := ValidateEcosystem(" PyPI ")
	if err != nil || got != deps.EcosystemPyPI {
		t.Errorf("ValidateEcosystem(PyPI) = %q, %v", got, err)
	}
	if _, err := ValidateEcosystem("cobol"); !Is(err, ErrCodeInvalidEcosystem) {
		t.Errorf("ValidateEcosystem(cobol) err = %v", err)
	}
}

package walk

import (
	"slices"
	"testing"
	"testing/fstest"
)

var repo = fstest.MapFS{
	"go.mod":                                 {},
	"main.go":                                {},
	"web/package.json":                       {},
	"web/package-lock.json":                  {},
	"web/node_modules/left-pad/package.json": {},
	".git/config":                            {},
	"py/requirements.txt":                    {},
	"py/.venv/lib/requirements.txt":          {},
	"examples/demo/Gemfile.lock":             {},
	"third_party/lib/Cargo.lock":             {},
}

func TestFiles(t *testing.T) {
	got, err := Files(repo, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"examples/demo/Gemfile.lock",
		"go.mod",
		"main.go",
		"py/requirements.txt",
		"third_party/lib/Cargo.lock",
		"web/package-lock.json",
		"web/package.json",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Files() = %v, want %v", got, want)
	}
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name    string
		exclude []string
		want    []string
	}{
		{
			name: "defaults",
			want: []string{
				"examples/demo/Gemfile.lock",
				"go.mod",
				"py/requirements.txt",
				"third_party/lib/Cargo.lock",
				"web/package-lock.json",
				"web/package.json",
			},
		},
		{
			name:    "directory excludes",
			exclude: []string{"examples/**", "third_party"},
			want: []string{
				"go.mod",
				"py/requirements.txt",
				"web/package-lock.json",
				"web/package.json",
			},
		},
		{
			name:    "base name exclude",
			exclude: []string{"*.json"},
			want: []string{
				"examples/demo/Gemfile.lock",
				"go.mod",
				"py/requirements.txt",
				"third_party/lib/Cargo.lock",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Candidates(repo, Options{Exclude: tt.exclude})
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Candidates() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInvalidExclude(t *testing.T) {
	if _, err := Files(repo, Options{Exclude: []string{"[unterminated"}}); err == nil {
		t.Error("Files accepted an invalid pattern")
	}
}

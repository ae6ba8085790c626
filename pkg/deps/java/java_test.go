package java

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/matzehuels/depresolve/pkg/deps"
)

const depTree = `com.example:app:jar:1.0.0
+- org.springframework:spring-core:jar:5.3.9:compile
|  \- org.springframework:spring-jcl:jar:5.3.9:compile
+- io.netty:netty-transport-native-epoll:jar:linux-x86_64:4.1.68.Final:runtime
\- junit:junit:jar:4.13.2:test
   \- org.hamcrest:hamcrest-core:jar:1.3:test (optional)
not a coordinate
`

func TestParseMavenDepTree(t *testing.T) {
	fsys := fstest.MapFS{"maven_dep_tree.txt": {Data: []byte(depTree)}}
	found, errs := ParseMavenDepTree(fsys, "maven_dep_tree.txt", "pom.xml")
	if len(errs) != 1 || errs[0].Line != 7 {
		t.Errorf("errs = %+v, want one error on line 7", errs)
	}
	if len(found) != 5 {
		t.Fatalf("len(found) = %d, want 5", len(found))
	}

	tests := []struct {
		name, version string
		transitivity  deps.Transitivity
		children      int
	}{
		{"org.springframework:spring-core", "5.3.9", deps.Direct, 1},
		{"org.springframework:spring-jcl", "5.3.9", deps.Transitive, 0},
		{"io.netty:netty-transport-native-epoll", "4.1.68.Final", deps.Direct, 0},
		{"junit:junit", "4.13.2", deps.Direct, 1},
		{"org.hamcrest:hamcrest-core", "1.3", deps.Transitive, 0},
	}
	for i, tt := range tests {
		got := found[i]
		if got.Package != tt.name || got.Version != tt.version || got.Transitivity != tt.transitivity || len(got.Children) != tt.children {
			t.Errorf("found[%d] = %+v, want %s %s %s with %d children", i, got, tt.name, tt.version, tt.transitivity, tt.children)
		}
	}
	if c := found[0].Children[0]; c.Package != "org.springframework:spring-jcl" || c.Version != "5.3.9" {
		t.Errorf("spring-core child = %+v", c)
	}
}

func TestSplitTreeLine(t *testing.T) {
	tests := []struct {
		line  string
		depth int
	}{
		{"com.example:app:jar:1.0.0", 0},
		{"+- a:b:jar:1:compile", 1},
		{"\\- a:b:jar:1:compile", 1},
		{"|  \\- a:b:jar:1:compile", 2},
		{"   |  +- a:b:jar:1:compile", 3},
	}
	for _, tt := range tests {
		if depth, _ := splitTreeLine(tt.line); depth != tt.depth {
			t.Errorf("splitTreeLine(%q) depth = %d, want %d", tt.line, depth, tt.depth)
		}
	}
}

func TestParseGradleLockfile(t *testing.T) {
	fsys := fstest.MapFS{
		"gradle.lockfile": {Data: []byte(`# This is a Gradle generated file for dependency locking.
# Manual edits can break the build and are not advised.
com.google.guava:failureaccess:1.0.1=compileClasspath,runtimeClasspath
com.google.guava:guava:31.0-jre=compileClasspath,runtimeClasspath
broken-line
empty=annotationProcessor
`)},
		"build.gradle": {Data: []byte(`dependencies {
    implementation 'com.google.guava:guava:31.0-jre'
}
`)},
	}

	found, errs := ParseGradleLockfile(fsys, "gradle.lockfile", "build.gradle")
	if len(errs) != 1 || errs[0].Line != 5 {
		t.Errorf("errs = %+v, want one error on line 5", errs)
	}
	if len(found) != 2 {
		t.Fatalf("len(found) = %d, want 2", len(found))
	}
	if found[0].Package != "com.google.guava:failureaccess" || found[0].Transitivity != deps.Transitive {
		t.Errorf("found[0] = %+v", found[0])
	}
	if found[1].Version != "31.0-jre" || found[1].Transitivity != deps.Direct {
		t.Errorf("found[1] = %+v", found[1])
	}

	found, _ = ParseGradleLockfile(fsys, "gradle.lockfile", "")
	if found[0].Transitivity != deps.Unknown {
		t.Errorf("without a build file transitivity = %s, want unknown", found[0].Transitivity)
	}
}

func TestParseLongLines(t *testing.T) {
	long := strings.Repeat("x", 70*1024)
	tests := []struct {
		name    string
		parse   deps.Parser
		file    string
		data    string
		wantPkg string
		errLine int
	}{
		{
			name:    "maven",
			parse:   ParseMavenDepTree,
			file:    "maven_dep_tree.txt",
			data:    "com.example:app:jar:1.0.0\n+- " + long + "\n\\- junit:junit:jar:4.13.2:test\n",
			wantPkg: "junit:junit",
			errLine: 2,
		},
		{
			name:    "gradle",
			parse:   ParseGradleLockfile,
			file:    "gradle.lockfile",
			data:    long + "\njunit:junit:4.13.2=testCompileClasspath\n",
			wantPkg: "junit:junit",
			errLine: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{tt.file: {Data: []byte(tt.data)}}
			found, errs := tt.parse(fsys, tt.file, "")
			if len(errs) != 1 || errs[0].Line != tt.errLine {
				t.Errorf("errs = %d, want one on line %d", len(errs), tt.errLine)
			}
			if len(found) != 1 || found[0].Package != tt.wantPkg || found[0].Version != "4.13.2" {
				t.Errorf("found = %+v, want %s 4.13.2", found, tt.wantPkg)
			}
		})
	}
}

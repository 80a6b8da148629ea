package lockfile

import (
	"strings"
	"testing"

	yaml "gopkg.in/yaml.v3"
)

func TestResolution_RoundTripsTarball(t *testing.T) {
	r := Resolution{Kind: KindTarball, Tarball: "https://example.invalid/x.tgz", Integrity: "sha512-AAAA"}
	out, err := yaml.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back Resolution
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back != r {
		t.Fatalf("round trip diverged: got %+v, want %+v", back, r)
	}
}

func TestResolution_RoundTripsRegistry(t *testing.T) {
	r := Resolution{Kind: KindRegistry, Integrity: "sha512-BBBB"}
	out, err := yaml.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back Resolution
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back != r {
		t.Fatalf("round trip diverged: got %+v, want %+v", back, r)
	}
}

func TestResolution_RoundTripsDirectoryAndGit(t *testing.T) {
	cases := []Resolution{
		{Kind: KindDirectory, Directory: "../local-pkg"},
		{Kind: KindGit, Repo: "https://github.com/example/repo.git", Commit: "abc123"},
	}
	for _, r := range cases {
		out, err := yaml.Marshal(r)
		if err != nil {
			t.Fatalf("Marshal(%+v) failed: %v", r, err)
		}
		var back Resolution
		if err := yaml.Unmarshal(out, &back); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if back != r {
			t.Fatalf("round trip diverged: got %+v, want %+v", back, r)
		}
	}
}

func TestNode_Installable(t *testing.T) {
	cases := []struct {
		kind ResolutionKind
		want bool
	}{
		{KindTarball, true},
		{KindRegistry, true},
		{KindDirectory, false},
		{KindGit, false},
	}
	for _, c := range cases {
		n := Node{Resolution: Resolution{Kind: c.kind}}
		if got := n.Installable(); got != c.want {
			t.Errorf("Installable() for kind %q = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestLockFile_RoundTripPreservesOrder(t *testing.T) {
	lf := &LockFile{
		LockfileVersion: 1,
		Packages: Graph{
			{Path: "zebra@1.0.0", Node: Node{Resolution: Resolution{Kind: KindRegistry, Integrity: "sha512-Z"}}},
			{Path: "apple@1.0.0", Node: Node{Resolution: Resolution{Kind: KindRegistry, Integrity: "sha512-A"}}},
			{Path: "mango@1.0.0", Node: Node{Resolution: Resolution{Kind: KindRegistry, Integrity: "sha512-M"}, Dependencies: map[string]string{"apple": "apple@1.0.0"}}},
		},
	}

	out, err := yaml.Marshal(lf)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// "zebra" must appear before "apple" in the serialized document: a
	// plain map would alphabetize or randomize this.
	text := string(out)
	if strings.Index(text, "zebra") > strings.Index(text, "apple") {
		t.Fatalf("expected insertion order (zebra before apple) to survive serialization:\n%s", text)
	}

	var back LockFile
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(back.Packages) != 3 {
		t.Fatalf("got %d packages, want 3", len(back.Packages))
	}
	for i, e := range back.Packages {
		if e.Path != lf.Packages[i].Path {
			t.Errorf("entry %d: got path %q, want %q (order not preserved)", i, e.Path, lf.Packages[i].Path)
		}
	}
}

func TestGraph_Lookup(t *testing.T) {
	g := Graph{
		{Path: "a@1.0.0", Node: Node{Resolution: Resolution{Kind: KindRegistry}}},
	}
	if _, ok := g.Lookup("a@1.0.0"); !ok {
		t.Fatal("expected to find a@1.0.0")
	}
	if _, ok := g.Lookup("missing@1.0.0"); ok {
		t.Fatal("expected missing@1.0.0 to be absent")
	}
}

package registry

import "testing"

func TestRangeMatch_Caret(t *testing.T) {
	cases := []struct {
		spec      string
		candidate string
		want      bool
	}{
		{"^1.2.3", "1.2.3", true},
		{"^1.2.3", "1.9.9", true},
		{"^1.2.3", "2.0.0", false},
		{"^1.2.3", "1.2.2", false},
		{"^0.2.3", "0.2.9", true},
		{"^0.2.3", "0.3.0", false},
		{"^0.0.3", "0.0.3", true},
		{"^0.0.3", "0.0.4", false},
	}
	for _, c := range cases {
		sem, ok := parseSemver(c.candidate)
		if !ok {
			t.Fatalf("parseSemver(%q) failed", c.candidate)
		}
		if got := rangeMatch(c.spec, sem); got != c.want {
			t.Errorf("rangeMatch(%q, %q) = %v, want %v", c.spec, c.candidate, got, c.want)
		}
	}
}

func TestRangeMatch_Tilde(t *testing.T) {
	cases := []struct {
		spec      string
		candidate string
		want      bool
	}{
		{"~1.2.3", "1.2.3", true},
		{"~1.2.3", "1.2.9", true},
		{"~1.2.3", "1.3.0", false},
		{"~1.2.3", "1.2.2", false},
	}
	for _, c := range cases {
		sem, ok := parseSemver(c.candidate)
		if !ok {
			t.Fatalf("parseSemver(%q) failed", c.candidate)
		}
		if got := rangeMatch(c.spec, sem); got != c.want {
			t.Errorf("rangeMatch(%q, %q) = %v, want %v", c.spec, c.candidate, got, c.want)
		}
	}
}

func TestRangeMatch_XRanges(t *testing.T) {
	cases := []struct {
		spec      string
		candidate string
		want      bool
	}{
		{"1.2.x", "1.2.9", true},
		{"1.2.x", "1.3.0", false},
		{"1.x", "1.9.0", true},
		{"1.x", "2.0.0", false},
		{"*", "9.9.9", true},
		{"", "0.0.1", true},
		{"latest", "1.0.0", true},
	}
	for _, c := range cases {
		sem, ok := parseSemver(c.candidate)
		if !ok {
			t.Fatalf("parseSemver(%q) failed", c.candidate)
		}
		if got := rangeMatch(c.spec, sem); got != c.want {
			t.Errorf("rangeMatch(%q, %q) = %v, want %v", c.spec, c.candidate, got, c.want)
		}
	}
}

func TestRangeMatch_Exact(t *testing.T) {
	sem, _ := parseSemver("1.2.3")
	if !rangeMatch("1.2.3", sem) {
		t.Error("exact match expected for identical version")
	}
	if rangeMatch("1.2.4", sem) {
		t.Error("exact match should not accept a different version")
	}
}

func TestPinnedVersion_DistTagLatest(t *testing.T) {
	doc := &PackageDoc{
		Name: "example",
		Versions: map[string]VersionDoc{
			"1.0.0": {Version: "1.0.0"},
			"2.0.0": {Version: "2.0.0"},
		},
	}
	doc.DistTags.Latest = "1.0.0"

	v, err := PinnedVersion(doc, "latest")
	if err != nil {
		t.Fatalf("PinnedVersion failed: %v", err)
	}
	if v.Version != "1.0.0" {
		t.Fatalf("got %q, want %q (dist-tag latest, not the highest version)", v.Version, "1.0.0")
	}
}

func TestPinnedVersion_HighestSatisfyingRange(t *testing.T) {
	doc := &PackageDoc{
		Name: "example",
		Versions: map[string]VersionDoc{
			"1.2.0": {Version: "1.2.0"},
			"1.3.0": {Version: "1.3.0"},
			"1.9.9": {Version: "1.9.9"},
			"2.0.0": {Version: "2.0.0"},
		},
	}

	v, err := PinnedVersion(doc, "^1.2.0")
	if err != nil {
		t.Fatalf("PinnedVersion failed: %v", err)
	}
	if v.Version != "1.9.9" {
		t.Fatalf("got %q, want the highest matching version 1.9.9", v.Version)
	}
}

func TestPinnedVersion_NoMatch(t *testing.T) {
	doc := &PackageDoc{
		Name: "example",
		Versions: map[string]VersionDoc{
			"1.0.0": {Version: "1.0.0"},
		},
	}
	if _, err := PinnedVersion(doc, "^2.0.0"); err == nil {
		t.Fatal("expected error when no version satisfies the range")
	}
}

func TestPinnedVersion_ExactPin(t *testing.T) {
	doc := &PackageDoc{
		Name: "example",
		Versions: map[string]VersionDoc{
			"1.0.0": {Version: "1.0.0"},
			"1.0.1": {Version: "1.0.1"},
		},
	}
	v, err := PinnedVersion(doc, "1.0.0")
	if err != nil {
		t.Fatalf("PinnedVersion failed: %v", err)
	}
	if v.Version != "1.0.0" {
		t.Fatalf("got %q, want exact pin 1.0.0", v.Version)
	}
}

package identity

import "testing"

func TestString_Simple(t *testing.T) {
	id := Identity{Name: "lodash", Version: "4.17.21"}
	if got, want := id.String(), "lodash@4.17.21"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestString_WithPeers(t *testing.T) {
	id := Identity{
		Name:    "react-dom",
		Version: "18.3.1",
		Peers:   []Peer{{Name: "react", Version: "18.3.1"}},
	}
	want := "react-dom@18.3.1(react@18.3.1)"
	if got := id.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParse_RoundTripsSimple(t *testing.T) {
	for _, s := range []string{
		"lodash@4.17.21",
		"react-dom@18.3.1(react@18.3.1)",
		"react-dom@18.3.1(react@18.3.1)(react-is@18.3.1)",
	} {
		id, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", s, err)
		}
		if id.String() != s {
			t.Errorf("Parse(%q).String() = %q, want %q", s, id.String(), s)
		}
	}
}

func TestParse_ScopedName(t *testing.T) {
	id, err := Parse("@babel/core@7.24.0")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if id.Name != "@babel/core" {
		t.Errorf("Name = %q, want %q", id.Name, "@babel/core")
	}
	if id.Version != "7.24.0" {
		t.Errorf("Version = %q, want %q", id.Version, "7.24.0")
	}
}

func TestParse_ScopedNameWithPeers(t *testing.T) {
	id, err := Parse("@babel/core@7.24.0(@babel/types@7.24.0)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if id.Name != "@babel/core" || id.Version != "7.24.0" {
		t.Fatalf("got name=%q version=%q", id.Name, id.Version)
	}
	if len(id.Peers) != 1 || id.Peers[0].Name != "@babel/types" || id.Peers[0].Version != "7.24.0" {
		t.Fatalf("got peers=%+v", id.Peers)
	}
}

func TestParse_MissingVersionSeparator(t *testing.T) {
	if _, err := Parse("lodash"); err == nil {
		t.Fatal("expected error for a string with no version separator")
	}
	if _, err := Parse("@babel/core"); err == nil {
		t.Fatal("expected error for a scoped name with no version separator")
	}
}

func TestFolderName_EncodesScopeSlash(t *testing.T) {
	id := Identity{Name: "@babel/core", Version: "7.24.0"}
	want := "@babel+core@7.24.0"
	if got := FolderName(id); got != want {
		t.Fatalf("FolderName() = %q, want %q", got, want)
	}
}

func TestFolderName_PreservesPeerParens(t *testing.T) {
	id := Identity{
		Name:    "react-dom",
		Version: "18.3.1",
		Peers:   []Peer{{Name: "react", Version: "18.3.1"}},
	}
	want := "react-dom@18.3.1(react@18.3.1)"
	if got := FolderName(id); got != want {
		t.Fatalf("FolderName() = %q, want %q", got, want)
	}
}

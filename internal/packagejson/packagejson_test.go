package packagejson

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRead_ParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")
	content := `{
		"name": "example",
		"version": "1.0.0",
		"dependencies": {"lodash": "^4.17.21"},
		"devDependencies": {"mocha": "^10.0.0"},
		"peerDependencies": {"react": "^18.0.0"},
		"scripts": {"test": "mocha"},
		"bin": {"example": "bin/cli.js"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing package.json: %v", err)
	}

	pkg, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if pkg.Name != "example" || pkg.Version != "1.0.0" {
		t.Errorf("got name=%q version=%q", pkg.Name, pkg.Version)
	}
	if pkg.Dependencies["lodash"] != "^4.17.21" {
		t.Errorf("Dependencies[lodash] = %q", pkg.Dependencies["lodash"])
	}
	if pkg.Scripts["test"] != "mocha" {
		t.Errorf("Scripts[test] = %q", pkg.Scripts["test"])
	}
}

func TestRead_MissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing package.json")
	}
}

func TestRuntimeDependencies_ExcludesDevAndPeer(t *testing.T) {
	pkg := &PackageJSON{
		Dependencies:     map[string]string{"lodash": "^4.17.21"},
		DevDependencies:  map[string]string{"mocha": "^10.0.0"},
		PeerDependencies: map[string]string{"react": "^18.0.0"},
	}
	runtime := pkg.RuntimeDependencies()
	if len(runtime) != 1 {
		t.Fatalf("expected exactly 1 runtime dependency, got %d: %v", len(runtime), runtime)
	}
	if runtime["lodash"] != "^4.17.21" {
		t.Errorf("RuntimeDependencies()[lodash] = %q", runtime["lodash"])
	}
}


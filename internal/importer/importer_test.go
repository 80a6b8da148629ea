package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pacquet/pacquet/internal/tarball"
)

func TestMaterialize_WritesEveryEntry(t *testing.T) {
	storeDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "own")

	blobA := filepath.Join(storeDir, "a")
	blobB := filepath.Join(storeDir, "lib", "b")
	if err := os.MkdirAll(filepath.Dir(blobB), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(blobA, []byte("content a"), 0o644); err != nil {
		t.Fatalf("write blob a: %v", err)
	}
	if err := os.WriteFile(blobB, []byte("content b"), 0o644); err != nil {
		t.Fatalf("write blob b: %v", err)
	}

	idx := &tarball.Index{Entries: map[string]string{
		"index.js":      blobA,
		"lib/helper.js": blobB,
	}}

	if err := Materialize(context.Background(), idx, destDir); err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(destDir, "index.js"))
	if err != nil {
		t.Fatalf("reading materialized index.js: %v", err)
	}
	if string(got) != "content a" {
		t.Errorf("index.js content = %q, want %q", got, "content a")
	}

	got, err = os.ReadFile(filepath.Join(destDir, "lib", "helper.js"))
	if err != nil {
		t.Fatalf("reading materialized lib/helper.js: %v", err)
	}
	if string(got) != "content b" {
		t.Errorf("lib/helper.js content = %q, want %q", got, "content b")
	}
}

func TestMaterialize_SkipsExistingDestination(t *testing.T) {
	storeDir := t.TempDir()
	destDir := t.TempDir()

	blob := filepath.Join(storeDir, "a")
	if err := os.WriteFile(blob, []byte("original"), 0o644); err != nil {
		t.Fatalf("write blob: %v", err)
	}
	existing := filepath.Join(destDir, "index.js")
	if err := os.WriteFile(existing, []byte("already here"), 0o644); err != nil {
		t.Fatalf("write existing file: %v", err)
	}

	idx := &tarball.Index{Entries: map[string]string{"index.js": blob}}
	if err := Materialize(context.Background(), idx, destDir); err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	got, err := os.ReadFile(existing)
	if err != nil {
		t.Fatalf("reading existing file: %v", err)
	}
	if string(got) != "already here" {
		t.Errorf("Materialize overwrote an existing file; got %q", got)
	}
}

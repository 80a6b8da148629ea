package registry

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

// countingClient serves a fixed JSON body and counts how many requests it
// receives, so GetPackage's per-process memoization can be verified
// without a real registry.
type countingClient struct {
	body  string
	calls int32
}

func (c *countingClient) Do(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&c.calls, 1)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(c.body)),
		Header:     make(http.Header),
	}, nil
}

const examplePackageJSON = `{
	"name": "example",
	"dist-tags": {"latest": "1.0.0"},
	"versions": {
		"1.0.0": {
			"name": "example",
			"version": "1.0.0",
			"dist": {"tarball": "https://registry.npmjs.org/example/-/example-1.0.0.tgz", "integrity": "sha512-AAAA"}
		}
	}
}`

func TestGetPackage_MemoizesAcrossCalls(t *testing.T) {
	client := &countingClient{body: examplePackageJSON}
	c := New(DefaultURL, client, "")

	doc1, err := c.GetPackage(context.Background(), "example")
	if err != nil {
		t.Fatalf("GetPackage failed: %v", err)
	}
	doc2, err := c.GetPackage(context.Background(), "example")
	if err != nil {
		t.Fatalf("GetPackage failed: %v", err)
	}
	if doc1 != doc2 {
		t.Fatal("expected the same *PackageDoc pointer on repeated calls")
	}
	if calls := atomic.LoadInt32(&client.calls); calls != 1 {
		t.Fatalf("expected exactly one HTTP call, got %d", calls)
	}
}

func TestGetPackage_ParsesDocument(t *testing.T) {
	client := &countingClient{body: examplePackageJSON}
	c := New(DefaultURL, client, "")

	doc, err := c.GetPackage(context.Background(), "example")
	if err != nil {
		t.Fatalf("GetPackage failed: %v", err)
	}
	if doc.Name != "example" {
		t.Errorf("Name = %q, want %q", doc.Name, "example")
	}
	if doc.DistTags.Latest != "1.0.0" {
		t.Errorf("DistTags.Latest = %q, want %q", doc.DistTags.Latest, "1.0.0")
	}
	v, ok := doc.Versions["1.0.0"]
	if !ok {
		t.Fatal("expected version 1.0.0 to be present")
	}
	if v.Dist.Integrity != "sha512-AAAA" {
		t.Errorf("Dist.Integrity = %q, want %q", v.Dist.Integrity, "sha512-AAAA")
	}
}

func TestTarballURL_ScopedPackage(t *testing.T) {
	c := New(DefaultURL, &countingClient{}, "")
	url := c.TarballURL("@babel/core", "7.24.0")
	want := DefaultURL + "/@babel/core/-/core-7.24.0.tgz"
	if url != want {
		t.Fatalf("TarballURL = %q, want %q", url, want)
	}
}

func TestTarballURL_UnscopedPackage(t *testing.T) {
	c := New(DefaultURL, &countingClient{}, "")
	url := c.TarballURL("lodash", "4.17.21")
	want := DefaultURL + "/lodash/-/lodash-4.17.21.tgz"
	if url != want {
		t.Fatalf("TarballURL = %q, want %q", url, want)
	}
}

// Package registry is the Registry Client (spec §4.6): it fetches package
// metadata and picks a concrete version, memoizing results for the
// lifetime of one process.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pacquet/pacquet/internal/httpx"
	"github.com/pacquet/pacquet/internal/perr"
)

const DefaultURL = "https://registry.npmjs.org"

// PackageDoc is the registry's per-package metadata document.
type PackageDoc struct {
	Name     string                 `json:"name"`
	DistTags struct{ Latest string `json:"latest"` } `json:"dist-tags"`
	Versions map[string]VersionDoc  `json:"versions"`
}

// VersionDoc is a single version's metadata.
type VersionDoc struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Dist    struct {
		Tarball   string `json:"tarball"`
		Integrity string `json:"integrity"`
		Shasum    string `json:"shasum"`
	} `json:"dist"`
	Dependencies         map[string]string `json:"dependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
}

// Client is the Registry Client. It is safe for concurrent use; the same
// Client should be shared across an entire install so its memoizing cache
// is effective.
type Client struct {
	baseURL  string
	http     httpx.BasicClient
	cacheDir string // on-disk ETag/Last-Modified cache for package documents; "" disables it

	group singleflight.Group
	docs  sync.Map // name -> *PackageDoc, insert-only, stable references
}

// New returns a Client against baseURL (trailing slash stripped) using the
// shared retrying HTTP client. cacheDir, if non-empty, holds a conditional-
// GET disk cache (ETag/Last-Modified) in front of the in-process memoizing
// cache, adapted from the teacher's own registry disk cache.
func New(baseURL string, client httpx.BasicClient, cacheDir string) *Client {
	if client == nil {
		client = httpx.NewClient()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: client, cacheDir: cacheDir}
}

// cacheMeta records the conditional-GET validators for one cached package
// document.
type cacheMeta struct {
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
}

func (c *Client) cachePaths(name string) (dataPath, metaPath string) {
	safe := strings.NewReplacer("/", "__", "@", "").Replace(name)
	return filepath.Join(c.cacheDir, safe+".json"), filepath.Join(c.cacheDir, safe+".meta.json")
}

// GetPackage fetches (or returns a memoized reference to) name's package
// metadata document. Concurrent callers asking for the same name trigger
// exactly one HTTP GET (spec §8 scenario 3); the returned pointer remains
// valid and stable for the client's lifetime.
func (c *Client) GetPackage(ctx context.Context, name string) (*PackageDoc, error) {
	if v, ok := c.docs.Load(name); ok {
		return v.(*PackageDoc), nil
	}
	v, err, _ := c.group.Do("pkg:"+name, func() (any, error) {
		if v, ok := c.docs.Load(name); ok {
			return v.(*PackageDoc), nil
		}
		doc, err := c.fetchPackage(ctx, name)
		if err != nil {
			return nil, err
		}
		c.docs.Store(name, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PackageDoc), nil
}

func (c *Client) fetchPackage(ctx context.Context, name string) (*PackageDoc, error) {
	var dataPath, metaPath string
	var meta cacheMeta
	if c.cacheDir != "" {
		dataPath, metaPath = c.cachePaths(name)
		if b, err := os.ReadFile(metaPath); err == nil {
			_ = json.Unmarshal(b, &meta)
		}
	}

	url := c.baseURL + "/" + encodePackagePath(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching package metadata for %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && dataPath != "" {
		var doc PackageDoc
		if b, err := os.ReadFile(dataPath); err == nil && json.Unmarshal(b, &doc) == nil {
			return &doc, nil
		}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &perr.HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading package metadata for %s: %w", name, err)
	}
	var doc PackageDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing package metadata for %s: %w", name, err)
	}

	if dataPath != "" {
		if err := os.MkdirAll(c.cacheDir, 0o755); err == nil {
			_ = os.WriteFile(dataPath, body, 0o644)
			meta = cacheMeta{ETag: resp.Header.Get("ETag"), LastModified: resp.Header.Get("Last-Modified"), CachedAt: time.Now()}
			if mb, err := json.MarshalIndent(meta, "", "  "); err == nil {
				_ = os.WriteFile(metaPath, mb, 0o644)
			}
		}
	}
	return &doc, nil
}

// GetPackageVersion fetches a single version's metadata directly. It is
// not memoized — callers that already hold a PackageDoc should read
// doc.Versions[version] instead.
func (c *Client) GetPackageVersion(ctx context.Context, name, version string) (*VersionDoc, error) {
	url := c.baseURL + "/" + encodePackagePath(name) + "/" + version
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching version metadata for %s@%s: %w", name, version, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, &perr.HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}
	var v VersionDoc
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing version metadata for %s@%s: %w", name, version, err)
	}
	return &v, nil
}

// TarballURL synthesizes a registry-resolution tarball URL per spec §4.7:
// "<registry>/<name>/-/<bare-name>-<version>.tgz".
func (c *Client) TarballURL(name, version string) string {
	bare := name
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		bare = name[idx+1:]
	}
	return fmt.Sprintf("%s/%s/-/%s-%s.tgz", c.baseURL, encodePackagePath(name), bare, version)
}

// encodePackagePath path-escapes a (possibly scoped) package name for use
// as a URL path segment, preserving the '/' scope separator.
func encodePackagePath(name string) string {
	if !strings.HasPrefix(name, "@") {
		return neturl.PathEscape(name)
	}
	idx := strings.IndexByte(name, '/')
	if idx == -1 {
		return neturl.PathEscape(name)
	}
	return neturl.PathEscape(name[:idx]) + "/" + neturl.PathEscape(name[idx+1:])
}

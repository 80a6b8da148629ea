// Package tarball implements the in-flight deduplicating tarball cache:
// for a given integrity key, at most one fetch+verify+extract ever runs,
// regardless of how many callers ask for it concurrently or in sequence.
package tarball

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/klauspost/pgzip"
	"golang.org/x/sync/singleflight"

	"github.com/pacquet/pacquet/internal/cas"
	"github.com/pacquet/pacquet/internal/httpx"
	"github.com/pacquet/pacquet/internal/integrity"
	"github.com/pacquet/pacquet/internal/perr"
)

// Index maps a tarball's cleaned entry names to the absolute CAS path of
// that entry's stored blob.
type Index struct {
	Entries map[string]string
}

// Cache is a process-local, in-flight deduplicating tarball fetcher backed
// by a shared CAS.
type Cache struct {
	store  *cas.Store
	client httpx.BasicClient

	group   singleflight.Group
	results sync.Map // integrity string -> *result
}

type result struct {
	index *Index
	err   error
}

// New returns a Cache that inserts extracted files into store and fetches
// over client.
func New(store *cas.Store, client httpx.BasicClient) *Cache {
	if client == nil {
		client = httpx.NewClient()
	}
	return &Cache{store: store, client: client}
}

// GetOrFetch is the cache's sole public operation (spec §4.2). Keyed by
// expectedIntegrity: the first caller performs the fetch, verify, and
// extract; every other caller — concurrent or later in the process's
// lifetime — observes the same Index or the same terminal error.
// expectedUnpackedSize is a pre-allocation hint only; it is never enforced.
func (c *Cache) GetOrFetch(ctx context.Context, url string, expectedIntegrity string, expectedUnpackedSize int64) (*Index, error) {
	if r, ok := c.load(expectedIntegrity); ok {
		return r.index, r.err
	}

	v, err, _ := c.group.Do(expectedIntegrity, func() (any, error) {
		// The pending slot is installed by singleflight.Group.Do itself,
		// before this closure starts any I/O, which closes the race
		// window spec §4.2/§9 requires. Re-check results in case another
		// caller completed (and singleflight forgot the key) between our
		// first load and entering Do.
		if r, ok := c.load(expectedIntegrity); ok {
			return r, r.err
		}
		idx, ferr := c.fetchAndExtract(ctx, url, expectedIntegrity, expectedUnpackedSize)
		r := &result{index: idx, err: ferr}
		c.results.Store(expectedIntegrity, r)
		return r, ferr
	})
	if err != nil {
		return nil, err
	}
	return v.(*result).index, nil
}

func (c *Cache) load(key string) (*result, bool) {
	v, ok := c.results.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*result), true
}

func (c *Cache) fetchAndExtract(ctx context.Context, url, expectedIntegrity string, expectedUnpackedSize int64) (*Index, error) {
	expected, err := integrity.Parse(expectedIntegrity)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building tarball request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tarball %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, &perr.HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading tarball body from %s: %w", url, err)
	}

	actual := integrity.OfBytes(body)
	if !integrity.Equal(expected, actual) {
		return nil, &perr.MismatchedIntegrity{Expected: expected.String(), Actual: actual.String()}
	}

	idx, err := c.extract(body, expectedUnpackedSize)
	if err != nil {
		return nil, &perr.TarballExtractError{URL: url, Err: err}
	}
	return idx, nil
}

// extract gunzip-decodes body with pgzip (a parallel gzip reader — useful
// here precisely because tarball bodies can be large) and walks the tar
// stream, inserting every regular file's content into the CAS and
// recording cleaned_name -> cas_path. Directories, symlinks, and hardlinks
// inside the tarball are ignored: the importer creates directories as the
// parents of the files it writes, and archive symlinks and hardlinks are
// not reproduced.
func (c *Cache) extract(body []byte, expectedUnpackedSize int64) (*Index, error) {
	gz, err := pgzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	entries := make(map[string]string, estimateEntryCount(expectedUnpackedSize))

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar header: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		cleaned := cleanEntryName(hdr.Name)
		if cleaned == "" {
			continue
		}
		fileType := cas.NonExec
		_, casPath, err := c.store.PutReader(tr, fileType)
		if err != nil {
			return nil, fmt.Errorf("storing %s: %w", cleaned, err)
		}
		entries[cleaned] = casPath
	}
	return &Index{Entries: entries}, nil
}

// cleanEntryName strips the tarball's leading directory component
// (conventionally "package/") from an entry's path.
func cleanEntryName(name string) string {
	name = path.Clean(strings.TrimPrefix(name, "./"))
	parts := strings.SplitN(name, "/", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

func estimateEntryCount(expectedUnpackedSize int64) int {
	if expectedUnpackedSize <= 0 {
		return 64
	}
	// A rough heuristic: npm packages average a few KB per file.
	n := int(expectedUnpackedSize / 4096)
	if n < 8 {
		return 8
	}
	if n > 4096 {
		return 4096
	}
	return n
}

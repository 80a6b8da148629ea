// Package updater checks GitHub releases for a newer pacquet binary and
// downloads the matching asset. It is independent of the install pipeline:
// it uses the shared httpx client only for its retry/backoff behavior.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pacquet/pacquet/internal/httpx"
)

const releasesURL = "https://api.github.com/repos/pacquet/pacquet/releases/latest"

// Release is the subset of a GitHub release document this package needs.
type Release struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		BrowserDownloadURL string `json:"browser_download_url"`
		Name               string `json:"name"`
	} `json:"assets"`
}

func fetchLatestRelease(ctx context.Context, client httpx.BasicClient) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var rel Release
	if err := json.Unmarshal(body, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// CheckUpdate reports the latest published release and whether it differs
// from currentVersion.
func CheckUpdate(ctx context.Context, client httpx.BasicClient, currentVersion string) (latest string, hasNew bool, err error) {
	rel, err := fetchLatestRelease(ctx, client)
	if err != nil {
		return "", false, err
	}
	if rel.TagName == "" {
		return "", false, fmt.Errorf("no release info")
	}
	return rel.TagName, rel.TagName != currentVersion, nil
}

// DownloadLatest downloads the release asset matching this platform's
// binary name into destDir, returning the written path and the release tag.
func DownloadLatest(ctx context.Context, client httpx.BasicClient, destDir string) (path, tag string, err error) {
	rel, err := fetchLatestRelease(ctx, client)
	if err != nil {
		return "", "", err
	}

	wantName := "pacquet"
	if runtime.GOOS == "windows" {
		wantName = "pacquet.exe"
	}
	var url string
	for _, a := range rel.Assets {
		if a.Name == wantName {
			url = a.BrowserDownloadURL
			break
		}
	}
	if url == "" {
		return "", "", fmt.Errorf("no matching binary asset %q in release %s", wantName, rel.TagName)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", "", err
	}
	outPath := filepath.Join(destDir, wantName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("download status %d", resp.StatusCode)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", "", err
	}
	return outPath, rel.TagName, nil
}

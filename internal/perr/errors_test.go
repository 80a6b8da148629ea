package perr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIoError_UnwrapsAndRecoversViaErrorsAs(t *testing.T) {
	inner := errors.New("permission denied")
	wrapped := fmt.Errorf("opening cas entry: %w", &IoError{Path: "/tmp/x", Err: inner})

	var ioErr *IoError
	if !errors.As(wrapped, &ioErr) {
		t.Fatal("expected errors.As to recover *IoError")
	}
	if ioErr.Path != "/tmp/x" {
		t.Errorf("Path = %q, want %q", ioErr.Path, "/tmp/x")
	}
	if !errors.Is(wrapped, inner) {
		t.Error("expected errors.Is to find the innermost wrapped error")
	}
}

func TestTarballExtractError_UnwrapsThroughMultipleLayers(t *testing.T) {
	inner := errors.New("unexpected EOF")
	wrapped := fmt.Errorf("fetching tarball: %w", fmt.Errorf("layer: %w", &TarballExtractError{URL: "https://example.invalid/x.tgz", Err: inner}))

	var extractErr *TarballExtractError
	if !errors.As(wrapped, &extractErr) {
		t.Fatal("expected errors.As to recover *TarballExtractError through two wrapping layers")
	}
	if extractErr.URL != "https://example.invalid/x.tgz" {
		t.Errorf("URL = %q", extractErr.URL)
	}
	if !errors.Is(wrapped, inner) {
		t.Error("expected errors.Is to find the innermost error")
	}
}

func TestErrorKinds_AreDistinguishableViaErrorsAs(t *testing.T) {
	var symlinkErr *SymlinkCollision
	var mismatchErr *MismatchedIntegrity

	err := error(&SymlinkCollision{Path: "/a/b"})
	if !errors.As(err, &symlinkErr) {
		t.Fatal("expected SymlinkCollision to match its own type")
	}
	if errors.As(err, &mismatchErr) {
		t.Fatal("expected SymlinkCollision not to match MismatchedIntegrity")
	}
}

func TestHTTPStatusError_MessageIncludesStatusAndURL(t *testing.T) {
	err := &HTTPStatusError{URL: "https://registry.npmjs.org/lodash", StatusCode: 404}
	msg := err.Error()
	if !strings.Contains(msg, "404") || !strings.Contains(msg, "https://registry.npmjs.org/lodash") {
		t.Errorf("Error() = %q, want it to mention the status code and URL", msg)
	}
}

// Package importer materializes a package directory from a tarball
// extraction index, linking each file from the CAS via copy-on-write
// reflink where the filesystem supports it, falling back to a full byte
// copy otherwise.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pacquet/pacquet/internal/perr"
	"github.com/pacquet/pacquet/internal/tarball"
)

// maxParallelLinks bounds the worker pool used to materialize a single
// package's files; entries are independent because their destination paths
// are always distinct.
const maxParallelLinks = 16

// Materialize links every (cleaned_name, cas_path) pair in idx into
// destinationDir. Entries whose target already exists are skipped —
// re-import is a no-op, which is what lets the virtual store builder treat
// an existing own_dir as "already complete" (spec §5).
func Materialize(ctx context.Context, idx *tarball.Index, destinationDir string) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLinks)

	for cleanedName, casPath := range idx.Entries {
		cleanedName, casPath := cleanedName, casPath
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}
			dest := filepath.Join(destinationDir, filepath.FromSlash(cleanedName))
			return linkOne(casPath, dest)
		})
	}
	return g.Wait()
}

func linkOne(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &perr.IoError{Path: filepath.Dir(dst), Err: err}
	}
	if err := reflink(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("materializing %s -> %s: %w", src, dst, &perr.IoError{Path: dst, Err: err})
	}
	return nil
}

// reflink attempts a copy-on-write clone. It is a thin wrapper around the
// platform-specific implementation in reflink_linux.go / reflink_other.go;
// any failure (unsupported filesystem, cross-device, not permitted) falls
// through to copyFile.
func reflink(src, dst string) error {
	if runtime.GOOS != "linux" {
		return errUnsupported
	}
	return reflinkLinux(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	tmp := dst + ".partial"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

//go:build linux

package importer

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var errUnsupported = errors.New("reflink not supported on this platform")

// reflinkLinux attempts a copy-on-write clone via the FICLONE ioctl
// (btrfs, xfs with reflink=1, overlayfs on a supporting lower). Any error
// — ENOTSUP, EXDEV across filesystems, EPERM — is returned unwrapped so
// the caller falls back to a full byte copy.
func reflinkLinux(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if err := unix.IoctlFileClone(int(dstFile.Fd()), int(srcFile.Fd())); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

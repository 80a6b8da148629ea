//go:build !linux

package importer

import "errors"

var errUnsupported = errors.New("reflink not supported on this platform")

// reflinkLinux is unreachable outside linux; reflink() guards on GOOS
// before calling it. Kept so the build stays platform-agnostic without
// conditional call sites elsewhere in the package.
func reflinkLinux(src, dst string) error {
	return errUnsupported
}

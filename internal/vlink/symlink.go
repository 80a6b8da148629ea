// Package vlink creates the directory symlinks that stitch CAS-backed
// package directories into the logical node_modules tree, platform-aware.
package vlink

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pacquet/pacquet/internal/perr"
)

// TargetPolicy selects whether symlink targets are written as absolute or
// relative paths. The reference npm ecosystem uses relative targets; this
// module defaults to absolute for simplicity (spec §4.4/§9), kept as a
// single switch so the policy can be tightened later without touching call
// sites.
type TargetPolicy int

const (
	Absolute TargetPolicy = iota
	Relative
)

// Dir creates a directory symlink at linkPath pointing at target, applying
// policy to decide whether the stored target is absolute or relative to
// linkPath's directory.
//
// Idempotence: if linkPath already exists and is itself a symlink, this is
// a no-op success (regardless of what it points at — concurrent builders
// racing to create the same sibling symlink must not fail each other, spec
// §5). If it exists and is not a symlink, perr.SymlinkCollision is
// returned.
func Dir(target, linkPath string, policy TargetPolicy) error {
	if fi, err := os.Lstat(linkPath); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		return &perr.SymlinkCollision{Path: linkPath}
	}
	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		return &perr.IoError{Path: filepath.Dir(linkPath), Err: err}
	}

	storedTarget := target
	if policy == Relative {
		if rel, err := filepath.Rel(filepath.Dir(linkPath), target); err == nil {
			storedTarget = rel
		}
	} else if abs, err := filepath.Abs(target); err == nil {
		target, storedTarget = abs, abs
	}

	if runtime.GOOS == "windows" {
		return dirWindows(storedTarget, target, linkPath)
	}
	if err := os.Symlink(storedTarget, linkPath); err != nil {
		if os.IsExist(err) {
			// Lost the race to another creator of the same link; check it
			// resolved to a symlink and treat that as success.
			if fi, statErr := os.Lstat(linkPath); statErr == nil && fi.Mode()&os.ModeSymlink != 0 {
				return nil
			}
		}
		return &perr.IoError{Path: linkPath, Err: err}
	}
	return nil
}

// dirWindows prefers a native symlink (works when the process has
// SeCreateSymbolicLinkPrivilege or Developer Mode is on) and falls back to
// a directory junction via mklink /J, which needs no special privilege.
func dirWindows(storedTarget, absTarget, linkPath string) error {
	if err := os.Symlink(storedTarget, linkPath); err == nil {
		return nil
	}
	cmd := exec.Command("cmd", "/c", "mklink", "/J", linkPath, absTarget)
	if out, err := cmd.CombinedOutput(); err != nil {
		return &perr.IoError{Path: linkPath, Err: errf(err, out)}
	}
	return nil
}

func errf(err error, out []byte) error {
	return &mklinkError{err: err, output: string(out)}
}

type mklinkError struct {
	err    error
	output string
}

func (e *mklinkError) Error() string { return e.err.Error() + ": " + e.output }
func (e *mklinkError) Unwrap() error { return e.err }

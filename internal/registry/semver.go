package registry

import (
	"strconv"
	"strings"

	"github.com/pacquet/pacquet/internal/perr"
)

// semver is a parsed three-component version; parseSemver reports an
// unparseable string through its second result.
type semver struct{ Major, Minor, Patch int }

func parseSemver(v string) (semver, bool) {
	v = strings.TrimPrefix(v, "v")
	// Strip a prerelease/build suffix ("1.2.3-beta.1", "1.2.3+build") —
	// this package only orders release versions.
	if i := strings.IndexAny(v, "-+"); i != -1 {
		v = v[:i]
	}
	parts := strings.SplitN(v, ".", 3)
	nums := make([]int, 3)
	for i := 0; i < 3 && i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return semver{}, false
		}
		nums[i] = n
	}
	return semver{Major: nums[0], Minor: nums[1], Patch: nums[2]}, true
}

func (s semver) less(o semver) bool {
	if s.Major != o.Major {
		return s.Major < o.Major
	}
	if s.Minor != o.Minor {
		return s.Minor < o.Minor
	}
	return s.Patch < o.Patch
}

// rangeMatch reports whether candidate satisfies a (possibly prefixed)
// range spec: "^1.2.3", "~1.2.3", "1.2.x", "1.x", "*"/"latest"/"", or an
// exact version.
func rangeMatch(spec string, candidate semver) bool {
	spec = strings.TrimSpace(spec)
	switch spec {
	case "", "*", "latest":
		return true
	}
	switch {
	case strings.HasPrefix(spec, "^"):
		base, ok := parseSemver(spec[1:])
		if !ok {
			return false
		}
		if base.Major > 0 {
			return candidate.Major == base.Major && !candidate.less(base)
		}
		if base.Minor > 0 {
			return candidate.Major == 0 && candidate.Minor == base.Minor && !candidate.less(base)
		}
		return candidate.Major == 0 && candidate.Minor == 0 && candidate.Patch == base.Patch
	case strings.HasPrefix(spec, "~"):
		base, ok := parseSemver(spec[1:])
		if !ok {
			return false
		}
		return candidate.Major == base.Major && candidate.Minor == base.Minor && !candidate.less(base)
	case strings.HasSuffix(spec, ".x") || strings.HasSuffix(spec, ".*"):
		prefix := strings.TrimSuffix(strings.TrimSuffix(spec, ".x"), ".*")
		return xRangeMatch(prefix, candidate)
	case spec == "x" || spec == "x.x" || spec == "x.x.x":
		return true
	default:
		base, ok := parseSemver(spec)
		if !ok {
			return false
		}
		return candidate == base
	}
}

func xRangeMatch(prefix string, candidate semver) bool {
	segs := strings.Split(prefix, ".")
	for i, seg := range segs {
		if seg == "x" || seg == "*" {
			continue
		}
		n, err := strconv.Atoi(seg)
		if err != nil {
			return false
		}
		switch i {
		case 0:
			if candidate.Major != n {
				return false
			}
		case 1:
			if candidate.Minor != n {
				return false
			}
		}
	}
	return true
}

// PinnedVersion is the pure selection described in spec §4.6: the highest
// version in doc.Versions that satisfies rng. An empty or "latest" rng
// selects the dist-tags latest version when doc.Versions holds it, and a
// rng that names a listed version exactly selects that version. No library in this module's
// example corpus offers semver range matching, so this stays a hand-rolled
// pure function in the teacher's own style rather than a library import
// (documented in DESIGN.md).
func PinnedVersion(doc *PackageDoc, rng string) (*VersionDoc, error) {
	target := rng
	if rng == "" || rng == "latest" {
		target = doc.DistTags.Latest
	}
	if v, ok := doc.Versions[target]; ok {
		return &v, nil
	}

	var best *VersionDoc
	var bestSem semver
	for vs, v := range doc.Versions {
		sem, ok := parseSemver(vs)
		if !ok {
			continue
		}
		if !rangeMatch(rng, sem) {
			continue
		}
		if best == nil || bestSem.less(sem) {
			v := v
			best = &v
			bestSem = sem
		}
	}
	if best == nil {
		return nil, &perr.NoMatchingVersion{Name: doc.Name, Range: rng}
	}
	return best, nil
}

// Package identity implements Package Identity: (name, version, peer-set),
// its canonical dependency-path string form, and the filesystem-safe
// virtual-store folder-name encoding derived from it.
package identity

import (
	"fmt"
	"strings"
)

// Peer is one (name, version) pair in an identity's peer-set.
type Peer struct {
	Name    string
	Version string
}

// Identity is a resolved package identity: a name, a version, and an
// ordered peer-set that disambiguates otherwise-identical versions.
type Identity struct {
	Name    string
	Version string
	Peers   []Peer
}

// String renders the canonical dependency-path form:
// "name@version(peer1@ver1)(peer2@ver2)...".
func (id Identity) String() string {
	var b strings.Builder
	b.WriteString(id.Name)
	b.WriteByte('@')
	b.WriteString(id.Version)
	for _, p := range id.Peers {
		fmt.Fprintf(&b, "(%s@%s)", p.Name, p.Version)
	}
	return b.String()
}

// Parse splits a canonical dependency-path string back into its Identity.
// Scoped names ("@scope/name@version...") are handled by locating the
// version-separating '@' after the name, skipping a leading '@' that marks
// a scope.
func Parse(s string) (Identity, error) {
	name, rest, err := splitNameSuffix(s)
	if err != nil {
		return Identity{}, err
	}
	version, peerPart := splitVersionAndPeers(rest)
	peers, err := parsePeers(peerPart)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Name: name, Version: version, Peers: peers}, nil
}

// splitNameSuffix returns (name, "version(...)...") by finding the '@' that
// separates the package name from its version, correctly skipping a scope
// marker '@' at position 0.
func splitNameSuffix(s string) (string, string, error) {
	searchFrom := 0
	if strings.HasPrefix(s, "@") {
		searchFrom = 1
	}
	idx := strings.IndexByte(s[searchFrom:], '@')
	if idx == -1 {
		return "", "", fmt.Errorf("malformed identity string %q: missing version separator", s)
	}
	idx += searchFrom
	return s[:idx], s[idx+1:], nil
}

// splitVersionAndPeers separates "1.2.3(peer@ver)..." into ("1.2.3",
// "(peer@ver)...").
func splitVersionAndPeers(rest string) (string, string) {
	idx := strings.IndexByte(rest, '(')
	if idx == -1 {
		return rest, ""
	}
	return rest[:idx], rest[idx:]
}

func parsePeers(s string) ([]Peer, error) {
	if s == "" {
		return nil, nil
	}
	var peers []Peer
	for len(s) > 0 {
		if s[0] != '(' {
			return nil, fmt.Errorf("malformed peer suffix %q", s)
		}
		end := strings.IndexByte(s, ')')
		if end == -1 {
			return nil, fmt.Errorf("unterminated peer suffix %q", s)
		}
		inner := s[1:end]
		name, version, err := splitNameSuffix(inner + "@")
		if err != nil {
			return nil, fmt.Errorf("malformed peer entry %q: %w", inner, err)
		}
		version = strings.TrimSuffix(version, "@")
		peers = append(peers, Peer{Name: name, Version: version})
		s = s[end+1:]
	}
	return peers, nil
}

// FolderName encodes an Identity as a single filesystem-safe path segment:
// '/' in a scoped package name becomes '+'; peer-suffix parentheses are
// preserved literally since they are legal path characters on every
// platform this module targets (the single policy decision spec.md §3
// requires be documented — see DESIGN.md).
func FolderName(id Identity) string {
	return strings.ReplaceAll(id.String(), "/", "+")
}

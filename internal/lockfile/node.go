package lockfile

import (
	yaml "gopkg.in/yaml.v3"
)

// Node is the in-memory shape of one lockfile entry: a resolution plus the
// dependency edges the installer walks (spec §3 "Resolved Graph Node").
// DependencyPath — the identity string — is the key under which a Node
// lives in a Graph, not a field of Node itself.
type Node struct {
	Resolution   Resolution
	Dependencies map[string]string
}

type rawNode struct {
	rawResolution `yaml:",inline"`
	Dependencies  map[string]string `yaml:"dependencies,omitempty"`
}

// MarshalYAML implements yaml.Marshaler.
func (n Node) MarshalYAML() (interface{}, error) {
	return rawNode{rawResolution: n.Resolution.toRaw(), Dependencies: n.Dependencies}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var raw rawNode
	if err := value.Decode(&raw); err != nil {
		return err
	}
	resolved, err := raw.rawResolution.toResolution()
	if err != nil {
		return err
	}
	n.Resolution = resolved
	n.Dependencies = raw.Dependencies
	return nil
}

// Installable reports whether n's resolution can be materialized by this
// installer (spec §3: only Tarball and Registry are installable).
func (n Node) Installable() bool {
	return n.Resolution.Kind == KindTarball || n.Resolution.Kind == KindRegistry
}

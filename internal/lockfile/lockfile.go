// Package lockfile holds the in-memory shape of the lockfile-driven
// installer's input: a mapping from canonical dependency-path to a
// resolution and its declared dependency edges. Only the in-memory shape
// matters here (spec §1); the on-disk YAML format is this package's own
// concern.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"
)

// Entry pairs a canonical dependency-path with its Node, preserving the
// insertion order callers built the graph in.
type Entry struct {
	Path string
	Node Node
}

// Graph is the resolved dependency graph the installer drives (spec §4.7
// install_from_lockfile). Order is preserved across Load/Save for
// byte-stable round-tripping.
type Graph []Entry

// Lookup returns the Node at path, if present.
func (g Graph) Lookup(path string) (Node, bool) {
	for _, e := range g {
		if e.Path == path {
			return e.Node, true
		}
	}
	return Node{}, false
}

// LockFile is the root document.
type LockFile struct {
	LockfileVersion int
	Packages        Graph
}

// MarshalYAML builds the document manually so the "packages" mapping keeps
// Graph's entry order instead of the non-deterministic order a plain Go map
// would produce.
func (lf LockFile) MarshalYAML() (interface{}, error) {
	packagesNode := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range lf.Packages {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: e.Path}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(e.Node); err != nil {
			return nil, err
		}
		packagesNode.Content = append(packagesNode.Content, keyNode, valueNode)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	versionKey := &yaml.Node{Kind: yaml.ScalarNode, Value: "lockfileVersion"}
	versionVal := &yaml.Node{}
	if err := versionVal.Encode(lf.LockfileVersion); err != nil {
		return nil, err
	}
	packagesKey := &yaml.Node{Kind: yaml.ScalarNode, Value: "packages"}
	root.Content = append(root.Content, versionKey, versionVal, packagesKey, packagesNode)
	return root, nil
}

// UnmarshalYAML reads the document back into an order-preserving Graph.
func (lf *LockFile) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("lockfile root must be a mapping")
	}
	for i := 0; i < len(value.Content); i += 2 {
		key := value.Content[i]
		val := value.Content[i+1]
		switch key.Value {
		case "lockfileVersion":
			if err := val.Decode(&lf.LockfileVersion); err != nil {
				return err
			}
		case "packages":
			if val.Kind != yaml.MappingNode {
				return fmt.Errorf("packages must be a mapping")
			}
			lf.Packages = make(Graph, 0, len(val.Content)/2)
			for j := 0; j < len(val.Content); j += 2 {
				var n Node
				if err := val.Content[j+1].Decode(&n); err != nil {
					return fmt.Errorf("decoding package %q: %w", val.Content[j].Value, err)
				}
				lf.Packages = append(lf.Packages, Entry{Path: val.Content[j].Value, Node: n})
			}
		}
	}
	return nil
}

// FileName is the lockfile's conventional name inside a project directory.
const FileName = ".pacquet-lock.yaml"

// Path returns the lockfile path for projectDir.
func Path(projectDir string) string {
	return filepath.Join(projectDir, FileName)
}

// Load reads and parses the lockfile at projectDir.
func Load(projectDir string) (*LockFile, error) {
	data, err := os.ReadFile(Path(projectDir))
	if err != nil {
		return nil, err
	}
	var lf LockFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing lockfile: %w", err)
	}
	return &lf, nil
}

// Save serializes lf and writes it to projectDir.
func Save(projectDir string, lf *LockFile) error {
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("serializing lockfile: %w", err)
	}
	if err := os.WriteFile(Path(projectDir), data, 0o644); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	return nil
}

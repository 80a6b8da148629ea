package lockfile

import (
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// ResolutionKind discriminates the four resolution variants a Node can
// carry. Tarball and Registry are untagged (distinguished by which fields
// are present); Directory and Git are tagged by a "type" field.
type ResolutionKind string

const (
	KindTarball   ResolutionKind = "tarball"
	KindRegistry  ResolutionKind = "registry"
	KindDirectory ResolutionKind = "directory"
	KindGit       ResolutionKind = "git"
)

// Resolution is the in-memory shape of a lockfile entry's "how to get this
// package" field. Only Tarball and Registry are installable (spec §3/§6);
// Directory and Git are fatal at install time.
type Resolution struct {
	Kind ResolutionKind

	// Tarball / Registry
	Tarball   string
	Integrity string

	// Directory
	Directory string

	// Git
	Repo   string
	Commit string
}

// rawResolution mirrors the on-disk field order fixed by spec §6 so that
// marshaling a single-kind Resolution reproduces that literal shape:
// Tarball -> {tarball, integrity?}; Registry -> {integrity}; Directory ->
// {type, directory}; Git -> {type, repo, commit}.
type rawResolution struct {
	Type      string `yaml:"type,omitempty"`
	Tarball   string `yaml:"tarball,omitempty"`
	Integrity string `yaml:"integrity,omitempty"`
	Directory string `yaml:"directory,omitempty"`
	Repo      string `yaml:"repo,omitempty"`
	Commit    string `yaml:"commit,omitempty"`
}

func (r Resolution) toRaw() rawResolution {
	switch r.Kind {
	case KindDirectory:
		return rawResolution{Type: "directory", Directory: r.Directory}
	case KindGit:
		return rawResolution{Type: "git", Repo: r.Repo, Commit: r.Commit}
	case KindRegistry:
		return rawResolution{Integrity: r.Integrity}
	default: // KindTarball
		return rawResolution{Tarball: r.Tarball, Integrity: r.Integrity}
	}
}

func (r rawResolution) toResolution() (Resolution, error) {
	switch r.Type {
	case "directory":
		return Resolution{Kind: KindDirectory, Directory: r.Directory}, nil
	case "git":
		return Resolution{Kind: KindGit, Repo: r.Repo, Commit: r.Commit}, nil
	case "":
		if r.Tarball != "" {
			return Resolution{Kind: KindTarball, Tarball: r.Tarball, Integrity: r.Integrity}, nil
		}
		if r.Integrity != "" {
			return Resolution{Kind: KindRegistry, Integrity: r.Integrity}, nil
		}
		return Resolution{}, fmt.Errorf("resolution has neither tarball, integrity, nor type")
	default:
		return Resolution{}, fmt.Errorf("unknown resolution type %q", r.Type)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (r Resolution) MarshalYAML() (interface{}, error) {
	return r.toRaw(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler (gopkg.in/yaml.v3 node API).
func (r *Resolution) UnmarshalYAML(value *yaml.Node) error {
	var raw rawResolution
	if err := value.Decode(&raw); err != nil {
		return err
	}
	resolved, err := raw.toResolution()
	if err != nil {
		return err
	}
	*r = resolved
	return nil
}

package sink

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultManifestName is the manifest written next to restored artifacts.
const DefaultManifestName = "exhume-manifest.toml"

// Manifest records every artifact written by one restore run, in scan order.
type Manifest struct {
	Repository string          `toml:"repository"`
	Artifacts  []ManifestEntry `toml:"artifact"`
}

// ManifestEntry describes one restored file.
type ManifestEntry struct {
	Commit   string `toml:"commit"`
	Path     string `toml:"path"`
	Size     int64  `toml:"size"`
	Artifact string `toml:"artifact"`
	SHA256   string `toml:"sha256"`
	Binary   bool   `toml:"binary"`
	// Lines is zero for binary files.
	Lines int `toml:"lines,omitempty"`
}

// Save writes the manifest to path, replacing any previous one.
func (m *Manifest) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating manifest file: %w", err)
	}
	defer f.Close()

	err = toml.NewEncoder(f).Encode(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	return nil
}

// LoadManifest reads a manifest written by Save.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{}

	_, err := toml.DecodeFile(path, m)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	return m, nil
}

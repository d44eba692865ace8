package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const (
	metadataFile    = "worktree-cache.json"
	metadataVersion = "1"
)

// metadata is the per-clone record kept next to the git data. It remembers
// the default branch for offline use and when the clone was last fetched.
type metadata struct {
	Version        string    `json:"version"`
	URL            string    `json:"url,omitempty"`
	DefaultBranch  string    `json:"default_branch,omitempty"`
	ClonedAt       time.Time `json:"cloned_at"`
	LastFetch      time.Time `json:"last_fetch"`
	LastFetchError string    `json:"last_fetch_error,omitempty"`
}

func newMetadata() *metadata {
	return &metadata{Version: metadataVersion}
}

func metadataPath(clonePath string) string {
	return filepath.Join(clonePath, metadataFile)
}

// loadMetadata reads the record for a clone. A missing file yields an empty
// record; an unreadable one yields an empty record and an error.
func loadMetadata(fs billy.Filesystem, path string) (*metadata, error) {
	data, err := util.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return newMetadata(), nil
	}
	if err != nil {
		return newMetadata(), fmt.Errorf("failed to read cache metadata: %w", err)
	}

	var m metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return newMetadata(), fmt.Errorf("failed to parse cache metadata: %w", err)
	}
	if m.Version != metadataVersion {
		return newMetadata(), fmt.Errorf("unsupported cache metadata version: %s (expected %s)", m.Version, metadataVersion)
	}

	return &m, nil
}

// save writes the record atomically through a temporary file and rename.
func (m *metadata) save(fs billy.Filesystem, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache metadata: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := util.WriteFile(fs, tmpPath, data, 0o644); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("failed to rename cache metadata: %w", err)
	}

	return nil
}

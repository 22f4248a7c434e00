// Package manifest discovers dataset directories under a root path.
//
// A dataset directory is any directory containing dataset-meta.bin. It may
// additionally carry a manifest.yaml with human-readable descriptive fields;
// the loader itself never needs them, they exist for dataset pickers and
// tooling.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/trako/section"
)

// FileName is the optional per-dataset descriptor file.
const FileName = "manifest.yaml"

// Manifest holds the descriptive fields of a manifest.yaml.
type Manifest struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Scenario    string   `yaml:"scenario"`
	Tags        []string `yaml:"tags"`
}

// Entry is one discovered dataset.
type Entry struct {
	// Dir is the dataset directory holding the binary files.
	Dir string

	// Manifest is the parsed manifest.yaml, zero when the file is absent.
	Manifest Manifest

	// Meta is the dataset's parsed metadata record.
	Meta *section.DatasetMeta
}

// DisplayName returns the manifest name, falling back to the directory base
// name.
func (e *Entry) DisplayName() string {
	if e.Manifest.Name != "" {
		return e.Manifest.Name
	}

	return filepath.Base(e.Dir)
}

// Read parses the manifest.yaml in dir. A missing file is an fs.ErrNotExist
// error; callers treating the manifest as optional should check for it.
func Read(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return Manifest{}, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse %s: %w", filepath.Join(dir, FileName), err)
	}

	return m, nil
}

// Write serializes the manifest to dir's manifest.yaml.
func Write(dir string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, FileName), data, 0o644)
}

// Scan walks root and returns an Entry for every directory containing a
// readable dataset-meta.bin, sorted by directory path. Directories with a
// corrupt metadata file or manifest are logged and skipped; they never fail
// the scan.
func Scan(root string, logger *slog.Logger) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		metaPath := filepath.Join(path, section.DatasetMetaFileName)
		if _, statErr := os.Stat(metaPath); statErr != nil {
			return nil
		}

		meta, metaErr := section.ReadDatasetMetaFile(metaPath)
		if metaErr != nil {
			logger.Warn("skipping dataset with unreadable metadata",
				"dir", path, "error", metaErr)

			return nil
		}

		entry := Entry{Dir: path, Meta: meta}
		m, manifestErr := Read(path)
		switch {
		case manifestErr == nil:
			entry.Manifest = m
		case errors.Is(manifestErr, fs.ErrNotExist):
			// Manifest is optional.
		default:
			logger.Warn("ignoring unreadable manifest", "dir", path, "error", manifestErr)
		}

		entries = append(entries, entry)

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Dir < entries[j].Dir })

	return entries, nil
}

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

// CatalogVersion is written to every catalog file.
const CatalogVersion = "1.0"

// LoadKind tells how the catalog was obtained at load time.
type LoadKind string

const (
	// LoadedOK means the catalog file was read and parsed.
	LoadedOK LoadKind = "ok"
	// LoadedMissing means no catalog file existed; the registry starts empty.
	LoadedMissing LoadKind = "missing"
	// LoadedRecovered means the file was unreadable or corrupt; it was moved
	// aside and the registry starts empty.
	LoadedRecovered LoadKind = "recovered"
)

// LoadResult describes the outcome of reading the catalog file.
type LoadResult struct {
	Kind LoadKind
	// Reason explains a non-OK load.
	Reason string
	// BackupPath is where a corrupt file was moved, if anywhere.
	BackupPath string
	// Count is the number of entries loaded.
	Count int
}

// catalogFile is the on-disk JSON document.
type catalogFile struct {
	Version   string                           `json:"version"`
	UpdatedAt time.Time                        `json:"updated_at"`
	Skills    map[string]*models.SkillMetadata `json:"skills"`
}

// readCatalog loads the catalog at path without side effects.
func readCatalog(path string) (map[string]*models.SkillMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc catalogFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	skills := make(map[string]*models.SkillMetadata, len(doc.Skills))
	for key, s := range doc.Skills {
		if s == nil {
			continue
		}
		if s.Name == "" {
			s.Name = key
		}
		if !s.SecurityStatus.Valid() {
			s.SecurityStatus = models.SecurityUnscanned
		}
		s.Capabilities = models.NormalizeSet(s.Capabilities)
		s.Tags = models.NormalizeSet(s.Tags)
		s.Dependencies = models.NameSet(s.Dependencies)
		skills[s.Name] = s
	}
	return skills, nil
}

// loadCatalog reads the catalog, degrading to an empty one when the file is
// missing or corrupt. A corrupt file is renamed so the next save does not
// destroy it.
func loadCatalog(path string, now time.Time) (map[string]*models.SkillMetadata, LoadResult) {
	skills, err := readCatalog(path)
	if err == nil {
		return skills, LoadResult{Kind: LoadedOK, Count: len(skills)}
	}

	empty := make(map[string]*models.SkillMetadata)
	if errors.Is(err, fs.ErrNotExist) {
		return empty, LoadResult{Kind: LoadedMissing, Reason: "catalog file does not exist"}
	}

	result := LoadResult{Kind: LoadedRecovered, Reason: err.Error()}
	backup := fmt.Sprintf("%s.corrupt-%d", path, now.Unix())
	if renameErr := os.Rename(path, backup); renameErr == nil {
		result.BackupPath = backup
	}
	return empty, result
}

// writeCatalog atomically replaces the catalog file.
func writeCatalog(path string, skills map[string]*models.SkillMetadata, now time.Time) error {
	doc := catalogFile{
		Version:   CatalogVersion,
		UpdatedAt: now,
		Skills:    skills,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp catalog: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close catalog: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace catalog: %w", err)
	}
	return nil
}

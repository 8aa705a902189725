package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RecordSet holds the raw record collections of a record file. Values are
// left loosely typed so the normalizer can report shape problems itself.
type RecordSet struct {
	WorkItems any `yaml:"work_items"`
	Resources any `yaml:"resources"`
	Projects  any `yaml:"projects"`
}

// RecordStore defines the interface for loading record sets.
type RecordStore interface {
	Load() (*RecordSet, error)
	Save(set *RecordSet) error
	Path() string
}

type fileRecordStore struct {
	path string
}

// NewRecordStore creates a RecordStore backed by the YAML file at path.
// Relative paths are resolved against basePath. JSON files are accepted too
// since YAML is a superset of JSON.
func NewRecordStore(basePath, path string) RecordStore {
	if !filepath.IsAbs(path) {
		path = filepath.Join(basePath, path)
	}
	return &fileRecordStore{path: path}
}

func (s *fileRecordStore) Path() string {
	return s.path
}

// Load reads the record file. Missing top-level keys become empty
// collections; a key holding a non-list value is passed through unchanged.
func (s *fileRecordStore) Load() (*RecordSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}

	var set RecordSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("loading records: parsing YAML: %w", err)
	}
	if set.WorkItems == nil {
		set.WorkItems = []any{}
	}
	if set.Resources == nil {
		set.Resources = []any{}
	}
	if set.Projects == nil {
		set.Projects = []any{}
	}
	return &set, nil
}

// Save writes the record set under an exclusive lock on <path>.lock. The
// file is replaced via rename so readers never see a partial write.
func (s *fileRecordStore) Save(set *RecordSet) error {
	if set == nil {
		return fmt.Errorf("saving records: record set is nil")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("saving records: creating directory: %w", err)
	}
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("saving records: marshaling YAML: %w", err)
	}

	lock, err := acquireRecordLock(s.path)
	if err != nil {
		return fmt.Errorf("saving records: %w", err)
	}
	defer func() { _ = lock.Release() }()

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("saving records: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("saving records: writing file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving records: writing file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving records: replacing file: %w", err)
	}
	return nil
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"github.com/neustart-io/neustart/internal/models"
)

// ErrMalformedStore is returned when the app registry file exists but cannot
// be decoded. Callers treat it as a fatal startup error.
var ErrMalformedStore = errors.New("malformed app store")

// AppsStore persists app definitions as an indented JSON array.
type AppsStore struct {
	path string
}

// NewAppsStore creates a store backed by the file at path.
func NewAppsStore(path string) *AppsStore {
	return &AppsStore{path: path}
}

// Path returns the backing file path.
func (s *AppsStore) Path() string {
	return s.path
}

// Load reads every definition in file order. A record written before the
// restart policy existed takes the missing policy fields from defaults. A
// missing file is initialised to an empty list instead of failing.
func (s *AppsStore) Load(defaults models.RestartPolicy) ([]models.AppDefinition, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read file %s: %w", s.path, err)
		}
		if err := writeFileAtomic(s.path, []byte("[]")); err != nil {
			return nil, err
		}
		return []models.AppDefinition{}, nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformedStore, s.path)
	}

	var records []sonic.NoCopyRawMessage
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedStore, s.path, err)
	}
	if records == nil {
		// "null" decodes to a nil slice.
		return nil, fmt.Errorf("%w: %s is not an array", ErrMalformedStore, s.path)
	}

	defs := make([]models.AppDefinition, 0, len(records))
	for i, raw := range records {
		// Keys absent from the record keep the preset value.
		def := models.AppDefinition{RestartPolicy: defaults}
		if err := sonic.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("%w: %s: record %d: %v", ErrMalformedStore, s.path, i, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Save writes all definitions in order, replacing the file atomically.
func (s *AppsStore) Save(defs []models.AppDefinition) error {
	if defs == nil {
		defs = []models.AppDefinition{}
	}
	data, err := sonic.MarshalIndent(defs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal apps: %w", err)
	}
	return writeFileAtomic(s.path, data)
}

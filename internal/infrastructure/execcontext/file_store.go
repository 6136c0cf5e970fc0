// Package execcontext persists the record of the last generated execution.
package execcontext

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/pkg/filesystem"
	"github.com/doeshing/ergo/internal/ports"
)

var _ ports.ExecutionContextStore = (*FileStore)(nil)

// FileStore keeps last_execution.json in the write tier. Each Save replaces
// the whole file.
type FileStore struct {
	resolver ports.TierResolver
}

// NewFileStore builds a store rooted at the resolver's write tier.
func NewFileStore(resolver ports.TierResolver) *FileStore {
	return &FileStore{resolver: resolver}
}

func (s *FileStore) path() (string, error) {
	dir, err := s.resolver.WriteDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, domain.ExecutionContextFileName), nil
}

// Load implements ports.ExecutionContextStore.
func (s *FileStore) Load() (*domain.ExecutionContextRecord, error) {
	path, err := s.path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read execution context: %w", err)
	}
	var record domain.ExecutionContextRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse execution context %s: %w", path, err)
	}
	// null or {} carries no command to regenerate.
	if record.CommandName == "" {
		return nil, nil
	}
	return &record, nil
}

// Save implements ports.ExecutionContextStore.
func (s *FileStore) Save(record domain.ExecutionContextRecord) error {
	path, err := s.path()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode execution context: %w", err)
	}
	if err := filesystem.WriteFileAtomic(path, data, domain.FilePermissions); err != nil {
		return fmt.Errorf("write execution context: %w", err)
	}
	return nil
}

// MemoryStore keeps the record in memory.
type MemoryStore struct {
	Record *domain.ExecutionContextRecord
	Saves  int
}

// Load implements ports.ExecutionContextStore.
func (m *MemoryStore) Load() (*domain.ExecutionContextRecord, error) {
	if m.Record == nil {
		return nil, nil
	}
	r := *m.Record
	return &r, nil
}

// Save implements ports.ExecutionContextStore.
func (m *MemoryStore) Save(record domain.ExecutionContextRecord) error {
	m.Record = &record
	m.Saves++
	return nil
}

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/focusplan/bot/internal/domain/entities"
	"github.com/focusplan/bot/internal/infrastructure/logger"
	"github.com/focusplan/bot/internal/ports"
)

// FileStore persists the full state mapping as one indented JSON snapshot.
// The snapshot stays human-diffable on purpose; saves go through a
// write-then-rename so a crash mid-write never leaves a truncated file.
type FileStore struct {
	path   string
	logger *logger.Logger
}

// NewFileStore creates a file store backed by the given snapshot path.
func NewFileStore(path string, logger *logger.Logger) ports.Store {
	return &FileStore{path: path, logger: logger}
}

// Load reads the snapshot. A missing or unreadable snapshot yields an
// empty root: the system favors availability over surfacing storage
// errors to the user.
func (s *FileStore) Load(ctx context.Context) (entities.StoreRoot, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnw("Snapshot unreadable, starting from empty state", "path", s.path, "error", err.Error())
		}
		return entities.StoreRoot{}, nil
	}

	var root entities.StoreRoot
	if err := json.Unmarshal(raw, &root); err != nil {
		s.logger.Warnw("Snapshot corrupt, starting from empty state", "path", s.path, "error", err.Error())
		return entities.StoreRoot{}, nil
	}
	if root == nil {
		root = entities.StoreRoot{}
	}
	root.Normalize()

	return root, nil
}

// Save overwrites the snapshot with the full root. Unlike Load, a failed
// save is surfaced: swallowing it risks silent data loss.
func (s *FileStore) Save(ctx context.Context, root entities.StoreRoot) error {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write snapshot %s: %w: %w", s.path, entities.ErrStorageUnavailable, err)
	}

	return nil
}

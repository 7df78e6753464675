package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

const fileExt = ".json"

// FileBackend stores each entry as <dir>/<id>.json
type FileBackend struct {
	dir string
}

// NewFileBackend creates the directory if needed
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) Name() string { return "file" }

// Dir returns the storage directory
func (b *FileBackend) Dir() string { return b.dir }

func (b *FileBackend) path(id string) string {
	return filepath.Join(b.dir, id+fileExt)
}

// Put writes to a temp file and renames it into place, so readers never see
// a partial document
func (b *FileBackend) Put(_ context.Context, id string, entry types.StateEntry) error {
	data, err := sonic.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(b.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmpName, b.path(id)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store state: %w", err)
	}
	return nil
}

func (b *FileBackend) Get(_ context.Context, id string) (types.StateEntry, error) {
	data, err := os.ReadFile(b.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return types.StateEntry{}, ErrNotFound
	}
	if err != nil {
		return types.StateEntry{}, fmt.Errorf("failed to read state: %w", err)
	}

	var entry types.StateEntry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		return types.StateEntry{}, fmt.Errorf("failed to unmarshal state %s: %w", id, err)
	}
	return entry, nil
}

func (b *FileBackend) Delete(_ context.Context, id string) error {
	err := os.Remove(b.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

func (b *FileBackend) List(_ context.Context) ([]string, error) {
	dirEntries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list state directory: %w", err)
	}

	ids := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	slices.Sort(ids)
	return ids, nil
}

func (b *FileBackend) Close() error { return nil }

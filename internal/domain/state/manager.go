package state

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

var (
	// ErrInvalidID is returned for ids that are empty, too long or not file-name safe
	ErrInvalidID = errors.New("invalid panel id")
	// ErrUnselected is returned when saving a location without a port
	ErrUnselected = errors.New("cannot persist an unselected location")
)

const maxIDLength = 128

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ValidateID checks that id can be used as a storage key
func ValidateID(id string) error {
	if len(id) == 0 || len(id) > maxIDLength || !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Recorder receives one observation per store operation
type Recorder interface {
	RecordStateOp(op, status string)
}

// Manager caches entries in front of a Backend
type Manager struct {
	entries     sync.Map // id -> types.StateEntry
	backend     Backend
	recorder    Recorder
	mu          sync.RWMutex
	lastSaved   *time.Time
	lastRemoved *time.Time
}

// NewManager creates a manager over backend
func NewManager(backend Backend) *Manager {
	return &Manager{backend: backend}
}

// WithMetrics attaches a recorder
func (m *Manager) WithMetrics(r Recorder) *Manager {
	m.recorder = r
	return m
}

// Save stores loc as the panel's current location, replacing any previous one
func (m *Manager) Save(ctx context.Context, id string, loc location.Location) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	loc = loc.Normalize()
	if loc.IsUnselected() {
		return ErrUnselected
	}
	if !location.ValidPort(loc.Port) {
		return fmt.Errorf("%w: %q", location.ErrInvalidPort, loc.Port)
	}

	entry := ToEntry(loc)
	if err := m.backend.Put(ctx, id, entry); err != nil {
		m.record("save", "error")
		return fmt.Errorf("failed to save state for %s: %w", id, err)
	}
	m.entries.Store(id, entry)

	now := time.Now()
	m.mu.Lock()
	m.lastSaved = &now
	m.mu.Unlock()

	m.record("save", "success")
	return nil
}

// Fetch returns the stored location. ok is false when none exists.
func (m *Manager) Fetch(ctx context.Context, id string) (loc location.Location, ok bool, err error) {
	if err := ValidateID(id); err != nil {
		return location.Location{}, false, err
	}

	if cached, hit := m.entries.Load(id); hit {
		m.record("fetch", "hit")
		return FromEntry(cached.(types.StateEntry)), true, nil
	}

	entry, err := m.backend.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		m.record("fetch", "miss")
		return location.Location{}, false, nil
	}
	if err != nil {
		m.record("fetch", "error")
		return location.Location{}, false, fmt.Errorf("failed to fetch state for %s: %w", id, err)
	}

	loc = FromEntry(entry)
	if loc.IsUnselected() {
		m.record("fetch", "miss")
		return location.Location{}, false, nil
	}
	m.entries.Store(id, entry)
	m.record("fetch", "loaded")
	return loc, true, nil
}

// Remove deletes the entry. Removing a missing entry is not an error.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	m.entries.Delete(id)
	if err := m.backend.Delete(ctx, id); err != nil {
		m.record("remove", "error")
		return fmt.Errorf("failed to remove state for %s: %w", id, err)
	}

	now := time.Now()
	m.mu.Lock()
	m.lastRemoved = &now
	m.mu.Unlock()

	m.record("remove", "success")
	return nil
}

// List returns the ids with a stored entry
func (m *Manager) List(ctx context.Context) ([]string, error) {
	ids, err := m.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list state: %w", err)
	}
	return ids, nil
}

// Stats returns store statistics
func (m *Manager) Stats(ctx context.Context) (types.StateStats, error) {
	ids, err := m.List(ctx)
	if err != nil {
		return types.StateStats{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return types.StateStats{
		Entries:     len(ids),
		Backend:     m.backend.Name(),
		LastSaved:   m.lastSaved,
		LastRemoved: m.lastRemoved,
	}, nil
}

// Close releases the backend
func (m *Manager) Close() error {
	return m.backend.Close()
}

func (m *Manager) record(op, status string) {
	if m.recorder != nil {
		m.recorder.RecordStateOp(op, status)
	}
}

// ToEntry converts a location to its stored shape
func ToEntry(loc location.Location) types.StateEntry {
	return types.StateEntry{
		Mode:     string(loc.Mode),
		Port:     loc.Port,
		Pathname: "/" + strings.TrimLeft(loc.Path, "/"),
		Search:   loc.Query,
		Hash:     loc.Fragment,
	}
}

// FromEntry converts a stored entry back to a location
func FromEntry(entry types.StateEntry) location.Location {
	return location.Location{
		Mode:     location.Mode(entry.Mode),
		Port:     entry.Port,
		Path:     entry.Pathname,
		Query:    entry.Search,
		Fragment: entry.Hash,
	}.Normalize()
}

// NewBackend selects a backend by name: memory, file or sqlite
func NewBackend(kind, path string) (Backend, error) {
	switch kind {
	case "memory", "":
		return NewMemoryBackend(), nil
	case "file":
		return NewFileBackend(path)
	case "sqlite":
		return NewSQLiteBackend(path)
	default:
		return nil, fmt.Errorf("unknown state backend %q", kind)
	}
}

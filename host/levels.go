package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	ErrLevelNotFound    = errors.New("level not found")
	ErrInvalidLevelName = errors.New("invalid level name")
)

var levelNamePattern = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)

// LevelStore persists editor world snapshots.
type LevelStore interface {
	// Save writes the world under name, replacing any previous snapshot
	Save(name string, w *World) error

	// Load reads the snapshot saved under name
	Load(name string) (*World, error)

	Delete(name string) error

	// ListAll returns the saved level names in sorted order
	ListAll() ([]string, error)

	Exists(name string) bool
}

// PersistedLevel is the JSON layout of a snapshot file.
type PersistedLevel struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"saved_at"`
	World   *World    `json:"world"`
}

// ValidateLevelName keeps level names usable as file names.
func ValidateLevelName(name string) error {
	if !levelNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q (letters, digits, '_' and '-' only)", ErrInvalidLevelName, name)
	}
	return nil
}

// FileLevelStore keeps one JSON file per level in a directory.
type FileLevelStore struct {
	dir string
}

// NewFileLevelStore creates the directory if needed.
func NewFileLevelStore(dir string) (*FileLevelStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create levels directory: %w", err)
	}
	return &FileLevelStore{dir: dir}, nil
}

func (s *FileLevelStore) Save(name string, w *World) error {
	if err := ValidateLevelName(name); err != nil {
		return err
	}
	if w == nil {
		return fmt.Errorf("world cannot be nil")
	}

	data, err := json.MarshalIndent(PersistedLevel{Name: name, SavedAt: time.Now().UTC(), World: w}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	// Write to a temp file and rename into place.
	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write level file: %w", err)
	}
	return nil
}

func (s *FileLevelStore) Load(name string) (*World, error) {
	if err := ValidateLevelName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	var persisted PersistedLevel
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, fmt.Errorf("failed to unmarshal level %s: %w", name, err)
	}
	if persisted.World == nil {
		return nil, fmt.Errorf("level %s has no world", name)
	}
	w := persisted.World
	if w.Actors == nil {
		w.Actors = map[string]*Actor{}
	}
	if w.Counters == nil {
		w.Counters = map[string]int{}
	}
	return w, nil
}

func (s *FileLevelStore) Delete(name string) error {
	if err := ValidateLevelName(name); err != nil {
		return err
	}
	if !s.Exists(name) {
		return fmt.Errorf("%w: %s", ErrLevelNotFound, name)
	}
	if err := os.Remove(s.path(name)); err != nil {
		return fmt.Errorf("failed to remove level file: %w", err)
	}
	return nil
}

func (s *FileLevelStore) ListAll() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read levels directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileLevelStore) Exists(name string) bool {
	if ValidateLevelName(name) != nil {
		return false
	}
	_, err := os.Stat(s.path(name))
	return err == nil
}

func (s *FileLevelStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// MemoryLevelStore keeps snapshots in memory. It backs hosts started
// without a snapshot directory and tests.
type MemoryLevelStore struct {
	levels map[string][]byte
}

func NewMemoryLevelStore() *MemoryLevelStore {
	return &MemoryLevelStore{levels: map[string][]byte{}}
}

func (s *MemoryLevelStore) Save(name string, w *World) error {
	if err := ValidateLevelName(name); err != nil {
		return err
	}
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}
	s.levels[name] = data
	return nil
}

func (s *MemoryLevelStore) Load(name string) (*World, error) {
	data, ok := s.levels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, name)
	}
	w := NewWorld(WorldEditor, "")
	if err := json.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal level %s: %w", name, err)
	}
	return w, nil
}

func (s *MemoryLevelStore) Delete(name string) error {
	if _, ok := s.levels[name]; !ok {
		return fmt.Errorf("%w: %s", ErrLevelNotFound, name)
	}
	delete(s.levels, name)
	return nil
}

func (s *MemoryLevelStore) ListAll() ([]string, error) {
	names := make([]string, 0, len(s.levels))
	for name := range s.levels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryLevelStore) Exists(name string) bool {
	_, ok := s.levels[name]
	return ok
}

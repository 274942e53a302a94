package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidProfile  = errors.New("invalid profile")
)

// DefaultProfile is tried first when picking the default.
const DefaultProfile = "default"

var extensions = []string{".json", ".yaml", ".yml"}

// Info summarises a profile file.
type Info struct {
	Filename    string   `json:"filename"`
	ProfileID   string   `json:"profile_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Disabled    []string `json:"disabled_domains,omitempty"`
}

// Manager loads and caches profiles from a directory.
type Manager struct {
	dir            string
	defaultProfile *Profile
	profiles       map[string]*Profile
	mu             sync.RWMutex
}

// NewManager creates a manager over dir. A missing or empty directory is
// not an error; the built-in profile becomes the default.
func NewManager(dir string) (*Manager, error) {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("config path is not a directory: %s", dir)
	}

	m := &Manager{
		dir:      dir,
		profiles: make(map[string]*Profile),
	}
	if err := m.loadDefault(); err != nil {
		return nil, fmt.Errorf("load default profile: %w", err)
	}
	return m, nil
}

func profileID(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func hasProfileExt(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load returns the named profile, reading <name>.json, <name>.yaml or
// <name>.yml on first use.
func (m *Manager) Load(name string) (*Profile, error) {
	name = profileID(name)

	m.mu.RLock()
	if p, ok := m.profiles[name]; ok {
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[name]; ok {
		return p, nil
	}

	var (
		data []byte
		file string
		err  error
	)
	for _, ext := range extensions {
		file = filepath.Join(m.dir, name+ext)
		data, err = os.ReadFile(file)
		if err == nil {
			break
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read profile: %w", err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	p, err := decode(file, data)
	if err != nil {
		return nil, err
	}
	if err := ValidateProfile(p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProfile, name, err)
	}

	m.profiles[name] = p
	return p, nil
}

func decode(file string, data []byte) (*Profile, error) {
	var p Profile
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidProfile, filepath.Base(file), err)
		}
	default:
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidProfile, filepath.Base(file), err)
		}
	}
	return &p, nil
}

// List describes every loadable profile in the directory. Invalid files
// are skipped.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config directory: %w", err)
	}

	var out []Info
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !hasProfileExt(entry.Name()) {
			continue
		}
		id := profileID(entry.Name())
		if seen[id] {
			continue
		}
		p, err := m.Load(id)
		if err != nil {
			continue
		}
		seen[id] = true
		out = append(out, Info{
			Filename:    entry.Name(),
			ProfileID:   id,
			Name:        p.Name,
			Description: p.Description,
			Disabled:    p.DisabledDomains(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProfileID < out[j].ProfileID })
	return out, nil
}

// Default returns the default profile.
func (m *Manager) Default() *Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultProfile
}

// SetDefault makes the named profile the default.
func (m *Manager) SetDefault(name string) error {
	p, err := m.Load(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.defaultProfile = p
	m.mu.Unlock()
	return nil
}

// Refresh drops cached profiles and reloads the default.
func (m *Manager) Refresh() error {
	m.mu.Lock()
	m.profiles = make(map[string]*Profile)
	m.mu.Unlock()
	return m.loadDefault()
}

// loadDefault prefers "default", then the first valid profile, then the
// built-in one.
func (m *Manager) loadDefault() error {
	p, err := m.Load(DefaultProfile)
	if err != nil {
		infos, listErr := m.List()
		if listErr != nil || len(infos) == 0 {
			p = minimalProfile()
		} else if p, err = m.Load(infos[0].ProfileID); err != nil {
			p = minimalProfile()
		}
	}

	m.mu.Lock()
	m.defaultProfile = p
	m.mu.Unlock()
	return nil
}

// Save writes p as <name>.json, or as YAML when name ends in .yaml or .yml.
func (m *Manager) Save(name string, p *Profile) error {
	if err := ValidateProfile(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	filename := name
	if !hasProfileExt(filename) {
		filename += ".json"
	}

	var (
		data []byte
		err  error
	)
	if ext := strings.ToLower(filepath.Ext(filename)); ext == ".yaml" || ext == ".yml" {
		data, err = yaml.Marshal(p)
	} else {
		data, err = json.MarshalIndent(p, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, filename), data, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}

	m.mu.Lock()
	m.profiles[profileID(filename)] = p
	m.mu.Unlock()
	return nil
}

package host

import (
	"fmt"
	"sync"
	"time"
)

// Log categories written by the host.
const (
	CategoryBridge    = "LogEditorBridge"
	CategoryAsset     = "LogAssetRegistry"
	CategoryBlueprint = "LogBlueprint"
	CategoryWorld     = "LogWorld"
	CategoryPIE       = "LogPlayLevel"
)

// SeedAsset describes an asset created when the host starts.
type SeedAsset struct {
	Path         string         `json:"path" yaml:"path"`
	Class        string         `json:"class" yaml:"class"`
	Dependencies []string       `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Tags         []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Properties   map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Seed is the initial project content.
type Seed struct {
	Project string      `json:"project" yaml:"project"`
	Map     string      `json:"map" yaml:"map"`
	Assets  []SeedAsset `json:"assets" yaml:"assets"`
}

// Status is a snapshot of host state readable from any goroutine.
type Status struct {
	Project   string    `json:"project"`
	Map       string    `json:"map"`
	PIEActive bool      `json:"pie_active"`
	Assets    int       `json:"asset_count"`
	Actors    int       `json:"actor_count"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Host is the in-memory editor: project content, worlds and output log.
//
// Project and Worlds are not safe for concurrent use and must only be
// touched by host-thread command handlers. Log and Status may be read from
// any goroutine.
type Host struct {
	Project *Project
	Worlds  *WorldManager
	Levels  LevelStore
	Log     *OutputLog

	mu     sync.RWMutex
	status Status
}

// Option configures a Host.
type Option func(*Host)

// WithLevelStore sets where level snapshots are kept.
func WithLevelStore(store LevelStore) Option {
	return func(h *Host) { h.Levels = store }
}

// WithLogCapacity sizes the output log ring.
func WithLogCapacity(n int) Option {
	return func(h *Host) { h.Log = NewOutputLog(n) }
}

// New builds a host populated from seed.
func New(seed Seed, opts ...Option) (*Host, error) {
	if seed.Project == "" {
		seed.Project = "Untitled"
	}
	if seed.Map == "" {
		seed.Map = "/Game/Maps/Untitled"
	}
	if err := ValidateAssetPath(seed.Map); err != nil {
		return nil, fmt.Errorf("seed map: %w", err)
	}

	h := &Host{
		Project: NewProject(seed.Project),
		Worlds:  NewWorldManager(NewWorld(WorldEditor, seed.Map)),
		Log:     NewOutputLog(DefaultLogCapacity),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.Levels == nil {
		h.Levels = NewMemoryLevelStore()
	}

	for _, sa := range seed.Assets {
		a := &Asset{
			Path:         sa.Path,
			Class:        sa.Class,
			Dependencies: append([]string(nil), sa.Dependencies...),
			Tags:         append([]string(nil), sa.Tags...),
			Properties:   copyProperties(sa.Properties),
		}
		if err := h.Project.Add(a); err != nil {
			return nil, fmt.Errorf("seed asset: %w", err)
		}
	}
	for _, a := range h.Project.List("", true, "") {
		for _, dep := range a.Dependencies {
			if _, err := h.Project.Get(dep); err != nil {
				return nil, fmt.Errorf("seed asset %s: dependency %w", a.Path, err)
			}
		}
	}
	if _, err := h.Project.Get(seed.Map); err != nil {
		if err := h.Project.Add(&Asset{Path: seed.Map, Class: ClassWorld}); err != nil {
			return nil, fmt.Errorf("seed map: %w", err)
		}
	}

	now := time.Now()
	h.status.StartedAt = now
	h.Refresh()
	h.Log.Add(CategoryBridge, VerbosityLog, "Project %s opened with %d assets, map %s", seed.Project, h.Project.Count(), seed.Map)
	return h, nil
}

// Refresh republishes Status. Host-thread code calls it after mutations.
func (h *Host) Refresh() {
	editor := h.Worlds.Editor()
	actors := len(editor.Actors)
	if pie := h.Worlds.PIE(); pie != nil {
		actors = len(pie.Actors)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.status.Project = h.Project.Name
	h.status.Map = editor.Map
	h.status.PIEActive = h.Worlds.PIEActive()
	h.status.Assets = h.Project.Count()
	h.status.Actors = actors
	h.status.UpdatedAt = time.Now()
}

// Status returns the last published status.
func (h *Host) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

func copyProperties(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// DefaultSeed is the content of the built-in profile: a small project with
// one asset of each editable class.
func DefaultSeed() Seed {
	return Seed{
		Project: "BridgeSandbox",
		Map:     "/Game/Maps/Main",
		Assets: []SeedAsset{
			{Path: "/Game/Maps/Main", Class: ClassWorld},
			{
				Path:  "/Game/Materials/M_Base",
				Class: ClassMaterial,
				Properties: map[string]any{
					"parameters": map[string]any{"Roughness": 0.5, "Metallic": 0.0, "UseDetail": false},
				},
			},
			{Path: "/Game/Meshes/SM_Cube", Class: ClassStaticMesh, Dependencies: []string{"/Game/Materials/M_Base"}},
			{
				Path:         "/Game/Blueprints/BP_Door",
				Class:        ClassBlueprint,
				Dependencies: []string{"/Game/Meshes/SM_Cube"},
				Properties:   map[string]any{"parent_class": "Actor"},
			},
			{
				Path:  "/Game/FX/NS_Sparks",
				Class: ClassNiagaraSystem,
				Properties: map[string]any{
					"emitters":   []any{"Sparks", "Smoke"},
					"parameters": map[string]any{"SpawnRate": 50.0, "Color": []any{1.0, 0.6, 0.1}},
				},
			},
			{Path: "/Game/PCG/PCG_Forest", Class: ClassPCGGraph},
			{Path: "/Game/Abilities/GA_Dash", Class: ClassGameplayAbility, Tags: []string{"Ability.Movement.Dash"}},
			{Path: "/Game/Abilities/GA_Fireball", Class: ClassGameplayAbility, Tags: []string{"Ability.Attack.Fireball"}},
			{
				Path:  "/Game/Abilities/GE_Damage",
				Class: ClassGameplayEffect,
				Properties: map[string]any{
					"modifiers": []any{map[string]any{"attribute": "Health", "op": "add", "magnitude": -10.0}},
				},
			},
			{
				Path:  "/Game/Abilities/GE_Regen",
				Class: ClassGameplayEffect,
				Properties: map[string]any{
					"duration_policy": "infinite",
					"modifiers":       []any{map[string]any{"attribute": "Mana", "op": "add", "magnitude": 5.0}},
				},
			},
		},
	}
}

package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrActorNotFound     = errors.New("actor not found")
	ErrInvalidActorLabel = errors.New("invalid actor label")
)

var labelPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// Vector is an x, y, z triple.
type Vector [3]float64

type Transform struct {
	Location Vector `json:"location"`
	Rotation Vector `json:"rotation"`
	Scale    Vector `json:"scale"`
}

// IdentityTransform places an actor at the origin with unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: Vector{1, 1, 1}}
}

// Actor is a placed object in a world. Components are optional.
type Actor struct {
	Path      string    `json:"path"`
	Label     string    `json:"label"`
	Class     string    `json:"class"`
	Transform Transform `json:"transform"`

	Abilities *AbilitySystem    `json:"ability_system,omitempty"`
	Niagara   *NiagaraComponent `json:"niagara,omitempty"`
	PCG       *PCGComponent     `json:"pcg,omitempty"`
	Mesh      *ProcMesh         `json:"procedural_mesh,omitempty"`
}

// Components lists the names of the attached components.
func (a *Actor) Components() []string {
	out := []string{"SceneComponent"}
	if a.Abilities != nil {
		out = append(out, "AbilitySystemComponent")
	}
	if a.Niagara != nil {
		out = append(out, "NiagaraComponent")
	}
	if a.PCG != nil {
		out = append(out, "PCGComponent")
	}
	if a.Mesh != nil {
		out = append(out, "ProceduralMeshComponent")
	}
	return out
}

// ActorInfo is a detached summary of an actor.
type ActorInfo struct {
	Path       string    `json:"path"`
	Label      string    `json:"label"`
	Class      string    `json:"class"`
	Transform  Transform `json:"transform"`
	Components []string  `json:"components"`
}

func (a *Actor) Info() ActorInfo {
	return ActorInfo{
		Path:       a.Path,
		Label:      a.Label,
		Class:      a.Class,
		Transform:  a.Transform,
		Components: a.Components(),
	}
}

// World is one level's actor set. Exported fields make up the snapshot
// written by LevelStore.
type World struct {
	Kind     string            `json:"kind"`
	Map      string            `json:"map"`
	Actors   map[string]*Actor `json:"actors"`
	Counters map[string]int    `json:"counters"`
}

// NewWorld creates an empty world for the map package mapPath.
func NewWorld(kind, mapPath string) *World {
	return &World{
		Kind:     kind,
		Map:      mapPath,
		Actors:   map[string]*Actor{},
		Counters: map[string]int{},
	}
}

func (w *World) actorPath(label string) string {
	return w.Map + ":PersistentLevel." + label
}

// Spawn places a new actor. An empty label is generated from the class;
// a taken label gets a numeric suffix.
func (w *World) Spawn(class, label string, tf Transform) (*Actor, error) {
	if label != "" && !labelPattern.MatchString(label) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidActorLabel, label)
	}
	base := label
	if base == "" {
		base = shortClass(class)
	}
	for label == "" || w.labelTaken(label) {
		w.Counters[base]++
		label = fmt.Sprintf("%s_%d", base, w.Counters[base])
	}
	if tf.Scale == (Vector{}) {
		tf.Scale = Vector{1, 1, 1}
	}
	a := &Actor{
		Path:      w.actorPath(label),
		Label:     label,
		Class:     class,
		Transform: tf,
	}
	w.Actors[strings.ToLower(label)] = a
	return a, nil
}

func (w *World) labelTaken(label string) bool {
	_, ok := w.Actors[strings.ToLower(label)]
	return ok
}

// Find resolves an actor by full path or by label.
func (w *World) Find(ref string) (*Actor, error) {
	label := ref
	if i := strings.LastIndex(ref, "."); i >= 0 && strings.Contains(ref, ":") {
		label = ref[i+1:]
	}
	a, ok := w.Actors[strings.ToLower(label)]
	if !ok || (strings.Contains(ref, ":") && !strings.EqualFold(a.Path, ref)) {
		return nil, fmt.Errorf("%w: %s in %s world", ErrActorNotFound, ref, w.Kind)
	}
	return a, nil
}

func (w *World) Remove(ref string) (*Actor, error) {
	a, err := w.Find(ref)
	if err != nil {
		return nil, err
	}
	delete(w.Actors, strings.ToLower(a.Label))
	return a, nil
}

// List returns actors sorted by path. An empty class matches every actor.
func (w *World) List(class string) []*Actor {
	var out []*Actor
	for _, a := range w.Actors {
		if class != "" && !strings.EqualFold(a.Class, class) && !strings.EqualFold(shortClass(a.Class), class) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Clone deep-copies the world.
func (w *World) Clone(kind string) (*World, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("clone world: %w", err)
	}
	cp := NewWorld(kind, w.Map)
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("clone world: %w", err)
	}
	cp.Kind = kind
	return cp, nil
}

// shortClass turns "/Game/Blueprints/BP_Door" into "BP_Door".
func shortClass(class string) string {
	if i := strings.LastIndex(class, "/"); i >= 0 {
		class = class[i+1:]
	}
	if i := strings.LastIndex(class, "."); i >= 0 {
		class = class[i+1:]
	}
	return strings.TrimSuffix(class, "_C")
}

// Package level manages the editor level: creating, saving and loading
// level snapshots and starting and stopping Play-In-Editor.
package level

import (
	"context"
	"errors"
	"path"

	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

const (
	Domain  = "level"
	mapsDir = "/Game/Maps"
)

type Module struct {
	host *host.Host
}

func New(h *host.Host) *Module {
	return &Module{host: h}
}

func (m *Module) Domain() string { return Domain }

func (m *Module) Descriptors() []registry.Descriptor {
	h := m.host
	return []registry.Descriptor{
		{
			Name:        "level.get_current",
			Description: "Describe the open level",
			Handler:     kit.OnHost(h, m.current),
		},
		{
			Name:        "level.list",
			Description: "List saved levels and map assets",
			Handler:     kit.OnHost(h, m.list),
		},
		{
			Name:        "level.new",
			Description: "Open a new empty level",
			Params:      []registry.Param{kit.Required("level_name", registry.TypeString, "Level name")},
			Handler:     kit.OnHost(h, m.newLevel),
		},
		{
			Name:        "level.save",
			Description: "Save the editor world as a level snapshot",
			Params:      []registry.Param{kit.Optional("level_name", registry.TypeString, "Level name, default the open level")},
			Handler:     kit.OnHost(h, m.save),
		},
		{
			Name:        "level.load",
			Description: "Open a saved level",
			Params:      []registry.Param{kit.Required("level_name", registry.TypeString, "Level name")},
			Handler:     kit.OnHost(h, m.load),
		},
		{
			Name:        "level.start_pie",
			Description: "Start Play-In-Editor with a copy of the editor world",
			Handler:     kit.OnHost(h, m.startPIE),
		},
		{
			Name:        "level.stop_pie",
			Description: "Stop Play-In-Editor and discard the play world",
			Handler:     kit.OnHost(h, m.stopPIE),
		},
	}
}

func levelName(args registry.Args, def string) (string, error) {
	name := args.StringOr("level_name", def)
	if err := host.ValidateLevelName(name); err != nil {
		return "", &registry.ArgumentError{Field: "level_name", Reason: err.Error()}
	}
	return name, nil
}

func (m *Module) describe() map[string]any {
	editor := m.host.Worlds.Editor()
	out := map[string]any{
		"map":         editor.Map,
		"level_name":  path.Base(editor.Map),
		"actor_count": len(editor.Actors),
		"pie_active":  m.host.Worlds.PIEActive(),
	}
	if pie := m.host.Worlds.PIE(); pie != nil {
		out["pie_actor_count"] = len(pie.Actors)
	}
	return out
}

func (m *Module) current(ctx context.Context, args registry.Args) (any, error) {
	return m.describe(), nil
}

func (m *Module) list(ctx context.Context, args registry.Args) (any, error) {
	saved, err := m.host.Levels.ListAll()
	if err != nil {
		return nil, err
	}
	maps := m.host.Project.List("/Game", true, host.ClassWorld)
	paths := make([]string, 0, len(maps))
	for _, a := range maps {
		paths = append(paths, a.Path)
	}
	return map[string]any{
		"saved_levels": saved,
		"maps":         paths,
		"current":      m.host.Worlds.Editor().Map,
	}, nil
}

// registerMap makes sure the level has a World asset.
func (m *Module) registerMap(mapPath string) error {
	if _, err := m.host.Project.Get(mapPath); err == nil {
		return nil
	}
	return m.host.Project.Add(&host.Asset{Path: mapPath, Class: host.ClassWorld})
}

func (m *Module) newLevel(ctx context.Context, args registry.Args) (any, error) {
	name, err := levelName(args, "")
	if err != nil {
		return nil, err
	}
	mapPath := path.Join(mapsDir, name)
	if err := m.host.Worlds.Replace(host.NewWorld(host.WorldEditor, mapPath)); err != nil {
		return nil, err
	}
	if err := m.registerMap(mapPath); err != nil {
		return nil, err
	}
	m.host.Log.Add(host.CategoryWorld, host.VerbosityLog, "New level %s", mapPath)
	return m.describe(), nil
}

func (m *Module) save(ctx context.Context, args registry.Args) (any, error) {
	editor := m.host.Worlds.Editor()
	name, err := levelName(args, path.Base(editor.Map))
	if err != nil {
		return nil, err
	}
	if err := m.host.Levels.Save(name, editor); err != nil {
		return nil, err
	}
	if err := m.registerMap(editor.Map); err != nil {
		return nil, err
	}
	m.host.Log.Add(host.CategoryWorld, host.VerbosityLog, "Saved level %s (%d actors)", name, len(editor.Actors))
	return map[string]any{"level_name": name, "map": editor.Map, "actor_count": len(editor.Actors)}, nil
}

func (m *Module) load(ctx context.Context, args registry.Args) (any, error) {
	name, err := levelName(args, "")
	if err != nil {
		return nil, err
	}
	if m.host.Worlds.PIEActive() {
		return nil, host.ErrPIEAlreadyRunning
	}
	w, err := m.host.Levels.Load(name)
	if err != nil {
		return nil, err
	}
	if w.Map == "" {
		w.Map = path.Join(mapsDir, name)
	}
	if err := m.host.Worlds.Replace(w); err != nil {
		return nil, err
	}
	if err := m.registerMap(w.Map); err != nil {
		return nil, err
	}
	m.host.Log.Add(host.CategoryWorld, host.VerbosityLog, "Loaded level %s", name)
	return m.describe(), nil
}

func (m *Module) startPIE(ctx context.Context, args registry.Args) (any, error) {
	if _, err := m.host.Worlds.StartPIE(); err != nil {
		return nil, err
	}
	m.host.Log.Add(host.CategoryPIE, host.VerbosityLog, "PIE started on %s", m.host.Worlds.Editor().Map)
	return m.describe(), nil
}

func (m *Module) stopPIE(ctx context.Context, args registry.Args) (any, error) {
	if err := m.host.Worlds.StopPIE(); err != nil {
		if errors.Is(err, host.ErrPIENotRunning) {
			m.host.Log.Add(host.CategoryPIE, host.VerbosityWarning, "Stop requested but PIE is not running")
		}
		return nil, err
	}
	m.host.Log.Add(host.CategoryPIE, host.VerbosityLog, "PIE stopped")
	return m.describe(), nil
}

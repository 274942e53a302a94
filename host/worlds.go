package host

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPIENotRunning     = errors.New("play in editor is not running")
	ErrPIEAlreadyRunning = errors.New("play in editor is already running")
	ErrUnknownWorld      = errors.New("unknown world selector")
)

// World selectors accepted by commands that take a world argument.
const (
	WorldAuto   = "auto"
	WorldEditor = "editor"
	WorldPIE    = "pie"
)

// WorldSelectors lists the valid selector values.
var WorldSelectors = []string{WorldAuto, WorldEditor, WorldPIE}

// WorldManager owns the editor world and, while a play session runs, the
// PIE world cloned from it.
type WorldManager struct {
	editor *World
	pie    *World
}

func NewWorldManager(editor *World) *WorldManager {
	return &WorldManager{editor: editor}
}

func (m *WorldManager) Editor() *World { return m.editor }

// PIE returns the play world, or nil when no play session runs.
func (m *WorldManager) PIE() *World { return m.pie }

func (m *WorldManager) PIEActive() bool { return m.pie != nil }

// Resolve maps a selector to a world. "auto" and "" prefer the play world.
func (m *WorldManager) Resolve(selector string) (*World, error) {
	switch strings.ToLower(selector) {
	case "", WorldAuto:
		if m.pie != nil {
			return m.pie, nil
		}
		return m.editor, nil
	case WorldEditor:
		return m.editor, nil
	case WorldPIE:
		if m.pie == nil {
			return nil, ErrPIENotRunning
		}
		return m.pie, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorld, selector)
	}
}

// StartPIE clones the editor world into a play world.
func (m *WorldManager) StartPIE() (*World, error) {
	if m.pie != nil {
		return nil, ErrPIEAlreadyRunning
	}
	pie, err := m.editor.Clone(WorldPIE)
	if err != nil {
		return nil, err
	}
	m.pie = pie
	return pie, nil
}

// StopPIE discards the play world. Changes made during play are lost.
func (m *WorldManager) StopPIE() error {
	if m.pie == nil {
		return ErrPIENotRunning
	}
	m.pie = nil
	return nil
}

// Replace swaps the editor world, as opening a level does. It is refused
// while a play session runs.
func (m *WorldManager) Replace(w *World) error {
	if m.pie != nil {
		return fmt.Errorf("cannot change level: %w", ErrPIEAlreadyRunning)
	}
	w.Kind = WorldEditor
	m.editor = w
	return nil
}

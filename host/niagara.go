package host

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

var (
	ErrEmitterExists   = errors.New("emitter already exists")
	ErrEmitterNotFound = errors.New("emitter not found")
	ErrNoComponent     = errors.New("actor has no such component")
)

// NiagaraSystem is the content of a Niagara system asset: its emitters and
// the user parameters it exposes.
type NiagaraSystem struct {
	Emitters   []string
	Parameters map[string]any
}

func NewNiagaraSystem(emitters, params any) *NiagaraSystem {
	s := &NiagaraSystem{Parameters: map[string]any{}}
	if names, err := cast.ToStringSliceE(emitters); err == nil {
		s.Emitters = names
	}
	if seed, err := cast.ToStringMapE(params); err == nil {
		for k, v := range seed {
			s.Parameters[k] = v
		}
	}
	return s
}

func (s *NiagaraSystem) AddEmitter(name string) error {
	for _, e := range s.Emitters {
		if strings.EqualFold(e, name) {
			return fmt.Errorf("%w: %s", ErrEmitterExists, name)
		}
	}
	s.Emitters = append(s.Emitters, name)
	return nil
}

func (s *NiagaraSystem) RemoveEmitter(name string) error {
	for i, e := range s.Emitters {
		if strings.EqualFold(e, name) {
			s.Emitters = append(s.Emitters[:i], s.Emitters[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrEmitterNotFound, name)
}

type NiagaraSystemInfo struct {
	Path       string         `json:"path"`
	Emitters   []string       `json:"emitters"`
	Parameters map[string]any `json:"parameters"`
}

func (s *NiagaraSystem) Describe(path string) NiagaraSystemInfo {
	info := NiagaraSystemInfo{
		Path:       path,
		Emitters:   append([]string{}, s.Emitters...),
		Parameters: make(map[string]any, len(s.Parameters)),
	}
	for k, v := range s.Parameters {
		info.Parameters[k] = v
	}
	sort.Strings(info.Emitters)
	return info
}

// NiagaraComponent is a spawned system instance on an actor.
type NiagaraComponent struct {
	System      string         `json:"system"`
	Active      bool           `json:"active"`
	Activations int            `json:"activations"`
	Overrides   map[string]any `json:"overrides,omitempty"`
}

// SetParameter overrides a user parameter. When the system declares the
// parameter the value must keep its type.
func (c *NiagaraComponent) SetParameter(sys *NiagaraSystem, name string, value any) error {
	if def, ok := sys.Parameters[name]; ok {
		want, got := parameterType(def), parameterType(value)
		if want != "" && want != got {
			return fmt.Errorf("%w: %s is a %s parameter", ErrParameterType, name, want)
		}
	}
	if c.Overrides == nil {
		c.Overrides = map[string]any{}
	}
	c.Overrides[name] = value
	return nil
}

// Activate starts the component. reset restarts an active system.
func (c *NiagaraComponent) Activate(reset bool) bool {
	if c.Active && !reset {
		return false
	}
	c.Active = true
	c.Activations++
	return true
}

func (c *NiagaraComponent) Deactivate() bool {
	was := c.Active
	c.Active = false
	return was
}

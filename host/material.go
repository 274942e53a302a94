package host

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cast"
)

var (
	ErrParameterNotFound = errors.New("parameter not found")
	ErrParameterType     = errors.New("parameter value has the wrong type")
)

// Material holds scalar, vector and switch parameters. Instances name a
// parent and store overrides only.
type Material struct {
	Parent     string
	Parameters map[string]any
}

// NewMaterial builds a material from seed parameters (a map or nil).
func NewMaterial(parent string, params any) *Material {
	m := &Material{Parent: parent, Parameters: map[string]any{}}
	if seed, err := cast.ToStringMapE(params); err == nil {
		for k, v := range seed {
			m.Parameters[k] = v
		}
	}
	return m
}

// IsInstance reports whether the material derives from a parent.
func (m *Material) IsInstance() bool {
	return m.Parent != ""
}

// MaterialParameter is one resolved parameter.
type MaterialParameter struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Value      any    `json:"value"`
	Overridden bool   `json:"overridden"`
	Source     string `json:"source"`
}

// ResolveParameters walks the parent chain and merges overrides onto the
// inherited defaults.
func (p *Project) ResolveParameters(a *Asset) ([]MaterialParameter, error) {
	chain, err := p.materialChain(a)
	if err != nil {
		return nil, err
	}

	merged := map[string]MaterialParameter{}
	for i := len(chain) - 1; i >= 0; i-- {
		link := chain[i]
		for name, value := range link.Material.Parameters {
			_, inherited := merged[name]
			merged[name] = MaterialParameter{
				Name:       name,
				Type:       parameterType(value),
				Value:      value,
				Overridden: inherited,
				Source:     link.Path,
			}
		}
	}

	out := make([]MaterialParameter, 0, len(merged))
	for _, mp := range merged {
		out = append(out, mp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SetMaterialParameter sets a parameter. Base materials accept any new
// parameter; instances may only override one their parents define, with a
// value of the same type.
func (p *Project) SetMaterialParameter(a *Asset, name string, value any) error {
	if parameterType(value) == "" {
		return fmt.Errorf("%w: %s must be a number, a bool or a vector", ErrParameterType, name)
	}
	if !a.Material.IsInstance() {
		a.Material.Parameters[name] = value
		return nil
	}

	params, err := p.ResolveParameters(a)
	if err != nil {
		return err
	}
	for _, mp := range params {
		if mp.Name != name {
			continue
		}
		if mp.Type != parameterType(value) {
			return fmt.Errorf("%w: %s is a %s parameter", ErrParameterType, name, mp.Type)
		}
		a.Material.Parameters[name] = value
		return nil
	}
	return fmt.Errorf("%w: %s is not defined by %s", ErrParameterNotFound, name, a.Material.Parent)
}

func (p *Project) materialChain(a *Asset) ([]*Asset, error) {
	chain := []*Asset{a}
	seen := map[string]bool{a.Path: true}
	for cur := a; cur.Material.IsInstance(); {
		parent, err := p.GetClass(cur.Material.Parent, ClassMaterial, ClassMaterialInstance)
		if err != nil {
			return nil, fmt.Errorf("resolve parent of %s: %w", cur.Path, err)
		}
		if seen[parent.Path] {
			return nil, fmt.Errorf("material parent cycle at %s", parent.Path)
		}
		seen[parent.Path] = true
		chain = append(chain, parent)
		cur = parent
	}
	return chain, nil
}

func parameterType(v any) string {
	switch v.(type) {
	case nil:
		return ""
	case bool:
		return "switch"
	case []any, []float64, [3]float64, Vector:
		return "vector"
	}
	if _, err := cast.ToFloat64E(v); err == nil {
		if _, isString := v.(string); !isString {
			return "scalar"
		}
	}
	return ""
}

package host

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrAssetNotFound    = errors.New("asset not found")
	ErrAssetExists      = errors.New("asset already exists")
	ErrInvalidAssetPath = errors.New("invalid asset path")
	ErrWrongAssetClass  = errors.New("asset has the wrong class")
	ErrAssetReferenced  = errors.New("asset is referenced by other assets")
)

// Asset classes the host knows how to attach editable payloads to.
const (
	ClassWorld             = "World"
	ClassBlueprint         = "Blueprint"
	ClassMaterial          = "Material"
	ClassMaterialInstance  = "MaterialInstanceConstant"
	ClassStaticMesh        = "StaticMesh"
	ClassTexture           = "Texture2D"
	ClassDataTable         = "DataTable"
	ClassPCGGraph          = "PCGGraph"
	ClassNiagaraSystem     = "NiagaraSystem"
	ClassGameplayAbility   = "GameplayAbility"
	ClassGameplayEffect    = "GameplayEffect"
	ClassGameplayAttribute = "AttributeSet"
)

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// Asset is one entry of the project's content registry.
type Asset struct {
	Path         string         `json:"path"`
	Class        string         `json:"class"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`

	Blueprint *Blueprint     `json:"-"`
	Material  *Material      `json:"-"`
	PCG       *PCGGraph      `json:"-"`
	Niagara   *NiagaraSystem `json:"-"`
}

// Name returns the last path segment.
func (a *Asset) Name() string {
	return path.Base(a.Path)
}

// PackagePath returns the directory part of the asset path.
func (a *Asset) PackagePath() string {
	return path.Dir(a.Path)
}

// ObjectPath returns the "/Dir/Name.Name" form editors use for loading.
func (a *Asset) ObjectPath() string {
	return a.Path + "." + a.Name()
}

// NormalizeAssetPath accepts "/Game/Dir/Name" and "/Game/Dir/Name.Name" and
// returns the package form.
func NormalizeAssetPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimSuffix(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		if dot := strings.Index(p[i:], "."); dot >= 0 {
			p = p[:i+dot]
		}
	}
	return p
}

// ValidateAssetPath checks that p is a rooted package path with at least a
// mount point and a name.
func ValidateAssetPath(p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("%w: %q must start with '/'", ErrInvalidAssetPath, p)
	}
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if len(segments) < 2 {
		return fmt.Errorf("%w: %q needs a mount point and a name", ErrInvalidAssetPath, p)
	}
	for _, s := range segments {
		if !segmentPattern.MatchString(s) {
			return fmt.Errorf("%w: %q has an invalid segment %q", ErrInvalidAssetPath, p, s)
		}
	}
	return nil
}

// Project is the in-memory content registry.
type Project struct {
	Name   string
	assets map[string]*Asset
}

// NewProject creates an empty project.
func NewProject(name string) *Project {
	return &Project{Name: name, assets: make(map[string]*Asset)}
}

// Add registers a new asset and attaches the payload its class implies.
func (p *Project) Add(a *Asset) error {
	a.Path = NormalizeAssetPath(a.Path)
	if err := ValidateAssetPath(a.Path); err != nil {
		return err
	}
	if a.Class == "" {
		return fmt.Errorf("%w: %s has no class", ErrInvalidAssetPath, a.Path)
	}
	if _, exists := p.assets[strings.ToLower(a.Path)]; exists {
		return fmt.Errorf("%w: %s", ErrAssetExists, a.Path)
	}
	for i, dep := range a.Dependencies {
		a.Dependencies[i] = NormalizeAssetPath(dep)
	}
	attachPayload(a)
	p.assets[strings.ToLower(a.Path)] = a
	return nil
}

// Get returns the asset at path. Lookup is case-insensitive, as in the
// editor's package names.
func (p *Project) Get(assetPath string) (*Asset, error) {
	a, ok := p.assets[strings.ToLower(NormalizeAssetPath(assetPath))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, assetPath)
	}
	return a, nil
}

// GetClass returns the asset at path if it has one of the given classes.
func (p *Project) GetClass(assetPath string, classes ...string) (*Asset, error) {
	a, err := p.Get(assetPath)
	if err != nil {
		return nil, err
	}
	for _, c := range classes {
		if a.Class == c {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is a %s, expected %s", ErrWrongAssetClass, a.Path, a.Class, strings.Join(classes, " or "))
}

// Delete removes an asset. Referenced assets are kept unless force is set,
// in which case dangling references are removed from the referencers.
func (p *Project) Delete(assetPath string, force bool) ([]string, error) {
	a, err := p.Get(assetPath)
	if err != nil {
		return nil, err
	}
	refs := p.referencers(a.Path)
	if len(refs) > 0 && !force {
		return refs, fmt.Errorf("%w: %s is used by %s", ErrAssetReferenced, a.Path, strings.Join(refs, ", "))
	}
	for _, ref := range refs {
		r := p.assets[strings.ToLower(ref)]
		r.Dependencies = removeString(r.Dependencies, a.Path)
	}
	delete(p.assets, strings.ToLower(a.Path))
	return refs, nil
}

// Count returns the number of assets.
func (p *Project) Count() int {
	return len(p.assets)
}

// List returns assets under dir sorted by path. An empty class matches all.
func (p *Project) List(dir string, recursive bool, class string) []*Asset {
	dir = strings.TrimSuffix(dir, "/")
	var out []*Asset
	for _, a := range p.assets {
		if class != "" && !strings.EqualFold(a.Class, class) {
			continue
		}
		if !inDir(a, dir, recursive) {
			continue
		}
		out = append(out, a)
	}
	sortAssets(out)
	return out
}

// SearchFilter narrows Search. Empty fields match everything.
type SearchFilter struct {
	Class     string
	Path      string
	Name      string
	Recursive bool
}

// Search matches assets by class, package path and a case-insensitive name
// substring.
func (p *Project) Search(f SearchFilter) []*Asset {
	dir := strings.TrimSuffix(f.Path, "/")
	name := strings.ToLower(f.Name)

	var out []*Asset
	for _, a := range p.assets {
		if f.Class != "" && !strings.EqualFold(a.Class, f.Class) {
			continue
		}
		if dir != "" && !inDir(a, dir, f.Recursive) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(a.Name()), name) {
			continue
		}
		out = append(out, a)
	}
	sortAssets(out)
	return out
}

// Dependencies returns the direct dependencies of an asset.
func (p *Project) Dependencies(assetPath string) ([]string, error) {
	a, err := p.Get(assetPath)
	if err != nil {
		return nil, err
	}
	deps := append([]string(nil), a.Dependencies...)
	sort.Strings(deps)
	return deps, nil
}

// Referencers returns the assets that depend directly on an asset.
func (p *Project) Referencers(assetPath string) ([]string, error) {
	a, err := p.Get(assetPath)
	if err != nil {
		return nil, err
	}
	return p.referencers(a.Path), nil
}

func (p *Project) referencers(target string) []string {
	var refs []string
	for _, a := range p.assets {
		for _, dep := range a.Dependencies {
			if strings.EqualFold(dep, target) {
				refs = append(refs, a.Path)
				break
			}
		}
	}
	sort.Strings(refs)
	return refs
}

// AddDependency records that from depends on to, once.
func (p *Project) AddDependency(from *Asset, to string) {
	to = NormalizeAssetPath(to)
	for _, dep := range from.Dependencies {
		if strings.EqualFold(dep, to) {
			return
		}
	}
	from.Dependencies = append(from.Dependencies, to)
}

func inDir(a *Asset, dir string, recursive bool) bool {
	if dir == "" || dir == "/" {
		return recursive || strings.Count(a.Path, "/") == 1
	}
	pkg := strings.ToLower(a.PackagePath())
	dir = strings.ToLower(dir)
	if pkg == dir {
		return true
	}
	return recursive && strings.HasPrefix(pkg, dir+"/")
}

func sortAssets(assets []*Asset) {
	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })
}

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, s := range list {
		if !strings.EqualFold(s, target) {
			out = append(out, s)
		}
	}
	return out
}

// attachPayload creates the editable object behind an asset of a known class.
func attachPayload(a *Asset) {
	switch a.Class {
	case ClassBlueprint:
		parent, _ := a.Properties["parent_class"].(string)
		a.Blueprint = NewBlueprint(parent)
	case ClassMaterial:
		a.Material = NewMaterial("", a.Properties["parameters"])
	case ClassMaterialInstance:
		parent, _ := a.Properties["parent"].(string)
		a.Material = NewMaterial(NormalizeAssetPath(parent), a.Properties["parameters"])
	case ClassPCGGraph:
		a.PCG = NewPCGGraph()
	case ClassNiagaraSystem:
		a.Niagara = NewNiagaraSystem(a.Properties["emitters"], a.Properties["parameters"])
	case ClassDataTable:
		initDataTable(a)
	}
}

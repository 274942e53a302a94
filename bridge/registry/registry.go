package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"
)

var (
	ErrDuplicateCommand  = errors.New("duplicate command")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidDescriptor = errors.New("invalid command descriptor")
	ErrSealed            = errors.New("registry is sealed")
)

// Affinity states where a command's handler may run.
type Affinity int

const (
	// HostThread handlers mutate host state and run only on the host goroutine.
	HostThread Affinity = iota
	// CallerThread handlers run directly on the requesting goroutine.
	CallerThread
)

func (a Affinity) String() string {
	switch a {
	case HostThread:
		return "host"
	case CallerThread:
		return "caller"
	default:
		return fmt.Sprintf("affinity(%d)", int(a))
	}
}

func (a Affinity) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Affinity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "host":
		*a = HostThread
	case "caller":
		*a = CallerThread
	default:
		return fmt.Errorf("unknown affinity %q", text)
	}
	return nil
}

// ParamType is the schema type of a command parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
	TypeVector  ParamType = "vector"
	TypeAny     ParamType = "any"
)

// Param describes one named argument.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
}

// HandlerFunc executes a command with already-validated arguments.
type HandlerFunc func(ctx context.Context, args Args) (any, error)

// Descriptor is a registered command.
type Descriptor struct {
	Name        string
	Domain      string
	Description string
	Params      []Param
	Affinity    Affinity
	// Timeout overrides the bridge default when non-zero.
	Timeout time.Duration
	Handler HandlerFunc
}

// Info is the handler-free view of a Descriptor used by catalogs.
type Info struct {
	Name        string   `json:"name"`
	Domain      string   `json:"domain"`
	Description string   `json:"description,omitempty"`
	Affinity    Affinity `json:"affinity"`
	Params      []Param  `json:"params"`
}

// Info returns the catalog view of d.
func (d *Descriptor) Info() Info {
	params := make([]Param, len(d.Params))
	copy(params, d.Params)
	return Info{
		Name:        d.Name,
		Domain:      d.Domain,
		Description: d.Description,
		Affinity:    d.Affinity,
		Params:      params,
	}
}

// Module is a capability domain: a named group of descriptors registered
// together at startup.
type Module interface {
	Domain() string
	Descriptors() []Descriptor
}

// Registry maps command names to descriptors.
//
// Registration is single-goroutine and happens before serving starts. After
// Seal the registry is read-only, and concurrent Lookup and Validate calls
// need no locking.
type Registry struct {
	commands map[string]*Descriptor
	domains  map[string]int
	sealed   atomic.Bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		commands: make(map[string]*Descriptor),
		domains:  make(map[string]int),
	}
}

// Register adds a descriptor. A name that is already present is rejected
// with ErrDuplicateCommand and the registry is left unchanged.
func (r *Registry) Register(d Descriptor) error {
	if r.sealed.Load() {
		return fmt.Errorf("%w: cannot register %q", ErrSealed, d.Name)
	}
	if err := checkDescriptor(&d); err != nil {
		return err
	}
	if _, exists := r.commands[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, d.Name)
	}

	r.insert(d)
	return nil
}

// RegisterModule registers every descriptor of m under m's domain. Either all
// descriptors are registered or none are.
func (r *Registry) RegisterModule(m Module) error {
	if r.sealed.Load() {
		return fmt.Errorf("%w: cannot register domain %q", ErrSealed, m.Domain())
	}

	descriptors := m.Descriptors()
	seen := make(map[string]bool, len(descriptors))
	for i := range descriptors {
		d := &descriptors[i]
		d.Domain = m.Domain()
		if err := checkDescriptor(d); err != nil {
			return fmt.Errorf("domain %s: %w", m.Domain(), err)
		}
		if _, exists := r.commands[d.Name]; exists || seen[d.Name] {
			return fmt.Errorf("domain %s: %w: %s", m.Domain(), ErrDuplicateCommand, d.Name)
		}
		seen[d.Name] = true
	}

	for _, d := range descriptors {
		r.insert(d)
	}
	return nil
}

func (r *Registry) insert(d Descriptor) {
	params := make([]Param, len(d.Params))
	copy(params, d.Params)
	d.Params = params
	r.commands[d.Name] = &d
	r.domains[d.Domain]++
}

func checkDescriptor(d *Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
	}
	if d.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidDescriptor, d.Name)
	}
	if d.Affinity != HostThread && d.Affinity != CallerThread {
		return fmt.Errorf("%w: %s has unknown affinity %d", ErrInvalidDescriptor, d.Name, d.Affinity)
	}
	names := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if p.Name == "" {
			return fmt.Errorf("%w: %s has an unnamed parameter", ErrInvalidDescriptor, d.Name)
		}
		if names[p.Name] {
			return fmt.Errorf("%w: %s declares parameter %q twice", ErrInvalidDescriptor, d.Name, p.Name)
		}
		if !knownType(p.Type) {
			return fmt.Errorf("%w: %s parameter %q has unknown type %q", ErrInvalidDescriptor, d.Name, p.Name, p.Type)
		}
		names[p.Name] = true
	}
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	d, ok := r.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return d, nil
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.commands)
}

// List returns catalog entries sorted by command name.
func (r *Registry) List() []Info {
	infos := make([]Info, 0, len(r.commands))
	for _, d := range r.commands {
		infos = append(infos, d.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Domains returns the sorted names of domains with at least one command.
func (r *Registry) Domains() []string {
	domains := make([]string, 0, len(r.domains))
	for name := range r.domains {
		domains = append(domains, name)
	}
	sort.Strings(domains)
	return domains
}

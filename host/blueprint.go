package host

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrGraphNotFound     = errors.New("graph not found")
	ErrNodeNotFound      = errors.New("node not found")
	ErrPinNotFound       = errors.New("pin not found")
	ErrInvalidConnection = errors.New("invalid connection")
	ErrLinkNotFound      = errors.New("link not found")
	ErrVariableExists    = errors.New("variable already exists")
	ErrVariableNotFound  = errors.New("variable not found")
	ErrFunctionExists    = errors.New("function already exists")
)

const (
	EventGraph     = "EventGraph"
	DefaultParent  = "Actor"
	statusDirty    = "dirty"
	statusUpToDate = "up_to_date"
	statusError    = "error"
)

// PinDirection is input or output.
type PinDirection string

const (
	PinInput  PinDirection = "input"
	PinOutput PinDirection = "output"
)

// PinKind separates execution flow from data.
type PinKind string

const (
	PinExec PinKind = "exec"
	PinData PinKind = "data"
)

type Pin struct {
	Name      string       `json:"name"`
	Direction PinDirection `json:"direction"`
	Kind      PinKind      `json:"kind"`
}

type Node struct {
	ID    string `json:"id"`
	Class string `json:"class"`
	Pins  []Pin  `json:"pins"`
}

func (n *Node) pin(name string) (Pin, bool) {
	for _, p := range n.Pins {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Pin{}, false
}

type Link struct {
	SourceNode string `json:"source_node"`
	SourcePin  string `json:"source_pin"`
	TargetNode string `json:"target_node"`
	TargetPin  string `json:"target_pin"`
}

type Graph struct {
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Nodes []*Node `json:"nodes"`
	Links []Link  `json:"links"`
}

func (g *Graph) node(id string) (*Node, error) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNodeNotFound, id, g.Name)
}

func (g *Graph) linked(nodeID string) bool {
	for _, l := range g.Links {
		if l.SourceNode == nodeID || l.TargetNode == nodeID {
			return true
		}
	}
	return false
}

type Variable struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default_value,omitempty"`
}

// Blueprint is the editable content of a Blueprint asset.
type Blueprint struct {
	ParentClass string
	Variables   []Variable
	Graphs      []*Graph
	Status      string
	nextNode    int
}

// NewBlueprint returns a blueprint with an empty event graph.
func NewBlueprint(parent string) *Blueprint {
	if parent == "" {
		parent = DefaultParent
	}
	return &Blueprint{
		ParentClass: parent,
		Graphs:      []*Graph{{Name: EventGraph, Kind: "ubergraph"}},
		Status:      statusDirty,
	}
}

// knownVariableTypes are the pin types the compiler accepts.
var knownVariableTypes = map[string]bool{
	"bool": true, "int": true, "int64": true, "float": true, "double": true,
	"string": true, "name": true, "text": true, "vector": true,
	"rotator": true, "transform": true, "object": true, "class": true,
}

// pinTables maps node classes to their pins. Classes not listed get the
// generic function call layout.
var pinTables = map[string][]Pin{
	"Event_BeginPlay": {{"then", PinOutput, PinExec}},
	"Event_Tick":      {{"then", PinOutput, PinExec}, {"delta_seconds", PinOutput, PinData}},
	"FunctionEntry":   {{"then", PinOutput, PinExec}},
	"FunctionResult":  {{"execute", PinInput, PinExec}},
	"PrintString":     {{"execute", PinInput, PinExec}, {"in_string", PinInput, PinData}, {"then", PinOutput, PinExec}},
	"Branch":          {{"execute", PinInput, PinExec}, {"condition", PinInput, PinData}, {"true", PinOutput, PinExec}, {"false", PinOutput, PinExec}},
	"Sequence":        {{"execute", PinInput, PinExec}, {"then_0", PinOutput, PinExec}, {"then_1", PinOutput, PinExec}},
	"Delay":           {{"execute", PinInput, PinExec}, {"duration", PinInput, PinData}, {"completed", PinOutput, PinExec}},
	"GetVariable":     {{"value", PinOutput, PinData}},
	"SetVariable":     {{"execute", PinInput, PinExec}, {"value", PinInput, PinData}, {"then", PinOutput, PinExec}, {"output", PinOutput, PinData}},
	"AddFloat":        {{"a", PinInput, PinData}, {"b", PinInput, PinData}, {"return_value", PinOutput, PinData}},
}

var callFunctionPins = []Pin{
	{"execute", PinInput, PinExec},
	{"then", PinOutput, PinExec},
	{"return_value", PinOutput, PinData},
}

// Graph returns the named graph. An empty name selects the event graph.
func (b *Blueprint) Graph(name string) (*Graph, error) {
	if name == "" {
		name = EventGraph
	}
	for _, g := range b.Graphs {
		if strings.EqualFold(g.Name, name) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, name)
}

func (b *Blueprint) AddVariable(name, typ string, def any) error {
	for _, v := range b.Variables {
		if strings.EqualFold(v.Name, name) {
			return fmt.Errorf("%w: %s", ErrVariableExists, name)
		}
	}
	b.Variables = append(b.Variables, Variable{Name: name, Type: strings.ToLower(typ), Default: def})
	b.Status = statusDirty
	return nil
}

func (b *Blueprint) RemoveVariable(name string) error {
	for i, v := range b.Variables {
		if strings.EqualFold(v.Name, name) {
			b.Variables = append(b.Variables[:i], b.Variables[i+1:]...)
			b.Status = statusDirty
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrVariableNotFound, name)
}

// AddFunction creates a function graph with an entry node.
func (b *Blueprint) AddFunction(name string) (*Graph, error) {
	if _, err := b.Graph(name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrFunctionExists, name)
	}
	g := &Graph{Name: name, Kind: "function"}
	b.Graphs = append(b.Graphs, g)
	b.addNode(g, "FunctionEntry")
	b.Status = statusDirty
	return g, nil
}

// AddNode places a node of class in the named graph.
func (b *Blueprint) AddNode(graph, class string) (*Node, error) {
	g, err := b.Graph(graph)
	if err != nil {
		return nil, err
	}
	n := b.addNode(g, class)
	b.Status = statusDirty
	return n, nil
}

func (b *Blueprint) addNode(g *Graph, class string) *Node {
	b.nextNode++
	pins, ok := pinTables[class]
	if !ok {
		pins = callFunctionPins
	}
	n := &Node{
		ID:    fmt.Sprintf("%s_%d", class, b.nextNode),
		Class: class,
		Pins:  append([]Pin(nil), pins...),
	}
	g.Nodes = append(g.Nodes, n)
	return n
}

// DeleteNode removes a node and every link touching it.
func (b *Blueprint) DeleteNode(graph, id string) error {
	g, err := b.Graph(graph)
	if err != nil {
		return err
	}
	idx := -1
	for i, n := range g.Nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s in %s", ErrNodeNotFound, id, g.Name)
	}
	g.Nodes = append(g.Nodes[:idx], g.Nodes[idx+1:]...)

	links := g.Links[:0]
	for _, l := range g.Links {
		if l.SourceNode != id && l.TargetNode != id {
			links = append(links, l)
		}
	}
	g.Links = links
	b.Status = statusDirty
	return nil
}

// Connect links an output pin to an input pin of the same kind.
func (b *Blueprint) Connect(graph string, l Link) error {
	g, err := b.Graph(graph)
	if err != nil {
		return err
	}
	src, err := g.node(l.SourceNode)
	if err != nil {
		return err
	}
	dst, err := g.node(l.TargetNode)
	if err != nil {
		return err
	}
	if src.ID == dst.ID {
		return fmt.Errorf("%w: a node cannot connect to itself", ErrInvalidConnection)
	}
	sp, ok := src.pin(l.SourcePin)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrPinNotFound, src.ID, l.SourcePin)
	}
	tp, ok := dst.pin(l.TargetPin)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrPinNotFound, dst.ID, l.TargetPin)
	}
	if sp.Direction != PinOutput || tp.Direction != PinInput {
		return fmt.Errorf("%w: links run from an output pin to an input pin", ErrInvalidConnection)
	}
	if sp.Kind != tp.Kind {
		return fmt.Errorf("%w: cannot link %s pin to %s pin", ErrInvalidConnection, sp.Kind, tp.Kind)
	}

	l.SourcePin, l.TargetPin = sp.Name, tp.Name
	for _, existing := range g.Links {
		if existing == l {
			return fmt.Errorf("%w: pins are already linked", ErrInvalidConnection)
		}
	}
	g.Links = append(g.Links, l)
	b.Status = statusDirty
	return nil
}

func (b *Blueprint) Disconnect(graph string, l Link) error {
	g, err := b.Graph(graph)
	if err != nil {
		return err
	}
	for i, existing := range g.Links {
		if existing.SourceNode == l.SourceNode && existing.TargetNode == l.TargetNode &&
			strings.EqualFold(existing.SourcePin, l.SourcePin) && strings.EqualFold(existing.TargetPin, l.TargetPin) {
			g.Links = append(g.Links[:i], g.Links[i+1:]...)
			b.Status = statusDirty
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s -> %s.%s", ErrLinkNotFound, l.SourceNode, l.SourcePin, l.TargetNode, l.TargetPin)
}

// CompileReport is the outcome of Compile.
type CompileReport struct {
	Status   string   `json:"status"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Compile checks variable types and flags isolated nodes.
func (b *Blueprint) Compile() CompileReport {
	report := CompileReport{Errors: []string{}, Warnings: []string{}}
	for _, v := range b.Variables {
		if !knownVariableTypes[v.Type] {
			report.Errors = append(report.Errors, fmt.Sprintf("variable %s has unknown type %q", v.Name, v.Type))
		}
	}
	for _, g := range b.Graphs {
		if len(g.Nodes) < 2 {
			continue
		}
		for _, n := range g.Nodes {
			if !g.linked(n.ID) {
				report.Warnings = append(report.Warnings, fmt.Sprintf("node %s in %s is not connected", n.ID, g.Name))
			}
		}
	}
	if len(report.Errors) > 0 {
		b.Status = statusError
	} else {
		b.Status = statusUpToDate
	}
	report.Status = b.Status
	return report
}

// BlueprintInfo is a detached copy of a blueprint's structure.
type BlueprintInfo struct {
	Path        string     `json:"path"`
	ParentClass string     `json:"parent_class"`
	Status      string     `json:"status"`
	Variables   []Variable `json:"variables"`
	Functions   []string   `json:"functions"`
	Graphs      []Graph    `json:"graphs"`
}

// Describe copies the blueprint so the result can leave the host thread.
func (b *Blueprint) Describe(path string) BlueprintInfo {
	info := BlueprintInfo{
		Path:        path,
		ParentClass: b.ParentClass,
		Status:      b.Status,
		Variables:   append([]Variable{}, b.Variables...),
		Functions:   []string{},
	}
	for _, g := range b.Graphs {
		if g.Kind == "function" {
			info.Functions = append(info.Functions, g.Name)
		}
		cp := Graph{Name: g.Name, Kind: g.Kind, Nodes: make([]*Node, len(g.Nodes)), Links: append([]Link{}, g.Links...)}
		for i, n := range g.Nodes {
			cp.Nodes[i] = &Node{ID: n.ID, Class: n.Class, Pins: append([]Pin(nil), n.Pins...)}
		}
		info.Graphs = append(info.Graphs, cp)
	}
	sort.Strings(info.Functions)
	return info
}

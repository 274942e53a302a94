package host

import (
	"errors"
	"testing"
)

func TestPCGGraph_EditAndOrder(t *testing.T) {
	g := NewPCGGraph()

	sampler := g.AddNode("PCGSurfaceSamplerSettings", "")
	if sampler.Label != "PCGSurfaceSampler" {
		t.Errorf("Expected label from settings class, got %s", sampler.Label)
	}
	spawner := g.AddNode("PCGStaticMeshSpawnerSettings", "Trees")

	for _, e := range []PCGEdge{
		{Source: "input", Target: sampler.ID},
		{Source: sampler.ID, Target: spawner.ID},
		{Source: spawner.ID, Target: "Output"},
	} {
		if _, err := g.Connect(e); err != nil {
			t.Fatalf("Connect %s -> %s failed: %v", e.Source, e.Target, err)
		}
	}

	tests := []struct {
		name    string
		edge    PCGEdge
		wantErr error
	}{
		{"cycle", PCGEdge{Source: spawner.ID, Target: sampler.ID}, ErrGraphCycle},
		{"self", PCGEdge{Source: sampler.ID, Target: sampler.ID}, ErrInvalidConnection},
		{"duplicate", PCGEdge{Source: sampler.ID, Target: spawner.ID}, ErrInvalidConnection},
		{"into input", PCGEdge{Source: sampler.ID, Target: "Input"}, ErrInvalidConnection},
		{"missing", PCGEdge{Source: "Node_42", Target: spawner.ID}, ErrNodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.Connect(tt.edge); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	order := g.ExecutionOrder()
	want := []string{"Input", sampler.ID, spawner.ID, "Output"}
	if len(order) != len(want) {
		t.Fatalf("Expected order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Expected order %v, got %v", want, order)
			break
		}
	}

	if err := g.RemoveNode("Output"); !errors.Is(err, ErrProtectedNode) {
		t.Errorf("Expected ErrProtectedNode, got %v", err)
	}
	if err := g.RemoveNode(sampler.ID); err != nil {
		t.Fatalf("RemoveNode failed: %v", err)
	}
	if len(g.Edges) != 1 {
		t.Errorf("Expected 1 edge left, got %d", len(g.Edges))
	}
}

func TestMaterial_InstanceParameters(t *testing.T) {
	h := newTestHost(t)
	p := h.Project

	inst := &Asset{
		Path:       "/Game/Materials/MI_Rust",
		Class:      ClassMaterialInstance,
		Properties: map[string]any{"parent": "/Game/Materials/M_Base"},
	}
	if err := p.Add(inst); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := p.SetMaterialParameter(inst, "Roughness", 0.9); err != nil {
		t.Fatalf("Override failed: %v", err)
	}
	if err := p.SetMaterialParameter(inst, "Roughness", true); !errors.Is(err, ErrParameterType) {
		t.Errorf("Expected ErrParameterType, got %v", err)
	}
	if err := p.SetMaterialParameter(inst, "Emissive", 1.0); !errors.Is(err, ErrParameterNotFound) {
		t.Errorf("Expected ErrParameterNotFound, got %v", err)
	}
	if err := p.SetMaterialParameter(inst, "Roughness", "high"); !errors.Is(err, ErrParameterType) {
		t.Errorf("Expected ErrParameterType for string, got %v", err)
	}

	params, err := p.ResolveParameters(inst)
	if err != nil {
		t.Fatalf("ResolveParameters failed: %v", err)
	}
	if len(params) != 3 {
		t.Fatalf("Expected 3 parameters, got %+v", params)
	}
	for _, mp := range params {
		switch mp.Name {
		case "Roughness":
			if !mp.Overridden || mp.Value != 0.9 || mp.Source != inst.Path {
				t.Errorf("Expected overridden Roughness, got %+v", mp)
			}
		case "UseDetail":
			if mp.Type != "switch" || mp.Overridden {
				t.Errorf("Expected inherited switch, got %+v", mp)
			}
		}
	}

	base, _ := p.Get("/Game/Materials/M_Base")
	if err := p.SetMaterialParameter(base, "Emissive", []any{1.0, 0.0, 0.0}); err != nil {
		t.Errorf("Base materials accept new parameters, got %v", err)
	}
}

func TestNiagara_SystemAndComponent(t *testing.T) {
	sys := NewNiagaraSystem([]any{"Sparks"}, map[string]any{"SpawnRate": 10.0})

	if err := sys.AddEmitter("Smoke"); err != nil {
		t.Fatalf("AddEmitter failed: %v", err)
	}
	if err := sys.AddEmitter("smoke"); !errors.Is(err, ErrEmitterExists) {
		t.Errorf("Expected ErrEmitterExists, got %v", err)
	}
	if err := sys.RemoveEmitter("Sparks"); err != nil {
		t.Fatalf("RemoveEmitter failed: %v", err)
	}
	if err := sys.RemoveEmitter("Sparks"); !errors.Is(err, ErrEmitterNotFound) {
		t.Errorf("Expected ErrEmitterNotFound, got %v", err)
	}

	c := &NiagaraComponent{System: "/Game/FX/NS_Test"}
	if err := c.SetParameter(sys, "SpawnRate", 99); err != nil {
		t.Errorf("SetParameter failed: %v", err)
	}
	if err := c.SetParameter(sys, "SpawnRate", []any{1, 2, 3}); !errors.Is(err, ErrParameterType) {
		t.Errorf("Expected ErrParameterType, got %v", err)
	}
	if !c.Activate(false) || c.Activate(false) {
		t.Error("Second activate without reset should be a no-op")
	}
	if !c.Activate(true) || c.Activations != 2 {
		t.Errorf("Expected reset to restart, activations=%d", c.Activations)
	}
	if !c.Deactivate() || c.Deactivate() {
		t.Error("Deactivate should report the previous state")
	}
}

func TestAbilitySystem_GrantRevokeEffects(t *testing.T) {
	h := newTestHost(t)
	dash, _ := h.Project.Get("/Game/Abilities/GA_Dash")
	fireball, _ := h.Project.Get("/Game/Abilities/GA_Fireball")
	damage, _ := h.Project.Get("/Game/Abilities/GE_Damage")
	regen, _ := h.Project.Get("/Game/Abilities/GE_Regen")

	s := NewAbilitySystem()
	s.Grant(dash, 1)
	s.Grant(fireball, 2)
	if spec := s.Grant(dash, 3); spec.Level != 3 {
		t.Errorf("Expected regrant to raise level, got %d", spec.Level)
	}
	if len(s.AbilityList()) != 2 {
		t.Errorf("Expected 2 abilities, got %d", len(s.AbilityList()))
	}

	removed, err := s.Revoke("", "Ability.Attack")
	if err != nil || len(removed) != 1 || removed[0].Class != fireball.Path {
		t.Errorf("Expected fireball revoked by parent tag, got %v %v", removed, err)
	}
	if _, err := s.Revoke("/Game/Abilities/GA_Fireball", ""); !errors.Is(err, ErrAbilityNotGranted) {
		t.Errorf("Expected ErrAbilityNotGranted, got %v", err)
	}

	if _, err := s.ApplyEffect(damage, 2); err != nil {
		t.Fatalf("ApplyEffect failed: %v", err)
	}
	if hp := s.Attributes["Health"]; hp.Base != 80 || hp.Current != 80 {
		t.Errorf("Expected Health 80 after level 2 damage, got %+v", hp)
	}

	s.SetAttribute("Mana", 10)
	ae, err := s.ApplyEffect(regen, 1)
	if err != nil {
		t.Fatalf("ApplyEffect failed: %v", err)
	}
	mana := s.Attributes["Mana"]
	if mana.Base != 10 || mana.Current != 15 {
		t.Errorf("Expected duration effect to change current only, got %+v", mana)
	}
	if len(s.Effects) != 1 || s.Effects[0].Handle != ae.Handle {
		t.Errorf("Expected active effect to be listed, got %+v", s.Effects)
	}

	for i := 0; i < 20; i++ {
		s.ApplyEffect(damage, 1)
	}
	if hp := s.Attributes["Health"]; hp.Current != 0 {
		t.Errorf("Expected Health clamped at 0, got %v", hp.Current)
	}

	if _, err := s.SetAttribute("Armor", 5); !errors.Is(err, ErrAttributeNotFound) {
		t.Errorf("Expected ErrAttributeNotFound, got %v", err)
	}

	bad := &Asset{Path: "/Game/Abilities/GE_Bad", Class: ClassGameplayEffect, Properties: map[string]any{
		"modifiers": []any{map[string]any{"attribute": "Health", "op": "divide", "magnitude": 2}},
	}}
	if _, err := s.ApplyEffect(bad, 1); !errors.Is(err, ErrInvalidModifier) {
		t.Errorf("Expected ErrInvalidModifier, got %v", err)
	}
}

func TestAbilitySystem_ModifierLevelScaling(t *testing.T) {
	effect := func(op string, magnitude float64) *Asset {
		return &Asset{Path: "/Game/Abilities/GE_" + op, Class: ClassGameplayEffect, Properties: map[string]any{
			"modifiers": []any{map[string]any{"attribute": "Health", "op": op, "magnitude": magnitude}},
		}}
	}

	tests := []struct {
		name     string
		effect   *Asset
		expected float64
	}{
		{"add scales with level", effect("add", -10), 70},
		{"multiply ignores level", effect("multiply", 0.5), 50},
		{"override ignores level", effect("override", 42), 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAbilitySystem()
			if _, err := s.SetAttribute("Health", 100); err != nil {
				t.Fatalf("SetAttribute failed: %v", err)
			}
			if _, err := s.ApplyEffect(tt.effect, 3); err != nil {
				t.Fatalf("ApplyEffect failed: %v", err)
			}
			if hp := s.Attributes["Health"]; hp.Base != tt.expected || hp.Current != tt.expected {
				t.Errorf("Expected Health %v, got %+v", tt.expected, hp)
			}
		})
	}
}

func TestProcMesh_Sections(t *testing.T) {
	m := NewProcMesh()
	quad := []Vector{{0, 0, 0}, {100, 0, 0}, {100, 100, 0}, {0, 100, 0}}

	tests := []struct {
		name      string
		vertices  []Vector
		triangles []int
		valid     bool
	}{
		{"quad", quad, []int{0, 1, 2, 0, 2, 3}, true},
		{"not a multiple of three", quad, []int{0, 1, 2, 3}, false},
		{"index out of range", quad, []int{0, 1, 4}, false},
		{"negative index", quad, []int{0, -1, 2}, false},
		{"too few vertices", quad[:2], []int{0, 1, 1}, false},
		{"no triangles", quad, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.CreateSection(-1, tt.vertices, tt.triangles)
			if tt.valid && err != nil {
				t.Fatalf("Expected valid mesh, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidMesh) {
				t.Fatalf("Expected ErrInvalidMesh, got %v", err)
			}
		})
	}

	if _, err := m.CreateSection(3, quad, []int{0, 1, 2}); err != nil {
		t.Fatalf("CreateSection failed: %v", err)
	}
	sections, vertices, triangles := m.Stats()
	if sections != 2 || vertices != 8 || triangles != 3 {
		t.Errorf("Unexpected stats %d/%d/%d", sections, vertices, triangles)
	}

	touched, err := m.SetMaterial(-1, "/Game/Materials/M_Base")
	if err != nil || len(touched) != 2 || touched[0] != 0 || touched[1] != 3 {
		t.Errorf("Expected material on sections [0 3], got %v %v", touched, err)
	}
	if _, err := m.SetMaterial(7, "/Game/Materials/M_Base"); !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("Expected ErrSectionNotFound, got %v", err)
	}

	if n, err := m.Clear(3); err != nil || n != 1 {
		t.Errorf("Expected one section cleared, got %d %v", n, err)
	}
	if n, _ := m.Clear(-1); n != 1 {
		t.Errorf("Expected remaining section cleared, got %d", n)
	}
}

func TestDataTable_Rows(t *testing.T) {
	p := NewProject("Test")
	seeded := &Asset{
		Path:       "/Game/Data/DT_Seeded",
		Class:      ClassDataTable,
		Properties: map[string]any{
			"row_struct": "FItemData",
			"rows":       map[string]any{"Potion": map[string]any{"Heal": 25}},
		},
	}
	if err := p.Add(seeded); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if row, ok := seeded.Row("Potion"); !ok || row["Heal"] != 25 {
		t.Errorf("Expected seeded Potion row, got %v", row)
	}

	dt := NewDataTable("/Game/Data/DT_Items", "FItemData")
	if err := p.Add(dt); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added, err := dt.SetRow("Sword", map[string]any{"Damage": 12}); err != nil || !added {
		t.Fatalf("Expected Sword added, got %v %v", added, err)
	}

	before, _ := dt.Row("Sword")
	if added, _ := dt.SetRow("Sword", map[string]any{"Weight": 3}); added {
		t.Error("Expected a merge, not an add")
	}
	after, _ := dt.Row("Sword")
	if len(before) != 1 {
		t.Errorf("Expected earlier row view to stay unchanged, got %v", before)
	}
	if after["Damage"] != 12 || after["Weight"] != 3 {
		t.Errorf("Expected merged columns, got %v", after)
	}

	if err := dt.DeleteRow("Shield"); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("Expected ErrRowNotFound, got %v", err)
	}
	if _, err := seeded.SetRow("", nil); err == nil {
		t.Error("Expected an empty row name to be rejected")
	}

	material := &Asset{Path: "/Game/Materials/M_Plain", Class: ClassMaterial}
	if _, err := material.SetRow("Row", nil); !errors.Is(err, ErrWrongAssetClass) {
		t.Errorf("Expected ErrWrongAssetClass, got %v", err)
	}
}

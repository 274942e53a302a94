package host

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	h, err := New(DefaultSeed())
	if err != nil {
		t.Fatalf("Failed to create host: %v", err)
	}
	return h
}

func TestNew_DefaultSeed(t *testing.T) {
	h := newTestHost(t)

	if h.Project.Count() != len(DefaultSeed().Assets) {
		t.Errorf("Expected %d assets, got %d", len(DefaultSeed().Assets), h.Project.Count())
	}

	bp, err := h.Project.GetClass("/Game/Blueprints/BP_Door", ClassBlueprint)
	if err != nil {
		t.Fatalf("Expected seeded blueprint, got %v", err)
	}
	if bp.Blueprint == nil || bp.Blueprint.ParentClass != "Actor" {
		t.Errorf("Expected blueprint payload with parent Actor, got %+v", bp.Blueprint)
	}

	status := h.Status()
	if status.Project != "BridgeSandbox" || status.Map != "/Game/Maps/Main" {
		t.Errorf("Unexpected status: %+v", status)
	}
	if status.PIEActive {
		t.Error("PIE should not be active on start")
	}
	if h.Log.Len() == 0 {
		t.Error("Expected a startup log line")
	}
}

func TestNew_InvalidSeed(t *testing.T) {
	tests := []struct {
		name string
		seed Seed
	}{
		{
			name: "bad map",
			seed: Seed{Map: "Maps/Main"},
		},
		{
			name: "bad asset path",
			seed: Seed{Assets: []SeedAsset{{Path: "/Game/Bad Name", Class: ClassMaterial}}},
		},
		{
			name: "missing dependency",
			seed: Seed{Assets: []SeedAsset{{Path: "/Game/Meshes/SM_A", Class: ClassStaticMesh, Dependencies: []string{"/Game/Missing"}}}},
		},
		{
			name: "duplicate",
			seed: Seed{Assets: []SeedAsset{
				{Path: "/Game/A/X", Class: ClassTexture},
				{Path: "/Game/a/x", Class: ClassTexture},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.seed); err == nil {
				t.Error("Expected seed to be rejected")
			}
		})
	}
}

func TestNew_AddsMapAsset(t *testing.T) {
	h, err := New(Seed{Project: "Empty", Map: "/Game/Maps/Arena"})
	if err != nil {
		t.Fatalf("Failed to create host: %v", err)
	}
	if _, err := h.Project.GetClass("/Game/Maps/Arena", ClassWorld); err != nil {
		t.Errorf("Expected map asset to be registered, got %v", err)
	}
}

func TestHost_StatusConcurrentReads(t *testing.T) {
	h := newTestHost(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = h.Status()
				_ = h.Log.Recent(5, "")
			}
		}()
	}

	world := h.Worlds.Editor()
	for i := 0; i < 50; i++ {
		if _, err := world.Spawn("StaticMeshActor", "", IdentityTransform()); err != nil {
			t.Fatalf("Spawn failed: %v", err)
		}
		h.Refresh()
		h.Log.Add(CategoryWorld, VerbosityLog, "spawned %d", i)
	}
	wg.Wait()

	if got := h.Status().Actors; got != 50 {
		t.Errorf("Expected 50 actors, got %d", got)
	}
}

func TestOutputLog_RingAndFilter(t *testing.T) {
	log := NewOutputLog(4)
	for i := 0; i < 6; i++ {
		category := CategoryWorld
		if i%2 == 0 {
			category = CategoryAsset
		}
		log.Add(category, VerbosityLog, "line %d", i)
	}

	all := log.Recent(0, "")
	if len(all) != 4 {
		t.Fatalf("Expected 4 retained entries, got %d", len(all))
	}
	if all[0].Message != "line 2" || all[3].Message != "line 5" {
		t.Errorf("Expected oldest-first lines 2..5, got %q..%q", all[0].Message, all[3].Message)
	}

	assets := log.Recent(0, strings.ToLower(CategoryAsset))
	if len(assets) != 2 {
		t.Errorf("Expected 2 asset entries, got %d", len(assets))
	}

	last := log.Recent(1, "")
	if len(last) != 1 || last[0].Message != "line 5" {
		t.Errorf("Expected only the newest line, got %+v", last)
	}
}

func TestProject_ListSearchAndReferences(t *testing.T) {
	h := newTestHost(t)
	p := h.Project

	top := p.List("/Game/Abilities", false, "")
	if len(top) != 4 {
		t.Errorf("Expected 4 abilities assets, got %d", len(top))
	}
	if top[0].Path != "/Game/Abilities/GA_Dash" {
		t.Errorf("Expected sorted listing, got first %s", top[0].Path)
	}

	if got := p.List("/Game", false, ""); len(got) != 0 {
		t.Errorf("Expected no assets directly under /Game, got %d", len(got))
	}
	if got := p.List("/Game", true, ClassGameplayEffect); len(got) != 2 {
		t.Errorf("Expected 2 effects, got %d", len(got))
	}

	found := p.Search(SearchFilter{Name: "door"})
	if len(found) != 1 || found[0].Name() != "BP_Door" {
		t.Errorf("Expected BP_Door, got %v", found)
	}

	refs, err := p.Referencers("/Game/Materials/M_Base.M_Base")
	if err != nil {
		t.Fatalf("Referencers failed: %v", err)
	}
	if len(refs) != 1 || refs[0] != "/Game/Meshes/SM_Cube" {
		t.Errorf("Expected SM_Cube to reference M_Base, got %v", refs)
	}
}

func TestProject_Delete(t *testing.T) {
	h := newTestHost(t)
	p := h.Project

	refs, err := p.Delete("/Game/Meshes/SM_Cube", false)
	if !errors.Is(err, ErrAssetReferenced) {
		t.Fatalf("Expected ErrAssetReferenced, got %v", err)
	}
	if len(refs) != 1 {
		t.Errorf("Expected 1 referencer, got %v", refs)
	}

	if _, err := p.Delete("/Game/Meshes/SM_Cube", true); err != nil {
		t.Fatalf("Forced delete failed: %v", err)
	}
	deps, _ := p.Dependencies("/Game/Blueprints/BP_Door")
	if len(deps) != 0 {
		t.Errorf("Expected dangling dependency to be removed, got %v", deps)
	}
	if _, err := p.Get("/Game/Meshes/SM_Cube"); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Expected ErrAssetNotFound after delete, got %v", err)
	}
}

func TestValidateAssetPath(t *testing.T) {
	tests := []struct {
		path  string
		valid bool
	}{
		{"/Game/Blueprints/BP_Door", true},
		{"/Game/X", true},
		{"/Game", false},
		{"Game/X", false},
		{"/Game//X", false},
		{"/Game/My Asset", false},
		{"/Game/../etc", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.path), func(t *testing.T) {
			err := ValidateAssetPath(tt.path)
			if (err == nil) != tt.valid {
				t.Errorf("Expected valid=%v, got %v", tt.valid, err)
			}
		})
	}
}

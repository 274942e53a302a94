package host

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWorld_SpawnFindRemove(t *testing.T) {
	w := NewWorld(WorldEditor, "/Game/Maps/Main")

	first, err := w.Spawn("/Game/Blueprints/BP_Door.BP_Door_C", "", Transform{})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if first.Label != "BP_Door_1" {
		t.Errorf("Expected generated label BP_Door_1, got %s", first.Label)
	}
	if first.Path != "/Game/Maps/Main:PersistentLevel.BP_Door_1" {
		t.Errorf("Unexpected actor path %s", first.Path)
	}
	if first.Transform.Scale != (Vector{1, 1, 1}) {
		t.Errorf("Expected unit scale default, got %v", first.Transform.Scale)
	}

	named, _ := w.Spawn("PointLight", "Lamp", IdentityTransform())
	clash, _ := w.Spawn("PointLight", "lamp", IdentityTransform())
	if clash.Label != "lamp_1" {
		t.Errorf("Expected suffixed label for a taken name, got %s", clash.Label)
	}

	if _, err := w.Spawn("PointLight", "bad label!", IdentityTransform()); !errors.Is(err, ErrInvalidActorLabel) {
		t.Errorf("Expected ErrInvalidActorLabel, got %v", err)
	}

	for _, ref := range []string{"Lamp", "LAMP", named.Path} {
		if got, err := w.Find(ref); err != nil || got != named {
			t.Errorf("Find(%q) = %v, %v", ref, got, err)
		}
	}
	if _, err := w.Find("/Game/Maps/Other:PersistentLevel.Lamp"); !errors.Is(err, ErrActorNotFound) {
		t.Errorf("Expected path in another map to miss, got %v", err)
	}

	if got := w.List("PointLight"); len(got) != 2 {
		t.Errorf("Expected 2 lights, got %d", len(got))
	}
	if got := w.List("BP_Door"); len(got) != 1 {
		t.Errorf("Expected short class filter to match, got %d", len(got))
	}

	if _, err := w.Remove("Lamp"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := w.Remove("Lamp"); !errors.Is(err, ErrActorNotFound) {
		t.Errorf("Expected ErrActorNotFound, got %v", err)
	}
}

func TestWorldManager_PIE(t *testing.T) {
	editor := NewWorld(WorldEditor, "/Game/Maps/Main")
	editor.Spawn("PlayerStart", "Start", IdentityTransform())
	m := NewWorldManager(editor)

	if w, _ := m.Resolve(WorldAuto); w != editor {
		t.Error("Auto should resolve to the editor world without PIE")
	}
	if _, err := m.Resolve(WorldPIE); !errors.Is(err, ErrPIENotRunning) {
		t.Errorf("Expected ErrPIENotRunning, got %v", err)
	}
	if _, err := m.Resolve("sandbox"); !errors.Is(err, ErrUnknownWorld) {
		t.Errorf("Expected ErrUnknownWorld, got %v", err)
	}

	pie, err := m.StartPIE()
	if err != nil {
		t.Fatalf("StartPIE failed: %v", err)
	}
	if _, err := m.StartPIE(); !errors.Is(err, ErrPIEAlreadyRunning) {
		t.Errorf("Expected ErrPIEAlreadyRunning, got %v", err)
	}
	if w, _ := m.Resolve(""); w != pie {
		t.Error("Auto should resolve to the PIE world while playing")
	}

	pie.Spawn("Projectile", "", IdentityTransform())
	if len(editor.Actors) != 1 || len(pie.Actors) != 2 {
		t.Errorf("PIE changes leaked: editor=%d pie=%d", len(editor.Actors), len(pie.Actors))
	}

	if err := m.Replace(NewWorld(WorldEditor, "/Game/Maps/Other")); err == nil {
		t.Error("Expected level change to be refused during PIE")
	}
	if err := m.StopPIE(); err != nil {
		t.Fatalf("StopPIE failed: %v", err)
	}
	if err := m.StopPIE(); !errors.Is(err, ErrPIENotRunning) {
		t.Errorf("Expected ErrPIENotRunning, got %v", err)
	}
}

func TestFileLevelStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileLevelStore(filepath.Join(dir, "levels"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	w := NewWorld(WorldEditor, "/Game/Maps/Main")
	w.Spawn("PointLight", "", IdentityTransform())
	door, _ := w.Spawn("/Game/Blueprints/BP_Door", "Door", IdentityTransform())
	door.Abilities = NewAbilitySystem()
	door.Mesh = NewProcMesh()
	door.Mesh.CreateSection(0, []Vector{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []int{0, 1, 2})

	t.Run("Save and Load", func(t *testing.T) {
		if err := store.Save("arena", w); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if !store.Exists("arena") {
			t.Error("Level should exist after save")
		}

		loaded, err := store.Load("arena")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		got, err := loaded.Find("Door")
		if err != nil {
			t.Fatalf("Expected Door in loaded level: %v", err)
		}
		if got.Abilities == nil || got.Abilities.Attributes["Health"].Current != 100 {
			t.Errorf("Expected ability component to survive, got %+v", got.Abilities)
		}
		if got.Mesh == nil || len(got.Mesh.Sections[0].Triangles) != 3 {
			t.Errorf("Expected mesh section to survive, got %+v", got.Mesh)
		}
		if next, _ := loaded.Spawn("PointLight", "", IdentityTransform()); next.Label != "PointLight_2" {
			t.Errorf("Expected counters to survive, got %s", next.Label)
		}
	})

	t.Run("List and Delete", func(t *testing.T) {
		store.Save("beta", w)
		names, err := store.ListAll()
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if len(names) != 2 || names[0] != "arena" || names[1] != "beta" {
			t.Errorf("Expected [arena beta], got %v", names)
		}
		if err := store.Delete("beta"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete("beta"); !errors.Is(err, ErrLevelNotFound) {
			t.Errorf("Expected ErrLevelNotFound, got %v", err)
		}
	})

	t.Run("Invalid names", func(t *testing.T) {
		for _, name := range []string{"", "../escape", "a/b", "with space"} {
			if err := store.Save(name, w); !errors.Is(err, ErrInvalidLevelName) {
				t.Errorf("Save(%q): expected ErrInvalidLevelName, got %v", name, err)
			}
		}
		if _, err := store.Load("missing"); !errors.Is(err, ErrLevelNotFound) {
			t.Errorf("Expected ErrLevelNotFound, got %v", err)
		}
	})

	t.Run("Corrupt file", func(t *testing.T) {
		os.WriteFile(filepath.Join(dir, "levels", "broken.json"), []byte("{not json"), 0644)
		if _, err := store.Load("broken"); err == nil {
			t.Error("Expected error for corrupt snapshot")
		}
	})
}

func TestMemoryLevelStore(t *testing.T) {
	store := NewMemoryLevelStore()
	w := NewWorld(WorldEditor, "/Game/Maps/Main")
	w.Spawn("PointLight", "Sun", IdentityTransform())

	if err := store.Save("day", w); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	w.Spawn("PointLight", "Moon", IdentityTransform())

	loaded, err := store.Load("day")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Actors) != 1 {
		t.Errorf("Expected snapshot isolation, got %d actors", len(loaded.Actors))
	}
}

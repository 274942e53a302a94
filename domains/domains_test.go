package domains

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/wricardo/mcp-training/editorbridge/bridge/codec"
	"github.com/wricardo/mcp-training/editorbridge/bridge/dispatch"
	"github.com/wricardo/mcp-training/editorbridge/bridge/executor"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

type harness struct {
	host       *host.Host
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
}

func newHarness(t *testing.T, disabled ...string) *harness {
	t.Helper()

	h, err := host.New(host.DefaultSeed())
	if err != nil {
		t.Fatalf("Expected default seed to load, got %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bridge := executor.New(executor.Options{Logger: logger})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		bridge.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	r := registry.New()
	if _, err := Register(r, Options{Host: h, Stats: bridge, Version: "test", Disabled: disabled}); err != nil {
		t.Fatalf("Expected registration to succeed, got %v", err)
	}
	r.Seal()

	return &harness{
		host:       h,
		registry:   r,
		dispatcher: dispatch.New(r, bridge, dispatch.Options{Logger: logger}),
	}
}

// call runs command and decodes a successful result into a map.
func (h *harness) call(t *testing.T, command string, args map[string]any) map[string]any {
	t.Helper()
	resp := h.try(t, command, args)
	if !resp.OK() {
		t.Fatalf("Expected %s to succeed, got %s: %s", command, resp.Error.Kind, resp.Error.Message)
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Result, &out); err != nil {
		t.Fatalf("Expected %s result to be an object, got %v", command, err)
	}
	return out
}

// fail runs command and checks it fails with kind.
func (h *harness) fail(t *testing.T, command string, args map[string]any, kind codec.ErrorKind) *codec.ErrorObject {
	t.Helper()
	resp := h.try(t, command, args)
	if resp.OK() {
		t.Fatalf("Expected %s to fail with %s, got result %s", command, kind, resp.Result)
	}
	if resp.Error.Kind != kind {
		t.Fatalf("Expected %s to fail with %s, got %s: %s", command, kind, resp.Error.Kind, resp.Error.Message)
	}
	return resp.Error
}

func (h *harness) try(t *testing.T, command string, args map[string]any) *codec.Response {
	t.Helper()
	resp, err := h.dispatcher.Call(context.Background(), command, args)
	if err != nil {
		t.Fatalf("Expected a decodable response for %s, got %v", command, err)
	}
	return resp
}

func number(t *testing.T, m map[string]any, key string) float64 {
	t.Helper()
	v, ok := m[key].(float64)
	if !ok {
		t.Fatalf("Expected %q to be a number, got %T (%v)", key, m[key], m[key])
	}
	return v
}

func TestRegister_AssetDomainEnabledAndDisabled(t *testing.T) {
	raw := []byte(`{"command":"asset.list","arguments":{},"id":1}`)

	t.Run("enabled", func(t *testing.T) {
		h := newHarness(t)
		resp, err := codec.DecodeResponse(h.dispatcher.Handle(context.Background(), raw))
		if err != nil {
			t.Fatalf("Expected a valid response, got %v", err)
		}
		if !resp.OK() {
			t.Fatalf("Expected success, got %s: %s", resp.Error.Kind, resp.Error.Message)
		}
		if !resp.ID.Equal(codec.NumberID(1)) {
			t.Errorf("Expected id 1, got %s", resp.ID)
		}
		var out map[string]any
		if err := json.Unmarshal(resp.Result, &out); err != nil {
			t.Fatal(err)
		}
		if got := number(t, out, "count"); got != 10 {
			t.Errorf("Expected 10 seeded assets, got %v", got)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		h := newHarness(t, "asset")
		resp, err := codec.DecodeResponse(h.dispatcher.Handle(context.Background(), raw))
		if err != nil {
			t.Fatalf("Expected a valid response, got %v", err)
		}
		if resp.OK() || resp.Error.Kind != codec.KindUnknownCommand {
			t.Fatalf("Expected UnknownCommand, got %+v", resp)
		}
		if !resp.ID.Equal(codec.NumberID(1)) {
			t.Errorf("Expected id 1, got %s", resp.ID)
		}
		if slices.Contains(h.registry.Domains(), "asset") {
			t.Error("Expected asset domain to be absent from the catalog")
		}
	})
}

func TestModules(t *testing.T) {
	h, err := host.New(host.DefaultSeed())
	if err != nil {
		t.Fatal(err)
	}

	t.Run("all domains by default", func(t *testing.T) {
		modules, err := Modules(Options{Host: h})
		if err != nil {
			t.Fatal(err)
		}
		if len(modules) != len(Names) {
			t.Fatalf("Expected %d modules, got %d", len(Names), len(modules))
		}
		for i, m := range modules {
			if m.Domain() != Names[i] {
				t.Errorf("Expected module %d to be %s, got %s", i, Names[i], m.Domain())
			}
		}
	})

	t.Run("disabled names are case-insensitive", func(t *testing.T) {
		modules, err := Modules(Options{Host: h, Disabled: []string{" PCG ", "gas", ""}})
		if err != nil {
			t.Fatal(err)
		}
		if len(modules) != len(Names)-2 {
			t.Errorf("Expected %d modules, got %d", len(Names)-2, len(modules))
		}
	})

	t.Run("unknown disabled domain", func(t *testing.T) {
		if _, err := Modules(Options{Host: h, Disabled: []string{"landscape"}}); err == nil {
			t.Error("Expected error for unknown domain")
		}
	})
}

func TestAssetDomain(t *testing.T) {
	h := newHarness(t)

	t.Run("info", func(t *testing.T) {
		out := h.call(t, "asset.info", map[string]any{"asset_path": "/Game/Meshes/SM_Cube.SM_Cube"})
		if out["class"] != host.ClassStaticMesh {
			t.Errorf("Expected class %s, got %v", host.ClassStaticMesh, out["class"])
		}
		if out["object_path"] != "/Game/Meshes/SM_Cube.SM_Cube" {
			t.Errorf("Expected object path, got %v", out["object_path"])
		}
	})

	t.Run("search by class", func(t *testing.T) {
		out := h.call(t, "asset.search", map[string]any{"class_filter": host.ClassGameplayAbility})
		if got := number(t, out, "count"); got != 2 {
			t.Errorf("Expected 2 abilities, got %v", got)
		}
	})

	t.Run("create rejects invalid path", func(t *testing.T) {
		e := h.fail(t, "asset.create", map[string]any{"asset_path": "Game/bad path", "class": "Material"}, codec.KindHandlerError)
		if e.Detail["field"] != "asset_path" {
			t.Errorf("Expected field asset_path, got %v", e.Detail["field"])
		}
	})

	t.Run("create then referencers", func(t *testing.T) {
		h.call(t, "asset.create", map[string]any{
			"asset_path":   "/Game/Meshes/SM_Sphere",
			"class":        host.ClassStaticMesh,
			"dependencies": []any{"/Game/Materials/M_Base"},
		})
		out := h.call(t, "asset.referencers", map[string]any{"asset_path": "/Game/Materials/M_Base"})
		refs, _ := out["referencers"].([]any)
		if len(refs) != 2 {
			t.Errorf("Expected 2 referencers, got %v", refs)
		}
	})

	t.Run("delete referenced needs force", func(t *testing.T) {
		e := h.fail(t, "asset.delete", map[string]any{"asset_path": "/Game/Meshes/SM_Cube"}, codec.KindHandlerError)
		refs, _ := e.Detail["referencers"].([]any)
		if len(refs) != 1 || refs[0] != "/Game/Blueprints/BP_Door" {
			t.Errorf("Expected BP_Door as referencer, got %v", e.Detail["referencers"])
		}

		out := h.call(t, "asset.delete", map[string]any{"asset_path": "/Game/Meshes/SM_Cube", "force": true})
		if out["deleted"] != "/Game/Meshes/SM_Cube" {
			t.Errorf("Expected SM_Cube deleted, got %v", out["deleted"])
		}
		deps := h.call(t, "asset.dependencies", map[string]any{"asset_path": "/Game/Blueprints/BP_Door"})
		if list, _ := deps["dependencies"].([]any); len(list) != 0 {
			t.Errorf("Expected dangling dependency removed, got %v", list)
		}
	})

	t.Run("missing asset", func(t *testing.T) {
		h.fail(t, "asset.info", map[string]any{"asset_path": "/Game/Nope"}, codec.KindHandlerError)
	})
}

func TestBlueprintDomain(t *testing.T) {
	h := newHarness(t)
	bp := "/Game/Blueprints/BP_Lamp"

	h.call(t, "blueprint.create", map[string]any{"blueprint_path": bp, "parent_class": "Pawn"})
	begin := h.call(t, "blueprint.add_node", map[string]any{"blueprint_path": bp, "node_class": "Event_BeginPlay"})
	printNode := h.call(t, "blueprint.add_node", map[string]any{"blueprint_path": bp, "node_class": "PrintString"})

	if begin["id"] != "Event_BeginPlay_1" || printNode["id"] != "PrintString_2" {
		t.Fatalf("Expected sequential node ids, got %v and %v", begin["id"], printNode["id"])
	}

	t.Run("connect exec pins", func(t *testing.T) {
		h.call(t, "blueprint.connect_pins", map[string]any{
			"blueprint_path": bp,
			"source_node":    begin["id"], "source_pin": "then",
			"target_node": printNode["id"], "target_pin": "execute",
		})
		out := h.call(t, "blueprint.compile", map[string]any{"blueprint_path": bp})
		if out["status"] != "up_to_date" {
			t.Errorf("Expected up_to_date, got %v", out["status"])
		}
	})

	t.Run("connect mismatched kinds", func(t *testing.T) {
		h.fail(t, "blueprint.connect_pins", map[string]any{
			"blueprint_path": bp,
			"source_node":    begin["id"], "source_pin": "then",
			"target_node": printNode["id"], "target_pin": "in_string",
		}, codec.KindHandlerError)
	})

	t.Run("compile failure carries detail", func(t *testing.T) {
		h.call(t, "blueprint.add_variable", map[string]any{
			"blueprint_path": bp, "variable_name": "Glow", "variable_type": "plasma",
		})
		e := h.fail(t, "blueprint.compile", map[string]any{"blueprint_path": bp}, codec.KindHandlerError)
		errs, _ := e.Detail["errors"].([]any)
		if len(errs) != 1 {
			t.Errorf("Expected 1 compile error, got %v", e.Detail["errors"])
		}
	})

	t.Run("inspect", func(t *testing.T) {
		h.call(t, "blueprint.remove_variable", map[string]any{"blueprint_path": bp, "variable_name": "glow"})
		h.call(t, "blueprint.add_function", map[string]any{"blueprint_path": bp, "function_name": "Toggle"})
		out := h.call(t, "blueprint.inspect", map[string]any{"blueprint_path": bp})
		if out["parent_class"] != "Pawn" {
			t.Errorf("Expected parent Pawn, got %v", out["parent_class"])
		}
		if fns, _ := out["functions"].([]any); len(fns) != 1 || fns[0] != "Toggle" {
			t.Errorf("Expected function Toggle, got %v", out["functions"])
		}
		if vars, _ := out["variables"].([]any); len(vars) != 0 {
			t.Errorf("Expected no variables, got %v", vars)
		}
	})

	t.Run("wrong asset class", func(t *testing.T) {
		h.fail(t, "blueprint.inspect", map[string]any{"blueprint_path": "/Game/Materials/M_Base"}, codec.KindHandlerError)
	})
}

func TestActorAndLevelDomains(t *testing.T) {
	h := newHarness(t)

	out := h.call(t, "actor.spawn", map[string]any{
		"class": "/Game/Blueprints/BP_Door", "actor_name": "FrontDoor", "location": []any{100, 0, 0},
	})
	actor, _ := out["actor"].(map[string]any)
	if actor["label"] != "FrontDoor" {
		t.Fatalf("Expected label FrontDoor, got %v", actor["label"])
	}
	h.fail(t, "actor.spawn", map[string]any{"class": "/Game/Blueprints/BP_Missing"}, codec.KindHandlerError)

	t.Run("PIE copies the editor world", func(t *testing.T) {
		h.call(t, "level.start_pie", nil)
		h.fail(t, "level.start_pie", nil, codec.KindHandlerError)

		h.call(t, "actor.spawn", map[string]any{"class": "PointLight", "actor_name": "PieOnly"})
		pie := h.call(t, "actor.list", nil)
		if pie["world"] != host.WorldPIE || number(t, pie, "count") != 2 {
			t.Errorf("Expected 2 actors in pie world, got %v in %v", pie["count"], pie["world"])
		}
		editor := h.call(t, "actor.list", map[string]any{"world": "editor"})
		if number(t, editor, "count") != 1 {
			t.Errorf("Expected editor world untouched, got %v actors", editor["count"])
		}

		if !h.host.Status().PIEActive {
			t.Error("Expected published status to report PIE")
		}
		h.call(t, "level.stop_pie", nil)
		h.fail(t, "level.stop_pie", nil, codec.KindHandlerError)
		h.fail(t, "actor.get", map[string]any{"actor_path": "PieOnly"}, codec.KindHandlerError)
	})

	t.Run("save, new and load", func(t *testing.T) {
		saved := h.call(t, "level.save", map[string]any{"level_name": "Courtyard"})
		if number(t, saved, "actor_count") != 1 {
			t.Errorf("Expected 1 saved actor, got %v", saved["actor_count"])
		}
		fresh := h.call(t, "level.new", map[string]any{"level_name": "Empty"})
		if number(t, fresh, "actor_count") != 0 || fresh["map"] != "/Game/Maps/Empty" {
			t.Errorf("Expected empty level /Game/Maps/Empty, got %v", fresh)
		}
		loaded := h.call(t, "level.load", map[string]any{"level_name": "Courtyard"})
		if number(t, loaded, "actor_count") != 1 {
			t.Errorf("Expected 1 actor after load, got %v", loaded["actor_count"])
		}
		h.fail(t, "level.load", map[string]any{"level_name": "../etc"}, codec.KindHandlerError)
		h.fail(t, "level.load", map[string]any{"level_name": "Nowhere"}, codec.KindHandlerError)

		list := h.call(t, "level.list", nil)
		if levels, _ := list["saved_levels"].([]any); len(levels) != 1 {
			t.Errorf("Expected 1 saved level, got %v", list["saved_levels"])
		}
	})

	t.Run("delete", func(t *testing.T) {
		h.call(t, "actor.delete", map[string]any{"actor_path": "FrontDoor"})
		h.fail(t, "actor.delete", map[string]any{"actor_path": "FrontDoor"}, codec.KindHandlerError)
	})
}

func TestGASDomain(t *testing.T) {
	h := newHarness(t)
	h.call(t, "actor.spawn", map[string]any{"class": "Character", "actor_name": "Hero"})

	h.fail(t, "gas.grant_ability", map[string]any{"actor_path": "Hero", "ability_class": "/Game/Abilities/GA_Dash"}, codec.KindHandlerError)
	h.call(t, "gas.add_component", map[string]any{"actor_path": "Hero"})
	h.call(t, "gas.grant_ability", map[string]any{"actor_path": "Hero", "ability_class": "/Game/Abilities/GA_Dash"})
	h.call(t, "gas.grant_ability", map[string]any{"actor_path": "Hero", "ability_class": "/Game/Abilities/GA_Fireball", "level": 2})

	t.Run("revoke by parent tag", func(t *testing.T) {
		out := h.call(t, "gas.revoke_ability", map[string]any{"actor_path": "Hero", "ability_tag": "Ability.Movement"})
		if number(t, out, "count") != 1 {
			t.Errorf("Expected 1 revoked, got %v", out["count"])
		}
		h.fail(t, "gas.revoke_ability", map[string]any{"actor_path": "Hero"}, codec.KindHandlerError)
	})

	t.Run("instant damage", func(t *testing.T) {
		h.call(t, "gas.apply_effect", map[string]any{"actor_path": "Hero", "effect_class": "/Game/Abilities/GE_Damage", "effect_level": 2})
		out := h.call(t, "gas.get_attributes", map[string]any{"actor_path": "Hero"})
		attrs, _ := out["attributes"].([]any)
		for _, raw := range attrs {
			attr, _ := raw.(map[string]any)
			if attr["name"] == "Health" && (attr["base_value"] != 80.0 || attr["current_value"] != 80.0) {
				t.Errorf("Expected Health 80 after level 2 damage, got %v", attr)
			}
		}
		if effects, _ := out["active_effects"].([]any); len(effects) != 0 {
			t.Errorf("Expected instant effect to not stay active, got %v", effects)
		}
	})

	t.Run("set unknown attribute", func(t *testing.T) {
		h.fail(t, "gas.set_attribute", map[string]any{"actor_path": "Hero", "attribute_name": "Luck", "attribute_value": 7}, codec.KindHandlerError)
	})
}

func TestMeshDomain(t *testing.T) {
	h := newHarness(t)
	quad := map[string]any{
		"vertices":   []any{[]any{0, 0, 0}, []any{100, 0, 0}, []any{100, 100, 0}, []any{0, 100, 0}},
		"triangles":  []any{0, 1, 2, 0, 2, 3},
		"actor_name": "Floor",
	}

	out := h.call(t, "mesh.create_section", quad)
	if out["spawned"] != true || number(t, out, "triangle_count") != 2 {
		t.Fatalf("Expected spawned actor with 2 triangles, got %v", out)
	}

	bad := map[string]any{"vertices": quad["vertices"], "triangles": []any{0, 1, 9}, "actor_path": "Floor"}
	e := h.fail(t, "mesh.create_section", bad, codec.KindHandlerError)
	if e.Detail["field"] != "triangles" {
		t.Errorf("Expected field triangles, got %v", e.Detail["field"])
	}

	t.Run("exponent indices", func(t *testing.T) {
		h.call(t, "mesh.create_section", map[string]any{
			"vertices":   []any{[]any{0, 0, 0}, []any{1, 0, 0}, []any{0, 1, 0}},
			"triangles":  []any{0, 1, json.Number("2e0")},
			"actor_name": "Shard",
		})
		shard, err := h.host.Worlds.Editor().Find("Shard")
		if err != nil {
			t.Fatal(err)
		}
		if got := shard.Mesh.Sections[0].Triangles; !slices.Equal(got, []int{0, 1, 2}) {
			t.Errorf("Expected triangles [0 1 2], got %v", got)
		}

		e := h.fail(t, "mesh.create_section", map[string]any{
			"vertices":  []any{[]any{0, 0, 0}, []any{1, 0, 0}, []any{0, 1, 0}},
			"triangles": []any{0, 1, json.Number("1e19")},
		}, codec.KindHandlerError)
		if e.Detail["field"] != "triangles" {
			t.Errorf("Expected field triangles, got %v", e.Detail["field"])
		}
	})

	out = h.call(t, "mesh.set_material", map[string]any{"actor_path": "Floor", "material_path": "/Game/Materials/M_Base"})
	if sections, _ := out["sections"].([]any); len(sections) != 1 {
		t.Errorf("Expected 1 section updated, got %v", out["sections"])
	}
	out = h.call(t, "mesh.clear", map[string]any{"actor_path": "Floor"})
	if number(t, out, "section_count") != 0 {
		t.Errorf("Expected no sections after clear, got %v", out["section_count"])
	}
}

func TestEditorDomain(t *testing.T) {
	h := newHarness(t, "pcg")
	h.call(t, "asset.list", nil)

	t.Run("status", func(t *testing.T) {
		out := h.call(t, "editor.status", nil)
		if out["project"] != "BridgeSandbox" || out["version"] != "test" {
			t.Errorf("Expected project BridgeSandbox at version test, got %v", out)
		}
		domains, _ := out["domains"].([]any)
		if len(domains) != len(Names)-1 {
			t.Errorf("Expected %d domains, got %v", len(Names)-1, domains)
		}
		bridge, _ := out["bridge"].(map[string]any)
		if number(t, bridge, "completed") < 1 {
			t.Errorf("Expected completed host-thread work, got %v", bridge)
		}
	})

	t.Run("list commands by domain", func(t *testing.T) {
		out := h.call(t, "editor.list_commands", map[string]any{"domain": "level"})
		if number(t, out, "count") != 7 {
			t.Errorf("Expected 7 level commands, got %v", out["count"])
		}
	})

	t.Run("output log", func(t *testing.T) {
		h.call(t, "actor.spawn", map[string]any{"class": "PointLight"})
		out := h.call(t, "editor.output_log", map[string]any{"category": host.CategoryWorld, "limit": 5})
		entries, _ := out["entries"].([]any)
		if len(entries) == 0 {
			t.Error("Expected world log entries")
		}
		h.fail(t, "editor.output_log", map[string]any{"limit": 0}, codec.KindHandlerError)
	})
}

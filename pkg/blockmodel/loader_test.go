package blockmodel

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDecodeSimpleModel(t *testing.T) {
	model, err := DecodeModel([]byte(`{
		"textures": { "all": "block/stone" },
		"elements": [ { "from": [0,0,0], "to": [16,16,16], "faces": { "down": { "texture": "#all" } } } ]
	}`))
	if err != nil {
		t.Fatalf("Failed to decode model: %v", err)
	}

	if len(model.Elements) != 1 {
		t.Errorf("Expected 1 element, got %d", len(model.Elements))
	}

	if model.Textures["all"] != "block/stone" {
		t.Errorf("Expected texture 'all' to be 'block/stone', got '%s'", model.Textures["all"])
	}
}

func TestDecodeModelWithoutTexturesHasEmptyMap(t *testing.T) {
	model, err := DecodeModel([]byte(`{"parent": "block/cube_all"}`))
	if err != nil {
		t.Fatalf("Failed to decode model: %v", err)
	}
	if model.Textures == nil {
		t.Errorf("Expected non-nil texture map")
	}
}

func TestDecodeObjModel(t *testing.T) {
	model, err := DecodeModel([]byte(`{
		"loader": "forge:obj",
		"model": "create:models/block/steam_engine.obj",
		"textures": { "texture": "create:block/steam_engine" }
	}`))
	if err != nil {
		t.Fatalf("Failed to decode model: %v", err)
	}
	if model.Loader != "forge:obj" || model.MeshPath != "create:models/block/steam_engine.obj" {
		t.Errorf("Expected loader fields to decode, got %q %q", model.Loader, model.MeshPath)
	}
}

func TestTextureResolve(t *testing.T) {
	textures := map[string]string{"primary": "block/diamond_block", "secondary": "#primary"}

	ref := ResolveTexture("#secondary", textures)
	if ref.IsVar() || ref.ID != "block/diamond_block" {
		t.Errorf("Expected texture to be resolved to 'block/diamond_block', got '%s'", ref)
	}
}

func TestTextureResolveBrokenChain(t *testing.T) {
	ref := ResolveTexture("#missing", map[string]string{"a": "b"})
	if !ref.IsVar() || ref.Var != "missing" {
		t.Errorf("Expected unresolved #missing, got %s", ref)
	}
}

func TestTextureResolveCycleTerminates(t *testing.T) {
	textures := map[string]string{"a": "#b", "b": "#a"}
	ref := ResolveTexture("#a", textures)
	if !ref.IsVar() {
		t.Errorf("Expected cycle to stay a variable, got %s", ref)
	}
}

func TestBlockStateVariantsSingleOrList(t *testing.T) {
	bs, err := DecodeBlockState([]byte(`{
		"variants": {
			"": { "model": "block/stone" },
			"axis=x": [ { "model": "block/log", "x": 90, "weight": 2 }, { "model": "block/log_alt" } ]
		}
	}`))
	if err != nil {
		t.Fatalf("Failed to decode blockstate: %v", err)
	}
	if len(bs.Variants[""]) != 1 || bs.Variants[""][0].Model != "block/stone" {
		t.Errorf("Expected single variant to decode as list of one, got %+v", bs.Variants[""])
	}
	if len(bs.Variants["axis=x"]) != 2 || bs.Variants["axis=x"][0].X != 90 {
		t.Errorf("Expected weighted list, got %+v", bs.Variants["axis=x"])
	}
}

func TestBlockStateMultipartConditions(t *testing.T) {
	bs, err := DecodeBlockState([]byte(`{
		"multipart": [
			{ "apply": { "model": "block/post" } },
			{ "when": { "north": "true", "up": false }, "apply": { "model": "block/side" } },
			{ "when": { "OR": [ { "facing": "north|south" }, { "AND": [ { "lit": true } ] } ] },
			  "apply": [ { "model": "block/a" }, { "model": "block/b", "y": 90 } ] }
		]
	}`))
	if err != nil {
		t.Fatalf("Failed to decode blockstate: %v", err)
	}
	if bs.Multipart[0].When != nil {
		t.Errorf("Expected unconditional first part")
	}
	if got := bs.Multipart[1].When.Props; !reflect.DeepEqual(got, map[string]string{"north": "true", "up": "false"}) {
		t.Errorf("Expected stringified props, got %v", got)
	}
	or := bs.Multipart[2].When
	if or.Op != OpOr || len(or.Terms) != 2 || or.Terms[1].Op != OpAnd {
		t.Errorf("Expected OR(flat, AND(...)), got %+v", or)
	}
	if !or.Matches(map[string]string{"facing": "south"}) {
		t.Errorf("Expected alternation to match south")
	}
	if or.Matches(map[string]string{"facing": "east", "lit": "false"}) {
		t.Errorf("Expected no match for east/unlit")
	}
	if len(bs.Multipart[2].Apply) != 2 {
		t.Errorf("Expected 2 applied models, got %d", len(bs.Multipart[2].Apply))
	}
}

func TestConditionRoundTripIsStable(t *testing.T) {
	var c Condition
	if err := json.Unmarshal([]byte(`{"b":"2","a":"1"}`), &c); err != nil {
		t.Fatal(err)
	}
	if c.Key() != `{"a":"1","b":"2"}` {
		t.Errorf("Expected sorted canonical key, got %s", c.Key())
	}
	clone := c.Clone()
	clone.Props["a"] = "changed"
	if c.Props["a"] != "1" {
		t.Errorf("Clone shares props with original")
	}
}

func TestParseVariantKey(t *testing.T) {
	cases := map[string]map[string]string{
		"":                     {},
		"normal":               {},
		"facing=north":         {"facing": "north"},
		"facing=east,half=top": {"facing": "east", "half": "top"},
		"junk,axis=y":          {"axis": "y"},
	}
	for key, want := range cases {
		if got := ParseVariantKey(key); !reflect.DeepEqual(got, want) {
			t.Errorf("ParseVariantKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestNormalizeIDs(t *testing.T) {
	if got := NormalizeID("stone", ""); got != "minecraft:stone" {
		t.Errorf("Expected minecraft:stone, got %s", got)
	}
	if got := NormalizeID("create:shaft", "minecraft"); got != "create:shaft" {
		t.Errorf("Expected namespace kept, got %s", got)
	}
	if got := NormalizeModelID("stone", "minecraft"); got != "minecraft:block/stone" {
		t.Errorf("Expected legacy block/ prefix, got %s", got)
	}
	if got := ModelPath("create:block/fluid_pipe/lu_x"); got != "assets/create/models/block/fluid_pipe/lu_x.json" {
		t.Errorf("Unexpected model path %s", got)
	}
	if got := AssetPath("create:models/block/engine.obj", "minecraft"); got != "assets/create/models/block/engine.obj" {
		t.Errorf("Unexpected asset path %s", got)
	}
	if got := Dir("create:block/press/head"); got != "create:block/press" {
		t.Errorf("Unexpected dir %s", got)
	}
}

func TestModelIDs(t *testing.T) {
	bs := &BlockState{
		Multipart: []Part{
			{Apply: BlockStateVariants{{Model: "create:block/b"}, {Model: "create:block/a"}}},
			{Apply: BlockStateVariants{{Model: "create:block/a", Y: 90}}},
			{Apply: BlockStateVariants{{Model: "block/cube_all"}}},
		},
	}
	got := bs.ModelIDs()
	if !reflect.DeepEqual(got, []string{"create:block/a", "create:block/b", "minecraft:block/cube_all"}) {
		t.Errorf("Unexpected ids %v", got)
	}
}

func TestElementCloneIsDeep(t *testing.T) {
	uv := [4]float32{0, 0, 16, 16}
	e := Element{
		Rotation: &Rotation{Axis: "y", Angle: 45},
		Faces:    map[string]Face{"up": {Texture: "#a", UV: &uv}},
	}
	c := e.Clone()
	c.Rotation.Angle = 0
	c.Faces["up"].UV[0] = 8
	c.Translate([3]float32{1, 2, 3})
	if e.Rotation.Angle != 45 || e.Faces["up"].UV[0] != 0 || e.From[1] != 0 {
		t.Errorf("Clone aliases original: %+v", e)
	}
}

package patcher

import (
	"context"
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"modres/internal/manifest"
	"modres/internal/resource"
	"modres/pkg/blockmodel"
)

func decode(t *testing.T, s string) *blockmodel.BlockState {
	t.Helper()
	bs, err := blockmodel.DecodeBlockState([]byte(s))
	require.NoError(t, err)
	return bs
}

func TestVariantsBecomeMultipart(t *testing.T) {
	p := New(nil, Options{Namespace: "create"})
	bs := p.Patch("create:cogwheel", decode(t, `{"variants":{
		"axis=y": {"model":"create:block/cogwheel"},
		"axis=x": {"model":"create:block/cogwheel","x":90,"y":90},
		"axis=z,waterlogged=true": [{"model":"create:block/cogwheel","x":90}],
		"": {"model":"create:block/cogwheel"}
	}}`))

	require.Nil(t, bs.Variants)
	require.Len(t, bs.Multipart, 4)

	got := make([]map[string]string, len(bs.Multipart))
	for i, part := range bs.Multipart {
		if part.When != nil {
			got[i] = part.When.Props
		}
	}
	want := []map[string]string{
		nil,
		{"axis": "x"},
		{"axis": "y"},
		{"axis": "z", "waterlogged": "true"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("conditions mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 90, bs.Multipart[1].Apply[0].Y)

	out, err := json.Marshal(bs)
	require.NoError(t, err)
	require.NotContains(t, string(out), `"variants"`)
}

func TestNormalVariantHasNoCondition(t *testing.T) {
	p := New(nil, Options{})
	bs := p.Patch("minecraft:stone", decode(t, `{"variants":{"normal":{"model":"block/stone"}}}`))
	require.Len(t, bs.Multipart, 1)
	require.Nil(t, bs.Multipart[0].When)
}

func TestUnqualifiedModelsAreVanilla(t *testing.T) {
	p := New(nil, Options{Namespace: "create"})
	bs := p.Patch("create:andesite_scaffolding", decode(t, `{"variants":{
		"": [{"model":"block/scaffolding_stable"}, {"model":"create:block/andesite_scaffolding"}]
	}}`))
	require.Equal(t, []string{
		"create:block/andesite_scaffolding",
		"minecraft:block/scaffolding_stable",
	}, ModelIDs(bs))
}

func pressManifest() *manifest.Manifest {
	return manifest.New([]string{
		"create:block/mechanical_press/block",
		"create:block/mechanical_press/head",
		"create:block/mechanical_press/parts/pole",
		"create:block/mechanical_press/item",
		"create:block/shaft",
		"create:block/cogwheel_shaftless",
	})
}

func pressState() string {
	return `{"variants":{
		"facing=north": {"model":"create:block/mechanical_press/block"},
		"facing=east":  {"model":"create:block/mechanical_press/block","y":90}
	}}`
}

func TestDiscoveryAddsSubparts(t *testing.T) {
	p := New(nil, Options{Namespace: "create", Manifest: pressManifest()})
	bs := p.Patch("create:mechanical_press", decode(t, pressState()))

	ids := ModelIDs(bs)
	require.Equal(t, []string{
		"create:block/mechanical_press/block",
		"create:block/mechanical_press/head",
		"create:block/mechanical_press/parts/pole",
	}, ids)
	// two base entries, two sub-parts each
	require.Len(t, bs.Multipart, 6)

	for _, part := range bs.Multipart[2:] {
		require.NotNil(t, part.When)
		if part.When.Props["facing"] == "east" {
			require.Equal(t, 90, part.Apply[0].Y)
		}
	}
}

func TestDiscoveryIsDeterministic(t *testing.T) {
	run := func() []byte {
		p := New(nil, Options{Namespace: "create", Manifest: pressManifest()})
		bs := p.Patch("create:mechanical_press", decode(t, pressState()))
		once, err := json.Marshal(bs)
		require.NoError(t, err)

		p.Patch("create:mechanical_press", bs)
		twice, err := json.Marshal(bs)
		require.NoError(t, err)
		if diff := cmp.Diff(string(once), string(twice)); diff != "" {
			t.Errorf("second patch changed output (-once +twice):\n%s", diff)
		}
		return twice
	}
	a, b := run(), run()
	if diff := cmp.Diff(string(a), string(b)); diff != "" {
		t.Errorf("runs differ (-a +b):\n%s", diff)
	}
}

func TestDiscoveryGates(t *testing.T) {
	m := manifest.New([]string{"create:block/shaft", "create:block/cogwheel", "create:block/andesite_casing/cog"})

	p := New(nil, Options{Namespace: "create", Manifest: m})
	root := p.Patch("create:gearbox", decode(t, `{"variants":{"":{"model":"create:block/gearbox"}}}`))
	require.Len(t, root.Multipart, 1, "root block directory is never scanned")

	notAllowed := p.Patch("create:andesite_casing", decode(t, `{"variants":{"":{"model":"create:block/andesite_casing/block"}}}`))
	require.Len(t, notAllowed.Multipart, 1)

	noManifest := New(nil, Options{Namespace: "create"})
	bs := noManifest.Patch("create:mechanical_press", decode(t, pressState()))
	require.Len(t, bs.Multipart, 2)
}

func TestFacingOverride(t *testing.T) {
	m := manifest.New([]string{"create:block/encased_fan/propeller"})
	p := New(nil, Options{Namespace: "create", Manifest: m})
	bs := p.Patch("create:encased_fan", decode(t, `{"variants":{
		"facing=up": {"model":"create:block/encased_fan/block","x":180}
	}}`))
	require.Len(t, bs.Multipart, 2)
	prop := bs.Multipart[1].Apply[0]
	require.Equal(t, "create:block/encased_fan/propeller", prop.Model)
	require.Equal(t, 270, prop.X)
	require.Equal(t, 0, prop.Y)
}

func TestBeltPatch(t *testing.T) {
	p := New(nil, Options{Namespace: "create"})
	bs := p.Patch("create:belt", decode(t, `{"variants":{"":{"model":"create:block/belt/particle"}}}`))
	require.Nil(t, bs.Variants)
	require.NotEmpty(t, bs.Multipart)

	state := map[string]string{"slope": "upward", "part": "start", "facing": "east", "casing": "true"}
	var models []string
	for _, part := range bs.Multipart {
		if part.When.Matches(state) {
			for _, v := range part.Apply {
				models = append(models, v.Model)
			}
		}
	}
	require.Equal(t, []string{
		"create:block/belt/diagonal_start",
		"create:block/belt_pulley",
		"create:block/belt_casing/diagonal_start",
	}, models)

	for _, part := range bs.Multipart {
		for _, v := range part.Apply {
			require.NotEqual(t, "create:block/belt/particle", v.Model)
		}
	}
}

func TestFamilyAppends(t *testing.T) {
	p := New(nil, Options{Namespace: "create"})

	pipe := p.Patch("create:encased_fluid_pipe", decode(t, `{"variants":{"":{"model":"create:block/encased_fluid_pipe/casing"}}}`))
	require.Len(t, pipe.Multipart, 4)
	var rots [][2]int
	for _, part := range pipe.Multipart[1:] {
		require.Nil(t, part.When)
		require.Equal(t, "create:block/fluid_pipe/core", part.Apply[0].Model)
		rots = append(rots, [2]int{part.Apply[0].X, part.Apply[0].Y})
	}
	require.Equal(t, [][2]int{{0, 0}, {90, 0}, {90, 90}}, rots)

	p.Patch("create:encased_fluid_pipe", pipe)
	require.Len(t, pipe.Multipart, 4)

	spout := p.Patch("create:spout", nil)
	require.Equal(t, []string{
		"create:block/spout/bottom",
		"create:block/spout/middle",
		"create:block/spout/top",
	}, ModelIDs(spout))
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"assets/create/blockstates/cogwheel.json": {Data: []byte(`{"variants":{"":{"model":"create:block/cogwheel"}}}`)},
		"assets/create/blockstates/broken.json":   {Data: []byte(`{"variants":`)},
	}
	p := New(resource.NewProvider(resource.NewFSSource(fsys)), Options{Namespace: "create"})
	ctx := context.Background()

	bs, ok := p.Load(ctx, "cogwheel")
	require.True(t, ok)
	require.Len(t, bs.Multipart, 1)

	_, ok = p.Load(ctx, "create:absent")
	require.False(t, ok)
	_, ok = p.Load(ctx, "create:absent")
	require.False(t, ok)
	_, ok = p.Load(ctx, "create:broken")
	require.False(t, ok)

	spout, ok := p.Load(ctx, "create:spout")
	require.True(t, ok)
	require.Len(t, spout.Multipart, 3)

	require.Equal(t, []string{
		"blockstate create:absent",
		"blockstate create:broken",
		"blockstate create:spout",
	}, p.Missing())
}

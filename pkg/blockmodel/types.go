package blockmodel

import (
	"encoding/json"

	"modres/pkg/objmesh"
)

type Model struct {
	Parent           string             `json:"parent,omitempty"`
	AmbientOcclusion *bool              `json:"ambientocclusion,omitempty"`
	Textures         map[string]string  `json:"textures,omitempty"`
	Elements         []Element          `json:"elements,omitempty"`
	Display          map[string]Display `json:"display,omitempty"`

	// Loader and MeshPath describe geometry kept in an external OBJ file
	// instead of Elements.
	Loader   string `json:"loader,omitempty"`
	MeshPath string `json:"model,omitempty"`

	// Children are nested composite sub-models. The resolver folds them into
	// Elements and clears the map.
	Children map[string]*Model `json:"children,omitempty"`

	// Mesh is filled by the resolver for OBJ-backed models.
	Mesh []objmesh.Batch `json:"mesh,omitempty"`
}

type Element struct {
	Name     string          `json:"name,omitempty"`
	From     [3]float32      `json:"from"`
	To       [3]float32      `json:"to"`
	Rotation *Rotation       `json:"rotation,omitempty"`
	Shade    *bool           `json:"shade,omitempty"`
	Faces    map[string]Face `json:"faces"`
}

type Rotation struct {
	Origin  [3]float32 `json:"origin"`
	Angle   float32    `json:"angle"`
	Axis    string     `json:"axis"`
	Rescale bool       `json:"rescale,omitempty"`
}

type Face struct {
	UV        *[4]float32 `json:"uv,omitempty"`
	Texture   string      `json:"texture"`
	CullFace  string      `json:"cullface,omitempty"`
	Rotation  int         `json:"rotation,omitempty"`
	TintIndex *int        `json:"tintindex,omitempty"`
}

type Display struct {
	Rotation    [3]float32 `json:"rotation"`
	Translation [3]float32 `json:"translation"`
	Scale       [3]float32 `json:"scale"`
}

// Clone returns a deep copy of the element so synthesized geometry never
// aliases faces or rotations of its template.
func (e Element) Clone() Element {
	out := e
	if e.Rotation != nil {
		r := *e.Rotation
		out.Rotation = &r
	}
	if e.Shade != nil {
		s := *e.Shade
		out.Shade = &s
	}
	if e.Faces != nil {
		out.Faces = make(map[string]Face, len(e.Faces))
		for name, f := range e.Faces {
			out.Faces[name] = f.Clone()
		}
	}
	return out
}

func (f Face) Clone() Face {
	out := f
	if f.UV != nil {
		uv := *f.UV
		out.UV = &uv
	}
	if f.TintIndex != nil {
		t := *f.TintIndex
		out.TintIndex = &t
	}
	return out
}

// Translate shifts the element and its rotation origin by d.
func (e *Element) Translate(d [3]float32) {
	for i := 0; i < 3; i++ {
		e.From[i] += d[i]
		e.To[i] += d[i]
	}
	if e.Rotation != nil {
		for i := 0; i < 3; i++ {
			e.Rotation.Origin[i] += d[i]
		}
	}
}

// BlockState defines the blockstate JSON structure. It maps variants of a
// block, or conditional multipart entries, to their corresponding models.
type BlockState struct {
	// Variants is a map of variant names to a list of models.
	Variants  map[string]BlockStateVariants `json:"variants,omitempty"`
	Multipart []Part                        `json:"multipart,omitempty"`
}

// Part is one multipart entry: Apply is used whenever When matches (always,
// when When is nil).
type Part struct {
	When  *Condition         `json:"when,omitempty"`
	Apply BlockStateVariants `json:"apply"`
}

// BlockStateVariants is a custom type to handle the fact that the "variants" field can contain either a single object or an array of objects.
type BlockStateVariants []Variant

func (v *BlockStateVariants) UnmarshalJSON(data []byte) error {
	// First, try to unmarshal as an array
	var variants []Variant
	if err := json.Unmarshal(data, &variants); err == nil {
		*v = variants
		return nil
	}

	// If that fails, try to unmarshal as a single object
	var singleVariant Variant
	if err := json.Unmarshal(data, &singleVariant); err != nil {
		return err
	}

	*v = []Variant{singleVariant}
	return nil
}

// Variant is a model reference with an optional orientation. X and Y are
// multiples of 90 degrees, applied yaw (Y) first, then pitch (X), about the
// block center.
type Variant struct {
	Model  string `json:"model"`
	X      int    `json:"x,omitempty"`
	Y      int    `json:"y,omitempty"`
	UVLock bool   `json:"uvlock,omitempty"`
	Weight int    `json:"weight,omitempty"`
}

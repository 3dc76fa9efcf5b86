package blockmodel

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DecodeModel parses a model descriptor.
func DecodeModel(data []byte) (*Model, error) {
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("could not unmarshal model json: %w", err)
	}
	if model.Textures == nil {
		model.Textures = make(map[string]string)
	}
	return &model, nil
}

// DecodeBlockState parses a blockstate descriptor in variant or multipart form.
func DecodeBlockState(data []byte) (*BlockState, error) {
	var blockState BlockState
	if err := json.Unmarshal(data, &blockState); err != nil {
		return nil, fmt.Errorf("could not unmarshal blockstate json: %w", err)
	}
	return &blockState, nil
}

// ModelIDs returns the sorted, de-duplicated model ids referenced by the
// descriptor. References without a namespace belong to DefaultNamespace,
// whichever file they were authored in.
func (bs *BlockState) ModelIDs() []string {
	if bs == nil {
		return nil
	}
	seen := map[string]struct{}{}
	add := func(vs BlockStateVariants) {
		for _, v := range vs {
			if id := NormalizeModelID(v.Model, DefaultNamespace); id != "" {
				seen[id] = struct{}{}
			}
		}
	}
	for _, vs := range bs.Variants {
		add(vs)
	}
	for _, p := range bs.Multipart {
		add(p.Apply)
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone deep-copies the model, including children. Mesh batches are shared;
// they are never mutated after import.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	out := *m
	if m.Textures != nil {
		out.Textures = make(map[string]string, len(m.Textures))
		for k, v := range m.Textures {
			out.Textures[k] = v
		}
	}
	if m.Elements != nil {
		out.Elements = make([]Element, len(m.Elements))
		for i, e := range m.Elements {
			out.Elements[i] = e.Clone()
		}
	}
	if m.Children != nil {
		out.Children = make(map[string]*Model, len(m.Children))
		for k, c := range m.Children {
			out.Children[k] = c.Clone()
		}
	}
	return &out
}

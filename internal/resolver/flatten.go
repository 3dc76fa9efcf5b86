package resolver

import (
	"context"
	"fmt"
	"sort"

	"modres/pkg/blockmodel"
)

// flatten folds composite children into m depth-first. Child texture
// variables are copied under "<child>_<key>" and the child's element faces
// are rewritten to point at the renamed keys.
func (r *Resolver) flatten(ctx context.Context, m *blockmodel.Model) {
	if len(m.Children) == 0 {
		m.Children = nil
		return
	}
	if m.Textures == nil {
		m.Textures = map[string]string{}
	}
	names := make([]string, 0, len(m.Children))
	for name := range m.Children {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		child := m.Children[name]
		if child == nil {
			continue
		}
		r.flatten(ctx, child)

		elements := child.Elements
		textures := child.Textures
		if len(elements) == 0 && child.Parent != "" {
			if pid, ok := parentID(child); ok {
				r.ResolveModel(ctx, pid)
				if eff, ok := r.Effective(pid); ok {
					elements = eff.Elements
					textures = mergeTextures(child.Textures, eff.Textures)
				}
			}
		}

		keys := make([]string, 0, len(textures))
		for k := range textures {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rename := make(map[string]string, len(keys))
		for _, k := range keys {
			nk := uniqueKey(m.Textures, name+"_"+k)
			rename[k] = nk
			// reserve so later keys of the same child do not collide
			m.Textures[nk] = ""
		}
		for _, k := range keys {
			m.Textures[rename[k]] = remapRef(textures[k], rename)
		}

		for _, e := range elements {
			c := e.Clone()
			if c.Name == "" {
				c.Name = name
			}
			for fn, f := range c.Faces {
				f.Texture = remapRef(f.Texture, rename)
				c.Faces[fn] = f
			}
			m.Elements = append(m.Elements, c)
		}
	}
	m.Children = nil
}

func remapRef(ref string, rename map[string]string) string {
	tr := blockmodel.ParseTextureRef(ref)
	if !tr.IsVar() {
		return ref
	}
	if nk, ok := rename[tr.Var]; ok {
		return "#" + nk
	}
	return ref
}

func uniqueKey(existing map[string]string, key string) string {
	if _, ok := existing[key]; !ok {
		return key
	}
	for n := 2; ; n++ {
		k := fmt.Sprintf("%s_%d", key, n)
		if _, ok := existing[k]; !ok {
			return k
		}
	}
}

// mergeTextures overlays child on parent.
func mergeTextures(child, parent map[string]string) map[string]string {
	out := make(map[string]string, len(child)+len(parent))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

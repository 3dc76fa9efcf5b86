package objmesh

import (
	"strings"
)

// DefaultVariable is the texture variable used when a material matches
// nothing else.
const DefaultVariable = "texture"

// familyAliases rename exporter material names for known block families
// before generic resolution. Entries are checked in order; the first family
// token contained in the model id wins.
var familyAliases = []struct {
	token   string
	aliases map[string]string
}{
	{"steam_engine", map[string]string{
		"Material.001": "piston",
		"Material.002": "linkage",
		"engine":       "texture",
	}},
	{"chain_conveyor", map[string]string{
		"chain":  "chain",
		"wheel":  "wheel",
		"Casing": "casing",
	}},
	{"flywheel", map[string]string{
		"rim":    "wheel",
		"spokes": "wheel",
		"hub":    "axis",
	}},
}

// ResolveMaterial maps an OBJ material onto a "#variable" of the model's
// texture map. It returns "#"+material when nothing matches.
func ResolveMaterial(modelID, material string, textures map[string]string) string {
	name := material
	for _, fam := range familyAliases {
		if !strings.Contains(modelID, fam.token) {
			continue
		}
		if alias, ok := fam.aliases[material]; ok {
			name = alias
		}
		break
	}
	if _, ok := textures[name]; ok {
		return "#" + name
	}
	if i := strings.LastIndexAny(name, ":/"); i >= 0 {
		if _, ok := textures[name[i+1:]]; ok {
			return "#" + name[i+1:]
		}
	}
	if stripped, ok := strings.CutPrefix(name, "#"); ok {
		if _, ok := textures[stripped]; ok {
			return "#" + stripped
		}
	}
	if _, ok := textures[DefaultVariable]; ok {
		return "#" + DefaultVariable
	}
	return "#" + strings.TrimPrefix(material, "#")
}

// Resolve sets Texture on every batch of the mesh.
func (m *Mesh) Resolve(modelID string, textures map[string]string) {
	for i := range m.Batches {
		m.Batches[i].Texture = ResolveMaterial(modelID, m.Batches[i].Material, textures)
	}
}

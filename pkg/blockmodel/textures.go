package blockmodel

import "strings"

// MaxTextureDepth caps "#name" chains so malformed models cannot loop.
const MaxTextureDepth = 10

// TextureRef is either a direct texture id or a "#name" variable.
type TextureRef struct {
	ID  string
	Var string
}

func ParseTextureRef(s string) TextureRef {
	if name, ok := strings.CutPrefix(s, "#"); ok {
		return TextureRef{Var: name}
	}
	return TextureRef{ID: s}
}

func (r TextureRef) IsVar() bool { return r.Var != "" }

func (r TextureRef) String() string {
	if r.IsVar() {
		return "#" + r.Var
	}
	return r.ID
}

// ResolveTexture follows variable indirections through textures until a
// direct id is reached. If the chain breaks or exceeds MaxTextureDepth the
// last variable is returned unresolved.
func ResolveTexture(ref string, textures map[string]string) TextureRef {
	r := ParseTextureRef(ref)
	for i := 0; i < MaxTextureDepth && r.IsVar(); i++ {
		next, ok := textures[r.Var]
		if !ok || next == "" {
			break
		}
		r = ParseTextureRef(next)
	}
	return r
}

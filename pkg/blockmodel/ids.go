package blockmodel

import (
	"path"
	"strings"
)

// DefaultNamespace is used for ids that carry no "namespace:" prefix.
const DefaultNamespace = "minecraft"

// NormalizeID returns "ns:path" for id, filling in ns when absent.
func NormalizeID(id, ns string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if ns == "" {
		ns = DefaultNamespace
	}
	if i := strings.IndexByte(id, ':'); i >= 0 {
		if i == 0 {
			return ns + id
		}
		return id
	}
	return ns + ":" + id
}

// NormalizeModelID is NormalizeID plus the legacy rule that a bare model
// name lives under block/.
func NormalizeModelID(id, ns string) string {
	id = NormalizeID(id, ns)
	if id == "" {
		return ""
	}
	n, p := SplitID(id)
	if !strings.Contains(p, "/") {
		p = "block/" + p
	}
	return n + ":" + p
}

// SplitID splits a normalized id into namespace and path.
func SplitID(id string) (ns, p string) {
	ns, p, ok := strings.Cut(id, ":")
	if !ok {
		return DefaultNamespace, id
	}
	return ns, p
}

// Dir returns the id of the directory containing id ("ns:block/a/b" ->
// "ns:block/a").
func Dir(id string) string {
	ns, p := SplitID(id)
	return ns + ":" + path.Dir(p)
}

// Base returns the last path segment of id.
func Base(id string) string {
	_, p := SplitID(id)
	return path.Base(p)
}

func BlockStatePath(id string) string {
	ns, p := SplitID(id)
	return path.Join("assets", ns, "blockstates", p+".json")
}

func ModelPath(id string) string {
	ns, p := SplitID(id)
	return path.Join("assets", ns, "models", p+".json")
}

func TexturePath(id string) string {
	ns, p := SplitID(id)
	return path.Join("assets", ns, "textures", p+".png")
}

// AssetPath maps a loader reference such as "create:models/block/x.obj" to
// its location under assets/.
func AssetPath(ref, ns string) string {
	n, p := SplitID(NormalizeID(ref, ns))
	return path.Join("assets", n, p)
}

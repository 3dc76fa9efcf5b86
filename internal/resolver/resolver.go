// Package resolver turns model ids into flattened, synthesized model
// descriptors and collects the textures they reference. A Resolver is
// scoped to one structure load and is not safe for concurrent use.
package resolver

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"modres/internal/ctxlog"
	"modres/internal/resource"
	"modres/internal/synth"
	"modres/pkg/blockmodel"
	"modres/pkg/objmesh"
)

// MaxParentDepth bounds parent-chain walks in Effective.
const MaxParentDepth = 32

// Fetcher is the part of resource.Provider the resolver needs.
type Fetcher interface {
	Bytes(ctx context.Context, path string) ([]byte, error)
	Text(ctx context.Context, path string) (string, error)
}

type Options struct {
	// Namespace fills in caller-supplied ids that carry none. References
	// inside descriptors fall back to blockmodel.DefaultNamespace instead.
	Namespace string
	// SmartPrefixes are stripped from ids that have no authored file.
	SmartPrefixes []string
	// Library is the synthesizer set; nil uses synth.Default().
	Library *synth.Library
}

type Resolver struct {
	fetch Fetcher
	ns    string
	smart []string
	lib   *synth.Library

	visited     map[string]bool
	models      map[string]*blockmodel.Model
	texVisited  map[string]bool
	textures    map[string][]byte
	missing     map[string]struct{}
	synthesized map[string][]string

	// quiet ids are being resolved for a smart-prefixed alias; a miss is
	// deferred until a direct reference.
	quiet    map[string]bool
	deferred map[string]bool
}

func New(fetch Fetcher, opts Options) *Resolver {
	ns := opts.Namespace
	if ns == "" {
		ns = blockmodel.DefaultNamespace
	}
	lib := opts.Library
	if lib == nil {
		lib = synth.Default()
	}
	smart := opts.SmartPrefixes
	if smart == nil {
		smart = []string{"smart_"}
	}
	return &Resolver{
		fetch:       fetch,
		ns:          ns,
		smart:       smart,
		lib:         lib,
		visited:     map[string]bool{},
		models:      map[string]*blockmodel.Model{},
		texVisited:  map[string]bool{},
		textures:    map[string][]byte{},
		missing:     map[string]struct{}{},
		synthesized: map[string][]string{},
		quiet:       map[string]bool{},
		deferred:    map[string]bool{},
	}
}

// ResolveModel returns the resolved model for id, fetching it and its
// dependencies on first use. A revisit returns whatever is cached, which is
// nil while the id is still being resolved further up the stack.
func (r *Resolver) ResolveModel(ctx context.Context, id string) (*blockmodel.Model, bool) {
	id = blockmodel.NormalizeModelID(id, r.ns)
	if id == "" {
		return nil, false
	}
	if r.visited[id] {
		m := r.models[id]
		if m == nil && r.deferred[id] && !r.quiet[id] {
			delete(r.deferred, id)
			r.markMissing(ctx, "model", id)
		}
		return m, m != nil
	}
	r.visited[id] = true
	logger := ctxlog.FromContext(ctx)

	m, err := r.fetchModel(ctx, id)
	if err != nil {
		if !resource.IsNotFound(err) {
			logger.Warn("Model unreadable", "id", id, "error", err)
		}
		if fb, name, ok := r.lib.Fallback(id); ok {
			logger.Debug("Synthesized missing model", "id", id, "rule", name)
			m = fb
		} else if stripped, ok := r.stripSmart(id); ok {
			sm, found := r.resolveQuiet(ctx, stripped)
			if !found {
				r.markMissing(ctx, "model", id)
				return nil, false
			}
			logger.Warn("Using model without smart prefix", "id", id, "resolved", stripped)
			r.models[id] = sm
			return sm, true
		} else {
			r.markMissing(ctx, "model", id)
			return nil, false
		}
	}

	r.process(ctx, id, m)
	r.models[id] = m
	r.loadTextures(ctx, m)
	return m, true
}

// resolveQuiet resolves id on behalf of another id that reports the miss.
// If id is absent it is only recorded once something references it directly.
func (r *Resolver) resolveQuiet(ctx context.Context, id string) (*blockmodel.Model, bool) {
	r.quiet[id] = true
	defer delete(r.quiet, id)
	return r.ResolveModel(ctx, id)
}

func (r *Resolver) fetchModel(ctx context.Context, id string) (*blockmodel.Model, error) {
	b, err := r.fetch.Bytes(ctx, blockmodel.ModelPath(id))
	if err != nil {
		return nil, err
	}
	m, err := blockmodel.DecodeModel(b)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", id, err)
	}
	return m, nil
}

func (r *Resolver) stripSmart(id string) (string, bool) {
	ns, p := blockmodel.SplitID(id)
	for _, prefix := range r.smart {
		if prefix == "" {
			continue
		}
		dir, base := "", p
		if i := strings.LastIndexByte(p, '/'); i >= 0 {
			dir, base = p[:i+1], p[i+1:]
		}
		if rest, ok := strings.CutPrefix(base, prefix); ok && rest != "" {
			return ns + ":" + dir + rest, true
		}
	}
	return "", false
}

// process runs everything that happens between fetch and caching: parent
// resolution, mesh import, child flattening and synthesis.
func (r *Resolver) process(ctx context.Context, id string, m *blockmodel.Model) {
	if m.Textures == nil {
		m.Textures = map[string]string{}
	}
	if pid, ok := parentID(m); ok {
		r.ResolveModel(ctx, pid)
	}
	if isOBJ(m) {
		r.importMesh(ctx, id, m)
	}
	r.flatten(ctx, m)
	if applied := r.lib.Apply(r, id, m); len(applied) > 0 {
		r.synthesized[id] = applied
		ctxlog.FromContext(ctx).Debug("Applied synthesizers", "id", id, "rules", applied)
	}
}

// parentID returns the model m inherits from. Like every reference inside a
// descriptor, a parent without a namespace is a vanilla one.
func parentID(m *blockmodel.Model) (string, bool) {
	if m.Parent == "" {
		return "", false
	}
	pid := blockmodel.NormalizeModelID(m.Parent, blockmodel.DefaultNamespace)
	if _, p := blockmodel.SplitID(pid); strings.HasPrefix(p, "builtin/") {
		return "", false
	}
	return pid, true
}

func isOBJ(m *blockmodel.Model) bool {
	return strings.HasSuffix(m.Loader, "obj") || strings.HasSuffix(m.MeshPath, ".obj")
}

func (r *Resolver) importMesh(ctx context.Context, id string, m *blockmodel.Model) {
	if m.MeshPath == "" {
		return
	}
	path := blockmodel.AssetPath(m.MeshPath, blockmodel.DefaultNamespace)
	text, err := r.fetch.Text(ctx, path)
	if err != nil {
		r.markMissing(ctx, "mesh", path)
		return
	}
	mesh, err := objmesh.Parse(strings.NewReader(text))
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Mesh unreadable", "id", id, "path", path, "error", err)
		r.markMissing(ctx, "mesh", path)
		return
	}
	mesh.Resolve(id, r.inheritedTextures(m))
	m.Mesh = mesh.Batches
}

// loadTextures fetches every direct texture the model names, in its texture
// map or on faces.
func (r *Resolver) loadTextures(ctx context.Context, m *blockmodel.Model) {
	refs := map[string]struct{}{}
	for _, v := range m.Textures {
		refs[v] = struct{}{}
	}
	for _, e := range m.Elements {
		for _, f := range e.Faces {
			refs[f.Texture] = struct{}{}
		}
	}
	ordered := make([]string, 0, len(refs))
	for ref := range refs {
		ordered = append(ordered, ref)
	}
	sort.Strings(ordered)
	for _, ref := range ordered {
		tr := blockmodel.ParseTextureRef(ref)
		if tr.IsVar() || tr.ID == "" {
			continue
		}
		tid := blockmodel.NormalizeID(tr.ID, blockmodel.DefaultNamespace)
		r.loadTexture(ctx, tid, true)
		if base, ok := strings.CutSuffix(tid, "_still"); ok {
			r.loadTexture(ctx, base+"_flow", false)
		}
	}
}

func (r *Resolver) loadTexture(ctx context.Context, id string, record bool) {
	if r.texVisited[id] {
		return
	}
	r.texVisited[id] = true
	b, err := r.fetch.Bytes(ctx, blockmodel.TexturePath(id))
	if err != nil {
		if record {
			r.markMissing(ctx, "texture", id)
		}
		return
	}
	r.textures[id] = b
}

func (r *Resolver) markMissing(ctx context.Context, kind, id string) {
	if ctx.Err() != nil {
		return
	}
	if kind == "model" && r.quiet[id] {
		r.deferred[id] = true
		return
	}
	key := kind + " " + id
	if _, ok := r.missing[key]; ok {
		return
	}
	r.missing[key] = struct{}{}
	ctxlog.FromContext(ctx).Warn("Missing resource", "kind", kind, "id", id)
}

// Publish caches a derived model under id. It implements synth.Env.
func (r *Resolver) Publish(id string, m *blockmodel.Model) {
	r.visited[id] = true
	r.models[id] = m
}

// Published implements synth.Env.
func (r *Resolver) Published(id string) bool {
	return r.models[id] != nil
}

// Models returns a copy of the model table.
func (r *Resolver) Models() map[string]*blockmodel.Model {
	out := make(map[string]*blockmodel.Model, len(r.models))
	for id, m := range r.models {
		if m != nil {
			out[id] = m
		}
	}
	return out
}

// Textures returns a copy of the texture table.
func (r *Resolver) Textures() map[string][]byte {
	out := make(map[string][]byte, len(r.textures))
	for id, b := range r.textures {
		out[id] = bytes.Clone(b)
	}
	return out
}

// Missing lists "<kind> <id>" entries for everything that could not be
// fetched, sorted.
func (r *Resolver) Missing() []string {
	out := make([]string, 0, len(r.missing))
	for k := range r.missing {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Synthesized reports which synthesizers changed the model cached as id.
func (r *Resolver) Synthesized(id string) []string {
	return r.synthesized[blockmodel.NormalizeModelID(id, r.ns)]
}

// Effective returns the model as a mesh builder sees it: textures merged
// child-over-parent and the elements of the nearest model in the chain that
// has any. The cached models are not modified.
func (r *Resolver) Effective(id string) (*blockmodel.Model, bool) {
	id = blockmodel.NormalizeModelID(id, r.ns)
	m := r.models[id]
	if m == nil {
		return nil, false
	}
	out := &blockmodel.Model{
		Parent:           m.Parent,
		AmbientOcclusion: m.AmbientOcclusion,
		Textures:         r.inheritedTextures(m),
		Display:          m.Display,
		Loader:           m.Loader,
		MeshPath:         m.MeshPath,
		Mesh:             m.Mesh,
	}
	cur := m
	for depth := 0; cur != nil && depth < MaxParentDepth; depth++ {
		if len(cur.Elements) > 0 {
			out.Elements = cur.Clone().Elements
			break
		}
		pid, ok := parentID(cur)
		if !ok {
			break
		}
		cur = r.models[pid]
	}
	return out, true
}

// inheritedTextures merges the texture maps of m and its cached ancestors,
// nearest first.
func (r *Resolver) inheritedTextures(m *blockmodel.Model) map[string]string {
	out := map[string]string{}
	cur := m
	for depth := 0; cur != nil && depth < MaxParentDepth; depth++ {
		for k, v := range cur.Textures {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
		pid, ok := parentID(cur)
		if !ok {
			break
		}
		cur = r.models[pid]
	}
	return out
}

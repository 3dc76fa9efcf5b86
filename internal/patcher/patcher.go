// Package patcher normalizes block-state descriptors into multipart form and
// attaches sub-part models the descriptors leave out.
package patcher

import (
	"context"
	"sort"

	"modres/internal/ctxlog"
	"modres/internal/manifest"
	"modres/internal/resource"
	"modres/pkg/blockmodel"
)

// Fetcher is the part of resource.Provider the patcher needs.
type Fetcher interface {
	Bytes(ctx context.Context, path string) ([]byte, error)
}

// Patch is one block-id-keyed transformation. Apply may replace the
// descriptor (including a nil one) and returns the result.
type Patch struct {
	Name  string
	Match func(blockID string) bool
	Apply func(blockID string, bs *blockmodel.BlockState) *blockmodel.BlockState
}

type Options struct {
	// Namespace qualifies block ids passed to Load and Patch. Model
	// references inside descriptors default to blockmodel.DefaultNamespace.
	Namespace string
	// Manifest bounds discovery; nil disables it.
	Manifest *manifest.Manifest
	// DiscoveryAllow lists block id substrings eligible for discovery.
	// nil uses DefaultDiscoveryAllow.
	DiscoveryAllow []string
}

type Patcher struct {
	fetch      Fetcher
	ns         string
	manifest   *manifest.Manifest
	allow      []string
	structural []Patch
	appends    []Patch
	missing    map[string]struct{}
}

func New(fetch Fetcher, opts Options) *Patcher {
	ns := opts.Namespace
	if ns == "" {
		ns = blockmodel.DefaultNamespace
	}
	allow := opts.DiscoveryAllow
	if allow == nil {
		allow = DefaultDiscoveryAllow
	}
	return &Patcher{
		fetch:      fetch,
		ns:         ns,
		manifest:   opts.Manifest,
		allow:      allow,
		structural: []Patch{beltPatch()},
		appends:    []Patch{encasedPipeAppend(), spoutAppend()},
		missing:    map[string]struct{}{},
	}
}

// Load fetches and patches the descriptor of blockID. A block with no
// descriptor file is recorded as missing; ok is false when nothing could be
// built for it.
func (p *Patcher) Load(ctx context.Context, blockID string) (*blockmodel.BlockState, bool) {
	blockID = blockmodel.NormalizeID(blockID, p.ns)
	raw, err := p.fetchBlockState(ctx, blockID)
	if err != nil {
		logger := ctxlog.FromContext(ctx)
		if !resource.IsNotFound(err) {
			logger.Warn("Blockstate unreadable", "block", blockID, "error", err)
		}
		if _, seen := p.missing[blockID]; !seen && ctx.Err() == nil {
			p.missing[blockID] = struct{}{}
			logger.Warn("Missing resource", "kind", "blockstate", "id", blockID)
		}
	}
	bs := p.Patch(blockID, raw)
	return bs, bs != nil
}

func (p *Patcher) fetchBlockState(ctx context.Context, blockID string) (*blockmodel.BlockState, error) {
	b, err := p.fetch.Bytes(ctx, blockmodel.BlockStatePath(blockID))
	if err != nil {
		return nil, err
	}
	return blockmodel.DecodeBlockState(b)
}

// Patch runs the fixed pipeline on raw, which is modified in place:
// structural patches, variant conversion, discovery, family appends.
func (p *Patcher) Patch(blockID string, raw *blockmodel.BlockState) *blockmodel.BlockState {
	blockID = blockmodel.NormalizeID(blockID, p.ns)
	bs := raw
	for _, s := range p.structural {
		if s.Match(blockID) {
			bs = s.Apply(blockID, bs)
		}
	}
	if bs != nil {
		convertVariants(bs)
		p.discover(blockID, bs)
	}
	for _, a := range p.appends {
		if a.Match(blockID) {
			bs = a.Apply(blockID, bs)
		}
	}
	return bs
}

// Missing lists "blockstate <id>" entries, sorted.
func (p *Patcher) Missing() []string {
	out := make([]string, 0, len(p.missing))
	for id := range p.missing {
		out = append(out, "blockstate "+id)
	}
	sort.Strings(out)
	return out
}

// convertVariants rewrites variant entries as multipart entries in sorted
// key order and drops the variants map.
func convertVariants(bs *blockmodel.BlockState) {
	if bs.Variants == nil {
		return
	}
	keys := make([]string, 0, len(bs.Variants))
	for k := range bs.Variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		part := blockmodel.Part{Apply: bs.Variants[k]}
		if props := blockmodel.ParseVariantKey(k); len(props) > 0 {
			part.When = &blockmodel.Condition{Props: props}
		}
		bs.Multipart = append(bs.Multipart, part)
	}
	bs.Variants = nil
}

// ModelIDs returns the sorted unique model ids a patched descriptor uses.
func ModelIDs(bs *blockmodel.BlockState) []string {
	return bs.ModelIDs()
}

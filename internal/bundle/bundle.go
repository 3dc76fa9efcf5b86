// Package bundle assembles the resolver output for a set of blocks: patched
// block states, resolved models, their textures and the merged atlas.
package bundle

import (
	"context"
	"fmt"
	"image"
	"sort"

	"golang.org/x/sync/errgroup"

	"modres/internal/atlas"
	"modres/internal/ctxlog"
	"modres/internal/manifest"
	"modres/internal/patcher"
	"modres/internal/resolver"
	"modres/internal/resource"
	"modres/pkg/blockmodel"
)

// blankBaseSize is the side of the empty base atlas used when no base asset
// set is configured.
const blankBaseSize = 16

type AssetBundle struct {
	BlockStates map[string]*blockmodel.BlockState `json:"blockstates"`
	Models      map[string]*blockmodel.Model      `json:"models"`
	Textures    map[string][]byte                 `json:"-"`
	Missing     []string                          `json:"missing"`
}

type Result struct {
	Bundle *AssetBundle
	Atlas  *atlas.Result
}

// Builder wires the patcher, resolver and atlas merger together. Mod is
// required; Base, when set, supplies vanilla parents and the base atlas.
type Builder struct {
	Mod            resource.Source
	Base           resource.Source
	BaseAtlas      string
	BaseUV         string
	Manifest       *manifest.Manifest
	Namespace      string
	SmartPrefixes  []string
	DiscoveryAllow []string
}

type baseAtlas struct {
	img image.Image
	uv  map[string]atlas.Rect
}

// Build resolves blockIDs and merges their textures onto the base atlas.
// The base atlas and the mod assets are loaded concurrently. Only a broken
// base atlas is fatal; anything missing on the mod side ends up in
// Bundle.Missing.
func (b *Builder) Build(ctx context.Context, blockIDs []string) (*Result, error) {
	if b.Mod == nil {
		return nil, fmt.Errorf("bundle: mod source is required")
	}
	g, gctx := errgroup.WithContext(ctx)

	var base baseAtlas
	g.Go(func() error {
		var err error
		base, err = b.loadBase(gctx)
		return err
	})

	var bundle *AssetBundle
	g.Go(func() error {
		bundle = b.resolve(gctx, blockIDs)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged, err := atlas.Merge(base.img, base.uv, decodeTextures(ctx, bundle.Textures))
	if err != nil {
		return nil, fmt.Errorf("merge atlas: %w", err)
	}
	return &Result{Bundle: bundle, Atlas: merged}, nil
}

func (b *Builder) loadBase(ctx context.Context) (baseAtlas, error) {
	if b.Base == nil {
		ctxlog.FromContext(ctx).Info("No base asset set configured, starting from a blank atlas")
		return baseAtlas{
			img: image.NewRGBA(image.Rect(0, 0, blankBaseSize, blankBaseSize)),
			uv:  map[string]atlas.Rect{},
		}, nil
	}
	p := resource.NewProvider(b.Base)
	img, err := p.Image(ctx, b.BaseAtlas)
	if err != nil {
		return baseAtlas{}, fmt.Errorf("load base atlas: %w", err)
	}
	uv := map[string]atlas.Rect{}
	if err := p.JSON(ctx, b.BaseUV, &uv); err != nil {
		return baseAtlas{}, fmt.Errorf("load base atlas uv: %w", err)
	}
	return baseAtlas{img: img, uv: uv}, nil
}

func (b *Builder) source() resource.Source {
	if b.Base == nil {
		return b.Mod
	}
	return resource.Layered{b.Mod, b.Base}
}

func (b *Builder) resolve(ctx context.Context, blockIDs []string) *AssetBundle {
	logger := ctxlog.FromContext(ctx)
	provider := resource.NewProvider(b.source())
	p := patcher.New(provider, patcher.Options{
		Namespace:      b.Namespace,
		Manifest:       b.Manifest,
		DiscoveryAllow: b.DiscoveryAllow,
	})
	r := resolver.New(provider, resolver.Options{
		Namespace:     b.Namespace,
		SmartPrefixes: b.SmartPrefixes,
	})

	out := &AssetBundle{BlockStates: map[string]*blockmodel.BlockState{}}
	ids := append([]string(nil), blockIDs...)
	sort.Strings(ids)
	for _, raw := range ids {
		if ctx.Err() != nil {
			break
		}
		id := blockmodel.NormalizeID(raw, b.Namespace)
		if _, done := out.BlockStates[id]; done {
			continue
		}
		bs, ok := p.Load(ctx, id)
		if !ok {
			continue
		}
		out.BlockStates[id] = bs
		for _, mid := range patcher.ModelIDs(bs) {
			r.ResolveModel(ctx, mid)
		}
	}

	out.Models = r.Models()
	out.Textures = r.Textures()
	out.Missing = append(p.Missing(), r.Missing()...)
	sort.Strings(out.Missing)
	logger.Info("Resolved blocks",
		"blocks", len(out.BlockStates),
		"models", len(out.Models),
		"textures", len(out.Textures),
		"missing", len(out.Missing))
	return out
}

// decodeTextures returns the decodable textures in id order. Undecodable
// blobs are logged and left out of the atlas.
func decodeTextures(ctx context.Context, blobs map[string][]byte) []atlas.Texture {
	ids := make([]string, 0, len(blobs))
	for id := range blobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]atlas.Texture, 0, len(ids))
	for _, id := range ids {
		img, err := resource.DecodeImage(blobs[id])
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Skipping texture", "id", id, "error", err)
			continue
		}
		out = append(out, atlas.Texture{ID: id, Image: img})
	}
	return out
}

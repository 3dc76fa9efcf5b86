// Package resource fetches asset files by path relative to a base location.
// The resolver treats every failure as "absent"; callers that need a file
// (base atlas, manifest) surface the error themselves.
package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ErrNotFound is wrapped by every source when a path does not resolve.
var ErrNotFound = errors.New("resource not found")

// Source is the raw byte-level backend: a directory, a jar, or a web root.
type Source interface {
	Open(ctx context.Context, path string) ([]byte, error)
}

// Provider decodes what a Source returns. It is safe to share between the
// base and mod loaders as long as the Source is.
type Provider struct {
	src Source
}

func NewProvider(src Source) *Provider {
	return &Provider{src: src}
}

func (p *Provider) Bytes(ctx context.Context, path string) ([]byte, error) {
	return p.src.Open(ctx, path)
}

func (p *Provider) Text(ctx context.Context, path string) (string, error) {
	b, err := p.src.Open(ctx, path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// JSON decodes the file at path into v.
func (p *Provider) JSON(ctx context.Context, path string, v any) error {
	b, err := p.src.Open(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Image decodes a PNG or WebP image.
func (p *Provider) Image(ctx context.Context, path string) (image.Image, error) {
	b, err := p.src.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	img, err := DecodeImage(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes PNG or WebP bytes already in memory.
func DecodeImage(b []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// IsNotFound reports whether err means the path does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

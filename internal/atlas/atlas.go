// Package atlas packs newly found textures below an existing atlas image and
// recomputes the normalized UV rectangle of every texture id.
package atlas

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

var ErrNoBase = errors.New("atlas: base image is required")

// Rect is a UV rectangle in [0,1] canvas units, serialized as
// [u0, v0, u1, v1].
type Rect struct {
	U0, V0, U1, V1 float32
}

func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float32{r.U0, r.V0, r.U1, r.V1})
}

func (r *Rect) UnmarshalJSON(data []byte) error {
	var a [4]float32
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("uv rect: %w", err)
	}
	*r = Rect{a[0], a[1], a[2], a[3]}
	return nil
}

func (r Rect) Width() float32  { return r.U1 - r.U0 }
func (r Rect) Height() float32 { return r.V1 - r.V0 }

// Texture is one image to add, keyed by texture id.
type Texture struct {
	ID    string
	Image image.Image
}

type Result struct {
	Image *image.RGBA
	UV    map[string]Rect
}

func (r *Result) Size() (w, h int) {
	b := r.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Merge draws base at the origin of a power-of-two canvas and stacks every
// added texture below it, top to bottom in order, at native size. Added ids
// already present in baseUV are skipped.
func Merge(base image.Image, baseUV map[string]Rect, added []Texture) (*Result, error) {
	if base == nil {
		return nil, ErrNoBase
	}
	bb := base.Bounds()
	baseW, baseH := bb.Dx(), bb.Dy()
	if baseW <= 0 || baseH <= 0 {
		return nil, fmt.Errorf("atlas: empty base image %dx%d", baseW, baseH)
	}

	seen := make(map[string]bool, len(added))
	var fresh []Texture
	widest, total := 0, 0
	for _, t := range added {
		if t.Image == nil || seen[t.ID] {
			continue
		}
		if _, ok := baseUV[t.ID]; ok {
			continue
		}
		seen[t.ID] = true
		fresh = append(fresh, t)
		s := t.Image.Bounds().Size()
		widest = max(widest, s.X)
		total += s.Y
	}

	w := nextPow2(max(baseW, widest))
	h := nextPow2(baseH + total)
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, image.Rect(0, 0, baseW, baseH), base, bb.Min, draw.Src)

	sx := float32(baseW) / float32(w)
	sy := float32(baseH) / float32(h)
	uv := make(map[string]Rect, len(baseUV)+len(fresh))
	for id, r := range baseUV {
		uv[id] = Rect{r.U0 * sx, r.V0 * sy, r.U1 * sx, r.V1 * sy}
	}

	y := baseH
	for _, t := range fresh {
		tb := t.Image.Bounds()
		tw, th := tb.Dx(), tb.Dy()
		draw.Draw(canvas, image.Rect(0, y, tw, y+th), t.Image, tb.Min, draw.Src)
		bottom := th
		if strings.Contains(t.ID, ":block/") && tw != th {
			// upstream atlases size block textures by width; kept so UVs
			// line up with them
			bottom = tw
		}
		uv[t.ID] = Rect{
			U0: 0,
			V0: float32(y) / float32(h),
			U1: float32(tw) / float32(w),
			V1: float32(y+bottom) / float32(h),
		}
		y += th
	}
	return &Result{Image: canvas, UV: uv}, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

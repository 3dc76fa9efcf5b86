// Package objmesh imports Wavefront OBJ text into per-material triangle
// batches laid out in block model space (16 units per block, top-left UV
// origin).
package objmesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MeterThreshold is the largest absolute coordinate a mesh may contain
	// and still be treated as authored in meters.
	MeterThreshold = 2.0
	// BlockUnits is the number of model units per block.
	BlockUnits = 16.0
	// DefaultMaterial names faces emitted before any usemtl.
	DefaultMaterial = "default"
)

// boundingMarkers flag helper groups (hitboxes, selection boxes) that are
// never rendered.
var boundingMarkers = []string{"bounding", "bbox", "hitbox"}

type Vertex struct {
	Pos    mgl32.Vec3 `json:"pos"`
	UV     mgl32.Vec2 `json:"uv"`
	Normal mgl32.Vec3 `json:"normal"`
}

type Triangle [3]Vertex

// Quad returns the triangle as a degenerate quad (last vertex repeated) for
// quad-oriented mesh builders.
func (t Triangle) Quad() [4]Vertex {
	return [4]Vertex{t[0], t[1], t[2], t[2]}
}

type Batch struct {
	Material  string     `json:"material"`
	Texture   string     `json:"texture,omitempty"`
	Triangles []Triangle `json:"triangles"`
}

type Mesh struct {
	Batches []Batch
	// Scale is the factor applied to positions: 16 for meter-authored
	// meshes, 1 otherwise.
	Scale float32
}

// Batch returns the batch for material, or nil.
func (m *Mesh) Batch(material string) *Batch {
	for i := range m.Batches {
		if m.Batches[i].Material == material {
			return &m.Batches[i]
		}
	}
	return nil
}

type parser struct {
	positions []mgl32.Vec3
	uvs       []mgl32.Vec2
	normals   []mgl32.Vec3

	material string
	skip     bool

	// batches are kept in first-use order so output is stable
	batches []*Batch
	index   map[string]*Batch
}

// Parse reads OBJ text in a single pass.
func Parse(r io.Reader) (*Mesh, error) {
	p := &parser{material: DefaultMaterial, index: map[string]*Batch{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if err := p.line(sc.Text()); err != nil {
			return nil, fmt.Errorf("obj line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}
	return p.finish(), nil
}

func (p *parser) line(text string) error {
	text = strings.TrimSpace(text)
	if text == "" || text[0] == '#' {
		return nil
	}
	fields := strings.Fields(text)
	switch fields[0] {
	case "v":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		p.positions = append(p.positions, mgl32.Vec3{v[0], v[1], v[2]})
	case "vt":
		v, err := parseFloats(fields[1:], 2)
		if err != nil {
			return err
		}
		// OBJ puts the UV origin bottom-left
		p.uvs = append(p.uvs, mgl32.Vec2{v[0], 1 - v[1]})
	case "vn":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		p.normals = append(p.normals, mgl32.Vec3{v[0], v[1], v[2]})
	case "o", "g":
		name := strings.ToLower(strings.Join(fields[1:], " "))
		p.skip = false
		for _, m := range boundingMarkers {
			if strings.Contains(name, m) {
				p.skip = true
				break
			}
		}
	case "usemtl":
		if len(fields) > 1 {
			p.material = strings.Join(fields[1:], " ")
		}
	case "f":
		return p.face(fields[1:])
	}
	return nil
}

func (p *parser) face(refs []string) error {
	if len(refs) < 3 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(refs))
	}
	verts := make([]Vertex, len(refs))
	hasNormal := make([]bool, len(refs))
	for i, ref := range refs {
		v, n, err := p.vertex(ref)
		if err != nil {
			return err
		}
		verts[i] = v
		hasNormal[i] = n
	}
	if p.skip {
		return nil
	}
	b := p.batch(p.material)
	for i := 1; i+1 < len(verts); i++ {
		tri := Triangle{verts[0], verts[i], verts[i+1]}
		if !hasNormal[0] || !hasNormal[i] || !hasNormal[i+1] {
			n := flatNormal(tri)
			for k := range tri {
				if tri[k].Normal == (mgl32.Vec3{}) {
					tri[k].Normal = n
				}
			}
		}
		b.Triangles = append(b.Triangles, tri)
	}
	return nil
}

func (p *parser) vertex(ref string) (Vertex, bool, error) {
	parts := strings.Split(ref, "/")
	var v Vertex
	pi, err := resolveIndex(parts[0], len(p.positions))
	if err != nil {
		return v, false, fmt.Errorf("position %q: %w", ref, err)
	}
	v.Pos = p.positions[pi]
	if len(parts) > 1 && parts[1] != "" {
		ti, err := resolveIndex(parts[1], len(p.uvs))
		if err != nil {
			return v, false, fmt.Errorf("uv %q: %w", ref, err)
		}
		v.UV = p.uvs[ti]
	}
	hasNormal := false
	if len(parts) > 2 && parts[2] != "" {
		ni, err := resolveIndex(parts[2], len(p.normals))
		if err != nil {
			return v, false, fmt.Errorf("normal %q: %w", ref, err)
		}
		v.Normal = p.normals[ni]
		hasNormal = true
	}
	return v, hasNormal, nil
}

func (p *parser) batch(material string) *Batch {
	if b, ok := p.index[material]; ok {
		return b
	}
	b := &Batch{Material: material}
	p.index[material] = b
	p.batches = append(p.batches, b)
	return b
}

func (p *parser) finish() *Mesh {
	scale := float32(1)
	if p.meterScaled() {
		scale = BlockUnits
	}
	mesh := &Mesh{Scale: scale, Batches: make([]Batch, 0, len(p.batches))}
	for _, b := range p.batches {
		if scale != 1 {
			for i := range b.Triangles {
				for k := range b.Triangles[i] {
					b.Triangles[i][k].Pos = b.Triangles[i][k].Pos.Mul(scale)
				}
			}
		}
		mesh.Batches = append(mesh.Batches, *b)
	}
	return mesh
}

// meterScaled reports whether every emitted coordinate is small enough to
// be meters rather than block units.
func (p *parser) meterScaled() bool {
	seen := false
	for _, b := range p.batches {
		for _, tri := range b.Triangles {
			for _, v := range tri {
				seen = true
				for _, c := range v.Pos {
					if c > MeterThreshold || c < -MeterThreshold {
						return false
					}
				}
			}
		}
	}
	return seen
}

func flatNormal(t Triangle) mgl32.Vec3 {
	n := t[1].Pos.Sub(t[0].Pos).Cross(t[2].Pos.Sub(t[0].Pos))
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

func resolveIndex(tok string, n int) (int, error) {
	i, err := strconv.Atoi(tok)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	}
	return 0, fmt.Errorf("index %d out of range (%d)", i, n)
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

package synth

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"modres/pkg/blockmodel"
)

// faceRemap gives the new label of each face after a +90 degree rotation
// about the axis.
var faceRemap = map[string]map[string]string{
	"x": {"up": "south", "south": "down", "down": "north", "north": "up", "east": "east", "west": "west"},
	"y": {"south": "east", "east": "north", "north": "west", "west": "south", "up": "up", "down": "down"},
	"z": {"east": "up", "up": "west", "west": "down", "down": "east", "north": "north", "south": "south"},
}

var axisVectors = map[string]mgl32.Vec3{
	"x": {1, 0, 0},
	"y": {0, 1, 0},
	"z": {0, 0, 1},
}

var blockCenter = mgl32.Vec3{8, 8, 8}

func rotationMatrix(axis string) (mgl32.Mat3, bool) {
	const quarter = float32(math.Pi / 2)
	switch axis {
	case "x":
		return mgl32.Rotate3DX(quarter), true
	case "y":
		return mgl32.Rotate3DY(quarter), true
	case "z":
		return mgl32.Rotate3DZ(quarter), true
	}
	return mgl32.Mat3{}, false
}

// RotateAxis returns copies of elements rotated +90 degrees about axis
// through the block center. Face labels, cull faces and per-element
// rotations are rewritten to match. Unknown axes return plain copies.
func RotateAxis(elements []blockmodel.Element, axis string) []blockmodel.Element {
	out := make([]blockmodel.Element, len(elements))
	mat, ok := rotationMatrix(axis)
	remap := faceRemap[axis]
	for i, e := range elements {
		c := e.Clone()
		if !ok {
			out[i] = c
			continue
		}
		a := rotatePoint(mat, vec(c.From))
		b := rotatePoint(mat, vec(c.To))
		for k := 0; k < 3; k++ {
			c.From[k] = snap(min(a[k], b[k]))
			c.To[k] = snap(max(a[k], b[k]))
		}
		if c.Rotation != nil {
			c.Rotation.Origin = arr(rotatePoint(mat, vec(c.Rotation.Origin)))
			dir := mat.Mul3x1(axisVectors[c.Rotation.Axis])
			for name, v := range axisVectors {
				d := dir.Dot(v)
				if d > 0.5 || d < -0.5 {
					c.Rotation.Axis = name
					if d < 0 {
						c.Rotation.Angle = -c.Rotation.Angle
					}
					break
				}
			}
		}
		if c.Faces != nil {
			faces := make(map[string]blockmodel.Face, len(c.Faces))
			for name, f := range c.Faces {
				if f.CullFace != "" {
					if to, ok := remap[f.CullFace]; ok {
						f.CullFace = to
					}
				}
				if to, ok := remap[name]; ok {
					name = to
				}
				faces[name] = f
			}
			c.Faces = faces
		}
		out[i] = c
	}
	return out
}

func rotatePoint(m mgl32.Mat3, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul3x1(p.Sub(blockCenter)).Add(blockCenter)
}

func vec(a [3]float32) mgl32.Vec3 { return mgl32.Vec3{a[0], a[1], a[2]} }

func arr(v mgl32.Vec3) [3]float32 {
	return [3]float32{snap(v[0]), snap(v[1]), snap(v[2])}
}

// snap removes float noise from the sin/cos of a quarter turn.
func snap(v float32) float32 {
	r := float32(math.Round(float64(v)*1000) / 1000)
	if r == 0 {
		return 0
	}
	return r
}

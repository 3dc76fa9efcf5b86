package synth

import (
	"regexp"

	"modres/pkg/blockmodel"
)

// connectorPattern matches pipe-family models whose file name encodes the
// connected sides as local letters followed by the principal axis, e.g.
// "create:block/fluid_pipe/lu_x".
var connectorPattern = regexp.MustCompile(`^[a-z0-9_.-]+:block/[a-z0-9_/]*pipe[a-z0-9_]*/([udlrfb]+)_([xyz])$`)

// connectorLetters maps a local letter to a world direction per axis.
var connectorLetters = map[string]map[byte]string{
	"x": {'u': "up", 'd': "down", 'l': "north", 'r': "south", 'f': "east", 'b': "west"},
	"y": {'u': "north", 'd': "south", 'l': "west", 'r': "east", 'f': "up", 'b': "down"},
	"z": {'u': "up", 'd': "down", 'l': "east", 'r': "west", 'f': "south", 'b': "north"},
}

var (
	coreFrom = [3]float32{4, 4, 4}
	coreTo   = [3]float32{12, 12, 12}
)

var allFaces = []string{"down", "up", "north", "south", "west", "east"}

// limbBoxes spans from the core to the block boundary in each direction.
var limbBoxes = map[string][2][3]float32{
	"up":    {{4, 12, 4}, {12, 16, 12}},
	"down":  {{4, 0, 4}, {12, 4, 12}},
	"north": {{4, 4, 0}, {12, 12, 4}},
	"south": {{4, 4, 12}, {12, 12, 16}},
	"west":  {{0, 4, 4}, {4, 12, 12}},
	"east":  {{12, 4, 4}, {16, 12, 12}},
}

var opposite = map[string]string{
	"up": "down", "down": "up",
	"north": "south", "south": "north",
	"east": "west", "west": "east",
}

// ConnectorDirections decodes the world directions encoded in a connector
// model id, in letter order. ok is false for ids outside the family.
func ConnectorDirections(id string) (dirs []string, axis string, ok bool) {
	m := connectorPattern.FindStringSubmatch(id)
	if m == nil {
		return nil, "", false
	}
	axis = m[2]
	table := connectorLetters[axis]
	seen := map[string]bool{}
	for i := 0; i < len(m[1]); i++ {
		d := table[m[1][i]]
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		dirs = append(dirs, d)
	}
	return dirs, axis, true
}

func connectorRule() Rule {
	return Rule{
		Name:  "connector-limbs",
		Match: connectorPattern.MatchString,
		Apply: func(_ Env, id string, m *blockmodel.Model) bool {
			// already synthesized, or authored in full
			if len(m.Elements) > 1 {
				return false
			}
			dirs, _, _ := ConnectorDirections(id)
			core := -1
			for i, e := range m.Elements {
				if e.From == coreFrom && e.To == coreTo {
					core = i
					break
				}
			}
			if core < 0 {
				tex := firstVariable(m.Textures, "pipe", "0")
				m.Elements = append(m.Elements, blockmodel.Element{
					From:  coreFrom,
					To:    coreTo,
					Faces: map[string]blockmodel.Face{"north": {Texture: tex}},
				})
				core = len(m.Elements) - 1
			}
			tmpl := completeCore(&m.Elements[core])
			for _, d := range dirs {
				m.Elements = append(m.Elements, limb(d, tmpl))
			}
			return true
		},
	}
}

// completeCore fills in missing faces of the core from its first present
// face and returns that template.
func completeCore(e *blockmodel.Element) blockmodel.Face {
	if e.Faces == nil {
		e.Faces = map[string]blockmodel.Face{}
	}
	var tmpl blockmodel.Face
	found := false
	for _, name := range allFaces {
		if f, ok := e.Faces[name]; ok {
			tmpl, found = f, true
			break
		}
	}
	if !found {
		tmpl = blockmodel.Face{Texture: "#particle"}
	}
	for _, name := range allFaces {
		if _, ok := e.Faces[name]; !ok {
			f := tmpl.Clone()
			f.CullFace = ""
			e.Faces[name] = f
		}
	}
	return tmpl
}

func limb(dir string, tmpl blockmodel.Face) blockmodel.Element {
	box := limbBoxes[dir]
	faces := map[string]blockmodel.Face{}
	for _, name := range allFaces {
		if name == opposite[dir] {
			// hidden against the core
			continue
		}
		f := tmpl.Clone()
		f.CullFace = ""
		if name == dir {
			f.CullFace = dir
		}
		faces[name] = f
	}
	return blockmodel.Element{
		Name:  "limb_" + dir,
		From:  box[0],
		To:    box[1],
		Faces: faces,
	}
}

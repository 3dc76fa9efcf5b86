package synth

import (
	"strings"

	"modres/pkg/blockmodel"
)

const (
	MovingSuffix = "_moving"
	BodySuffix   = "_body"
)

type kineticFamily struct {
	token        string
	movingTokens []string
	movingOffset [3]float32
	bodyOffset   [3]float32
	// derivedAxis, when set, also publishes the moving group reoriented
	// onto that axis as <id>_moving_<axis>.
	derivedAxis string
}

var kineticFamilies = []kineticFamily{
	{token: "mechanical_press", movingTokens: []string{"head", "pole"}, movingOffset: [3]float32{0, -8, 0}},
	{token: "mechanical_mixer", movingTokens: []string{"whisk", "pole", "head"}, movingOffset: [3]float32{0, -8, 0}},
	{token: "mechanical_saw", movingTokens: []string{"blade"}, derivedAxis: "x"},
	{token: "mechanical_drill", movingTokens: []string{"head", "drill"}},
	{token: "encased_fan", movingTokens: []string{"propeller", "blade"}, derivedAxis: "x"},
}

// rotationFor gives the axis to turn about to bring a y-aligned part onto
// the derived axis.
var rotationFor = map[string]string{"x": "z", "z": "x"}

func kineticFamilyFor(id string) (kineticFamily, bool) {
	_, p := blockmodel.SplitID(id)
	if !strings.HasPrefix(p, "item/") {
		return kineticFamily{}, false
	}
	for _, f := range kineticFamilies {
		if strings.Contains(p, f.token) {
			return f, true
		}
	}
	return kineticFamily{}, false
}

// SplitKinetic partitions elements by name into the rotating group and the
// static body.
func SplitKinetic(elements []blockmodel.Element, movingTokens []string) (moving, body []blockmodel.Element) {
	for _, e := range elements {
		name := strings.ToLower(e.Name)
		isMoving := false
		for _, t := range movingTokens {
			if strings.Contains(name, t) {
				isMoving = true
				break
			}
		}
		if isMoving {
			moving = append(moving, e.Clone())
		} else {
			body = append(body, e.Clone())
		}
	}
	return moving, body
}

func kineticSplitRule() Rule {
	return Rule{
		Name: "kinetic-split",
		Match: func(id string) bool {
			_, ok := kineticFamilyFor(id)
			return ok
		},
		Apply: func(env Env, id string, m *blockmodel.Model) bool {
			if env == nil || env.Published(id+MovingSuffix) {
				return false
			}
			fam, _ := kineticFamilyFor(id)
			moving, body := SplitKinetic(m.Elements, fam.movingTokens)
			if len(moving) == 0 {
				return false
			}
			for i := range moving {
				moving[i].Translate(fam.movingOffset)
			}
			for i := range body {
				body[i].Translate(fam.bodyOffset)
			}
			env.Publish(id+MovingSuffix, derived(m, moving))
			env.Publish(id+BodySuffix, derived(m, body))
			if fam.derivedAxis != "" {
				env.Publish(id+MovingSuffix+"_"+fam.derivedAxis, derived(m, RotateAxis(moving, rotationFor[fam.derivedAxis])))
			}
			return true
		},
	}
}

func derived(src *blockmodel.Model, elements []blockmodel.Element) *blockmodel.Model {
	textures := make(map[string]string, len(src.Textures))
	for k, v := range src.Textures {
		textures[k] = v
	}
	return &blockmodel.Model{
		Parent:   src.Parent,
		Textures: textures,
		Elements: elements,
		Display:  src.Display,
	}
}

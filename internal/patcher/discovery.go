package patcher

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"modres/pkg/blockmodel"
)

// DefaultDiscoveryAllow lists the block families whose descriptors are known
// to omit rendered sub-parts.
var DefaultDiscoveryAllow = []string{
	"mechanical_press",
	"mechanical_mixer",
	"mechanical_saw",
	"mechanical_drill",
	"mechanical_bearing",
	"encased_fan",
	"deployer",
	"gauge",
	"gearbox",
	"crushing_wheel",
	"millstone",
	"hand_crank",
}

// subpartTokens are matched against the last path segment of manifest ids.
var subpartTokens = []string{"shaft", "cog", "blade", "pointer", "head", "pole", "propeller", "whisk"}

// facingOverrides orient a sub-part by the entry's facing property instead
// of reusing the triggering entry's rotation.
var facingOverrides = []struct {
	family, token string
}{
	{"encased_fan", "propeller"},
	{"mechanical_drill", "head"},
}

var facingRotation = map[string][2]int{
	"north": {0, 0},
	"east":  {0, 90},
	"south": {0, 180},
	"west":  {0, 270},
	"up":    {270, 0},
	"down":  {90, 0},
}

func (p *Patcher) discoveryAllowed(blockID string) bool {
	return lo.SomeBy(p.allow, func(s string) bool {
		return strings.Contains(blockID, s)
	})
}

func hasSubpartToken(id string) bool {
	base := blockmodel.Base(id)
	return lo.SomeBy(subpartTokens, func(t string) bool {
		return strings.Contains(base, t)
	})
}

func entryKey(model string, v blockmodel.Variant, when *blockmodel.Condition) string {
	return fmt.Sprintf("%s|%d|%d|%s", model, v.X, v.Y, when.Key())
}

// discover appends a multipart entry for every manifest id that sits next
// to a referenced model and names a known sub-part. Entries reuse the
// triggering entry's condition and orientation.
func (p *Patcher) discover(blockID string, bs *blockmodel.BlockState) {
	if p.manifest.Len() == 0 || !p.discoveryAllowed(blockID) {
		return
	}
	referenced := map[string]bool{}
	seen := map[string]bool{}
	for _, part := range bs.Multipart {
		for _, v := range part.Apply {
			id := blockmodel.NormalizeModelID(v.Model, blockmodel.DefaultNamespace)
			referenced[id] = true
			seen[entryKey(id, v, part.When)] = true
		}
	}

	n := len(bs.Multipart)
	for i := 0; i < n; i++ {
		part := bs.Multipart[i]
		for _, v := range part.Apply {
			base := blockmodel.NormalizeModelID(v.Model, blockmodel.DefaultNamespace)
			dir := blockmodel.Dir(base)
			if _, dp := blockmodel.SplitID(dir); dp == "block" || dp == "." {
				continue
			}
			for _, cand := range p.manifest.Near(dir) {
				if referenced[cand] || !hasSubpartToken(cand) {
					continue
				}
				nv := blockmodel.Variant{Model: cand, X: v.X, Y: v.Y, UVLock: v.UVLock}
				p.overrideOrientation(blockID, cand, part.When, &nv)
				key := entryKey(cand, nv, part.When)
				if seen[key] {
					continue
				}
				seen[key] = true
				bs.Multipart = append(bs.Multipart, blockmodel.Part{
					When:  part.When.Clone(),
					Apply: blockmodel.BlockStateVariants{nv},
				})
			}
		}
	}
}

func (p *Patcher) overrideOrientation(blockID, cand string, when *blockmodel.Condition, v *blockmodel.Variant) {
	for _, o := range facingOverrides {
		if !strings.Contains(blockID, o.family) || !strings.Contains(blockmodel.Base(cand), o.token) {
			continue
		}
		rot, ok := facingRotation[when.Prop("facing")]
		if !ok {
			return
		}
		v.X, v.Y = rot[0], rot[1]
		return
	}
}

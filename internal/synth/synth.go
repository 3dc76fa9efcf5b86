// Package synth holds the procedural geometry patches applied to resolved
// models. Every transformation is guarded by an id predicate and is
// idempotent: applying it to its own output does nothing.
package synth

import (
	"sort"

	"modres/pkg/blockmodel"
)

// Env is the slice of resolver state a synthesizer may touch. Models
// published through it are cached by the resolver like fetched ones.
type Env interface {
	Publish(id string, m *blockmodel.Model)
	Published(id string) bool
}

// Rule pairs an id predicate with an in-place transformation. Apply reports
// whether it changed anything.
type Rule struct {
	Name  string
	Match func(id string) bool
	Apply func(env Env, id string, m *blockmodel.Model) bool
}

// FallbackRule builds a descriptor for an id that has no authored file.
type FallbackRule struct {
	Name  string
	Build func(id string) (*blockmodel.Model, bool)
}

type Library struct {
	rules     []Rule
	fallbacks []FallbackRule
}

// Default returns the library in its fixed evaluation order:
// connector limbs, funnel flap, tunnel flaps, kinetic split.
func Default() *Library {
	return &Library{
		rules: []Rule{
			connectorRule(),
			funnelFlapRule(),
			tunnelFlapsRule(),
			kineticSplitRule(),
		},
		fallbacks: []FallbackRule{
			funnelFallback(),
			tunnelFlapFallback(),
		},
	}
}

// New builds a library from explicit rules, mainly for tests.
func New(rules []Rule, fallbacks []FallbackRule) *Library {
	return &Library{rules: rules, fallbacks: fallbacks}
}

// Apply runs every matching rule in order and returns the names of the
// rules that changed the model.
func (l *Library) Apply(env Env, id string, m *blockmodel.Model) []string {
	if l == nil || m == nil {
		return nil
	}
	var applied []string
	for _, r := range l.rules {
		if !r.Match(id) {
			continue
		}
		if r.Apply(env, id, m) {
			applied = append(applied, r.Name)
		}
	}
	return applied
}

// Fallback returns a synthesized descriptor for id from the first fallback
// rule that recognizes it.
func (l *Library) Fallback(id string) (*blockmodel.Model, string, bool) {
	if l == nil {
		return nil, "", false
	}
	for _, f := range l.fallbacks {
		if m, ok := f.Build(id); ok {
			return m, f.Name, true
		}
	}
	return nil, "", false
}

// firstVariable picks the texture variable synthesized faces should use.
func firstVariable(textures map[string]string, preferred ...string) string {
	for _, p := range preferred {
		if _, ok := textures[p]; ok {
			return "#" + p
		}
	}
	keys := make([]string, 0, len(textures))
	for k := range textures {
		if k != "particle" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		return "#" + keys[0]
	}
	return "#particle"
}

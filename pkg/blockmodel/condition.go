package blockmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	OpOr  = "OR"
	OpAnd = "AND"
)

// Condition is a multipart "when" clause. Either Props is set (every property
// must match one of its |-separated values) or Op combines Terms.
type Condition struct {
	Op    string
	Props map[string]string
	Terms []Condition
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("condition: %w", err)
	}
	if len(raw) == 1 {
		for _, op := range []string{OpOr, OpAnd} {
			body, ok := raw[op]
			if !ok {
				continue
			}
			var terms []Condition
			if err := json.Unmarshal(body, &terms); err != nil {
				return fmt.Errorf("condition %s: %w", op, err)
			}
			*c = Condition{Op: op, Terms: terms}
			return nil
		}
	}
	props := make(map[string]string, len(raw))
	for k, v := range raw {
		v = bytes.TrimSpace(v)
		if len(v) > 0 && v[0] == '"' {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("condition %s: %w", k, err)
			}
			props[k] = s
			continue
		}
		// booleans and numbers are authored unquoted in some packs
		props[k] = string(v)
	}
	*c = Condition{Props: props}
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	if c.Op != "" {
		terms := c.Terms
		if terms == nil {
			terms = []Condition{}
		}
		return json.Marshal(map[string][]Condition{c.Op: terms})
	}
	props := c.Props
	if props == nil {
		props = map[string]string{}
	}
	return json.Marshal(props)
}

// Key is a canonical string form, stable across runs.
func (c *Condition) Key() string {
	if c == nil {
		return ""
	}
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(b)
}

func (c *Condition) Clone() *Condition {
	if c == nil {
		return nil
	}
	out := &Condition{Op: c.Op}
	if c.Props != nil {
		out.Props = make(map[string]string, len(c.Props))
		for k, v := range c.Props {
			out.Props[k] = v
		}
	}
	if c.Terms != nil {
		out.Terms = make([]Condition, len(c.Terms))
		for i := range c.Terms {
			out.Terms[i] = *c.Terms[i].Clone()
		}
	}
	return out
}

// Matches reports whether a concrete block state satisfies the condition.
// A nil condition always matches.
func (c *Condition) Matches(state map[string]string) bool {
	if c == nil {
		return true
	}
	switch c.Op {
	case OpOr:
		for i := range c.Terms {
			if c.Terms[i].Matches(state) {
				return true
			}
		}
		return false
	case OpAnd:
		for i := range c.Terms {
			if !c.Terms[i].Matches(state) {
				return false
			}
		}
		return true
	}
	for k, want := range c.Props {
		got, ok := state[k]
		if !ok {
			return false
		}
		match := false
		for _, alt := range strings.Split(want, "|") {
			if alt == got {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

// Prop returns the single value of a flat condition property, or "" when the
// condition is a combinator, lacks the property, or lists alternatives.
func (c *Condition) Prop(name string) string {
	if c == nil || c.Op != "" {
		return ""
	}
	v := c.Props[name]
	if strings.Contains(v, "|") {
		return ""
	}
	return v
}

// ParseVariantKey parses "facing=north,half=top" into a property map.
// Segments without '=' (including "normal" and "") are ignored.
func ParseVariantKey(key string) map[string]string {
	props := map[string]string{}
	for _, seg := range strings.Split(key, ",") {
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		props[k] = strings.TrimSpace(v)
	}
	return props
}

// Package manifest holds the flat list of known model ids used to bound
// subpart discovery, and the offline scan that produces it.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/samber/lo"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformed is wrapped when manifest content is not an array of ids.
var ErrMalformed = errors.New("malformed manifest")

const schemaSource = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"items": {"type": "string", "pattern": "^[a-z0-9_.-]+:[a-z0-9_./-]+$"}
}`

var schema = jsonschema.MustCompileString("manifest.schema.json", schemaSource)

// Manifest is an immutable sorted set of model ids. The zero value and nil
// are empty manifests.
type Manifest struct {
	ids []string
	set map[string]struct{}
}

// New builds a manifest from ids in any order, dropping blanks and duplicates.
func New(ids []string) *Manifest {
	ids = lo.Uniq(lo.Filter(lo.Map(ids, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}), func(s string, _ int) bool {
		return s != ""
	}))
	sort.Strings(ids)
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &Manifest{ids: ids, set: set}
}

// Decode validates and parses a JSON manifest.
func Decode(data []byte) (*Manifest, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return New(ids), nil
}

// Load reads a manifest file. Files ending in ".zst" are zstd-compressed.
func Load(file string) (*Manifest, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	m, err := Read(f, strings.HasSuffix(file, ".zst"))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", file, err)
	}
	return m, nil
}

// Read decodes a manifest from r, decompressing it first when compressed is
// set.
func Read(r io.Reader, compressed bool) (*Manifest, error) {
	if compressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Decode(data)
}

// Write encodes ids as a JSON array, zstd-compressed when compressed is set.
func Write(w io.Writer, ids []string, compressed bool) error {
	data, err := json.MarshalIndent(New(ids).IDs(), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if !compressed {
		_, err = w.Write(data)
		return err
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := io.Copy(enc, bytes.NewReader(data)); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Save writes ids to file, compressing when the name ends in ".zst".
func Save(file string, ids []string) error {
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	if err := Write(f, ids, strings.HasSuffix(file, ".zst")); err != nil {
		f.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	return f.Close()
}

// IDs returns the sorted ids. The slice must not be modified.
func (m *Manifest) IDs() []string {
	if m == nil {
		return nil
	}
	return m.ids
}

func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

func (m *Manifest) Contains(id string) bool {
	if m == nil {
		return false
	}
	_, ok := m.set[id]
	return ok
}

// Near returns the ids whose directory is dir or a direct subdirectory of
// dir, in sorted order. dir is an id such as "create:block/press".
func (m *Manifest) Near(dir string) []string {
	if m == nil || dir == "" {
		return nil
	}
	prefix := dir + "/"
	start := sort.SearchStrings(m.ids, prefix)
	var out []string
	for _, id := range m.ids[start:] {
		rest, ok := strings.CutPrefix(id, prefix)
		if !ok {
			break
		}
		if strings.Count(rest, "/") <= 1 {
			out = append(out, id)
		}
	}
	return out
}

// idFromPath maps "assets/<ns>/models/<p>.<ext>" to "<ns>:<p>".
func idFromPath(p string) (string, bool) {
	parts := strings.SplitN(p, "/", 4)
	if len(parts) != 4 || parts[0] != "assets" || parts[2] != "models" {
		return "", false
	}
	ext := path.Ext(parts[3])
	if !geometryExts[ext] {
		return "", false
	}
	return parts[1] + ":" + strings.TrimSuffix(parts[3], ext), true
}

var geometryExts = map[string]bool{".json": true, ".obj": true}

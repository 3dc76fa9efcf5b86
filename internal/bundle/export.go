package bundle

import (
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"modres/internal/atlas"
	"modres/pkg/blockmodel"
)

// Document is the exported form of a Result. Texture blobs live in the
// atlas image; UV maps texture ids into it.
type Document struct {
	BlockStates map[string]*blockmodel.BlockState `json:"blockstates"`
	Models      map[string]*blockmodel.Model      `json:"models"`
	UV          map[string]atlas.Rect             `json:"uv"`
	Missing     []string                          `json:"missing"`
}

func (r *Result) Document() *Document {
	return &Document{
		BlockStates: r.Bundle.BlockStates,
		Models:      r.Bundle.Models,
		UV:          r.Atlas.UV,
		Missing:     r.Bundle.Missing,
	}
}

// Export writes the document to docPath, zstd-compressed when the name ends
// in ".zst", and the atlas image to atlasPath as PNG.
func Export(r *Result, docPath, atlasPath string) error {
	if err := writeFile(docPath, func(w io.Writer) error {
		return EncodeDocument(w, r.Document(), strings.HasSuffix(docPath, ".zst"))
	}); err != nil {
		return fmt.Errorf("export bundle: %w", err)
	}
	if err := writeFile(atlasPath, func(w io.Writer) error {
		return png.Encode(w, r.Atlas.Image)
	}); err != nil {
		return fmt.Errorf("export atlas: %w", err)
	}
	return nil
}

func EncodeDocument(w io.Writer, doc *Document, compressed bool) error {
	if !compressed {
		return json.NewEncoder(w).Encode(doc)
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(doc); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func DecodeDocument(r io.Reader, compressed bool) (*Document, error) {
	if compressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &doc, nil
}

// ReadDocument loads a document written by Export.
func ReadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeDocument(f, strings.HasSuffix(path, ".zst"))
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package resource

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// FSSource serves files from an fs.FS: os.DirFS for an unpacked resource
// pack, a zip.Reader for a mod jar, fstest.MapFS in tests.
type FSSource struct {
	fsys fs.FS
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// NewDirSource serves files below dir.
func NewDirSource(dir string) *FSSource {
	return &FSSource{fsys: os.DirFS(dir)}
}

// FS exposes the underlying file system for directory scans.
func (s *FSSource) FS() fs.FS { return s.fsys }

func (s *FSSource) Open(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p = path.Clean(strings.TrimPrefix(p, "/"))
	b, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return b, nil
}

// JarSource reads assets straight out of a mod or game jar.
type JarSource struct {
	*FSSource
	rc *zip.ReadCloser
}

func OpenJar(file string) (*JarSource, error) {
	rc, err := zip.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("open jar %s: %w", file, err)
	}
	return &JarSource{FSSource: NewFSSource(rc), rc: rc}, nil
}

func (j *JarSource) Close() error {
	return j.rc.Close()
}

// HTTPSource fetches files below a base URL.
type HTTPSource struct {
	client *resty.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2)
	return &HTTPSource{client: c}
}

func (s *HTTPSource) Open(ctx context.Context, p string) ([]byte, error) {
	resp, err := s.client.R().SetContext(ctx).Get("/" + strings.TrimPrefix(p, "/"))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	case resp.IsError():
		return nil, fmt.Errorf("fetch %s: status %d", p, resp.StatusCode())
	}
	return resp.Body(), nil
}

// Layered tries each source in order and returns the first hit. It lets a
// mod jar shadow an unpacked override directory or vice versa.
type Layered []Source

func (l Layered) Open(ctx context.Context, p string) ([]byte, error) {
	var firstErr error
	for _, s := range l {
		b, err := s.Open(ctx, p)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, ErrNotFound) && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
}

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"modres/internal/bundle"
	"modres/internal/cli"
	"modres/internal/manifest"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_UsageError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"resolve"})

	var ee *cli.ExitError
	require.True(t, errors.As(err, &ee))
	require.Equal(t, 2, ee.Code)
}

func TestRun_MissingConfigIsFatal(t *testing.T) {
	t.Parallel()

	cfg := filepath.Join(t.TempDir(), "absent.yaml")
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"resolve", "-config", cfg, "create:belt"})

	var ee *cli.ExitError
	require.True(t, errors.As(err, &ee))
	require.Equal(t, 1, ee.Code)
}

func TestRun_ManifestThenResolve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pack := filepath.Join(dir, "pack")
	writeFile(t, filepath.Join(pack, "assets/create/blockstates/cogwheel.json"), `{"variants":{"axis=y":{"model":"create:block/cogwheel"}}}`)
	writeFile(t, filepath.Join(pack, "assets/create/models/block/cogwheel.json"), `{"elements":[{"from":[0,6,0],"to":[16,10,16],"faces":{"up":{"texture":"#0"}}}]}`)

	manifestPath := filepath.Join(dir, "manifest.json.zst")
	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"manifest", "-root", pack, "-out", manifestPath})
	require.NoError(t, err)
	require.Contains(t, out.String(), "1 model ids")

	m, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	require.Equal(t, []string{"create:block/cogwheel"}, m.IDs())

	cfg := filepath.Join(dir, "modres.yaml")
	writeFile(t, cfg, "mod:\n  - kind: dir\n    location: "+pack+"\nmanifest: "+manifestPath+"\n")
	bundlePath := filepath.Join(dir, "bundle.json.zst")
	atlasPath := filepath.Join(dir, "atlas.png")

	out.Reset()
	logs := &bytes.Buffer{}
	err = run(context.Background(), out, logs, []string{
		"resolve", "-config", cfg, "-out", bundlePath, "-atlas-out", atlasPath, "-log-format", "json",
		"create:cogwheel", "create:ghost",
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "missing blockstate create:ghost")
	require.Contains(t, logs.String(), `"msg":"Wrote bundle"`)

	doc, err := bundle.ReadDocument(bundlePath)
	require.NoError(t, err)
	require.Contains(t, doc.Models, "create:block/cogwheel")
	require.Len(t, doc.BlockStates["create:cogwheel"].Multipart, 1)
	_, err = os.Stat(atlasPath)
	require.NoError(t, err)
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"modres/internal/resource"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "modres.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	p := writeConfig(t, `
mod:
  - kind: dir
    location: ./assets-root
  - kind: http
    location: https://example.invalid/pack
    timeout: 5s
manifest: manifest.json.zst
`)
	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "create", c.Namespace)
	require.Equal(t, []string{"smart_"}, c.SmartPrefixes)
	require.Equal(t, "atlas.json", c.Base.UV)
	require.Equal(t, "bundle.json.zst", c.Output.Bundle)
	require.Len(t, c.Mod, 2)
	require.Equal(t, 5*time.Second, c.Mod[1].Timeout)
	require.Equal(t, "manifest.json.zst", c.Manifest)
}

func TestLoadOverrides(t *testing.T) {
	p := writeConfig(t, `
namespace: mymod
smart_prefixes: []
discovery_allow: [widget]
mod:
  - {kind: jar, location: mymod.jar}
base:
  sources:
    - {kind: dir, location: vanilla}
  atlas: textures/atlas.png
`)
	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "mymod", c.Namespace)
	require.Empty(t, c.SmartPrefixes)
	require.Equal(t, []string{"widget"}, c.DiscoveryAllow)
	require.Equal(t, "textures/atlas.png", c.Base.Atlas)
	require.Equal(t, "atlas.json", c.Base.UV)
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"no mod":       `namespace: x`,
		"bad kind":     "mod:\n  - {kind: ftp, location: x}\n",
		"no location":  "mod:\n  - {kind: dir}\n",
		"bad base":     "mod:\n  - {kind: dir, location: x}\nbase:\n  sources:\n    - {kind: s3, location: y}\n",
		"invalid yaml": "mod: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenAllLayersInOrder(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	for dir, body := range map[string]string{first: "first", second: "second"} {
		p := filepath.Join(dir, "assets", "create", "x.txt")
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	only := filepath.Join(second, "assets", "create", "y.txt")
	require.NoError(t, os.WriteFile(only, []byte("y"), 0o644))

	src, closeFn, err := OpenAll([]Source{{Kind: SourceDir, Location: first}, {Kind: SourceDir, Location: second}})
	require.NoError(t, err)
	defer closeFn()

	ctx := context.Background()
	b, err := src.Open(ctx, "assets/create/x.txt")
	require.NoError(t, err)
	require.Equal(t, "first", string(b))
	b, err = src.Open(ctx, "assets/create/y.txt")
	require.NoError(t, err)
	require.Equal(t, "y", string(b))
	_, err = src.Open(ctx, "assets/create/z.txt")
	require.True(t, resource.IsNotFound(err))
}

func TestOpenJarFailure(t *testing.T) {
	_, _, err := OpenAll([]Source{{Kind: SourceJar, Location: filepath.Join(t.TempDir(), "none.jar")}})
	require.Error(t, err)
}

package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseResolve(t *testing.T) {
	list := filepath.Join(t.TempDir(), "blocks.txt")
	require.NoError(t, os.WriteFile(list, []byte("# comment\ncreate:belt\n\ncreate:spout\n"), 0o644))

	var out bytes.Buffer
	cmd, exit, err := Parse([]string{"resolve", "-config", "c.yaml", "-log-format", "JSON", "-blocks", list, "create:cogwheel"}, &out)
	require.NoError(t, err)
	require.False(t, exit)
	require.Equal(t, CmdResolve, cmd.Name)
	require.Equal(t, "c.yaml", cmd.ConfigPath)
	require.Equal(t, "json", cmd.LogFormat)
	require.Equal(t, []string{"create:cogwheel", "create:belt", "create:spout"}, cmd.Blocks)
}

func TestParseManifest(t *testing.T) {
	cmd, exit, err := Parse([]string{"manifest", "-root", "pack", "-out", "m.json.zst"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)
	require.Equal(t, "pack", cmd.Root)
	require.Equal(t, "m.json.zst", cmd.ManifestOut)
}

func TestParseHelp(t *testing.T) {
	for _, args := range [][]string{nil, {"help"}, {"resolve", "-h"}} {
		var out bytes.Buffer
		cmd, exit, err := Parse(args, &out)
		require.NoError(t, err)
		require.True(t, exit)
		require.Nil(t, cmd)
		require.NotEmpty(t, out.String())
	}
}

func TestParseUsageErrors(t *testing.T) {
	for name, args := range map[string][]string{
		"unknown command": {"build"},
		"no blocks":       {"resolve"},
		"bad format":      {"resolve", "-log-format", "xml", "a"},
		"bad level":       {"resolve", "-log-level", "loud", "a"},
		"no root":         {"manifest"},
		"bad flag":        {"manifest", "-nope"},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(args, &bytes.Buffer{})
			var ee *ExitError
			require.True(t, errors.As(err, &ee))
			require.Equal(t, 2, ee.Code)
		})
	}
}

func TestFatal(t *testing.T) {
	var ee *ExitError
	require.True(t, errors.As(Fatal(errors.New("boom")), &ee))
	require.Equal(t, 1, ee.Code)

	usage := &ExitError{Code: 2, Message: "x"}
	require.Same(t, usage, Fatal(usage))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &Command{LogFormat: "json", LogLevel: "warn"})
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)
}

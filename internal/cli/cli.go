// Package cli parses modres command lines into a Command and carries the
// process exit code of a failure.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	CmdResolve  = "resolve"
	CmdManifest = "manifest"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Fatal wraps err as an exit-code-1 failure.
func Fatal(err error) error {
	var ee *ExitError
	if errors.As(err, &ee) {
		return err
	}
	return &ExitError{Code: 1, Message: err.Error()}
}

type Command struct {
	Name      string
	LogFormat string
	LogLevel  string

	// resolve
	ConfigPath string
	Blocks     []string
	BundleOut  string
	AtlasOut   string

	// manifest
	Root        string
	ManifestOut string
}

const usage = `
modres - resolve mod block assets into a flattened bundle and texture atlas.

Usage:
  modres resolve [options] BLOCK_ID...
  modres manifest [options]

Run "modres <command> -h" for the options of a command.
`

// Parse processes command-line arguments. It returns the parsed command, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Command, bool, error) {
	if len(args) == 0 {
		fmt.Fprint(output, usage)
		return nil, true, nil
	}
	switch args[0] {
	case "-h", "-help", "--help", "help":
		fmt.Fprint(output, usage)
		return nil, true, nil
	case CmdResolve, CmdManifest:
	default:
		return nil, false, usageError("unknown command %q", args[0])
	}

	cmd := &Command{Name: args[0]}
	fs := flag.NewFlagSet("modres "+cmd.Name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cmd.LogFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&cmd.LogLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	var blocksFile string
	switch cmd.Name {
	case CmdResolve:
		fs.StringVar(&cmd.ConfigPath, "config", "modres.yaml", "Path to the configuration file.")
		fs.StringVar(&blocksFile, "blocks", "", "File with one block id per line, in addition to the arguments.")
		fs.StringVar(&cmd.BundleOut, "out", "", "Bundle output path. Overrides output.bundle.")
		fs.StringVar(&cmd.AtlasOut, "atlas-out", "", "Atlas PNG output path. Overrides output.atlas.")
	case CmdManifest:
		fs.StringVar(&cmd.Root, "root", "", "Directory or jar containing assets/.")
		fs.StringVar(&cmd.ManifestOut, "out", "manifest.json", "Manifest output path; a .zst suffix compresses it.")
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}

	cmd.LogFormat = strings.ToLower(cmd.LogFormat)
	if cmd.LogFormat != "text" && cmd.LogFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}
	cmd.LogLevel = strings.ToLower(cmd.LogLevel)
	if _, err := ParseLevel(cmd.LogLevel); err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	switch cmd.Name {
	case CmdResolve:
		cmd.Blocks = append(cmd.Blocks, fs.Args()...)
		if blocksFile != "" {
			ids, err := readBlockList(blocksFile)
			if err != nil {
				return nil, false, usageError("read block list: %v", err)
			}
			cmd.Blocks = append(cmd.Blocks, ids...)
		}
		if len(cmd.Blocks) == 0 {
			return nil, false, usageError("resolve needs at least one block id")
		}
	case CmdManifest:
		if cmd.Root == "" {
			return nil, false, usageError("manifest needs -root")
		}
	}
	slog.Debug("CLI parser finished successfully.", "command", cmd.Name)
	return cmd, false, nil
}

func readBlockList(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids, nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
}

// NewLogger builds the slog logger selected by the command's flags.
func NewLogger(w io.Writer, cmd *Command) *slog.Logger {
	level, _ := ParseLevel(cmd.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if cmd.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xlab/closer"

	"modres/internal/bundle"
	"modres/internal/cli"
	"modres/internal/config"
	"modres/internal/ctxlog"
	"modres/internal/manifest"
	"modres/internal/resource"
)

func main() {
	// Use a minimal logger until the command line is parsed.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	code := 0
	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			code = exitErr.Code
		} else {
			fmt.Fprintln(os.Stderr, err)
			code = 1
		}
	}
	closer.Exit(code)
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	cmd, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}
	logger := cli.NewLogger(logW, cmd)
	ctx = ctxlog.WithLogger(ctx, logger)

	switch cmd.Name {
	case cli.CmdManifest:
		err = runManifest(ctx, outW, cmd)
	default:
		err = runResolve(ctx, outW, cmd)
	}
	if err != nil {
		return cli.Fatal(err)
	}
	return nil
}

func runResolve(ctx context.Context, outW io.Writer, cmd *cli.Command) error {
	logger := ctxlog.FromContext(ctx)
	cfg, err := config.Load(cmd.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	mod, closeMod, err := config.OpenAll(cfg.Mod)
	if err != nil {
		return fmt.Errorf("open mod sources: %w", err)
	}
	defer closeMod()

	b := &bundle.Builder{
		Mod:            mod,
		BaseAtlas:      cfg.Base.Atlas,
		BaseUV:         cfg.Base.UV,
		Namespace:      cfg.Namespace,
		SmartPrefixes:  cfg.SmartPrefixes,
		DiscoveryAllow: cfg.DiscoveryAllow,
	}
	if len(cfg.Base.Sources) > 0 {
		base, closeBase, err := config.OpenAll(cfg.Base.Sources)
		if err != nil {
			return fmt.Errorf("open base sources: %w", err)
		}
		defer closeBase()
		b.Base = base
	}
	if cfg.Manifest != "" {
		m, err := manifest.Load(cfg.Manifest)
		if err != nil {
			return err
		}
		logger.Info("Loaded manifest", "path", cfg.Manifest, "ids", m.Len())
		b.Manifest = m
	}

	res, err := b.Build(ctx, cmd.Blocks)
	if err != nil {
		return err
	}

	bundleOut := firstNonEmpty(cmd.BundleOut, cfg.Output.Bundle)
	atlasOut := firstNonEmpty(cmd.AtlasOut, cfg.Output.Atlas)
	if err := bundle.Export(res, bundleOut, atlasOut); err != nil {
		return err
	}
	w, h := res.Atlas.Size()
	logger.Info("Wrote bundle", "bundle", bundleOut, "atlas", atlasOut, "width", w, "height", h)

	for _, m := range res.Bundle.Missing {
		fmt.Fprintln(outW, "missing", m)
	}
	return nil
}

func runManifest(ctx context.Context, outW io.Writer, cmd *cli.Command) error {
	var src *resource.FSSource
	if strings.HasSuffix(cmd.Root, ".jar") || strings.HasSuffix(cmd.Root, ".zip") {
		jar, err := resource.OpenJar(cmd.Root)
		if err != nil {
			return err
		}
		defer jar.Close()
		src = jar.FSSource
	} else {
		src = resource.NewDirSource(cmd.Root)
	}

	ids, err := manifest.Scan(src.FS())
	if err != nil {
		return err
	}
	if err := manifest.Save(cmd.ManifestOut, ids); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Wrote manifest", "path", cmd.ManifestOut, "ids", len(ids))
	fmt.Fprintf(outW, "%d model ids written to %s\n", len(ids), cmd.ManifestOut)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

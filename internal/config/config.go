// Package config loads the modres YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"modres/internal/resource"
)

const (
	SourceDir  = "dir"
	SourceJar  = "jar"
	SourceHTTP = "http"
)

// Source locates a tree of assets/ files.
type Source struct {
	Kind     string        `yaml:"kind"`
	Location string        `yaml:"location"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Base describes the vanilla asset set and its prebuilt atlas.
type Base struct {
	Sources []Source `yaml:"sources"`
	// Atlas and UV are paths inside the base sources.
	Atlas string `yaml:"atlas"`
	UV    string `yaml:"uv"`
}

type Output struct {
	Bundle string `yaml:"bundle"`
	Atlas  string `yaml:"atlas"`
}

type Config struct {
	Namespace      string   `yaml:"namespace"`
	Mod            []Source `yaml:"mod"`
	Base           Base     `yaml:"base"`
	Manifest       string   `yaml:"manifest"`
	SmartPrefixes  []string `yaml:"smart_prefixes"`
	DiscoveryAllow []string `yaml:"discovery_allow"`
	Output         Output   `yaml:"output"`
}

// Default returns the configuration used for keys the file leaves out.
func Default() Config {
	return Config{
		Namespace:     "create",
		SmartPrefixes: []string{"smart_"},
		Base: Base{
			Atlas: "atlas.png",
			UV:    "atlas.json",
		},
		Output: Output{
			Bundle: "bundle.json.zst",
			Atlas:  "atlas.png",
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c Config) Validate() error {
	if len(c.Mod) == 0 {
		return errors.New("at least one mod source is required")
	}
	for i, s := range c.Mod {
		if err := s.validate(); err != nil {
			return fmt.Errorf("mod[%d]: %w", i, err)
		}
	}
	for i, s := range c.Base.Sources {
		if err := s.validate(); err != nil {
			return fmt.Errorf("base.sources[%d]: %w", i, err)
		}
	}
	return nil
}

func (s Source) validate() error {
	switch s.Kind {
	case SourceDir, SourceJar, SourceHTTP:
	default:
		return fmt.Errorf("unknown source kind %q", s.Kind)
	}
	if s.Location == "" {
		return errors.New("location is required")
	}
	return nil
}

// Open returns the resource source described by s and a function releasing
// it.
func (s Source) Open() (resource.Source, func() error, error) {
	noop := func() error { return nil }
	switch s.Kind {
	case SourceDir:
		return resource.NewDirSource(s.Location), noop, nil
	case SourceJar:
		j, err := resource.OpenJar(s.Location)
		if err != nil {
			return nil, nil, err
		}
		return j, j.Close, nil
	case SourceHTTP:
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return resource.NewHTTPSource(s.Location, timeout), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown source kind %q", s.Kind)
}

// OpenAll opens sources in order as one layered source. The returned
// function closes everything that was opened.
func OpenAll(sources []Source) (resource.Layered, func() error, error) {
	var layered resource.Layered
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	for _, s := range sources {
		src, closeFn, err := s.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		layered = append(layered, src)
		closers = append(closers, closeFn)
	}
	return layered, closeAll, nil
}

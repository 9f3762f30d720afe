// Package config resolves bundle settings from defaults, presets, a YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codebundle/pkg/bundle"
	"codebundle/pkg/ignore"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file picked up from the working directory.
const DefaultFileName = ".codebundle.yaml"

// DefaultOutputName is the bundle file name used when neither an output path
// nor a preset output name is set.
const DefaultOutputName = "bundle.txt"

// Environment variables consulted by Load.
const (
	EnvPreset      = "BUNDLER_PRESET"
	EnvRoot        = "BUNDLER_ROOT"
	EnvOutput      = "BUNDLER_OUTPUT"
	EnvMaxFileSize = "BUNDLER_MAX_FILE_SIZE"
	EnvEncoding    = "BUNDLER_ENCODING"
)

// Config holds the user-facing options for one bundle run.
type Config struct {
	Preset        string   `yaml:"preset,omitempty"`
	Root          string   `yaml:"root"`
	Output        string   `yaml:"output,omitempty"`     // Bundle path; empty means <root>/<outputName>.
	OutputName    string   `yaml:"outputName,omitempty"` // File name placed inside root when Output is empty.
	Tree          string   `yaml:"tree,omitempty"`
	Extensions    []string `yaml:"extensions,omitempty"`
	Filenames     []string `yaml:"filenames,omitempty"`
	ExcludeDirs   []string `yaml:"excludeDirs,omitempty"`
	Ignore        []string `yaml:"ignore,omitempty"`
	IgnoreFile    string   `yaml:"ignoreFile,omitempty"`
	MaxFileSize   string   `yaml:"maxFileSize"` // Human size ("1MiB", "512000"); "0" disables the ceiling.
	ExplicitFiles []string `yaml:"explicitFiles,omitempty"`
	Subdirs       []string `yaml:"subdirs,omitempty"`
	AlwaysInclude []string `yaml:"alwaysInclude,omitempty"`
	Encoding      string   `yaml:"encoding,omitempty"`
	IncludeHidden bool     `yaml:"includeHidden,omitempty"`
	SkipBinary    bool     `yaml:"skipBinary,omitempty"`
	Sort          bool     `yaml:"sort,omitempty"`
}

// DefaultConfig returns the settings used when no preset is selected.
func DefaultConfig() *Config {
	return &Config{
		Root:        ".",
		OutputName:  DefaultOutputName,
		ExcludeDirs: []string{"build", "node_modules"},
		MaxFileSize: "1MiB",
		Encoding:    bundle.DefaultEncoding,
	}
}

// Load resolves a Config. The preset comes from presetName, then
// BUNDLER_PRESET, then the file's preset key. path may be empty, in which case
// DefaultFileName is used if present. Environment overrides are applied last;
// a .env file in the working directory is loaded first.
func Load(path, presetName string) (*Config, error) {
	_ = godotenv.Load()

	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	var head struct {
		Preset string `yaml:"preset"`
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &head); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	name := firstNonEmpty(presetName, strings.TrimSpace(os.Getenv(EnvPreset)), head.Preset)
	cfg := DefaultConfig()
	if name != "" {
		cfg, err = Preset(name)
		if err != nil {
			return nil, err
		}
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.Preset = name

	cfg.applyEnvOverrides()
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return data, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(EnvRoot)); v != "" {
		c.Root = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutput)); v != "" {
		c.Output = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxFileSize)); v != "" {
		c.MaxFileSize = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvEncoding)); v != "" {
		c.Encoding = v
	}
}

// Validate checks the options that cannot be verified by type alone.
func (c *Config) Validate() error {
	var errs []error
	if c.Root == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	if _, err := c.MaxFileSizeBytes(); err != nil {
		errs = append(errs, err)
	}
	if len(c.ExplicitFiles) > 0 && len(c.Subdirs) > 0 {
		errs = append(errs, errors.New("explicitFiles and subdirs cannot be combined"))
	}
	if c.Preset != "" {
		if _, ok := presets[c.Preset]; !ok {
			errs = append(errs, fmt.Errorf("unknown preset %q", c.Preset))
		}
	}
	if c.Encoding != "" {
		if _, err := htmlindex.Get(c.Encoding); err != nil {
			errs = append(errs, fmt.Errorf("unknown encoding %q", c.Encoding))
		}
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("extension %q must start with '.'", ext))
		}
	}
	return errors.Join(errs...)
}

// MaxFileSizeBytes parses MaxFileSize. Empty and "0" mean no ceiling.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	raw := strings.TrimSpace(c.MaxFileSize)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid maxFileSize %q: %w", c.MaxFileSize, err)
	}
	return int64(n), nil
}

// OutputPath returns the bundle destination.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return filepath.Join(c.Root, firstNonEmpty(c.OutputName, DefaultOutputName))
}

// Options converts the configuration into bundle.Options, loading ignore
// files (global, then <root>/.bundleignore) and inline ignore lines.
func (c *Config) Options(logger *zap.Logger) (bundle.Options, error) {
	if err := c.Validate(); err != nil {
		return bundle.Options{}, err
	}
	maxSize, err := c.MaxFileSizeBytes()
	if err != nil {
		return bundle.Options{}, err
	}

	global := firstNonEmpty(c.IgnoreFile, os.Getenv(ignore.GlobalEnv))
	matcher, err := ignore.LoadIgnoreFiles(logger, global, filepath.Join(c.Root, ignore.FileName))
	if err != nil {
		return bundle.Options{}, err
	}
	matcher.CompileIgnoreLines(c.Ignore...)

	opts := bundle.Options{
		Root:   c.Root,
		Output: c.OutputPath(),
		Tree:   c.Tree,
		Inclusion: bundle.InclusionPolicy{
			Extensions:    c.Extensions,
			Filenames:     c.Filenames,
			AlwaysInclude: c.AlwaysInclude,
			ExplicitFiles: c.ExplicitFiles,
		},
		Exclusion: bundle.ExclusionPolicy{
			Dirs:          c.ExcludeDirs,
			IncludeHidden: c.IncludeHidden,
		},
		Subdirs:     c.Subdirs,
		MaxFileSize: maxSize,
		Encoding:    c.Encoding,
		SkipBinary:  c.SkipBinary,
		Sort:        c.Sort,
	}
	if matcher.Len() > 0 {
		opts.Exclusion.Matchers = []bundle.PathMatcher{matcher}
	}
	return opts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

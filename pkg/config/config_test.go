package config

import (
	"os"
	"path/filepath"
	"testing"

	"codebundle/pkg/bundle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// clearEnv unsets every variable Load consults for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvPreset, EnvRoot, EnvOutput, EnvMaxFileSize, EnvEncoding} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "utf-8", cfg.Encoding)

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, bundle.DefaultMaxFileSize, size)
	assert.Equal(t, filepath.Join(".", DefaultOutputName), cfg.OutputPath())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_MissingExplicitFileIsError(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestLoad_FileOverlaysPreset(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
preset: native-only
maxFileSize: 2MiB
extensions: [".kt"]
sort: true
`), 0644))

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "native-only", cfg.Preset)
	assert.Equal(t, []string{".kt"}, cfg.Extensions)
	assert.True(t, cfg.Sort)
	assert.Contains(t, cfg.ExcludeDirs, "lib")
	assert.Equal(t, "all_native_code.txt", cfg.OutputName)

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(2*1024*1024), size)
}

func TestLoad_PresetPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preset: native-only\n"), 0644))

	t.Setenv(EnvPreset, "widget-deep-dive")
	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "widget-deep-dive", cfg.Preset)
	assert.NotEmpty(t, cfg.ExplicitFiles)

	cfg, err = Load(path, "full-project")
	require.NoError(t, err)
	assert.Equal(t, "full-project", cfg.Preset)
	assert.Empty(t, cfg.ExplicitFiles)
}

func TestLoad_UnknownPreset(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	_, err := Load("", "does-not-exist")
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv(EnvRoot, "/srv/app")
	t.Setenv(EnvOutput, "/tmp/out.txt")
	t.Setenv(EnvMaxFileSize, "0")
	t.Setenv(EnvEncoding, "windows-1252")

	cfg, err := Load("", "full-project")
	require.NoError(t, err)
	assert.Equal(t, "/srv/app", cfg.Root)
	assert.Equal(t, "/tmp/out.txt", cfg.OutputPath())
	assert.Equal(t, "windows-1252", cfg.Encoding)

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestLoad_DotEnvAndDefaultFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(".env", []byte("BUNDLER_ENCODING=iso-8859-1\n"), 0644))
	require.NoError(t, os.WriteFile(DefaultFileName, []byte("root: app\ntree: tree.txt\n"), 0644))

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "iso-8859-1", cfg.Encoding)
	assert.Equal(t, "app", cfg.Root)
	assert.Equal(t, "tree.txt", cfg.Tree)
	assert.Equal(t, filepath.Join("app", DefaultOutputName), cfg.OutputPath())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty root", func(c *Config) { c.Root = "" }},
		{"bad size", func(c *Config) { c.MaxFileSize = "lots" }},
		{"explicit with subdirs", func(c *Config) {
			c.ExplicitFiles = []string{"a.kt"}
			c.Subdirs = []string{"lib"}
		}},
		{"unknown preset", func(c *Config) { c.Preset = "nope" }},
		{"unknown encoding", func(c *Config) { c.Encoding = "klingon" }},
		{"extension without dot", func(c *Config) { c.Extensions = []string{"dart"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "bundle.yaml")

	cfg, err := Preset("app-sources")
	require.NoError(t, err)
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPresetReturnsCopies(t *testing.T) {
	a, err := Preset("full-project")
	require.NoError(t, err)
	a.Extensions[0] = ".mutated"
	a.ExcludeDirs = append(a.ExcludeDirs[:0], "x")

	b, err := Preset("full-project")
	require.NoError(t, err)
	assert.Equal(t, ".dart", b.Extensions[0])
	assert.Equal(t, "build", b.ExcludeDirs[0])
}

func TestPresetNames(t *testing.T) {
	assert.Equal(t, []string{"app-sources", "full-project", "native-only", "widget-deep-dive"}, PresetNames())
	for _, name := range PresetNames() {
		cfg, err := Preset(name)
		require.NoError(t, err)
		assert.NoError(t, cfg.Validate(), name)
	}
}

func TestOptions(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".bundleignore"), []byte("*.g.dart\n"), 0644))
	t.Setenv("BUNDLEIGNORE_GLOBAL", "")

	cfg, err := Preset("full-project")
	require.NoError(t, err)
	cfg.Root = root
	cfg.Ignore = []string{"generated/"}

	opts, err := cfg.Options(zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, root, opts.Root)
	assert.Equal(t, filepath.Join(root, "all_project_code.txt"), opts.Output)
	assert.Equal(t, bundle.DefaultMaxFileSize, opts.MaxFileSize)
	assert.Contains(t, opts.Exclusion.Dirs, "ios/Flutter")
	require.Len(t, opts.Exclusion.Matchers, 1)
	assert.True(t, opts.Exclusion.Matchers[0].Match("lib/model.g.dart", false))
	assert.True(t, opts.Exclusion.Matchers[0].Match("lib/generated", true))
}

func TestOptions_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFileSize = "huge"
	_, err := cfg.Options(nil)
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8199, cfg.Corpus.RecordSize)
	assert.Equal(t, uint32(0x2420), cfg.Corpus.CodeOffset)
	assert.Equal(t, "ETL9G_", cfg.Corpus.FilePrefix)
	assert.Equal(t, 64, cfg.Normalizer.Width)
	assert.Equal(t, 0.2, cfg.Splitter.ValFraction)
	assert.Equal(t, int64(42), cfg.Splitter.Seed)
	assert.Len(t, cfg.Charset.Ranges, 2)
	require.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileFilled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
corpus:
  dir: /data/etl9g
  stop_on_file_error: true
normalizer:
  type: nearest
  width: 32
splitter:
  val_fraction: 0.25
  singleton_policy: drop
output:
  compression: zstd
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/etl9g", cfg.Corpus.Dir)
	assert.True(t, cfg.Corpus.StopOnFileError)
	assert.Equal(t, 127, cfg.Corpus.RasterHeight)
	assert.Equal(t, "nearest", cfg.Normalizer.Type)
	assert.Equal(t, 32, cfg.Normalizer.Width)
	assert.Equal(t, 64, cfg.Normalizer.Height)
	assert.Equal(t, 0.25, cfg.Splitter.ValFraction)
	assert.Equal(t, "drop", cfg.Splitter.SingletonPolicy)
	assert.Equal(t, "zstd", cfg.Output.Compression)
	assert.Equal(t, defaultRanges(), cfg.Charset.Ranges)
}

func TestLoad_DirectoriesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("corpus: {dir: /data/etl9g}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/etl9g", cfg.Corpus.Dir)
	assert.Equal(t, "ETL9G_", cfg.Corpus.FilePrefix)
	assert.Equal(t, int64(42), cfg.Splitter.Seed)
	assert.Equal(t, "train", cfg.Splitter.SingletonPolicy)
	assert.False(t, cfg.Corpus.StopOnFileError)

	want := defaultConfig()
	want.Corpus.Dir = "/data/etl9g"
	assert.Equal(t, want, cfg)
}

func TestLoad_ExplicitZeroKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
corpus:
  code_offset: 0
  file_prefix: ""
splitter:
  seed: 0
charset:
  ranges:
    - {lo: 0x0001, hi: 0x0053, base: 0x3041}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), cfg.Corpus.CodeOffset)
	assert.Equal(t, "", cfg.Corpus.FilePrefix)
	assert.Equal(t, int64(0), cfg.Splitter.Seed)
	assert.Equal(t, []RangeConfig{{Lo: 0x0001, Hi: 0x0053, Base: 0x3041}}, cfg.Charset.Ranges)
	assert.Equal(t, 8199, cfg.Corpus.RecordSize)
}

func TestLoadDefault_WritesNothing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, defaultConfig(), cfg)
	_, err = os.Stat(filepath.Join(home, ".config", "kanaset", "config.yaml"))
	assert.True(t, os.IsNotExist(err))

	saved, err := SaveUserDefaults()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "kanaset", "config.yaml"), saved)

	cfg, path, err = LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, saved, path)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("corpus: [unclosed"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Output.Dir = "/out"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("KANASET_INPUT_DIR", "/in")
	t.Setenv("KANASET_OUTPUT_DIR", "/out")
	t.Setenv("KANASET_COMPRESSION", "zstd")
	cfg := defaultConfig()
	ApplyEnv(cfg)
	assert.Equal(t, "/in", cfg.Corpus.Dir)
	assert.Equal(t, "/out", cfg.Output.Dir)
	assert.Equal(t, "zstd", cfg.Output.Compression)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *AppConfig){
		"raster":   func(c *AppConfig) { c.Corpus.RasterWidth = 0 },
		"target":   func(c *AppConfig) { c.Normalizer.Height = -1 },
		"fraction": func(c *AppConfig) { c.Splitter.ValFraction = 1 },
		"ranges":   func(c *AppConfig) { c.Charset.Ranges = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

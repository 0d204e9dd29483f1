package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CorpusConfig describes where the raw corpus lives and its record layout.
type CorpusConfig struct {
	Dir             string `yaml:"dir"`
	FilePrefix      string `yaml:"file_prefix"`
	RecordSize      int    `yaml:"record_size"`
	CodeOffset      uint32 `yaml:"code_offset"`
	RasterOffset    int    `yaml:"raster_offset"`
	RasterWidth     int    `yaml:"raster_width"`
	RasterHeight    int    `yaml:"raster_height"`
	RasterDepth     int    `yaml:"raster_depth"`
	StopOnFileError bool   `yaml:"stop_on_file_error"`
}

// RangeConfig maps codes [Lo, Hi] onto code points starting at Base.
type RangeConfig struct {
	Lo   uint32 `yaml:"lo"`
	Hi   uint32 `yaml:"hi"`
	Base uint32 `yaml:"base"`
}

// CharsetConfig selects the target characters.
type CharsetConfig struct {
	Ranges []RangeConfig `yaml:"ranges"`
}

// NormalizerConfig selects the resampling kernel and target size.
type NormalizerConfig struct {
	Type   string `yaml:"type"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// SplitterConfig configures the train/validation split.
type SplitterConfig struct {
	Type            string  `yaml:"type"`
	ValFraction     float64 `yaml:"val_fraction"`
	Seed            int64   `yaml:"seed"`
	SingletonPolicy string  `yaml:"singleton_policy"`
}

// OutputConfig configures where and how results are written.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	Compression  string `yaml:"compression"`
	ExportImages bool   `yaml:"export_images"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus     CorpusConfig     `yaml:"corpus"`
	Charset    CharsetConfig    `yaml:"charset"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Splitter   SplitterConfig   `yaml:"splitter"`
	Output     OutputConfig     `yaml:"output"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Keys absent from the file keep their default values.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/kanaset/config.yaml.
// If neither exists it returns defaults and an empty path; nothing is written.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	return defaultConfig(), "", nil
}

// SaveUserDefaults writes the defaults to ~/.config/kanaset/config.yaml
// unless a file is already there, and returns its path.
func SaveUserDefaults() (string, error) {
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		return userPath, nil
	}
	return userPath, Save(userPath, defaultConfig())
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overrides directories and compression from KANASET_INPUT_DIR,
// KANASET_OUTPUT_DIR and KANASET_COMPRESSION when they are set.
func ApplyEnv(cfg *AppConfig) {
	if v := os.Getenv("KANASET_INPUT_DIR"); v != "" {
		cfg.Corpus.Dir = v
	}
	if v := os.Getenv("KANASET_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("KANASET_COMPRESSION"); v != "" {
		cfg.Output.Compression = v
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	cc := c.Corpus
	if cc.RasterWidth <= 0 || cc.RasterHeight <= 0 {
		return fmt.Errorf("corpus raster size %dx%d is invalid", cc.RasterWidth, cc.RasterHeight)
	}
	if c.Normalizer.Width <= 0 || c.Normalizer.Height <= 0 {
		return fmt.Errorf("normalizer size %dx%d is invalid", c.Normalizer.Width, c.Normalizer.Height)
	}
	if !(c.Splitter.ValFraction > 0 && c.Splitter.ValFraction < 1) {
		return fmt.Errorf("splitter val_fraction %v outside (0,1)", c.Splitter.ValFraction)
	}
	if len(c.Charset.Ranges) == 0 {
		return fmt.Errorf("charset has no ranges")
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kanaset", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus: CorpusConfig{
			FilePrefix:   "ETL9G_",
			RecordSize:   8199,
			CodeOffset:   0x2420,
			RasterOffset: 2,
			RasterWidth:  128,
			RasterHeight: 127,
			RasterDepth:  4,
		},
		Charset:    CharsetConfig{Ranges: defaultRanges()},
		Normalizer: NormalizerConfig{Type: "bilinear", Width: 64, Height: 64},
		Splitter:   SplitterConfig{Type: "stratified", ValFraction: 0.2, Seed: 42, SingletonPolicy: "train"},
		Output:     OutputConfig{Compression: "none"},
	}
	return cfg
}

// defaultRanges are hiragana and katakana in JIS X 0208.
func defaultRanges() []RangeConfig {
	return []RangeConfig{
		{Lo: 0x2421, Hi: 0x2473, Base: 0x3041},
		{Lo: 0x2521, Hi: 0x2576, Base: 0x30A1},
	}
}

// applyConfigDefaults restores settings that were given but left empty.
// Numeric values are taken as written so an explicit 0 survives.
func applyConfigDefaults(cfg *AppConfig) {
	d := defaultConfig()
	if len(cfg.Charset.Ranges) == 0 {
		cfg.Charset.Ranges = defaultRanges()
	}
	if cfg.Normalizer.Type == "" {
		cfg.Normalizer.Type = d.Normalizer.Type
	}
	if cfg.Splitter.Type == "" {
		cfg.Splitter.Type = d.Splitter.Type
	}
	if cfg.Splitter.SingletonPolicy == "" {
		cfg.Splitter.SingletonPolicy = d.Splitter.SingletonPolicy
	}
	if cfg.Output.Compression == "" {
		cfg.Output.Compression = d.Output.Compression
	}
}

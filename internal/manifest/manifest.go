package manifest

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"kanaset/internal/fsutil"
)

const (
	FileName = "dataset.yaml"
	Version  = "kanaset.v1"
)

// OrderingNote is recorded in every manifest: class ids are only stable for
// the same set of files processed in the same order.
const OrderingNote = "class ids follow first appearance over files in lexicographic name order; a different file set or order can renumber classes"

// ClassEntry describes one class and how its samples were partitioned.
type ClassEntry struct {
	ID        int    `yaml:"id"`
	Character string `yaml:"character"`
	CodePoint string `yaml:"code_point"`
	Train     int    `yaml:"train"`
	Val       int    `yaml:"val"`
}

// Shards names the partition files relative to the output dir.
type Shards struct {
	Train       string `yaml:"train,omitempty"`
	Val         string `yaml:"val,omitempty"`
	Compression string `yaml:"compression"`
}

// Split records the split parameters and outcome.
type Split struct {
	ValFraction     float64 `yaml:"val_fraction"`
	Seed            int64   `yaml:"seed"`
	SingletonPolicy string  `yaml:"singleton_policy"`
	Singletons      []int   `yaml:"singletons,omitempty"`
	Dropped         int     `yaml:"dropped"`
	TrainCount      int     `yaml:"train_count"`
	ValCount        int     `yaml:"val_count"`
}

// Corpus records what was read.
type Corpus struct {
	Files           []string `yaml:"files"`
	Failed          []string `yaml:"failed,omitempty"`
	TotalRecords    int      `yaml:"total_records"`
	MatchedRecords  int      `yaml:"matched_records"`
	SkippedRecords  int      `yaml:"skipped_records"`
	TruncatedBlocks int      `yaml:"truncated_blocks"`
}

// Manifest is the YAML description written next to the shards.
type Manifest struct {
	Version    string       `yaml:"version"`
	ImageShape []int        `yaml:"image_shape"`
	ValueRange [2]float64   `yaml:"value_range,flow"`
	Resampling string       `yaml:"resampling"`
	NumClasses int          `yaml:"num_classes"`
	Shards     Shards       `yaml:"shards"`
	Split      Split        `yaml:"split"`
	Corpus     Corpus       `yaml:"corpus"`
	Classes    []ClassEntry `yaml:"classes"`
	Note       string       `yaml:"note"`
}

// Save writes the manifest to dir atomically.
func Save(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return fsutil.WriteAtomic(filepath.Join(dir, FileName), 0o644, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Load reads the manifest from dir.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

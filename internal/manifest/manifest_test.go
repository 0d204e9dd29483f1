package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{
		Version:    Version,
		ImageShape: []int{64, 64},
		ValueRange: [2]float64{0, 1},
		Resampling: "bilinear",
		NumClasses: 2,
		Shards:     Shards{Train: "train.tfrecord", Val: "val.tfrecord", Compression: "none"},
		Split:      Split{ValFraction: 0.2, Seed: 42, SingletonPolicy: "train", Singletons: []int{1}, TrainCount: 9, ValCount: 2},
		Corpus:     Corpus{Files: []string{"ETL9G_01"}, TotalRecords: 12, MatchedRecords: 11, SkippedRecords: 1},
		Classes: []ClassEntry{
			{ID: 0, Character: "あ", CodePoint: "U+3042", Train: 8, Val: 2},
			{ID: 1, Character: "ア", CodePoint: "U+30A2", Train: 1},
		},
		Note: OrderingNote,
	}
	require.NoError(t, Save(dir, m))

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "num_classes: 2")
	assert.Contains(t, string(raw), "value_range: [0, 1]")

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.True(t, os.IsNotExist(err))
}

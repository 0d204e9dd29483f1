package corpus

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanaset/internal/classifier"
	"kanaset/internal/domain"
	"kanaset/internal/normalizer"
	"kanaset/internal/record"
	"kanaset/internal/registry"
	"kanaset/internal/samplestore/memory"
)

const etl9gOffset = 0x2420

func etlRecord(code uint16) []byte {
	buf := make([]byte, record.ETL9GSize)
	binary.BigEndian.PutUint16(buf, code)
	for i := 0; i < record.ETL9G().RasterBytes(); i++ {
		buf[record.ETL9GRasterOffset+i] = 0xFF
	}
	return buf
}

func writeCorpusFile(t *testing.T, dir, name string, codes []uint16, trailing int) string {
	t.Helper()
	var data []byte
	for _, c := range codes {
		data = append(data, etlRecord(c)...)
	}
	data = append(data, make([]byte, trailing)...)
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func newTestScanner(t *testing.T, opts Options) (*Scanner, *registry.Registry, *memory.Storage) {
	t.Helper()
	dec, err := record.NewDecoder(record.ETL9G())
	require.NoError(t, err)
	norm, err := normalizer.New("bilinear", 64, 64)
	require.NoError(t, err)
	store := memory.NewStorage()
	require.NoError(t, store.Init([]int{64, 64}))
	opts.CodeOffset = etl9gOffset
	return NewScanner(dec, classifier.NewKanaClassifier(), norm, opts), registry.New(), store
}

func TestScan_ThreeRecords(t *testing.T) {
	dir := t.TempDir()
	p := writeCorpusFile(t, dir, "ETL9G_01", []uint16{0x0001, 0x0001, 0x0100}, 0)

	sc, reg, store := newTestScanner(t, Options{})
	res, err := sc.Scan([]string{p}, reg, store)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []int{2}, res.ClassCounts)
	require.Equal(t, 1, reg.Size())
	ch, ok := reg.CharacterOf(0)
	require.True(t, ok)
	assert.Equal(t, 'ぁ', ch)

	samples := store.Snapshot()
	require.Len(t, samples, 2)
	for _, s := range samples {
		assert.Equal(t, 0, s.Label)
		assert.Equal(t, []int{64, 64}, s.Image.Shape)
		for _, v := range s.Image.Data {
			require.InDelta(t, 0.0, v, 1e-6)
		}
	}
}

func TestScan_TrailingBlockDiscarded(t *testing.T) {
	dir := t.TempDir()
	p := writeCorpusFile(t, dir, "ETL9G_01", []uint16{0x0002, 0x0102}, 50)

	sc, reg, store := newTestScanner(t, Options{})
	res, err := sc.Scan([]string{p}, reg, store)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 1, res.Truncated)
	require.Len(t, res.Files, 1)
	assert.Equal(t, 1, res.Files[0].Truncated)

	// 0x0002 -> あ, 0x0102 -> ア
	assert.Equal(t, []rune{'あ', 'ア'}, reg.Characters())
	assert.Equal(t, 2, store.Len())
}

func TestScan_IdsFollowFileOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeCorpusFile(t, dir, "ETL9G_01", []uint16{0x0003}, 0)
	b := writeCorpusFile(t, dir, "ETL9G_02", []uint16{0x0001, 0x0003}, 0)

	sc, reg, store := newTestScanner(t, Options{})
	_, err := sc.Scan([]string{a, b}, reg, store)
	require.NoError(t, err)
	assert.Equal(t, []rune{'ぃ', 'ぁ'}, reg.Characters())

	sc, reg, store = newTestScanner(t, Options{})
	_, err = sc.Scan([]string{b, a}, reg, store)
	require.NoError(t, err)
	assert.Equal(t, []rune{'ぁ', 'ぃ'}, reg.Characters())
}

func TestScan_FileError(t *testing.T) {
	dir := t.TempDir()
	good := writeCorpusFile(t, dir, "ETL9G_01", []uint16{0x0001}, 0)
	missing := filepath.Join(dir, "ETL9G_02")
	later := writeCorpusFile(t, dir, "ETL9G_03", []uint16{0x0101}, 0)

	sc, reg, store := newTestScanner(t, Options{})
	res, err := sc.Scan([]string{good, missing, later}, reg, store)
	require.NoError(t, err)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, missing, res.Failed[0].Path)
	assert.True(t, errors.Is(&res.Failed[0], os.ErrNotExist))
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []rune{'ぁ', 'ァ'}, reg.Characters())
	require.Len(t, res.Files, 2)

	sc, reg, store = newTestScanner(t, Options{StopOnFileError: true})
	res, err = sc.Scan([]string{good, missing, later}, reg, store)
	var fe *domain.FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, missing, fe.Path)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, reg.Size())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device error") }

func TestScan_FailedFileLeavesNoTrace(t *testing.T) {
	dir := t.TempDir()
	first := writeCorpusFile(t, dir, "ETL9G_01", []uint16{0x0001}, 0)
	broken := filepath.Join(dir, "ETL9G_02")
	last := writeCorpusFile(t, dir, "ETL9G_03", []uint16{0x0003}, 0)

	// the broken file yields two good records, one with a new character,
	// then fails mid-read
	partial := append(etlRecord(0x0001), etlRecord(0x0002)...)
	sc, reg, store := newTestScanner(t, Options{
		Open: func(path string) (io.ReadCloser, error) {
			if path == broken {
				return io.NopCloser(io.MultiReader(bytes.NewReader(partial), failingReader{})), nil
			}
			return os.Open(path)
		},
	})
	res, err := sc.Scan([]string{first, broken, last}, reg, store)
	require.NoError(t, err)

	require.Len(t, res.Failed, 1)
	assert.Equal(t, broken, res.Failed[0].Path)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, []int{1, 1}, res.ClassCounts)
	// あ from the broken file never got an id
	assert.Equal(t, []rune{'ぁ', 'ぃ'}, reg.Characters())
	assert.Equal(t, 2, store.Len())
	var names []string
	for _, f := range res.Files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"ETL9G_01", "ETL9G_03"}, names)
}

// quadrantRecord has ink (0) only where x < 64 and y < 63, white elsewhere.
func quadrantRecord(code uint16) []byte {
	buf := make([]byte, record.ETL9GSize)
	binary.BigEndian.PutUint16(buf, code)
	raster := buf[record.ETL9GRasterOffset:]
	for y := 0; y < record.ETL9GHeight; y++ {
		for x := 0; x < record.ETL9GWidth; x++ {
			if x < 64 && y < 63 {
				continue
			}
			i := y*record.ETL9GWidth + x
			if i%2 == 0 {
				raster[i/2] |= 0xF0
			} else {
				raster[i/2] |= 0x0F
			}
		}
	}
	return buf
}

func TestScan_AsymmetricRaster(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ETL9G_01")
	require.NoError(t, os.WriteFile(p, quadrantRecord(0x0002), 0o644))

	sc, reg, store := newTestScanner(t, Options{})
	_, err := sc.Scan([]string{p}, reg, store)
	require.NoError(t, err)
	samples := store.Snapshot()
	require.Len(t, samples, 1)

	img := samples[0].Image
	require.Equal(t, []int{64, 64}, img.Shape)
	at := func(row, col int) float32 { return img.Data[row*64+col] }
	assert.InDelta(t, 1.0, at(0, 0), 1e-3)
	assert.InDelta(t, 1.0, at(20, 20), 1e-3)
	assert.InDelta(t, 0.0, at(0, 63), 1e-3)
	assert.InDelta(t, 0.0, at(63, 0), 1e-3)
	assert.InDelta(t, 0.0, at(63, 63), 1e-3)
	assert.InDelta(t, 0.0, at(45, 45), 1e-3)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"ETL9G_10", "ETL9G_02", "README", "ETL9G_33"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ETL9G_dir"), 0o755))

	paths, err := Discover(dir, "ETL9G_")
	require.NoError(t, err)
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"ETL9G_02", "ETL9G_10", "ETL9G_33"}, names)

	missing := MissingETL9G(paths)
	assert.Len(t, missing, 17)
	assert.NotContains(t, missing, "ETL9G_33")
	assert.Contains(t, missing, "ETL9G_50")
}

func TestDiscover_Missing(t *testing.T) {
	empty := t.TempDir()
	_, err := Discover(empty, "ETL9G_")
	require.ErrorIs(t, err, domain.ErrMissingCorpus)

	_, err = Discover(filepath.Join(empty, "nope"), "")
	require.ErrorIs(t, err, domain.ErrMissingCorpus)

	require.NoError(t, os.WriteFile(filepath.Join(empty, "other"), nil, 0o644))
	_, err = Discover(empty, "ETL9G_")
	var mce *domain.MissingCorpusError
	require.ErrorAs(t, err, &mce)
	assert.Contains(t, mce.Reason, "ETL9G_*")
}

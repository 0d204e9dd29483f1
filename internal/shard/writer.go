package shard

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"kanaset/internal/domain"
	"kanaset/internal/fsutil"
)

// Compression selects how shard files are encoded on disk.
type Compression string

const (
	None Compression = "none"
	Zstd Compression = "zstd"
)

// ParseCompression maps a config value to a Compression; empty means None.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case "", None:
		return None, nil
	case Zstd:
		return Zstd, nil
	}
	return "", fmt.Errorf("unknown shard compression: %s", s)
}

// Writer writes partitions as TFRecord-framed files.
type Writer struct {
	compression Compression
}

func NewWriter(c Compression) *Writer {
	if c == "" {
		c = None
	}
	return &Writer{compression: c}
}

// Path returns the on-disk name for base under the writer's compression.
func (w *Writer) Path(base string) string {
	if w.compression == Zstd {
		return base + ".zst"
	}
	return base
}

// WriteShard writes samples to Path(base) atomically and returns that path.
func (w *Writer) WriteShard(base string, samples []domain.Sample) (string, error) {
	dest := w.Path(base)
	err := fsutil.WriteAtomic(dest, 0o644, func(out io.Writer) error {
		if w.compression != Zstd {
			return writeSamples(out, samples)
		}
		enc, err := zstd.NewWriter(out)
		if err != nil {
			return err
		}
		if err := writeSamples(enc, samples); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return "", fmt.Errorf("write shard %s: %w", dest, err)
	}
	return dest, nil
}

func writeSamples(w io.Writer, samples []domain.Sample) error {
	for i, s := range samples {
		payload, err := EncodeSample(s)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		if err := writeFrame(w, payload); err != nil {
			return err
		}
	}
	return nil
}

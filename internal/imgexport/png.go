package imgexport

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"kanaset/internal/domain"
	"kanaset/internal/fsutil"
)

// Exporter writes samples as grayscale PNGs under root/<character>/<n>.png.
// n is a per-class running counter kept by the exporter.
type Exporter struct {
	root     string
	lookup   func(id int) (rune, bool)
	counters map[int]int
}

func New(root string, lookup func(id int) (rune, bool)) *Exporter {
	return &Exporter{root: root, lookup: lookup, counters: make(map[int]int)}
}

// Export writes one sample and returns the path it was written to.
func (e *Exporter) Export(s domain.Sample) (string, error) {
	ch, ok := e.lookup(s.Label)
	if !ok {
		return "", fmt.Errorf("label %d has no character", s.Label)
	}
	img, err := toGray(s.Image)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(e.root, string(ch))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	n := e.counters[s.Label]
	path := filepath.Join(dir, strconv.Itoa(n)+".png")
	if err := fsutil.WriteAtomic(path, 0o644, func(w io.Writer) error { return png.Encode(w, img) }); err != nil {
		return "", err
	}
	e.counters[s.Label] = n + 1
	return path, nil
}

// Count returns how many images were exported for a class.
func (e *Exporter) Count(id int) int { return e.counters[id] }

func toGray(t domain.Tensor) (*image.Gray, error) {
	if len(t.Shape) != 2 || t.NumElements() != len(t.Data) {
		return nil, fmt.Errorf("expected a 2-d tensor, got shape %v", t.Shape)
	}
	h, w := t.Shape[0], t.Shape[1]
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range t.Data {
		img.Pix[i] = uint8(math.Round(clamp01(v) * 255))
	}
	return img, nil
}

func clamp01(v float32) float64 {
	return math.Max(0, math.Min(1, float64(v)))
}

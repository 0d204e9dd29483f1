package normalizer

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"kanaset/internal/domain"
)

// Resampler scales a gray raster to a fixed shape, inverts it so ink is
// high, and maps it onto [0,1]. The output is a [height, width] tensor.
type Resampler struct {
	name   string
	kernel draw.Interpolator
	width  int
	height int
}

// New returns a resampler for the named kernel: "bilinear" (default),
// "catmullrom" or "nearest".
func New(kind string, width, height int) (*Resampler, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	var k draw.Interpolator
	switch kind {
	case "bilinear", "":
		kind = "bilinear"
		k = draw.BiLinear
	case "catmullrom":
		k = draw.CatmullRom
	case "nearest":
		k = draw.NearestNeighbor
	default:
		return nil, fmt.Errorf("unknown resampling kernel: %s", kind)
	}
	return &Resampler{name: kind, kernel: k, width: width, height: height}, nil
}

func (r *Resampler) Name() string { return r.name }

func (r *Resampler) Shape() (int, int) { return r.height, r.width }

// Normalize resizes, inverts (255-v) and scales by 1/255, in that order.
func (r *Resampler) Normalize(raster []byte, width, height int) (domain.Tensor, error) {
	if width <= 0 || height <= 0 || len(raster) != width*height {
		return domain.Tensor{}, fmt.Errorf("raster of %d bytes does not match %dx%d", len(raster), width, height)
	}
	src := &image.Gray{Pix: raster, Stride: width, Rect: image.Rect(0, 0, width, height)}
	dst := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	r.kernel.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	data := make([]float32, r.width*r.height)
	for y := 0; y < r.height; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < r.width; x++ {
			v := 255 - row[x*4]
			data[y*r.width+x] = float32(v) / 255
		}
	}
	return domain.Tensor{Shape: []int{r.height, r.width}, Data: data}, nil
}

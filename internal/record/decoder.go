package record

import (
	"encoding/binary"
	"fmt"

	"kanaset/internal/domain"
)

// ETL9G record layout. The raster is 4-bit gray, two pixels per byte,
// high nibble first.
const (
	ETL9GSize         = 8199
	ETL9GRasterOffset = 2
	ETL9GWidth        = 128
	ETL9GHeight       = 127
	ETL9GDepth        = 4
)

// Layout describes the fixed record format.
type Layout struct {
	Size         int
	RasterOffset int
	Width        int
	Height       int
	// Depth is bits per pixel: 8 (one byte each) or 4 (packed pairs).
	Depth int
}

// ETL9G returns the layout of the reference corpus.
func ETL9G() Layout {
	return Layout{
		Size:         ETL9GSize,
		RasterOffset: ETL9GRasterOffset,
		Width:        ETL9GWidth,
		Height:       ETL9GHeight,
		Depth:        ETL9GDepth,
	}
}

// RasterBytes is the number of payload bytes the raster occupies.
func (l Layout) RasterBytes() int {
	n := l.Width * l.Height
	if l.Depth == 4 {
		return (n + 1) / 2
	}
	return n
}

// Validate checks that the raster fits inside the record after the code field.
func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("invalid raster size %dx%d", l.Width, l.Height)
	}
	if l.Depth != 4 && l.Depth != 8 {
		return fmt.Errorf("unsupported raster depth %d", l.Depth)
	}
	if l.RasterOffset < 2 {
		return fmt.Errorf("raster offset %d overlaps the code field", l.RasterOffset)
	}
	if need := l.RasterOffset + l.RasterBytes(); l.Size < need {
		return fmt.Errorf("record size %d too small for raster, need %d", l.Size, need)
	}
	return nil
}

// Decoder parses fixed-size records.
type Decoder struct {
	layout Layout
}

func NewDecoder(layout Layout) (*Decoder, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{layout: layout}, nil
}

func (d *Decoder) Layout() Layout { return d.layout }

// Decode extracts the code and the raster from buf. The returned raster is
// an owned copy with one byte per pixel in 0..255, whatever the depth.
func (d *Decoder) Decode(buf []byte) (domain.Record, error) {
	if len(buf) != d.layout.Size {
		return domain.Record{}, &domain.MalformedRecordError{Got: len(buf), Want: d.layout.Size}
	}
	payload := buf[d.layout.RasterOffset : d.layout.RasterOffset+d.layout.RasterBytes()]
	n := d.layout.Width * d.layout.Height
	raster := make([]byte, n)
	if d.layout.Depth == 8 {
		copy(raster, payload)
	} else {
		for i := range raster {
			b := payload[i/2]
			if i%2 == 0 {
				b >>= 4
			}
			raster[i] = (b & 0x0F) * 17
		}
	}
	return domain.Record{
		Code:   binary.BigEndian.Uint16(buf[0:2]),
		Width:  d.layout.Width,
		Height: d.layout.Height,
		Raster: raster,
	}, nil
}

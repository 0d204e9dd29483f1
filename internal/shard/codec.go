package shard

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"kanaset/internal/domain"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// maskedCRC is the TFRecord checksum: CRC32-C rotated right by 15 plus a constant.
func maskedCRC(b []byte) uint32 {
	c := crc32.Checksum(b, castagnoli)
	return ((c >> 15) | (c << 17)) + 0xa282ead8
}

// maxRank bounds the tensor rank accepted by the decoder.
const maxRank = 8

// EncodeSample serializes a sample as
// int64 label | uint32 rank | rank x uint32 dims | float32 values, all little endian.
func EncodeSample(s domain.Sample) ([]byte, error) {
	n := s.Image.NumElements()
	if n != len(s.Image.Data) {
		return nil, fmt.Errorf("tensor shape %v does not hold %d values", s.Image.Shape, len(s.Image.Data))
	}
	if len(s.Image.Shape) > maxRank {
		return nil, fmt.Errorf("tensor rank %d exceeds %d", len(s.Image.Shape), maxRank)
	}
	buf := make([]byte, 0, 12+4*len(s.Image.Shape)+4*n)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(s.Label)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.Image.Shape)))
	for _, d := range s.Image.Shape {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(d))
	}
	for _, v := range s.Image.Data {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf, nil
}

// DecodeSample is the inverse of EncodeSample.
func DecodeSample(b []byte) (domain.Sample, error) {
	if len(b) < 12 {
		return domain.Sample{}, fmt.Errorf("%w: payload of %d bytes", domain.ErrCorruptShard, len(b))
	}
	label := int64(binary.LittleEndian.Uint64(b))
	rank := int(binary.LittleEndian.Uint32(b[8:]))
	if rank > maxRank || len(b) < 12+4*rank {
		return domain.Sample{}, fmt.Errorf("%w: bad rank %d", domain.ErrCorruptShard, rank)
	}
	shape := make([]int, rank)
	off := 12
	for i := range shape {
		shape[i] = int(binary.LittleEndian.Uint32(b[off:]))
		off += 4
	}
	t := domain.Tensor{Shape: shape}
	n := t.NumElements()
	if len(b)-off != 4*n {
		return domain.Sample{}, fmt.Errorf("%w: shape %v with %d value bytes", domain.ErrCorruptShard, shape, len(b)-off)
	}
	t.Data = make([]float32, n)
	for i := range t.Data {
		t.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
		off += 4
	}
	return domain.Sample{Image: t, Label: int(label)}, nil
}

// writeFrame writes one TFRecord frame around payload.
func writeFrame(w io.Writer, payload []byte) error {
	var hdr [12]byte
	binary.LittleEndian.PutUint64(hdr[:8], uint64(len(payload)))
	binary.LittleEndian.PutUint32(hdr[8:], maskedCRC(hdr[:8]))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	var ftr [4]byte
	binary.LittleEndian.PutUint32(ftr[:], maskedCRC(payload))
	_, err := w.Write(ftr[:])
	return err
}

// maxFrame caps a single payload so a corrupt length cannot force a huge allocation.
const maxFrame = 1 << 28

// readFrame reads one frame. It returns io.EOF only on a clean frame boundary.
func readFrame(r io.Reader) ([]byte, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: truncated header", domain.ErrCorruptShard)
		}
		return nil, err
	}
	if maskedCRC(hdr[:8]) != binary.LittleEndian.Uint32(hdr[8:]) {
		return nil, fmt.Errorf("%w: length checksum mismatch", domain.ErrCorruptShard)
	}
	n := binary.LittleEndian.Uint64(hdr[:8])
	if n > maxFrame {
		return nil, fmt.Errorf("%w: frame of %d bytes", domain.ErrCorruptShard, n)
	}
	buf := make([]byte, n+4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: truncated frame", domain.ErrCorruptShard)
	}
	payload := buf[:n]
	if maskedCRC(payload) != binary.LittleEndian.Uint32(buf[n:]) {
		return nil, fmt.Errorf("%w: payload checksum mismatch", domain.ErrCorruptShard)
	}
	return payload, nil
}

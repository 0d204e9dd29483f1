package shard

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"kanaset/internal/domain"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Reader iterates the samples of a shard, plain or zstd-compressed.
type Reader struct {
	f   *os.File
	dec *zstd.Decoder
	r   io.Reader
	err error
	cur domain.Sample
}

// Open opens a shard file, detecting zstd compression from its magic bytes.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	rd := &Reader{f: f, r: br}
	if head, _ := br.Peek(len(zstdMagic)); bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, err
		}
		rd.dec = dec
		rd.r = dec
	}
	return rd, nil
}

// Next advances to the next sample. It returns false at the end of the
// shard or on error; check Err afterwards.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	payload, err := readFrame(r.r)
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}
	s, err := DecodeSample(payload)
	if err != nil {
		r.err = err
		return false
	}
	r.cur = s
	return true
}

func (r *Reader) Sample() domain.Sample { return r.cur }

func (r *Reader) Err() error { return r.err }

func (r *Reader) Close() error {
	if r.dec != nil {
		r.dec.Close()
	}
	return r.f.Close()
}

// ReadAll loads every sample of the shard at path.
func ReadAll(path string) ([]domain.Sample, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var out []domain.Sample
	for r.Next() {
		out = append(out, r.Sample())
	}
	return out, r.Err()
}

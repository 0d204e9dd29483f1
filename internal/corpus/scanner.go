package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"kanaset/internal/domain"
	"kanaset/internal/record"
	"kanaset/internal/samplestore"
)

// Options configures a Scanner.
type Options struct {
	// CodeOffset is added to each raw code before classification.
	CodeOffset uint32
	// StopOnFileError makes Scan return at the first failing file. By
	// default the failing file is dropped and scanning continues.
	StopOnFileError bool
	// Open opens a source file. Defaults to os.Open.
	Open   func(path string) (io.ReadCloser, error)
	Logger *log.Logger
}

// Scanner walks source files record by record and accumulates samples.
// Files and records are processed strictly in order, so ids handed out by
// the registry are reproducible for a fixed file list. A file contributes
// ids and samples only once it has been read to the end.
type Scanner struct {
	decoder    *record.Decoder
	classifier domain.Classifier
	normalizer domain.Normalizer
	opts       Options
	log        *log.Logger
}

func NewScanner(decoder *record.Decoder, classifier domain.Classifier, normalizer domain.Normalizer, opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.Open == nil {
		opts.Open = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}
	return &Scanner{decoder: decoder, classifier: classifier, normalizer: normalizer, opts: opts, log: logger}
}

type pending struct {
	ch   rune
	code uint32
	img  domain.Tensor
}

// fileScan is everything read from one file, held back until the file
// completes.
type fileScan struct {
	stats   domain.FileStats
	skipped int
	samples []pending
}

// Scan processes paths in the given order. A file whose read fails is
// recorded in the result's Failed list and leaves the registry and store
// untouched; with StopOnFileError the *domain.FileError is also returned.
func (s *Scanner) Scan(paths []string, reg domain.Registry, store samplestore.Storage) (domain.ScanResult, error) {
	var res domain.ScanResult
	for _, p := range paths {
		fs, err := s.scanFile(p)
		if err != nil {
			var fe *domain.FileError
			if !errors.As(err, &fe) {
				return res, err
			}
			s.log.Printf("file %s failed after %d records, discarding it: %v", fs.stats.Name, fs.stats.Records, fe.Err)
			res.Failed = append(res.Failed, *fe)
			if s.opts.StopOnFileError {
				return res, err
			}
			continue
		}
		if err := s.commit(fs, reg, store, &res); err != nil {
			return res, err
		}
		s.log.Printf("processed %d records from %s (%d matched)", fs.stats.Records, fs.stats.Name, fs.stats.Matched)
	}
	return res, nil
}

// commit assigns ids in record order and appends the file's samples.
func (s *Scanner) commit(fs *fileScan, reg domain.Registry, store samplestore.Storage, res *domain.ScanResult) error {
	samples := make([]domain.Sample, len(fs.samples))
	for i, p := range fs.samples {
		next := reg.Size()
		id := reg.Assign(p.ch)
		if id == next {
			s.log.Printf("new class %d: %c (code %#04x)", id, p.ch, p.code)
		}
		samples[i] = domain.Sample{Image: p.img, Label: id}
		for len(res.ClassCounts) <= id {
			res.ClassCounts = append(res.ClassCounts, 0)
		}
		res.ClassCounts[id]++
	}
	if err := store.Append(samples...); err != nil {
		return fmt.Errorf("%s: %w", fs.stats.Name, err)
	}
	fs.stats.Matched = len(samples)
	res.Files = append(res.Files, fs.stats)
	res.Total += fs.stats.Records
	res.Matched += fs.stats.Matched
	res.Skipped += fs.skipped
	res.Truncated += fs.stats.Truncated
	return nil
}

func (s *Scanner) scanFile(path string) (*fileScan, error) {
	fs := &fileScan{stats: domain.FileStats{Name: filepath.Base(path)}}
	f, err := s.opts.Open(path)
	if err != nil {
		return fs, &domain.FileError{Path: path, Err: err}
	}
	defer f.Close()

	size := s.decoder.Layout().Size
	r := bufio.NewReaderSize(f, size*8)
	buf := make([]byte, size)
	for {
		n, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return fs, nil
		}
		if err == io.ErrUnexpectedEOF {
			// trailing partial block: not a record
			mre := &domain.MalformedRecordError{Got: n, Want: size}
			s.log.Printf("%s: discarding trailing block: %v", fs.stats.Name, mre)
			fs.stats.Truncated++
			return fs, nil
		}
		if err != nil {
			return fs, &domain.FileError{Path: path, Err: err}
		}

		rec, err := s.decoder.Decode(buf)
		if err != nil {
			return fs, err
		}
		fs.stats.Records++

		code := uint32(rec.Code) + s.opts.CodeOffset
		ch, ok := s.classifier.Classify(code)
		if !ok {
			fs.skipped++
			continue
		}
		img, err := s.normalizer.Normalize(rec.Raster, rec.Width, rec.Height)
		if err != nil {
			return fs, fmt.Errorf("%s record %d: %w", fs.stats.Name, fs.stats.Records, err)
		}
		fs.samples = append(fs.samples, pending{ch: ch, code: code, img: img})
	}
}

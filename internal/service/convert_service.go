package service

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"kanaset/internal/charmap"
	"kanaset/internal/corpus"
	"kanaset/internal/domain"
	"kanaset/internal/imgexport"
	"kanaset/internal/manifest"
	"kanaset/internal/registry"
	"kanaset/internal/samplestore"
	"kanaset/internal/samplestore/memory"
)

const (
	TrainShard = "train.tfrecord"
	ValShard   = "val.tfrecord"
	ImagesDir  = "images"
)

// Options carries the settings the service records or acts on directly.
type Options struct {
	FilePrefix      string
	Compression     string
	ValFraction     float64
	Seed            int64
	SingletonPolicy string
	ExportImages    bool
	Logger          *log.Logger
}

type ConvertServiceImpl struct {
	scanner    *corpus.Scanner
	normalizer domain.Normalizer
	splitter   domain.Splitter
	writer     domain.SampleWriter
	opts       Options
	log        *log.Logger
	newStore   func() samplestore.Storage
}

var _ domain.ConvertService = (*ConvertServiceImpl)(nil)

func NewConvertService(scanner *corpus.Scanner, normalizer domain.Normalizer, splitter domain.Splitter, writer domain.SampleWriter, opts Options) *ConvertServiceImpl {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &ConvertServiceImpl{
		scanner:    scanner,
		normalizer: normalizer,
		splitter:   splitter,
		writer:     writer,
		opts:       opts,
		log:        logger,
		newStore:   func() samplestore.Storage { return memory.NewStorage() },
	}
}

// Convert scans inputDir and writes the character map, both shards and the
// manifest into outputDir. Nothing is written when the corpus is missing or
// the split is rejected. Source files that fail to read are left out and
// listed in the report and manifest. With no matching records only the
// (empty) character map is written and the error is domain.ErrEmptyResult.
func (s *ConvertServiceImpl) Convert(inputDir, outputDir string) (*domain.Report, error) {
	paths, err := corpus.Discover(inputDir, s.opts.FilePrefix)
	if err != nil {
		return nil, err
	}
	s.log.Printf("found %d source files in %s", len(paths), inputDir)
	if s.opts.FilePrefix == "ETL9G_" {
		if missing := corpus.MissingETL9G(paths); len(missing) > 0 {
			s.log.Printf("expected kana files not present: %v", missing)
		}
	}

	h, w := s.normalizer.Shape()
	store := s.newStore()
	if err := store.Init([]int{h, w}); err != nil {
		return nil, err
	}
	defer store.Clear()

	reg := registry.New()
	res, err := s.scanner.Scan(paths, reg, store)
	report := &domain.Report{Scan: res, NumClasses: reg.Size()}
	if err != nil {
		return report, err
	}
	s.log.Printf("total records: %d, matched: %d, skipped: %d, truncated blocks: %d",
		res.Total, res.Matched, res.Skipped, res.Truncated)
	if len(res.Failed) > 0 {
		s.log.Printf("%d of %d source files failed and were left out", len(res.Failed), len(paths))
	}

	if res.Matched == 0 {
		if err := s.saveCharmap(outputDir, reg, report); err != nil {
			return report, err
		}
		return report, domain.ErrEmptyResult
	}

	split, err := s.splitter.Split(store.Snapshot())
	if err != nil {
		return report, err
	}
	report.TrainCount, report.ValCount = len(split.Train), len(split.Val)
	report.Singletons, report.Dropped = split.Singletons, split.Dropped
	if len(split.Singletons) > 0 {
		s.log.Printf("%d classes have a single sample (policy %q, %d dropped): %v",
			len(split.Singletons), s.opts.SingletonPolicy, split.Dropped, split.Singletons)
	}

	if err := s.saveCharmap(outputDir, reg, report); err != nil {
		return report, err
	}
	trainPath, err := s.writer.WriteShard(filepath.Join(outputDir, TrainShard), split.Train)
	if err != nil {
		return report, err
	}
	valPath, err := s.writer.WriteShard(filepath.Join(outputDir, ValShard), split.Val)
	if err != nil {
		return report, err
	}
	report.Written = append(report.Written, filepath.Base(trainPath), filepath.Base(valPath))

	if s.opts.ExportImages {
		exp := imgexport.New(filepath.Join(outputDir, ImagesDir), reg.CharacterOf)
		for _, smp := range store.Snapshot() {
			if _, err := exp.Export(smp); err != nil {
				return report, fmt.Errorf("export image: %w", err)
			}
		}
		total, dirs := 0, 0
		for id := 0; id < reg.Size(); id++ {
			if n := exp.Count(id); n > 0 {
				total += n
				dirs++
			}
		}
		s.log.Printf("exported %d images into %d class directories", total, dirs)
		report.Written = append(report.Written, ImagesDir)
	}

	m := s.buildManifest(paths, reg, split, report, filepath.Base(trainPath), filepath.Base(valPath))
	if err := manifest.Save(outputDir, m); err != nil {
		return report, err
	}
	report.Written = append(report.Written, manifest.FileName)
	s.log.Printf("wrote %d training and %d validation samples across %d classes", report.TrainCount, report.ValCount, report.NumClasses)
	return report, nil
}

func (s *ConvertServiceImpl) saveCharmap(outputDir string, reg *registry.Registry, report *domain.Report) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	if err := charmap.Save(outputDir, &charmap.Map{Chars: reg.Characters()}); err != nil {
		return err
	}
	report.Written = append(report.Written, charmap.ForwardFile, charmap.ReverseFile)
	return nil
}

func (s *ConvertServiceImpl) buildManifest(paths []string, reg *registry.Registry, split domain.Split, report *domain.Report, train, val string) *manifest.Manifest {
	h, w := s.normalizer.Shape()
	trainCounts := countLabels(split.Train, reg.Size())
	valCounts := countLabels(split.Val, reg.Size())
	classes := make([]manifest.ClassEntry, reg.Size())
	for id, ch := range reg.Characters() {
		classes[id] = manifest.ClassEntry{
			ID:        id,
			Character: string(ch),
			CodePoint: fmt.Sprintf("U+%04X", ch),
			Train:     trainCounts[id],
			Val:       valCounts[id],
		}
	}
	files := make([]string, len(paths))
	for i, p := range paths {
		files[i] = filepath.Base(p)
	}
	var failed []string
	for _, f := range report.Scan.Failed {
		failed = append(failed, filepath.Base(f.Path))
	}
	return &manifest.Manifest{
		Version:    manifest.Version,
		ImageShape: []int{h, w},
		ValueRange: [2]float64{0, 1},
		Resampling: s.normalizer.Name(),
		NumClasses: reg.Size(),
		Shards:     manifest.Shards{Train: train, Val: val, Compression: s.opts.Compression},
		Split: manifest.Split{
			ValFraction:     s.opts.ValFraction,
			Seed:            s.opts.Seed,
			SingletonPolicy: s.opts.SingletonPolicy,
			Singletons:      split.Singletons,
			Dropped:         split.Dropped,
			TrainCount:      len(split.Train),
			ValCount:        len(split.Val),
		},
		Corpus: manifest.Corpus{
			Files:           files,
			Failed:          failed,
			TotalRecords:    report.Scan.Total,
			MatchedRecords:  report.Scan.Matched,
			SkippedRecords:  report.Scan.Skipped,
			TruncatedBlocks: report.Scan.Truncated,
		},
		Classes: classes,
		Note:    manifest.OrderingNote,
	}
}

func countLabels(samples []domain.Sample, n int) []int {
	out := make([]int, n)
	for _, s := range samples {
		if s.Label >= 0 && s.Label < n {
			out[s.Label]++
		}
	}
	return out
}

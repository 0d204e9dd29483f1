package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"kanaset/internal/classifier"
	"kanaset/internal/config"
	"kanaset/internal/corpus"
	"kanaset/internal/domain"
	"kanaset/internal/normalizer"
	"kanaset/internal/record"
	"kanaset/internal/service"
	"kanaset/internal/shard"
	"kanaset/internal/splitter"
)

const (
	exitOK = iota
	exitUsage
	exitMissingCorpus
	exitEmptyResult
	exitFailure
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/kanaset/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var loadedFrom string
	var err error
	if cfgPath == "" {
		cfg, loadedFrom, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Printf("failed to load config: %v", err)
		os.Exit(exitUsage)
	}
	config.ApplyEnv(cfg)
	if args := flag.Args(); len(args) > 0 {
		cfg.Corpus.Dir = args[0]
		if len(args) > 1 {
			cfg.Output.Dir = args[1]
		}
	}
	if cfg.Corpus.Dir == "" || cfg.Output.Dir == "" {
		fmt.Println("Usage: kanaset [--config=config.yaml] <input_dir> <output_dir>")
		os.Exit(exitUsage)
	}

	logger := log.New(os.Stderr, "kanaset: ", log.LstdFlags)
	svc, err := build(cfg, logger)
	if err != nil {
		logger.Printf("invalid configuration: %v", err)
		os.Exit(exitUsage)
	}
	rep, err := svc.Convert(cfg.Corpus.Dir, cfg.Output.Dir)
	if err != nil {
		logger.Printf("conversion failed: %v", err)
		os.Exit(exitCode(err))
	}
	logger.Printf("done: %d classes, %d train, %d val, files %v", rep.NumClasses, rep.TrainCount, rep.ValCount, rep.Written)

	// first successful run without any config file leaves one behind
	if cfgPath == "" && loadedFrom == "" {
		if path, err := config.SaveUserDefaults(); err != nil {
			logger.Printf("could not save default config: %v", err)
		} else {
			logger.Printf("default config at %s", path)
		}
	}
}

// build assembles the pipeline from the configuration.
func build(cfg *config.AppConfig, logger *log.Logger) (*service.ConvertServiceImpl, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dec, err := record.NewDecoder(record.Layout{
		Size:         cfg.Corpus.RecordSize,
		RasterOffset: cfg.Corpus.RasterOffset,
		Width:        cfg.Corpus.RasterWidth,
		Height:       cfg.Corpus.RasterHeight,
		Depth:        cfg.Corpus.RasterDepth,
	})
	if err != nil {
		return nil, err
	}

	ranges := make([]classifier.Range, len(cfg.Charset.Ranges))
	for i, r := range cfg.Charset.Ranges {
		ranges[i] = classifier.Range{Lo: r.Lo, Hi: r.Hi, Base: rune(r.Base)}
	}
	cls, err := classifier.NewRangeClassifier(ranges...)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		for _, r := range cls.Ranges() {
			logger.Printf("charset codes %#04x-%#04x -> %U-%U", r.Lo, r.Hi, r.Base, r.Base+rune(r.Hi-r.Lo))
		}
	}

	norm, err := normalizer.New(cfg.Normalizer.Type, cfg.Normalizer.Width, cfg.Normalizer.Height)
	if err != nil {
		return nil, err
	}

	var sp domain.Splitter
	switch cfg.Splitter.Type {
	case "stratified", "":
		policy, err := splitter.ParsePolicy(cfg.Splitter.SingletonPolicy)
		if err != nil {
			return nil, err
		}
		sp, err = splitter.NewStratified(cfg.Splitter.ValFraction, cfg.Splitter.Seed, policy)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown splitter: %s", cfg.Splitter.Type)
	}

	comp, err := shard.ParseCompression(cfg.Output.Compression)
	if err != nil {
		return nil, err
	}

	sc := corpus.NewScanner(dec, cls, norm, corpus.Options{
		CodeOffset:      cfg.Corpus.CodeOffset,
		StopOnFileError: cfg.Corpus.StopOnFileError,
		Logger:          logger,
	})
	return service.NewConvertService(sc, norm, sp, shard.NewWriter(comp), service.Options{
		FilePrefix:      cfg.Corpus.FilePrefix,
		Compression:     string(comp),
		ValFraction:     cfg.Splitter.ValFraction,
		Seed:            cfg.Splitter.Seed,
		SingletonPolicy: cfg.Splitter.SingletonPolicy,
		ExportImages:    cfg.Output.ExportImages,
		Logger:          logger,
	}), nil
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrMissingCorpus):
		return exitMissingCorpus
	case errors.Is(err, domain.ErrEmptyResult):
		return exitEmptyResult
	default:
		return exitFailure
	}
}

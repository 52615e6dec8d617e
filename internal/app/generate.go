package app

import (
	"fmt"
	"io"
	"time"

	"github.com/tturner/ocppfuzz/internal/config"
	"github.com/tturner/ocppfuzz/internal/corpus"
	ocppErrors "github.com/tturner/ocppfuzz/internal/errors"
	"github.com/tturner/ocppfuzz/internal/mutate"
	"github.com/tturner/ocppfuzz/internal/ocpp"
	"github.com/tturner/ocppfuzz/internal/progress"
	"github.com/tturner/ocppfuzz/internal/report"
	"github.com/tturner/ocppfuzz/internal/seeds"
)

// GenerateOptions are the generate command inputs. Nil pointers keep the
// configured value.
type GenerateOptions struct {
	ConfigPath  string
	Dir         string
	Target      *int
	MinVariants *int
	MaxVariants *int
	Baseline    bool
	Seed        *int64
	SeedsFile   string
	Group       string
	JSONLFile   string
	ReportFile  string
	Summary     bool
	Progress    bool
	LogLevel    string
	Out         io.Writer
	ErrOut      io.Writer
}

// GenerateResult describes a finished generation run.
type GenerateResult struct {
	Written int
	Seed    int64
	Report  report.CorpusReport
}

func RunGenerate(opts GenerateOptions) error {
	_, err := Generate(opts)
	return err
}

// Generate writes a corpus and returns what was written.
func Generate(opts GenerateOptions) (*GenerateResult, error) {
	out := stdoutOr(opts.Out)

	cfg, cfgPath, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyGenerateOverrides(cfg, opts)
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, ocppErrors.WrapConfigError(err, cfgPath)
	}
	gc := cfg.Generator

	logger, err := newLogger(cfg.Logging, opts.LogLevel)
	if err != nil {
		return nil, err
	}
	defer logger.Close()

	pool, err := seedPool(gc.SeedsFile, opts.Group)
	if err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if gc.RNGSeed != nil {
		seed = *gc.RNGSeed
	}
	logger.Info("Generating corpus in %s from %d seeds (rng seed %d)", gc.Dir, len(pool), seed)

	dirStore, err := corpus.NewDirStore(gc.Dir)
	if err != nil {
		return nil, ocppErrors.WrapCorpusError(err, gc.Dir)
	}
	var store corpus.Store = dirStore
	if gc.JSONLFile != "" {
		jsonl, err := corpus.NewJSONLStore(gc.JSONLFile)
		if err != nil {
			return nil, ocppErrors.WrapCorpusError(err, gc.JSONLFile)
		}
		defer jsonl.Close()
		store = corpus.MultiStore{dirStore, jsonl}
	}

	var barOut io.Writer
	if opts.Progress {
		barOut = stderrOr(opts.ErrOut)
	}
	bar := progress.NewBar(barOut, int64(max(gc.Target, 1)), "files", "Generating")

	rep := report.CorpusReport{
		GeneratedAt: report.FormatTimestamp(),
		Dir:         gc.Dir,
		Seed:        seed,
		ByAction:    make(map[string]int),
	}
	gen, err := corpus.NewGenerator(corpus.GeneratorConfig{
		Seeds:               pool,
		Rand:                mutate.NewRand(seed, true),
		Probabilities:       cfg.Mutation,
		BaselineProbability: gc.BaselineProbability,
		Store:               store,
		Logger:              logger,
		OnEntry: func(e corpus.Entry) {
			rep.ByAction[e.Action]++
			if e.Kind == corpus.KindBaseline {
				rep.Baseline++
			}
			bar.Step(e.Name())
		},
	})
	if err != nil {
		return nil, err
	}

	written, err := gen.Generate(corpus.Options{
		Target:      gc.Target,
		MinVariants: gc.MinVariants,
		MaxVariants: gc.MaxVariants,
		Baseline:    gc.Baseline,
	})
	bar.Finish()
	rep.Files = written
	if err != nil {
		return nil, ocppErrors.WrapCorpusError(err, gc.Dir)
	}

	fmt.Fprintf(out, "wrote %d files to %s\n", written, gc.Dir)
	if opts.Summary {
		fmt.Fprintln(out, report.RenderCorpus(rep))
	}
	if opts.ReportFile != "" {
		if err := report.WriteJSONFile(opts.ReportFile, rep); err != nil {
			return nil, err
		}
		logger.Info("Corpus report written to %s", opts.ReportFile)
	}
	return &GenerateResult{Written: written, Seed: seed, Report: rep}, nil
}

func applyGenerateOverrides(cfg *config.Config, opts GenerateOptions) {
	gc := &cfg.Generator
	if opts.Dir != "" {
		gc.Dir = opts.Dir
	}
	if opts.Target != nil {
		gc.Target = *opts.Target
	}
	if opts.MinVariants != nil {
		gc.MinVariants = *opts.MinVariants
	}
	if opts.MaxVariants != nil {
		gc.MaxVariants = *opts.MaxVariants
	}
	if opts.Baseline {
		gc.Baseline = true
	}
	if opts.Seed != nil {
		seed := *opts.Seed
		gc.RNGSeed = &seed
	}
	if opts.SeedsFile != "" {
		gc.SeedsFile = opts.SeedsFile
	}
	if opts.JSONLFile != "" {
		gc.JSONLFile = opts.JSONLFile
	}
}

// seedPool returns the seeds to mutate: the built-in catalog or a seed
// file, optionally restricted to one group.
func seedPool(file, group string) ([]ocpp.Frame, error) {
	catalog := seeds.DefaultCatalog()
	if file != "" {
		var err error
		if catalog, err = seeds.LoadFile(file); err != nil {
			return nil, ocppErrors.WrapCorpusError(err, file)
		}
	}
	pool := catalog.Pool()
	if group != "" {
		if !knownGroup(seeds.Group(group)) {
			return nil, fmt.Errorf("unknown seed group %q (want normal, violation or edge_case)", group)
		}
		pool = catalog.Group(seeds.Group(group))
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("seed pool is empty")
	}
	return pool, nil
}

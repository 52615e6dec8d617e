package corpus

// Corpus generation: seed selection, variant fan-out and persistence

import (
	"fmt"
	"math/rand"

	"github.com/tturner/ocppfuzz/internal/logging"
	"github.com/tturner/ocppfuzz/internal/mutate"
	"github.com/tturner/ocppfuzz/internal/ocpp"
	"github.com/tturner/ocppfuzz/internal/seeds"
)

// Options bounds one generation run.
type Options struct {
	Target      int
	MinVariants int
	MaxVariants int
	Baseline    bool
}

// Normalize clamps the bounds: min >= 0, max >= min, target >= 1. A run
// that could never write (max 0 without baseline mode) gets max 1.
func (o Options) Normalize() Options {
	if o.MinVariants < 0 {
		o.MinVariants = 0
	}
	if o.MaxVariants < o.MinVariants {
		o.MaxVariants = o.MinVariants
	}
	if o.Target < 1 {
		o.Target = 1
	}
	if o.MaxVariants == 0 && !o.Baseline {
		o.MaxVariants = 1
	}
	return o
}

// GeneratorConfig wires a Generator.
type GeneratorConfig struct {
	Seeds               []ocpp.Frame
	Rand                *rand.Rand
	Probabilities       seeds.Probabilities
	BaselineProbability float64
	Store               Store
	Logger              *logging.Logger

	// OnEntry is called after each entry is persisted.
	OnEntry func(Entry)
}

// Generator writes a corpus of baseline seeds and mutated variants. Seed
// picks, variant counts and mutations all draw from one random stream, so a
// fixed seed reproduces the corpus byte for byte.
type Generator struct {
	seeds    []ocpp.Frame
	rng      *rand.Rand
	mutator  *mutate.Mutator
	baseline mutate.Rule
	store    Store
	logger   *logging.Logger
	onEntry  func(Entry)
}

// NewGenerator validates cfg and returns a Generator.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if len(cfg.Seeds) == 0 {
		return nil, fmt.Errorf("seed pool is empty")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("no corpus store")
	}
	if err := cfg.Probabilities.Validate(); err != nil {
		return nil, fmt.Errorf("mutation probabilities: %w", err)
	}
	if cfg.BaselineProbability < 0 || cfg.BaselineProbability > 1 {
		return nil, fmt.Errorf("baseline probability must be between 0 and 1, got %g", cfg.BaselineProbability)
	}
	rng := cfg.Rand
	if rng == nil {
		rng = mutate.NewRand(0, false)
	}
	logger := cfg.Logger
	if logger == nil {
		logger, _ = logging.NewLogger(logging.LogLevelSilent, "")
	}
	return &Generator{
		seeds:    cfg.Seeds,
		rng:      rng,
		mutator:  mutate.New(rng, cfg.Probabilities),
		baseline: mutate.Rule{Name: "baseline", Probability: cfg.BaselineProbability},
		store:    cfg.Store,
		logger:   logger,
		onEntry:  cfg.OnEntry,
	}, nil
}

// Generate writes entries until exactly opts.Target (after normalization)
// have been persisted and returns the number written. Entry indexes are
// contiguous from 1.
func (g *Generator) Generate(opts Options) (int, error) {
	norm := opts.Normalize()
	if norm.MaxVariants == 0 && g.baseline.Probability <= 0 {
		norm.MaxVariants = 1
	}
	if max(opts.MinVariants, opts.MaxVariants) <= 0 && norm.MaxVariants > 0 {
		g.logger.Info("max variants %d can never fill the corpus; using %d", opts.MaxVariants, norm.MaxVariants)
	}
	g.logger.Verbose("Generating %d entries (variants %d..%d, baseline %t)", norm.Target, norm.MinVariants, norm.MaxVariants, norm.Baseline)

	written := 0
	for written < norm.Target {
		seed := g.seeds[g.rng.Intn(len(g.seeds))]
		action := SeedAction(seed)

		if norm.Baseline && g.baseline.Fires(g.rng) {
			if err := g.persist(Entry{Index: written + 1, Action: action, Kind: KindBaseline, Frame: ocpp.CloneFrame(seed)}); err != nil {
				return written, err
			}
			written++
			continue
		}

		n := norm.MinVariants + g.rng.Intn(norm.MaxVariants-norm.MinVariants+1)
		for _, variant := range g.mutator.Frame(seed, n) {
			if written >= norm.Target {
				break
			}
			if err := g.persist(Entry{Index: written + 1, Action: action, Kind: KindFuzz, Frame: variant}); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

func (g *Generator) persist(e Entry) error {
	if err := g.store.Write(e); err != nil {
		return err
	}
	g.logger.Debug("wrote %s", e.Name())
	if g.onEntry != nil {
		g.onEntry(e)
	}
	return nil
}

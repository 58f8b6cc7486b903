// Package workload generates synthetic per-sequence work and drives a
// backend through it with one goroutine per sequence — the external
// collaborators the specification names but leaves to the surrounding
// tooling (the numerical model, the driver, the workload generator).
package workload

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"kvcachesim/internal/backend"
)

// Generate produces cfg.NumSequences SequenceWork records. Sequences are
// distributed round-robin across [0, cfg.NumGroups) when sharing is
// enabled; per the open-question resolution in SPEC_FULL.md, a work record
// is only ever emitted with a group id when it also carries a positive
// SharedPromptTokens — a record never declares a group without a prefix to
// back it.
func Generate(cfg backend.Config, seed uint64) []backend.SequenceWork {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	work := make([]backend.SequenceWork, cfg.NumSequences)

	const sharedPrefixTokens = 256 // page-aligned at the worked-example granularity

	for i := range work {
		prompt := sharedPrefixTokens + cfg.MaxPromptExtra
		if cfg.MaxPromptExtra > 0 {
			prompt = sharedPrefixTokens + rng.IntN(cfg.MaxPromptExtra+1)
		}
		gen := cfg.MinGenTokens
		if cfg.MaxGenTokens > cfg.MinGenTokens {
			gen = cfg.MinGenTokens + rng.IntN(cfg.MaxGenTokens-cfg.MinGenTokens+1)
		}

		w := backend.SequenceWork{
			PromptTokens:   prompt,
			GenTokens:      gen,
			SharedPromptID: backend.NoGroup,
		}
		if cfg.NumGroups > 0 {
			w.SharedPromptID = i % cfg.NumGroups
			w.SharedPromptTokens = sharedPrefixTokens
		}
		work[i] = w
	}
	return work
}

// Options configures how the driver exercises a backend.
type Options struct {
	// TokenLatency, if non-zero, is slept between AppendToken calls to
	// emulate per-token compute latency. Purely external to the core; the
	// backend has no suspension points of its own.
	TokenLatency time.Duration
}

// Run spawns one goroutine per sequence work record, calling InitSequence,
// then one AppendToken per prompt+gen token, then FinishSequence. It
// returns the first error any worker goroutine produced (including a
// recovered capacity-fault panic from the backend, re-surfaced as an
// error rather than crashing the whole driver).
func Run(ctx context.Context, b backend.Backend, work []backend.SequenceWork, opts Options) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range work {
		w := w
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = panicToError(r)
				}
			}()

			id := b.InitSequence(w)
			total := w.PromptTokens + w.GenTokens
			for t := 0; t < total; t++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				b.AppendToken(id)
				if opts.TokenLatency > 0 {
					time.Sleep(opts.TokenLatency)
				}
			}
			b.FinishSequence(id)
			return nil
		})
	}
	return g.Wait()
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("workload: backend panicked: %w", err)
	}
	return fmt.Errorf("workload: backend panicked: %v", r)
}

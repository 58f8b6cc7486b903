// Command kvsim runs the KV-cache paging simulator: it generates a
// synthetic batch of sequences, drives either or both backend strategies
// through the batch, and prints the resulting logical/physical byte
// accounting.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"kvcachesim/internal/backend"
	"kvcachesim/internal/history"
	"kvcachesim/internal/kvconfig"
	"kvcachesim/internal/statsprint"
	"kvcachesim/internal/statsserver"
	"kvcachesim/internal/watch"
	"kvcachesim/internal/workload"
)

// Flags
var (
	flagConfig  = flag.String("config", "", "optional YAML configuration file overriding the defaults/flags below")
	flagBackend = flag.String("backend", "both", "which strategy to run: paged, mono, or both")
	flagSeed    = flag.Uint64("seed", 1, "workload generator seed")
	flagGRPC    = flag.String("grpc", "", "gRPC listen address for live stats export (empty to disable)")
	flagHistory = flag.String("history", "", "SQLite file to append a run summary to (empty to disable)")
	flagWatch   = flag.Duration("watch", 0, "print a periodic stats snapshot at this interval while running (0 to disable)")
	flagVerbose = flag.Bool("v", false, "verbose logging")

	flagNumLayers = flag.Int("num-layers", 4, "transformer layer count")
	flagNumHeads  = flag.Int("num-heads", 8, "attention head count")
	flagHeadDim   = flag.Int("head-dim", 64, "per-head dimension")

	flagTokensPerPage = flag.Int("tokens-per-page", 16, "page granularity in tokens")
	flagArenaBytes    = flag.Int("arena-bytes", 2<<30, "paged allocator arena size in bytes")

	flagMaxContext   = flag.Int("max-context-tokens", 2048, "per-sequence token ceiling")
	flagNumSequences = flag.Int("num-sequences", 128, "batch size")
	flagNumGroups    = flag.Int("num-groups", 0, "shared-prefix group modulus (0 disables sharing)")

	flagMaxPromptExtra = flag.Int("max-prompt-extra", 256, "max extra prompt tokens beyond the shared prefix")
	flagMinGenTokens   = flag.Int("min-gen-tokens", 256, "minimum generated tokens per sequence")
	flagMaxGenTokens   = flag.Int("max-gen-tokens", 256, "maximum generated tokens per sequence")
)

func configFromFlags() backend.Config {
	return backend.Config{
		NumLayers:        *flagNumLayers,
		NumHeads:         *flagNumHeads,
		HeadDim:          *flagHeadDim,
		TokensPerPage:    *flagTokensPerPage,
		ArenaBytes:       *flagArenaBytes,
		MaxContextTokens: *flagMaxContext,
		NumSequences:     *flagNumSequences,
		NumGroups:        *flagNumGroups,
		MaxPromptExtra:   *flagMaxPromptExtra,
		MinGenTokens:     *flagMinGenTokens,
		MaxGenTokens:     *flagMaxGenTokens,
	}
}

// runHolder adapts a live backend + run id to statsserver.Source.
type runHolder struct {
	b     backend.Backend
	runID string
}

func (r *runHolder) Stats() backend.Stats { return r.b.Stats() }
func (r *runHolder) RunID() string        { return r.runID }

func runBackend(ctx context.Context, name string, b backend.Backend, runID string, work []backend.SequenceWork, pr *statsprint.Printer) backend.Stats {
	if *flagGRPC != "" {
		lis, err := net.Listen("tcp", *flagGRPC)
		if err != nil {
			log.Printf("gRPC listen error: %v", err)
		} else {
			gs := grpc.NewServer()
			statsserver.Register(gs, &runHolder{b: b, runID: runID})
			go func() {
				log.Printf("gRPC stats listening on %s", *flagGRPC)
				if err := gs.Serve(lis); err != nil {
					log.Printf("gRPC serve error: %v", err)
				}
			}()
			defer gs.Stop()
		}
	}

	var snap *watch.Snapshotter
	if *flagWatch > 0 {
		snap = watch.Start(name, *flagWatch, b, pr, os.Stdout)
		defer snap.Stop()
	}

	if err := workload.Run(ctx, b, work, workload.Options{}); err != nil {
		log.Fatalf("%s run failed: %v", name, err)
	}

	return b.Stats()
}

func main() {
	flag.Parse()

	cfg := configFromFlags()
	if *flagConfig != "" {
		f, err := kvconfig.Load(*flagConfig)
		if err != nil {
			log.Fatalf("config error: %v", err)
		}
		cfg = f.Apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	runID := uuid.NewString()
	if *flagVerbose {
		log.Printf("run %s: %+v", runID, cfg)
	}

	work := workload.Generate(cfg, *flagSeed)
	pr := statsprint.New()
	ctx := context.Background()

	var pagedStats, monoStats backend.Stats
	runPaged := *flagBackend == "paged" || *flagBackend == "both"
	runMono := *flagBackend == "mono" || *flagBackend == "both"

	if runPaged {
		p, err := backend.NewPaged(cfg)
		if err != nil {
			log.Fatalf("paged backend: %v", err)
		}
		pagedStats = runBackend(ctx, "paged", p, runID, work, pr)
		if *flagVerbose {
			log.Printf("run %s: shared-prefix group page counts: %v", runID, p.GroupPageCounts())
		}
		p.Destroy()
	}
	if runMono {
		m, err := backend.NewMonolithic(cfg)
		if err != nil {
			log.Fatalf("monolithic backend: %v", err)
		}
		monoStats = runBackend(ctx, "monolithic", m, runID, work, pr)
		m.Destroy()
	}

	switch {
	case runPaged && runMono:
		if err := pr.Compare(os.Stdout, pagedStats, monoStats); err != nil {
			log.Printf("print error: %v", err)
		}
	case runPaged:
		pr.Fprint(os.Stdout, "paged", pagedStats)
	case runMono:
		pr.Fprint(os.Stdout, "monolithic", monoStats)
	}

	if *flagHistory != "" {
		h, err := history.Open(*flagHistory)
		if err != nil {
			log.Fatalf("history: %v", err)
		}
		defer h.Close()
		if runPaged {
			if err := h.Record(runID, "paged", cfg, pagedStats); err != nil {
				log.Printf("history record error: %v", err)
			}
		}
		if runMono {
			if err := h.Record(runID, "monolithic", cfg, monoStats); err != nil {
				log.Printf("history record error: %v", err)
			}
		}
	}
}

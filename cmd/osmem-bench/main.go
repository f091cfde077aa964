// Command osmem-bench drives a synthetic allocation workload against
// internal/heap, optionally hot-reloading its workload parameters from
// a JSON file while the benchmark runs. It exists to exercise the
// allocator's decision tree (cold start, best-fit reuse, coalescing,
// in-place growth, copy-migrate) under a mix of sizes rather than to
// produce a rigorous micro-benchmark.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"
	"unsafe"

	"github.com/orizon-lang/osmem/internal/heap"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a workload config JSON file (required)")
		watch      = flag.Bool("watch", false, "hot-reload the workload config on change")
		seed       = flag.Int64("seed", 1, "PRNG seed for the synthetic workload")
	)
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "osmem-bench: -config is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadWorkloadConfig(*configPath)
	if err != nil {
		log.Fatalf("osmem-bench: %v", err)
	}

	store := newConfigStore(cfg)

	if *watch {
		w, err := watchConfig(*configPath, store)
		if err != nil {
			log.Fatalf("osmem-bench: watch %s: %v", *configPath, err)
		}
		defer w.Close()
	}

	run(store, rand.New(rand.NewSource(*seed)))
}

// run executes the workload currently held in store until
// Iterations live requests have been issued, re-reading store on
// every iteration so a hot-reloaded config takes effect immediately.
func run(store *configStore, rng *rand.Rand) {
	a := heap.New()

	live := make([]unsafe.Pointer, 0, 1024)

	start := time.Now()
	done := 0

	for {
		cfg := store.get()
		if done >= cfg.Iterations {
			break
		}

		switch {
		case cfg.ReallocFraction > 0 && len(live) > 0 && rng.Float64() < cfg.ReallocFraction:
			idx := rng.Intn(len(live))
			n := cfg.MinSize + rng.Intn(cfg.MaxSize-cfg.MinSize+1)
			if p := a.Realloc(live[idx], n); p != nil {
				live[idx] = p
			} else {
				live[idx] = live[len(live)-1]
				live = live[:len(live)-1]
			}
		case len(live) > 0 && rng.Intn(2) == 0:
			idx := rng.Intn(len(live))
			a.Free(live[idx])
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
		default:
			n := cfg.MinSize + rng.Intn(cfg.MaxSize-cfg.MinSize+1)
			if p := a.Malloc(n); p != nil {
				live = append(live, p)
			}
		}

		done++

		if cfg.Verbose && done%10000 == 0 {
			log.Printf("osmem-bench: %d/%d iterations, %d live allocations", done, cfg.Iterations, len(live))
		}
	}

	for _, p := range live {
		a.Free(p)
	}

	log.Printf("osmem-bench: completed %d iterations in %s", done, time.Since(start))
}

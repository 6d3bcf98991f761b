// Package optimizer runs a fixed list of IL-to-IL transformation passes to
// a fixpoint, the way the teacher's pkg/search runs its superoptimizer
// passes to exhaustion: each pass reports whether it changed anything, and
// the driver keeps iterating the whole pass list until a full iteration
// changes nothing or max-iterations is hit.
package optimizer

import (
	"time"

	"github.com/blendsdk/blend65/pkg/il"
)

// Pass transforms m and returns the result. It must return the same *il.Module
// reference when it made no change, and a new one otherwise; the driver uses
// reference inequality to detect change without a separate dirty flag.
type Pass struct {
	Name        string
	IsTransform bool
	Run         func(m *il.Module) (*il.Module, Stats)
}

// Stats is a pass's free-form per-run counters, keyed by counter name.
type Stats map[string]int

// Config holds optimizer configuration.
type Config struct {
	Enabled       bool
	Passes        []Pass
	MaxIterations int
	Debug         bool
}

// PassRun records one pass's single execution within one iteration.
type PassRun struct {
	Pass    string
	Changed bool
	Stats   Stats
	Elapsed time.Duration
}

// Result is the aggregate outcome of Optimize.
type Result struct {
	Module     *il.Module
	Changed    bool
	Iterations int
	PassStats  map[string]Stats
	Runs       []PassRun
}

// Optimize runs cfg.Passes over m to a fixpoint, per the mandatory-pass
// contract: disabled or pass-less configs are a no-op, otherwise each
// iteration runs every pass in order and the loop stops early the first
// time a full iteration leaves the module unchanged.
func Optimize(cfg Config, m *il.Module) Result {
	if !cfg.Enabled || len(cfg.Passes) == 0 {
		return Result{Module: m, Changed: false, Iterations: 0, PassStats: map[string]Stats{}}
	}

	res := Result{Module: m, PassStats: map[string]Stats{}}
	cur := m

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		iterChanged := false
		for _, p := range cfg.Passes {
			start := time.Now()
			next, stats := p.Run(cur)
			elapsed := time.Since(start)
			changed := next != cur
			if changed {
				iterChanged = true
				res.Changed = true
			}
			cur = next
			res.Runs = append(res.Runs, PassRun{Pass: p.Name, Changed: changed, Stats: stats, Elapsed: elapsed})
			res.PassStats[p.Name] = mergeStats(res.PassStats[p.Name], stats)
		}
		res.Iterations = iter + 1
		if !iterChanged {
			break
		}
	}

	res.Module = cur
	return res
}

func mergeStats(acc, next Stats) Stats {
	if acc == nil {
		acc = Stats{}
	}
	for k, v := range next {
		acc[k] += v
	}
	return acc
}

// Standard returns the pass list every optimization level runs, in order:
// intrinsic lowering always first, since the backend contract requires
// hardware reads/writes rather than raw PEEK/POKE intrinsics regardless of
// optimization level.
func Standard(level int) []Pass {
	passes := []Pass{LowerIntrinsicsPass()}
	if level <= 0 {
		return passes
	}
	passes = append(passes, ConstantFoldPass(), DeadCodeEliminationPass())
	return passes
}

package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/game"
	"github.com/pthm-cable/terrarium/telemetry"
)

// Band is the population range a tuned config should settle into.
type Band struct {
	Low, High float64
}

// miss returns how far pop lies outside the band, relative to the nearest
// edge. Zero inside the band.
func (b Band) miss(pop float64) float64 {
	switch {
	case pop < b.Low:
		return (b.Low - pop) / b.Low
	case pop > b.High:
		return (pop - b.High) / b.High
	}
	return 0
}

const (
	warmupWindows   = 2   // ignored when scoring
	extinctPenalty  = 10  // added on extinction, scaled by the time left
	stabilityWeight = 0.25
	statsWindowSec  = 10
)

// FitnessEvaluator runs headless sessions and scores them against a
// population band.
type FitnessEvaluator struct {
	params   *ParamVector
	maxTicks int
	seeds    []uint32
	base     *config.Config
	band     Band

	mu          sync.Mutex
	lastSurvive float64 // mean fraction of maxTicks survived, most recent Evaluate
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []uint32, base *config.Config, band Band) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:   params,
		maxTicks: maxTicks,
		seeds:    seeds,
		base:     base,
		band:     band,
	}
}

// LastSurvival returns the mean survived fraction from the most recent
// evaluation.
func (fe *FitnessEvaluator) LastSurvival() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSurvive
}

// runResult holds the results of a single session.
type runResult struct {
	survivedTicks int
	windows       []telemetry.Summary
}

// Evaluate computes fitness for raw parameter values (lower = better).
// Seeds run in parallel; every session owns its world.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.base.Clone()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, seed uint32) {
			defer wg.Done()
			results[idx] = fe.runSession(cfg, seed)
		}(i, seed)
	}
	wg.Wait()

	fitness := make([]float64, len(results))
	survived := make([]float64, len(results))
	for i := range results {
		fitness[i] = fe.score(&results[i])
		survived[i] = float64(results[i].survivedTicks) / float64(fe.maxTicks)
	}

	fe.mu.Lock()
	fe.lastSurvive = stat.Mean(survived, nil)
	fe.mu.Unlock()

	return stat.Mean(fitness, nil)
}

// runSession steps one seed until extinction or maxTicks.
func (fe *FitnessEvaluator) runSession(base *config.Config, seed uint32) runResult {
	cfg := base.Clone()
	cfg.Seed = seed

	var r runResult
	s, err := game.NewSession(cfg, game.Options{
		StatsWindowSec: statsWindowSec,
		StatsCallback: func(sum telemetry.Summary) {
			r.windows = append(r.windows, sum)
		},
	})
	if err != nil {
		return r
	}
	defer s.Close()

	for s.Tick() < fe.maxTicks {
		m := s.Step()
		if m.Population == 0 {
			break
		}
	}
	r.survivedTicks = s.Tick()
	return r
}

// score combines the squared band miss per window with the population's
// coefficient of variation. Extinction adds a penalty proportional to the
// ticks left unplayed.
func (fe *FitnessEvaluator) score(r *runResult) float64 {
	f := 0.0
	if r.survivedTicks < fe.maxTicks {
		f += extinctPenalty * (1 - float64(r.survivedTicks)/float64(fe.maxTicks))
	}
	if len(r.windows) <= warmupWindows {
		return f + 1
	}

	windows := r.windows[warmupWindows:]
	misses := make([]float64, len(windows))
	cvs := make([]float64, len(windows))
	for i, w := range windows {
		d := fe.band.miss(w.PopulationAvg)
		misses[i] = d * d
		if w.PopulationAvg > 0 {
			cvs[i] = w.PopulationStd / w.PopulationAvg
		}
	}
	return f + stat.Mean(misses, nil) + stabilityWeight*stat.Mean(cvs, nil)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// Command tune runs a CMA-ES search over the density-feedback knobs for a
// config whose population settles inside a target band.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/terrarium/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 6000, "Ticks per evaluation run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	bandLow := flag.Float64("band-low", 150, "Lower edge of the target population band")
	bandHigh := flag.Float64("band-high", 300, "Upper edge of the target population band")
	searchSeed := flag.Uint64("search-seed", 1, "Seed for the CMA-ES sampler")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *outputDir == "" {
		slog.Error("--output is required")
		os.Exit(2)
	}
	if !(*bandLow > 0 && *bandHigh >= *bandLow) {
		slog.Error("invalid band", "low", *bandLow, "high", *bandHigh)
		os.Exit(2)
	}
	if err := run(*configPath, *outputDir, *maxTicks, *seeds, *maxEvals, *population, Band{*bandLow, *bandHigh}, *searchSeed); err != nil {
		slog.Error("tune failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, outputDir string, maxTicks, seeds, maxEvals, popSize int, band Band, searchSeed uint64) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	base, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := base.Validate(); err != nil {
		return err
	}

	params := NewParamVector()
	evalSeeds := make([]uint32, seeds)
	for i := range evalSeeds {
		evalSeeds[i] = uint32(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, maxTicks, evalSeeds, base, band)

	dim := params.Dim()
	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(base)))
	for i := range initX {
		initX[i] = clamp01(initX[i])
	}
	if popSize == 0 {
		popSize = 4 + int(3*float64(dim)/2)
	}

	logFile, err := os.Create(filepath.Join(outputDir, "tune_log.csv"))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()
	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness", "survival"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := logWriter.Write(header); err != nil {
		return fmt.Errorf("writing log header: %w", err)
	}

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			survival := evaluator.LastSurvival()
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", fitness), fmt.Sprintf("%.3f", survival)}
			for _, v := range clamped {
				row = append(row, fmt.Sprintf("%.6f", v))
			}
			logWriter.Write(row)
			logWriter.Flush()

			elapsed := time.Since(startTime)
			remaining := time.Duration(maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			slog.Info("eval",
				"n", evalCount,
				"of", maxEvals,
				"fitness", fitness,
				"survival", survival,
				"best", bestFitness,
				"elapsed", elapsed.Round(time.Second).String(),
				"eta", remaining.Round(time.Second).String(),
			)
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
		Src:          rand.NewPCG(searchSeed, searchSeed^0x9e3779b97f4a7c15),
	}

	slog.Info("starting CMA-ES",
		"params", dim,
		"population", popSize,
		"max_evals", maxEvals,
		"seeds", seeds,
		"ticks", maxTicks,
		"band_low", band.Low,
		"band_high", band.High,
	)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluations completed")
	}

	attrs := make([]any, 0, 2*dim)
	for i, spec := range params.Specs {
		attrs = append(attrs, spec.Path, bestParams[i])
	}
	slog.Info("best parameters", attrs...)

	best := base.Clone()
	params.ApplyToConfig(best, bestParams)
	out := filepath.Join(outputDir, "best_config.yaml")
	if err := best.WriteYAML(out); err != nil {
		return err
	}
	slog.Info("optimization complete",
		"evals", evalCount,
		"best_fitness", bestFitness,
		"duration", time.Since(startTime).Round(time.Second).String(),
		"config", out,
	)
	return nil
}

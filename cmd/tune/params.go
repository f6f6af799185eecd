package main

import (
	"github.com/pthm-cable/terrarium/config"
)

// ParamSpec defines a single tunable knob.
type ParamSpec struct {
	Name    string  // CSV column and log key
	Path    string  // YAML path, for humans
	Min     float64 // lower bound
	Max     float64 // upper bound
	Integer bool    // rounded when applied

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

func f32(get func(*config.Config) *float32) (func(*config.Config) float64, func(*config.Config, float64)) {
	return func(c *config.Config) float64 { return float64(*get(c)) },
		func(c *config.Config, v float64) { *get(c) = float32(v) }
}

func param(name, path string, lo, hi float64, field func(*config.Config) *float32) ParamSpec {
	get, set := f32(field)
	return ParamSpec{Name: name, Path: path, Min: lo, Max: hi, get: get, set: set}
}

// NewParamVector creates the standard set of density-feedback knobs.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{
				Name: "density_soft_cap", Path: "feedback.local_density_soft_cap", Min: 3, Max: 20, Integer: true,
				get: func(c *config.Config) float64 { return float64(c.Feedback.DensitySoftCap) },
				set: func(c *config.Config, v float64) { c.Feedback.DensitySoftCap = int(v) },
			},
			param("density_repro_penalty", "feedback.density_reproduction_penalty", 0, 1,
				func(c *config.Config) *float32 { return &c.Feedback.DensityReproductionPenalty }),
			param("density_repro_slope", "feedback.density_reproduction_slope", 0, 0.1,
				func(c *config.Config) *float32 { return &c.Feedback.DensityReproductionSlope }),
			param("repro_base_chance", "feedback.reproduction_base_chance", 0.05, 0.6,
				func(c *config.Config) *float32 { return &c.Feedback.ReproductionBaseChance }),
			param("stress_drain", "feedback.stress_drain_per_neighbor", 0, 0.2,
				func(c *config.Config) *float32 { return &c.Feedback.StressDrainPerNeighbor }),
			param("disease_prob", "feedback.disease_probability_per_neighbor", 0, 0.01,
				func(c *config.Config) *float32 { return &c.Feedback.DiseaseProbabilityPerNeighbor }),
			param("base_death", "feedback.base_death_probability_per_second", 0, 0.01,
				func(c *config.Config) *float32 { return &c.Feedback.BaseDeathProbability }),
			param("age_death", "feedback.age_death_probability_per_second", 0, 0.002,
				func(c *config.Config) *float32 { return &c.Feedback.AgeDeathProbability }),
			param("density_death", "feedback.density_death_probability_per_neighbor_per_second", 0, 0.001,
				func(c *config.Config) *float32 { return &c.Feedback.DensityDeathProbability }),
			param("food_regen", "environment.food_regen_per_second", 0.1, 2,
				func(c *config.Config) *float32 { return &c.Environment.FoodRegenPerSecond }),
			param("metabolism", "species.metabolism_per_second", 0.2, 2,
				func(c *config.Config) *float32 { return &c.Species.Metabolism }),
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to the [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(spec.Max, max(spec.Min, v[i]))
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		spec := &pv.Specs[i]
		if spec.Integer {
			v = float64(int(v + 0.5))
		}
		spec.set(cfg, v)
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i := range pv.Specs {
		v[i] = pv.Specs[i].get(cfg)
	}
	return v
}

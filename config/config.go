// Package config provides configuration loading for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the full simulation configuration. A World captures a copy at
// construction and never mutates it.
type Config struct {
	Seed              uint32  `yaml:"seed"`
	DT                float32 `yaml:"dt"`         // seconds per tick
	WorldSize         float32 `yaml:"world_size"` // square torus edge length
	CellSize          float32 `yaml:"cell_size"`  // spatial index and field cell edge
	InitialPopulation int     `yaml:"initial_population"`
	MaxPopulation     int     `yaml:"max_population"`

	Species     SpeciesConfig     `yaml:"species"`
	Environment EnvironmentConfig `yaml:"environment"`
	Feedback    FeedbackConfig    `yaml:"feedback"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
	Screen    ScreenConfig    `yaml:"screen"`
	Feed      FeedConfig      `yaml:"feed"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SpeciesConfig holds per-agent movement, perception and lifecycle parameters.
type SpeciesConfig struct {
	BaseSpeed                 float32 `yaml:"base_speed"`
	MaxAcceleration           float32 `yaml:"max_acceleration"`
	VisionRadius              float32 `yaml:"vision_radius"`
	Metabolism                float32 `yaml:"metabolism_per_second"`
	BirthEnergyCost           float32 `yaml:"birth_energy_cost"`
	ReproductionThreshold     float32 `yaml:"reproduction_energy_threshold"`
	AdultAge                  float32 `yaml:"adult_age"`
	MaxAge                    float32 `yaml:"max_age"`
	WanderJitter              float32 `yaml:"wander_jitter"`
	InitialEnergyFraction     float32 `yaml:"initial_energy_fraction"` // of the reproduction threshold
	InitialAgeMin             float32 `yaml:"initial_age_min"`
	InitialAgeMax             float32 `yaml:"initial_age_max"`
	EnergySoftCap             float32 `yaml:"energy_soft_cap"`
	HighEnergyMetabolismSlope float32 `yaml:"high_energy_metabolism_slope"`
}

// ResourcePatchConfig describes a circular region of richer food.
type ResourcePatchConfig struct {
	Name        string  `yaml:"name"`
	X           float32 `yaml:"x"`
	Y           float32 `yaml:"y"`
	Radius      float32 `yaml:"radius"`
	FoodPerCell float32 `yaml:"food_per_cell"` // cell max
	Regen       float32 `yaml:"regen_per_second"`
	Initial     float32 `yaml:"initial_food"`
}

// EnvironmentConfig holds field parameters.
//
// Every diffusion rate must satisfy rate*dt <= 1 for the explicit solver to
// stay stable.
type EnvironmentConfig struct {
	FoodPerCell             float32               `yaml:"food_per_cell"`
	FoodRegenPerSecond      float32               `yaml:"food_regen_per_second"`
	ConsumptionRate         float32               `yaml:"food_consumption_rate"`
	FoodDiffusionRate       float32               `yaml:"food_diffusion_rate"`
	FoodDecayRate           float32               `yaml:"food_decay_rate"`
	FoodFromDeath           float32               `yaml:"food_from_death"`
	DangerDiffusionRate     float32               `yaml:"danger_diffusion_rate"`
	DangerDecayRate         float32               `yaml:"danger_decay_rate"`
	DangerPulseOnFlee       float32               `yaml:"danger_pulse_on_flee"`
	PheromoneDiffusionRate  float32               `yaml:"pheromone_diffusion_rate"`
	PheromoneDecayRate      float32               `yaml:"pheromone_decay_rate"`
	PheromoneDepositOnBirth float32               `yaml:"pheromone_deposit_on_birth"`
	Patches                 []ResourcePatchConfig `yaml:"resource_patches"`
}

// FeedbackConfig holds density feedback, hazard and group dynamics parameters.
type FeedbackConfig struct {
	DensitySoftCap                int     `yaml:"local_density_soft_cap"`
	DensityReproductionPenalty    float32 `yaml:"density_reproduction_penalty"`
	DensityReproductionSlope      float32 `yaml:"density_reproduction_slope"`
	ReproductionBaseChance        float32 `yaml:"reproduction_base_chance"`
	StressDrainPerNeighbor        float32 `yaml:"stress_drain_per_neighbor"`
	DiseaseProbabilityPerNeighbor float32 `yaml:"disease_probability_per_neighbor"`

	BaseDeathProbability    float32 `yaml:"base_death_probability_per_second"`
	AgeDeathProbability     float32 `yaml:"age_death_probability_per_second"`
	DensityDeathProbability float32 `yaml:"density_death_probability_per_neighbor_per_second"`

	// +Inf (.inf) disables formation, adoption, split and birth seeding,
	// leaving mutation-only group ids.
	GroupFormationWarmup      float32 `yaml:"group_formation_warmup_seconds"`
	GroupFormationThreshold   int     `yaml:"group_formation_neighbor_threshold"`
	GroupFormationChance      float32 `yaml:"group_formation_chance"`
	GroupAdoptionThreshold    int     `yaml:"group_adoption_neighbor_threshold"`
	GroupAdoptionChance       float32 `yaml:"group_adoption_chance"`
	GroupSplitThreshold       int     `yaml:"group_split_neighbor_threshold"`
	GroupSplitChance          float32 `yaml:"group_split_chance"`
	GroupSplitNewGroupChance  float32 `yaml:"group_split_new_group_chance"`
	GroupSplitStressThreshold float32 `yaml:"group_split_stress_threshold"`
	GroupBirthSeedChance      float32 `yaml:"group_birth_seed_chance"`
	GroupMutationChance       float32 `yaml:"group_mutation_chance"`
	GroupMutationModulus      int32   `yaml:"group_mutation_modulus"`
	InitialGroups             int32   `yaml:"initial_groups"` // 0 = start ungrouped
}

// TelemetryConfig holds headless output settings.
type TelemetryConfig struct {
	StatsWindow            float32 `yaml:"stats_window"` // seconds per summary row
	DeterministicDurations bool    `yaml:"deterministic_durations"`
	LogStats               bool    `yaml:"log_stats"`
}

// ScreenConfig holds viewer settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// FeedConfig holds live snapshot server settings.
type FeedConfig struct {
	Addr              string  `yaml:"addr"`
	TicksPerSecond    float32 `yaml:"ticks_per_second"`
	BroadcastInterval int     `yaml:"broadcast_interval"` // ticks between snapshots
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	FieldCols        int32   // cells per axis for field keys
	InitialEnergy    float32 // bootstrap agent energy
	StatsWindowTicks int
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()
	return cfg, nil
}

// Default returns the embedded defaults. Panics if they fail to parse,
// which only happens if the embedded file is broken.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// ComputeDerived recalculates Derived. Call it after editing fields by hand.
func (c *Config) ComputeDerived() {
	c.Derived.FieldCols = 0
	if c.WorldSize > 0 && c.CellSize > 0 {
		c.Derived.FieldCols = max(1, int32(math.Ceil(float64(c.WorldSize/c.CellSize))))
	}
	c.Derived.InitialEnergy = c.Species.ReproductionThreshold * c.Species.InitialEnergyFraction
	c.Derived.StatsWindowTicks = 0
	if c.DT > 0 && c.Telemetry.StatsWindow > 0 {
		c.Derived.StatsWindowTicks = max(1, int(math.Round(float64(c.Telemetry.StatsWindow/c.DT))))
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Environment.Patches = append([]ResourcePatchConfig(nil), c.Environment.Patches...)
	return &cp
}

// GroupDynamicsEnabled reports whether groups can ever form, be adopted or
// split. It is false when the warmup is infinite.
func (c *Config) GroupDynamicsEnabled() bool {
	return !math.IsInf(float64(c.Feedback.GroupFormationWarmup), 1)
}

// Validate checks configuration shape. The simulation itself does not
// validate its input, so loaders should call this before building a World.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.DT > 0, "dt must be positive, got %v", c.DT)
	check(c.WorldSize > 0, "world_size must be positive, got %v", c.WorldSize)
	check(c.CellSize > 0, "cell_size must be positive, got %v", c.CellSize)
	check(c.InitialPopulation >= 0, "initial_population must be >= 0, got %d", c.InitialPopulation)
	check(c.MaxPopulation >= c.InitialPopulation, "max_population (%d) below initial_population (%d)", c.MaxPopulation, c.InitialPopulation)
	check(c.Species.BaseSpeed >= 0, "species.base_speed must be >= 0")
	check(c.Species.MaxAcceleration >= 0, "species.max_acceleration must be >= 0")
	check(c.Species.VisionRadius >= 0, "species.vision_radius must be >= 0")
	check(c.Species.InitialAgeMax <= 0 || c.Species.InitialAgeMax >= c.Species.InitialAgeMin, "species.initial_age_max below initial_age_min")
	check(c.Feedback.GroupMutationModulus > 0, "feedback.group_mutation_modulus must be positive")
	check(c.Feedback.InitialGroups >= 0, "feedback.initial_groups must be >= 0")

	env := c.Environment
	rates := []struct {
		name string
		rate float32
	}{
		{"food", env.FoodDiffusionRate},
		{"danger", env.DangerDiffusionRate},
		{"pheromone", env.PheromoneDiffusionRate},
	}
	for _, r := range rates {
		check(r.rate >= 0, "environment.%s_diffusion_rate must be >= 0", r.name)
		check(r.rate*c.DT <= 1, "environment.%s_diffusion_rate*dt = %v exceeds 1 (unstable)", r.name, r.rate*c.DT)
	}
	for i, p := range env.Patches {
		check(p.Radius >= 0, "resource_patches[%d] (%s): radius must be >= 0", i, p.Name)
		check(p.FoodPerCell >= 0, "resource_patches[%d] (%s): food_per_cell must be >= 0", i, p.Name)
	}
	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a window of ticks plus the population sampled at its
// end.
type Summary struct {
	WindowStart int     `csv:"-"`
	WindowEnd   int     `csv:"window_end"`
	SimTimeSec  float64 `csv:"sim_time"`

	// Population over the window
	Population    int     `csv:"population"`
	PopulationMin int     `csv:"population_min"`
	PopulationMax int     `csv:"population_max"`
	PopulationAvg float64 `csv:"population_mean"`
	PopulationStd float64 `csv:"population_std"`

	// Events during window
	Births int `csv:"births"`
	Deaths int `csv:"deaths"`

	Groups         int     `csv:"groups"`
	NeighborChecks float64 `csv:"neighbor_checks_mean"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	AgeMean   float64 `csv:"age_mean"`
	FoodTotal float64 `csv:"food_total"`
}

// Distribution holds the mean, sample standard deviation and deciles of a
// set of values.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Describe computes a Distribution. values is not modified. An empty slice
// yields zeros; a single value has zero spread.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	d := Distribution{
		Mean: stat.Mean(sorted, nil),
		P10:  stat.Quantile(0.10, stat.LinInterp, sorted, nil),
		P50:  stat.Quantile(0.50, stat.LinInterp, sorted, nil),
		P90:  stat.Quantile(0.90, stat.LinInterp, sorted, nil),
	}
	if len(sorted) > 1 {
		d.Std = stat.StdDev(sorted, nil)
	}
	return d
}

// Summarize builds a Summary from the ticks of one window and the energies
// and ages of the agents alive at its end. dt converts ticks to seconds.
func Summarize(window []TickMetrics, energies, ages []float64, dt float32) Summary {
	if len(window) == 0 {
		return Summary{}
	}
	first, last := window[0], window[len(window)-1]
	s := Summary{
		WindowStart:   first.Tick,
		WindowEnd:     last.Tick,
		SimTimeSec:    float64(last.Tick+1) * float64(dt),
		Population:    last.Population,
		PopulationMin: last.Population,
		PopulationMax: last.Population,
		Groups:        last.Groups,
	}

	pops := make([]float64, len(window))
	var checks float64
	for i, m := range window {
		pops[i] = float64(m.Population)
		s.PopulationMin = min(s.PopulationMin, m.Population)
		s.PopulationMax = max(s.PopulationMax, m.Population)
		s.Births += m.Births
		s.Deaths += m.Deaths
		checks += float64(m.NeighborChecks)
	}
	s.NeighborChecks = checks / float64(len(window))
	s.PopulationAvg = stat.Mean(pops, nil)
	if len(pops) > 1 {
		s.PopulationStd = stat.StdDev(pops, nil)
	}

	e := Describe(energies)
	s.EnergyMean, s.EnergyStd = e.Mean, e.Std
	s.EnergyP10, s.EnergyP50, s.EnergyP90 = e.P10, e.P50, e.P90
	if len(ages) > 0 {
		s.AgeMean = stat.Mean(ages, nil)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("population", s.Population),
		slog.Int("population_min", s.PopulationMin),
		slog.Int("population_max", s.PopulationMax),
		slog.Float64("population_mean", s.PopulationAvg),
		slog.Float64("population_std", s.PopulationStd),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("groups", s.Groups),
		slog.Float64("neighbor_checks_mean", s.NeighborChecks),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_std", s.EnergyStd),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("age_mean", s.AgeMean),
		slog.Float64("food_total", s.FoodTotal),
	)
}

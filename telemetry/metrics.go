// Package telemetry holds per-tick metrics, window summaries and the CSV,
// JSON and log outputs built from them.
package telemetry

import "log/slog"

// CanonicalHeader is the header line of the per-tick CSV log.
const CanonicalHeader = "tick,population,births,deaths,avgEnergy,avgAge,groups,neighborChecks,tickDurationMs"

// TickMetrics is the aggregate state of the world after one tick.
type TickMetrics struct {
	Tick           int     `csv:"tick" json:"tick"`
	Population     int     `csv:"population" json:"population"`
	Births         int     `csv:"births" json:"births"`
	Deaths         int     `csv:"deaths" json:"deaths"`
	AverageEnergy  float64 `csv:"avgEnergy" json:"average_energy"`
	AverageAge     float64 `csv:"avgAge" json:"average_age"`
	Groups         int     `csv:"groups" json:"groups"` // distinct group ids, ungrouped excluded
	NeighborChecks int     `csv:"neighborChecks" json:"neighbor_checks"`
	TickDurationMs float64 `csv:"tickDurationMs" json:"tick_duration_ms"`
}

// SameOutcome reports whether m and o match in every field except the
// wall-clock duration.
func (m TickMetrics) SameOutcome(o TickMetrics) bool {
	m.TickDurationMs = 0
	o.TickDurationMs = 0
	return m == o
}

// LogValue implements slog.LogValuer for structured logging.
func (m TickMetrics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", m.Tick),
		slog.Int("population", m.Population),
		slog.Int("births", m.Births),
		slog.Int("deaths", m.Deaths),
		slog.Float64("avg_energy", m.AverageEnergy),
		slog.Float64("avg_age", m.AverageAge),
		slog.Int("groups", m.Groups),
		slog.Int("neighbor_checks", m.NeighborChecks),
		slog.Float64("tick_ms", m.TickDurationMs),
	)
}

// MetricsBuffer is an append-only, tick-ordered log of TickMetrics.
type MetricsBuffer struct {
	items []TickMetrics
}

// Append adds m to the end of the log.
func (b *MetricsBuffer) Append(m TickMetrics) {
	b.items = append(b.items, m)
}

// Len returns the number of recorded ticks.
func (b *MetricsBuffer) Len() int { return len(b.items) }

// At returns the i-th record.
func (b *MetricsBuffer) At(i int) TickMetrics { return b.items[i] }

// Last returns the most recent record, if any.
func (b *MetricsBuffer) Last() (TickMetrics, bool) {
	if len(b.items) == 0 {
		return TickMetrics{}, false
	}
	return b.items[len(b.items)-1], true
}

// All returns the records. The slice must not be modified.
func (b *MetricsBuffer) All() []TickMetrics { return b.items }

// Since returns the records with index >= i.
func (b *MetricsBuffer) Since(i int) []TickMetrics {
	if i >= len(b.items) {
		return nil
	}
	return b.items[max(i, 0):]
}

// Clear drops every record.
func (b *MetricsBuffer) Clear() { b.items = b.items[:0] }

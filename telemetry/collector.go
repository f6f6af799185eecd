package telemetry

import "github.com/pthm-cable/terrarium/components"

// Collector accumulates ticks into fixed-length windows and produces a
// Summary when a window closes.
type Collector struct {
	windowTicks int
	dt          float32

	window   []TickMetrics
	energies []float64
	ages     []float64
}

// NewCollector creates a collector closing a window every windowTicks
// ticks. dt converts ticks to simulated seconds.
func NewCollector(windowTicks int, dt float32) *Collector {
	return &Collector{
		windowTicks: max(1, windowTicks),
		dt:          dt,
	}
}

// WindowTicks returns the window length in ticks.
func (c *Collector) WindowTicks() int { return c.windowTicks }

// Record adds one tick to the open window.
func (c *Collector) Record(m TickMetrics) {
	c.window = append(c.window, m)
}

// Pending returns the number of ticks in the open window.
func (c *Collector) Pending() int { return len(c.window) }

// ShouldFlush reports whether the open window is full.
func (c *Collector) ShouldFlush() bool { return len(c.window) >= c.windowTicks }

// Flush summarizes the open window against the given population and
// starts a new one. Dead agents are ignored.
func (c *Collector) Flush(agents []components.Agent, foodTotal float64) Summary {
	c.energies = c.energies[:0]
	c.ages = c.ages[:0]
	for i := range agents {
		if !agents[i].Alive {
			continue
		}
		c.energies = append(c.energies, float64(agents[i].Energy))
		c.ages = append(c.ages, float64(agents[i].Age))
	}

	s := Summarize(c.window, c.energies, c.ages, c.dt)
	s.FoodTotal = foodTotal
	c.window = c.window[:0]
	return s
}

// Reset drops the open window.
func (c *Collector) Reset() { c.window = c.window[:0] }

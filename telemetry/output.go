package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/terrarium/config"
)

// OutputManager writes a run's output directory: ticks.csv (canonical
// per-tick log), summary.csv (window summaries), perf.csv and config.yaml.
type OutputManager struct {
	dir         string
	ticksFile   *os.File
	summaryFile *os.File
	perfFile    *os.File

	ticks *CSVSink

	// Track if headers have been written
	summaryHeaderWritten bool
	perfHeaderWritten    bool
}

// NewOutputManager creates dir and opens the output files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string, deterministic bool) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		name string
		dst  **os.File
	}{
		{"ticks.csv", &om.ticksFile},
		{"summary.csv", &om.summaryFile},
		{"perf.csv", &om.perfFile},
	}
	for _, f := range files {
		h, err := os.Create(filepath.Join(dir, f.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", f.name, err)
		}
		*f.dst = h
	}
	om.ticks = NewCSVSink(om.ticksFile, deterministic)
	return om, nil
}

// WriteConfig saves the run configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTick appends a row to ticks.csv.
func (om *OutputManager) WriteTick(m TickMetrics) error {
	if om == nil {
		return nil
	}
	return om.ticks.Write(m)
}

// WriteSummary appends a window summary to summary.csv.
func (om *OutputManager) WriteSummary(s Summary) error {
	if om == nil {
		return nil
	}
	records := []Summary{s}

	if !om.summaryHeaderWritten {
		if err := gocsv.Marshal(records, om.summaryFile); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		om.summaryHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.summaryFile); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}
	return nil
}

// WritePerf appends a performance record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}

	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close finishes ticks.csv and closes every file.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if om.ticks != nil {
		if err := om.ticks.Close(); err != nil {
			firstErr = err
		}
	}
	for _, f := range []*os.File{om.ticksFile, om.summaryFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package telemetry

import (
	"context"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// Stepper advances a simulation by one tick and reports what happened.
type Stepper interface {
	Step(tick int) TickMetrics
}

// CSVSink writes TickMetrics rows in the canonical per-tick CSV format.
// The header is written with the first row, or on Close if no row was
// written.
type CSVSink struct {
	w             io.Writer
	deterministic bool
	headerWritten bool
	rows          int
}

// NewCSVSink creates a sink writing to w. With deterministic set, the
// wall-clock duration column is written as 0 so two runs of the same
// config produce identical files.
func NewCSVSink(w io.Writer, deterministic bool) *CSVSink {
	return &CSVSink{w: w, deterministic: deterministic}
}

// Write appends one row.
func (s *CSVSink) Write(m TickMetrics) error {
	if s.deterministic {
		m.TickDurationMs = 0
	}
	records := []TickMetrics{m}

	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.w); err != nil {
			return fmt.Errorf("writing tick row: %w", err)
		}
		s.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, s.w); err != nil {
			return fmt.Errorf("writing tick row: %w", err)
		}
	}
	s.rows++
	return nil
}

// Rows returns the number of rows written.
func (s *CSVSink) Rows() int { return s.rows }

// Close writes the header if nothing else was written. It does not close
// the underlying writer.
func (s *CSVSink) Close() error {
	if s.headerWritten {
		return nil
	}
	s.headerWritten = true
	if err := gocsv.Marshal([]TickMetrics{}, s.w); err != nil {
		return fmt.Errorf("writing tick header: %w", err)
	}
	return nil
}

// Run steps s for ticks 0..ticks-1 and hands every TickMetrics to sink.
// It stops early when ctx is done or sink fails.
func Run(ctx context.Context, s Stepper, ticks int, sink func(TickMetrics) error) error {
	for tick := 0; tick < ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := s.Step(tick)
		if sink == nil {
			continue
		}
		if err := sink(m); err != nil {
			return fmt.Errorf("tick %d: %w", tick, err)
		}
	}
	return nil
}

// RunCSV runs ticks ticks and writes them to w as canonical CSV.
func RunCSV(ctx context.Context, s Stepper, ticks int, w io.Writer, deterministic bool) error {
	sink := NewCSVSink(w, deterministic)
	if err := Run(ctx, s, ticks, sink.Write); err != nil {
		return err
	}
	return sink.Close()
}

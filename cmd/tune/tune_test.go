package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/terrarium/config"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()

	raw := pv.Clamp(pv.ExtractFromConfig(cfg))
	back := pv.Denormalize(pv.Normalize(raw))
	for i, spec := range pv.Specs {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", spec.Name, raw[i], back[i])
		}
	}
}

func TestApplyToConfigClampsAndRounds(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()

	values := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		values[i] = spec.Max + 1
	}
	values[0] = 7.6 // density_soft_cap

	pv.ApplyToConfig(cfg, values)
	got := pv.ExtractFromConfig(cfg)

	if got[0] != 8 {
		t.Errorf("density_soft_cap = %v, want 8", got[0])
	}
	for i, spec := range pv.Specs[1:] {
		if math.Abs(got[i+1]-spec.Max) > 1e-6 {
			t.Errorf("%s = %v, want clamped to %v", spec.Name, got[i+1], spec.Max)
		}
	}
}

func TestBandMiss(t *testing.T) {
	b := Band{Low: 100, High: 200}
	tests := []struct {
		pop  float64
		want float64
	}{
		{50, 0.5},
		{100, 0},
		{150, 0},
		{200, 0},
		{300, 0.5},
	}
	for _, tt := range tests {
		if got := b.miss(tt.pop); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("miss(%v) = %v, want %v", tt.pop, got, tt.want)
		}
	}
}

func TestEvaluateSmallWorld(t *testing.T) {
	cfg := config.Default()
	cfg.InitialPopulation = 20
	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 60, []uint32{1, 2}, cfg, Band{Low: 10, High: 40})

	x := pv.Clamp(pv.ExtractFromConfig(cfg))
	a := fe.Evaluate(x)
	b := fe.Evaluate(x)
	if a != b {
		t.Errorf("same parameters scored %v then %v", a, b)
	}
	if s := fe.LastSurvival(); s < 0 || s > 1 {
		t.Errorf("survival = %v, want within [0,1]", s)
	}
}

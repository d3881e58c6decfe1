package display

import (
	"testing"

	"PercentileBoard/internal/model"
)

func TestLabel_DefaultLeverage(t *testing.T) {
	l := NewLabeler(nil)
	tests := []struct {
		inst  model.Instrument
		label string
	}{
		{"SPY", "SPY"},
		{"SPXL", "SPXL (×3)"},
		{"TQQQ", "TQQQ (×3)"},
		{"SOXL", "SOXL (×3)"},
		{"TSLL", "TSLL (×2)"},
		{"NVDL", "NVDL (×2)"},
		{"CONL", "CONL (×2)"},
		{"GLD", "GLD"},
	}
	for _, tt := range tests {
		if got := l.Label(tt.inst); got != tt.label {
			t.Errorf("%s: expected %q, got %q", tt.inst, tt.label, got)
		}
	}
}

func TestLabel_CustomTable(t *testing.T) {
	l := NewLabeler(map[model.Instrument]int{"SQQQ": 3})
	if got := l.Label("SQQQ"); got != "SQQQ (×3)" {
		t.Errorf("expected SQQQ (×3), got %q", got)
	}
	if got := l.Label("SPXL"); got != "SPXL" {
		t.Errorf("custom table should replace defaults, got %q", got)
	}
}

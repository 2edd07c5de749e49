package dynamo

import (
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{10.0, -0.5, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestEventCrossed(t *testing.T) {
	tests := []struct {
		name      string
		direction int
		g0, g1    float64
		want      bool
	}{
		{"falling hits falling", -1, 1, -1, true},
		{"falling lands on zero", -1, 1, 0, true},
		{"rising ignored by falling", -1, -1, 1, false},
		{"rising hits rising", 1, -2, 0.5, true},
		{"falling ignored by rising", 1, 2, -0.5, false},
		{"either way", 0, -1, 1, true},
		{"no change", 0, 1, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{Name: "test", Direction: tt.direction}
			if got := e.Crossed(tt.g0, tt.g1); got != tt.want {
				t.Errorf("Crossed(%v, %v) = %v, want %v", tt.g0, tt.g1, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("DefaultConfig has invalid Dt")
	}
	if cfg.Duration <= 0 {
		t.Error("DefaultConfig has invalid Duration")
	}
	if cfg.Tolerance.Rel <= 0 || cfg.Tolerance.Abs <= 0 {
		t.Error("DefaultConfig has invalid Tolerance")
	}
	if cfg.MinDt >= cfg.MaxDt {
		t.Error("DefaultConfig has MinDt >= MaxDt")
	}
	if !cfg.Adaptive {
		t.Error("DefaultConfig should be adaptive")
	}
}

func TestResultFinal(t *testing.T) {
	var empty Result
	if s, _ := empty.Final(); s != nil {
		t.Errorf("expected nil final state, got %v", s)
	}

	r := Result{
		States: []State{{10, 0, 0}, {9, -1, 0.1}},
		Times:  []float64{0, 0.5},
	}
	s, tau := r.Final()
	if s[0] != 9 || tau != 0.5 {
		t.Errorf("Final() = %v at %v", s, tau)
	}
}

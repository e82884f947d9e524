package stats

import (
	"math"
	"testing"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name string
		ml   int
		want float64
	}{
		{"pickem positive", 100, 0.5},
		{"pickem negative", -100, 0.5},
		{"moderate favorite", -150, 0.6},
		{"moderate underdog", 150, 0.4},
		{"heavy favorite", -300, 0.75},
		{"long shot", 300, 0.25},
		{"standard juice", -110, 0.5238},
		{"missing quote", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := impliedProbability(tt.ml)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("impliedProbability(%d) = %v, want %v", tt.ml, got, tt.want)
			}
		})
	}
}

func TestFairProbability(t *testing.T) {
	tests := []struct {
		name   string
		teamML int
		oppML  int
		want   float64
	}{
		{"symmetric juice", -110, -110, 0.5},
		{"favorite side", -150, 130, 0.5798},
		{"underdog side", 130, -150, 0.4202},
		{"heavy favorite", -200, 170, 0.6429},
		{"missing team quote", 0, 170, 0},
		{"missing opponent quote", -200, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fairProbability(tt.teamML, tt.oppML)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("fairProbability(%d, %d) = %v, want %v", tt.teamML, tt.oppML, got, tt.want)
			}
		})
	}
}

func TestFairProbabilitySidesSumToOne(t *testing.T) {
	pairs := [][2]int{{-110, -110}, {-150, 130}, {-200, 170}, {-300, 250}}

	for _, p := range pairs {
		sum := fairProbability(p[0], p[1]) + fairProbability(p[1], p[0])
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("fair probabilities for %d/%d sum to %v, want 1", p[0], p[1], sum)
		}
	}
}

package risk

import (
	"math"
	"testing"
)

func TestKellyFraction(t *testing.T) {
	tests := []struct {
		name string
		p, b float64
		want float64
	}{
		{"fair coin at even money has no edge", 0.5, 1.0, 0},
		{"negative edge", 0.4, 1.0, 0},
		{"classic 60/40 at evens", 0.6, 1.0, 0.2},
		{"non-positive net odds", 0.9, 0, 0},
		{"huge edge clips at 1", 0.999, 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KellyFraction(tt.p, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("KellyFraction(%v, %v) = %v, want %v", tt.p, tt.b, got, tt.want)
			}
		})
	}
}

func TestKellyZeroAtNonPositiveEdge(t *testing.T) {
	// f must be 0 whenever p*b - (1-p) <= 0.
	for _, c := range []struct{ p, b float64 }{
		{0.2, 4},   // edge exactly 0
		{0.1, 5},   // negative
		{0.01, 50}, // edge < 0
	} {
		edge := c.p*c.b - (1 - c.p)
		if edge > 1e-12 {
			t.Fatalf("test case (%v,%v) has positive edge %v", c.p, c.b, edge)
		}
		if f := KellyFraction(c.p, c.b); f != 0 {
			t.Errorf("KellyFraction(%v, %v) = %v, want 0", c.p, c.b, f)
		}
	}
}

func TestAllocateStakesNormalized(t *testing.T) {
	stakes := AllocateStakes([]float64{0.02, 0.015, 0.01}, StakeOptions{Fraction: 0.25, Cap: 1})
	if s := sum(stakes); math.Abs(s-1) > 1e-9 {
		t.Errorf("weights sum = %v, want 1", s)
	}
}

func TestAllocateStakesCap(t *testing.T) {
	// Against its own fair odds every ticket is edge-free, so the raw
	// Kelly is 0 and the cap can never be exceeded; verify the cap holds
	// even for a tiny cap value before normalization dominates.
	stakes := AllocateStakes([]float64{0.9, 0.1}, StakeOptions{Fraction: 1, Cap: 0.05, MinDiversification: 0})
	for i, s := range stakes {
		if s < 0 || s > 1 {
			t.Errorf("stake %d = %v outside [0,1]", i, s)
		}
	}
}

func TestAllocateStakesZeroFallback(t *testing.T) {
	// Fair-odds tickets produce zero Kelly everywhere; weights fall back
	// to the win probabilities themselves.
	bases := []float64{0.3, 0.2, 0.1}
	stakes := AllocateStakes(bases, StakeOptions{Fraction: 0.25, Cap: 1})
	total := 0.6
	for i, b := range bases {
		want := b / total
		if math.Abs(stakes[i]-want) > 1e-9 {
			t.Errorf("stake %d = %v, want proportional %v", i, stakes[i], want)
		}
	}
}

func TestAllocateStakesDiversificationFloor(t *testing.T) {
	stakes := AllocateStakes([]float64{0.9, 0.001, 0.001}, StakeOptions{
		Fraction:           0.25,
		Cap:                1,
		MinDiversification: 0.20,
	})
	if stakes[0] > 0.8+1e-9 {
		t.Errorf("top stake = %v, want at most 0.80", stakes[0])
	}
	if s := sum(stakes); math.Abs(s-1) > 1e-9 {
		t.Errorf("weights sum = %v after spill", s)
	}
	// Spill redistributes proportionally: equal remainder stakes stay
	// equal.
	if math.Abs(stakes[1]-stakes[2]) > 1e-12 {
		t.Errorf("equal tickets diverged after spill: %v vs %v", stakes[1], stakes[2])
	}
}

func TestAllocateStakesAllZeroInputs(t *testing.T) {
	stakes := AllocateStakes([]float64{0, 0}, StakeOptions{Fraction: 0.25, Cap: 1})
	for i, s := range stakes {
		if math.Abs(s-0.5) > 1e-9 {
			t.Errorf("stake %d = %v, want uniform 0.5", i, s)
		}
	}
}

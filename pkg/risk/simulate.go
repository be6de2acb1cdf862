package risk

import (
	"math/rand"

	"github.com/lotecalab/loteca-engine/core"
)

// Simulation holds N independently drawn slate outcomes. Matches are
// sampled independently of each other; cross-match correlation is a
// documented simplifying assumption of the whole optimizer, not an
// oversight.
type Simulation struct {
	Draws [][]core.Outcome // (sims × matches)
}

// Simulate draws n slate outcomes, one categorical sample per match per
// draw. Deterministic for a fixed rng state.
func Simulate(rng *rand.Rand, probs []core.Prob3, n int) *Simulation {
	draws := make([][]core.Outcome, n)
	for s := range draws {
		row := make([]core.Outcome, len(probs))
		for i, p := range probs {
			row[i] = sampleOutcome(rng, p)
		}
		draws[s] = row
	}
	return &Simulation{Draws: draws}
}

// sampleOutcome draws one outcome from a triple by inverse CDF. Numerical
// slack on the last edge falls through to away.
func sampleOutcome(rng *rand.Rand, p core.Prob3) core.Outcome {
	q := p.Normalize()
	u := rng.Float64()
	if u < q[core.Home] {
		return core.Home
	}
	if u < q[core.Home]+q[core.Draw] {
		return core.Draw
	}
	return core.Away
}

// HitCounts returns the per-draw hit count for one ticket.
func (s *Simulation) HitCounts(t Ticket) []int {
	counts := make([]int, len(s.Draws))
	for i, draw := range s.Draws {
		counts[i] = t.Hits(draw)
	}
	return counts
}

// WinRate is the simulated full-win frequency for one ticket.
func (s *Simulation) WinRate(t Ticket) float64 {
	if len(s.Draws) == 0 {
		return 0
	}
	wins := 0
	for _, draw := range s.Draws {
		if t.Wins(draw) {
			wins++
		}
	}
	return float64(wins) / float64(len(s.Draws))
}

package core

import "math"

// ProbFloor is the numerical floor applied to every probability before it
// feeds a log-likelihood or Kelly computation. Keeps triples away from
// degenerate 0/1 values.
const ProbFloor = 1e-9

// Prob3 is a 3-way outcome probability triple indexed by Outcome
// (home, draw, away).
type Prob3 [3]float64

// UniformProb3 returns the no-signal triple [1/3, 1/3, 1/3].
func UniformProb3() Prob3 {
	return Prob3{1.0 / 3.0, 1.0 / 3.0, 1.0 / 3.0}
}

// Sum returns the total mass of the triple.
func (p Prob3) Sum() float64 {
	return p[0] + p[1] + p[2]
}

// Normalize floors each component at ProbFloor and rescales the triple to
// sum to 1. A triple with no positive mass normalizes to uniform.
func (p Prob3) Normalize() Prob3 {
	var out Prob3
	for i, v := range p {
		if v < ProbFloor || math.IsNaN(v) {
			v = ProbFloor
		}
		out[i] = v
	}
	s := out.Sum()
	if s <= 0 || math.IsInf(s, 0) {
		return UniformProb3()
	}
	for i := range out {
		out[i] /= s
	}
	return out
}

// Entropy returns the Shannon entropy -Σ p·log p in nats. Higher entropy
// means a more uncertain match.
func (p Prob3) Entropy() float64 {
	q := p.Normalize()
	h := 0.0
	for _, v := range q {
		h -= v * math.Log(v)
	}
	return h
}

// Argmax returns the most probable outcome. Ties resolve to the earlier
// outcome in canonical order, which keeps the pick deterministic.
func (p Prob3) Argmax() Outcome {
	best := Home
	for _, o := range Outcomes[1:] {
		if p[o] > p[best] {
			best = o
		}
	}
	return best
}

// Top2 returns the two most probable outcomes, highest first.
func (p Prob3) Top2() [2]Outcome {
	first := p.Argmax()
	second := Home
	found := false
	for _, o := range Outcomes {
		if o == first {
			continue
		}
		if !found || p[o] > p[second] {
			second = o
			found = true
		}
	}
	return [2]Outcome{first, second}
}

// Mass returns the probability mass the triple assigns to a set of
// accepted outcomes.
func (p Prob3) Mass(accepted map[Outcome]bool) float64 {
	m := 0.0
	for _, o := range Outcomes {
		if accepted[o] {
			m += p[o]
		}
	}
	return m
}

// FairOdds returns the recalculated fair decimal prices 1/p per outcome.
func (p Prob3) FairOdds() [3]float64 {
	q := p.Normalize()
	return [3]float64{1 / q[0], 1 / q[1], 1 / q[2]}
}

package risk

// KellyFraction is the full-Kelly stake share for a binary bet with win
// probability p and net decimal odds b: f = (p*(b+1) - 1) / b, clipped to
// [0, 1]. Non-positive b yields 0.
func KellyFraction(p, b float64) float64 {
	if b <= 0 {
		return 0
	}
	f := (p*(b+1) - 1) / b
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// StakeOptions control the portfolio weighting step.
type StakeOptions struct {
	Fraction           float64 // fractional-Kelly multiplier, e.g. 0.25
	Cap                float64 // hard ceiling on any single pre-normalization fraction
	MinDiversification float64 // top ticket may hold at most 1 - this
}

// AllocateStakes converts per-ticket win probabilities into normalized
// stake weights. Each ticket is treated as a binary bet against its own
// fair odds (b = 1/p - 1), fractional Kelly is applied and capped, and the
// weights are normalized to sum to 1. When every Kelly fraction is zero
// the weights fall back to the win probabilities themselves, keeping the
// relative ranking. The diversification floor then trims the top ticket to
// at most 1 - MinDiversification, spilling the excess proportionally onto
// the rest.
func AllocateStakes(winProbs []float64, opts StakeOptions) []float64 {
	n := len(winProbs)
	if n == 0 {
		return nil
	}

	stakes := make([]float64, n)
	for i, p := range winProbs {
		p = clampProb(p)
		b := 1/p - 1
		f := KellyFraction(p, b) * clamp01(opts.Fraction)
		if opts.Cap > 0 && f > opts.Cap {
			f = opts.Cap
		}
		stakes[i] = f
	}

	total := sum(stakes)
	if total <= 1e-12 {
		copy(stakes, winProbs)
		total = sum(stakes)
	}
	if total <= 0 {
		for i := range stakes {
			stakes[i] = 1 / float64(n)
		}
		return stakes
	}
	for i := range stakes {
		stakes[i] /= total
	}

	if n >= 2 && opts.MinDiversification > 0 {
		ceiling := 1 - opts.MinDiversification
		top := argmax(stakes)
		if stakes[top] > ceiling {
			spill := stakes[top] - ceiling
			stakes[top] = ceiling
			restTotal := 0.0
			for i, s := range stakes {
				if i != top {
					restTotal += s
				}
			}
			for i := range stakes {
				if i == top {
					continue
				}
				if restTotal > 0 {
					stakes[i] += spill * stakes[i] / restTotal
				} else {
					stakes[i] += spill / float64(n-1)
				}
			}
		}
	}
	return stakes
}

func clampProb(p float64) float64 {
	const eps = 1e-9
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sum(vs []float64) float64 {
	t := 0.0
	for _, v := range vs {
		t += v
	}
	return t
}

func argmax(vs []float64) int {
	best := 0
	for i, v := range vs {
		if v > vs[best] {
			best = i
		}
	}
	return best
}

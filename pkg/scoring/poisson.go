// Package scoring converts a pair of expected goal rates into a 3-way
// outcome probability via truncated Poisson goal grids, independent or
// with the Dixon-Coles low-score correction, and fits the single global
// dependence parameter rho from history.
package scoring

import "math"

const maxGridBound = 18

// gridBound returns the data-driven truncation point of the goal grid.
func gridBound(lambdaHome, lambdaAway float64) int {
	b := int(math.Ceil(lambdaHome + lambdaAway + 8))
	if b > maxGridBound {
		b = maxGridBound
	}
	if b < 1 {
		b = 1
	}
	return b
}

// poissonPMF computes P(X = k) for X ~ Poisson(lambda) in log space for
// numerical stability.
func poissonPMF(lambda float64, k int) float64 {
	if k < 0 {
		return 0
	}
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	return math.Exp(float64(k)*math.Log(lambda) - lambda - logFactorial(k))
}

func logFactorial(n int) float64 {
	if n <= 1 {
		return 0
	}
	s := 0.0
	for i := 2; i <= n; i++ {
		s += math.Log(float64(i))
	}
	return s
}

// pmfVector precomputes the Poisson mass for goals 0..bound.
func pmfVector(lambda float64, bound int) []float64 {
	v := make([]float64, bound+1)
	for k := 0; k <= bound; k++ {
		v[k] = poissonPMF(lambda, k)
	}
	return v
}

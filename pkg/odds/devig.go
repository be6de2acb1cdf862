// Package odds merges bookmaker quotes for a match into a single fair
// probability triple: price validation, overround removal (proportional or
// Shin), and weighted cross-provider consensus.
package odds

import (
	"fmt"
	"math"

	"github.com/lotecalab/loteca-engine/core"
)

// DevigMethod selects the overround-removal policy.
type DevigMethod string

const (
	// DevigProportional divides each implied probability by the booksum.
	// Always defined, but biases favorites and underdogs asymmetrically.
	DevigProportional DevigMethod = "proportional"
	// DevigShin solves for the insider-trading proportion z and
	// reconstructs fair probabilities from it. Preferred when precision
	// matters; collapses to proportional as the margin shrinks.
	DevigShin DevigMethod = "shin"
)

const (
	shinZMax      = 0.30
	shinTolerance = 1e-10
	shinMaxIter   = 200
)

// ParseDevigMethod validates a configured method name.
func ParseDevigMethod(s string) (DevigMethod, error) {
	switch DevigMethod(s) {
	case DevigProportional, DevigShin:
		return DevigMethod(s), nil
	case "":
		return DevigShin, nil
	}
	return "", fmt.Errorf("unknown devig method %q", s)
}

// impliedProbs inverts the three decimal prices. Caller guarantees each
// price > 1.
func impliedProbs(home, draw, away float64) core.Prob3 {
	return core.Prob3{1 / home, 1 / draw, 1 / away}
}

// Proportional removes the overround by dividing each implied probability
// by the booksum.
func Proportional(iv core.Prob3) core.Prob3 {
	s := iv.Sum()
	if s <= 0 {
		return core.UniformProb3()
	}
	return core.Prob3{iv[0] / s, iv[1] / s, iv[2] / s}.Normalize()
}

// Shin removes the overround by Shin's method: the booksum above 1 is
// modeled as partly informed money, controlled by a single latent
// proportion z. Fair probabilities are reconstructed as
//
//	p_i(z) = (sqrt(z^2 + 4(1-z)·iv_i^2/Π) - z) / (2(1-z))
//
// with Π the booksum, and z is found by bisection so the triple sums to 1.
// The total is monotone decreasing in z with a closed boundary at z=0,
// where the reconstruction equals proportional normalization for a
// margin-free book. Books without a bracketable root (booksum <= 1 or an
// extreme overround) fall back to proportional, per the degenerate-numeric
// policy.
func Shin(iv core.Prob3) core.Prob3 {
	booksum := iv.Sum()
	if booksum <= 1 {
		return Proportional(iv)
	}

	total := func(z float64) float64 {
		s := 0.0
		for _, v := range iv {
			s += shinProb(z, v, booksum)
		}
		return s
	}

	lo, hi := 0.0, shinZMax
	if total(lo)-1 < 0 || total(hi)-1 > 0 {
		// Root not bracketed: overround outside the model's range.
		return Proportional(iv)
	}

	for i := 0; i < shinMaxIter && hi-lo > shinTolerance; i++ {
		mid := (lo + hi) / 2
		if total(mid)-1 > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	z := (lo + hi) / 2
	var p core.Prob3
	for i, v := range iv {
		p[i] = shinProb(z, v, booksum)
	}
	return p.Normalize()
}

func shinProb(z, iv, booksum float64) float64 {
	if z == 0 {
		return iv / math.Sqrt(booksum)
	}
	return (math.Sqrt(z*z+4*(1-z)*iv*iv/booksum) - z) / (2 * (1 - z))
}

// Devig applies the selected method to one quote's prices.
func Devig(method DevigMethod, home, draw, away float64) core.Prob3 {
	iv := impliedProbs(home, draw, away)
	if method == DevigShin {
		return Shin(iv)
	}
	return Proportional(iv)
}

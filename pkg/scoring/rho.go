package scoring

import (
	"math"

	"github.com/lotecalab/loteca-engine/pkg/ratings"
)

// RhoSearch configures the offline grid search for the Dixon-Coles
// dependence parameter.
type RhoSearch struct {
	Min  float64 // lower bound of the search range
	Max  float64 // upper bound
	Step float64 // grid step
	// Window caps the number of most-recent matches entering the
	// likelihood, keeping the search cheap on long histories. Zero means
	// no cap.
	Window int
}

// DefaultRhoSearch returns the standard bounded search.
func DefaultRhoSearch() RhoSearch {
	return RhoSearch{Min: -0.12, Max: 0.12, Step: 0.01, Window: 2000}
}

// EstimateRho grid-searches rho over the configured range, maximizing the
// Dixon-Coles-corrected Poisson log-likelihood of the historical sample
// under the fitted rating book. The search is 1-D and bounded, so an
// exhaustive grid is both exact enough and trivially cheap.
func EstimateRho(history []ratings.Result, book *ratings.Book, search RhoSearch) float64 {
	if len(history) == 0 || search.Step <= 0 || search.Max < search.Min {
		return 0
	}

	sample := history
	if search.Window > 0 && len(sample) > search.Window {
		sample = sample[len(sample)-search.Window:]
	}

	bestRho, bestLL := 0.0, math.Inf(-1)
	for rho := search.Min; rho <= search.Max+search.Step/2; rho += search.Step {
		ll := dcLogLikelihood(sample, book, rho)
		if ll > bestLL {
			bestLL, bestRho = ll, rho
		}
	}
	return bestRho
}

func dcLogLikelihood(sample []ratings.Result, book *ratings.Book, rho float64) float64 {
	ll := 0.0
	for _, r := range sample {
		lambdaHome, lambdaAway := book.Lambdas(r.Home, r.Away)
		p := poissonPMF(lambdaHome, r.HomeGoals) *
			poissonPMF(lambdaAway, r.AwayGoals) *
			dcTau(r.HomeGoals, r.AwayGoals, rho, lambdaHome, lambdaAway)
		if p > 0 {
			ll += math.Log(p)
		}
	}
	return ll
}

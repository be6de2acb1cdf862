// Package backtest evaluates the scoring model out of sample: it fits
// the ratings on the front of the historical table, scores the held-out
// tail, and reports multiclass Brier, log loss, top-pick accuracy and
// per-class reliability bins. The held-out predictions double as a
// calibration history for the isotonic stage.
package backtest

import (
	"fmt"
	"math"
	"sort"

	"github.com/lotecalab/loteca-engine/core"
	"github.com/lotecalab/loteca-engine/pkg/ensemble"
	"github.com/lotecalab/loteca-engine/pkg/ratings"
	"github.com/lotecalab/loteca-engine/pkg/scoring"
)

// Config controls one backtest.
type Config struct {
	// Split is the fraction of the (chronologically sorted) history used
	// for fitting; the rest is evaluated. Valid in (0, 1).
	Split  float64
	Bins   int // reliability bins per class
	Filter ratings.FilterConfig
	Rho    scoring.RhoSearch
}

// DefaultConfig returns the standard 80/20 walk-forward split.
func DefaultConfig() Config {
	return Config{
		Split:  0.8,
		Bins:   10,
		Filter: ratings.DefaultFilterConfig(),
		Rho:    scoring.DefaultRhoSearch(),
	}
}

// Bin is one reliability bucket for one outcome class.
type Bin struct {
	Low           float64
	High          float64
	MeanPredicted float64
	HitRate       float64
	Count         int
}

// Report is the backtest output.
type Report struct {
	TrainMatches int
	EvalMatches  int
	Rho          float64

	Brier    float64 // mean squared distance to the one-hot outcome
	LogLoss  float64 // mean negative log probability of the realized outcome
	Accuracy float64 // top-pick hit rate

	Bins [3][]Bin

	// Samples are the held-out (prediction, outcome) pairs, ready to fit
	// a calibrator.
	Samples []ensemble.Sample
}

// Run fits on the front split of the history and evaluates the rest.
func Run(history []ratings.Result, cfg Config) (*Report, error) {
	if cfg.Split <= 0 || cfg.Split >= 1 {
		return nil, fmt.Errorf("backtest: split %v outside (0, 1)", cfg.Split)
	}
	if cfg.Bins <= 0 {
		cfg.Bins = 10
	}

	ordered := make([]ratings.Result, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	cut := int(cfg.Split * float64(len(ordered)))
	if cut < 1 || cut >= len(ordered) {
		return nil, fmt.Errorf("backtest: %d matches cannot be split at %v", len(ordered), cfg.Split)
	}
	train, eval := ordered[:cut], ordered[cut:]

	book, err := ratings.Fit(train, cfg.Filter)
	if err != nil {
		return nil, err
	}
	rho := scoring.EstimateRho(train, book, cfg.Rho)
	model := scoring.DixonColesModel{Rho: rho}

	rep := &Report{
		TrainMatches: len(train),
		EvalMatches:  len(eval),
		Rho:          rho,
	}

	hits := 0
	for _, r := range eval {
		lh, la := book.Lambdas(r.Home, r.Away)
		p := model.Outcome(lh, la)
		y := outcomeOf(r)

		rep.Samples = append(rep.Samples, ensemble.Sample{Prob: p, Result: y})
		rep.Brier += brier(p, y)
		rep.LogLoss += -math.Log(math.Max(p[y], core.ProbFloor))
		if p.Argmax() == y {
			hits++
		}
	}
	n := float64(len(eval))
	rep.Brier /= n
	rep.LogLoss /= n
	rep.Accuracy = float64(hits) / n

	for _, o := range core.Outcomes {
		rep.Bins[o] = reliabilityBins(rep.Samples, o, cfg.Bins)
	}
	return rep, nil
}

// outcomeOf maps a final score to its 1X2 outcome.
func outcomeOf(r ratings.Result) core.Outcome {
	switch {
	case r.HomeGoals > r.AwayGoals:
		return core.Home
	case r.HomeGoals < r.AwayGoals:
		return core.Away
	default:
		return core.Draw
	}
}

// brier is the squared distance between a triple and the one-hot outcome.
func brier(p core.Prob3, y core.Outcome) float64 {
	s := 0.0
	for _, o := range core.Outcomes {
		target := 0.0
		if o == y {
			target = 1
		}
		d := p[o] - target
		s += d * d
	}
	return s
}

// reliabilityBins buckets one class's predictions into equal-width bins
// over [0, 1] and compares mean prediction against realized frequency.
func reliabilityBins(samples []ensemble.Sample, class core.Outcome, n int) []Bin {
	bins := make([]Bin, n)
	width := 1.0 / float64(n)
	for i := range bins {
		bins[i].Low = float64(i) * width
		bins[i].High = bins[i].Low + width
	}

	sums := make([]float64, n)
	wins := make([]int, n)
	for _, s := range samples {
		p := s.Prob[class]
		i := int(p / width)
		if i >= n {
			i = n - 1
		}
		sums[i] += p
		bins[i].Count++
		if s.Result == class {
			wins[i]++
		}
	}
	for i := range bins {
		if bins[i].Count == 0 {
			continue
		}
		bins[i].MeanPredicted = sums[i] / float64(bins[i].Count)
		bins[i].HitRate = float64(wins[i]) / float64(bins[i].Count)
	}
	return bins
}

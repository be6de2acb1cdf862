package odds

import (
	"github.com/lotecalab/loteca-engine/core"
)

// Quote is one provider's decimal prices for a match. Prices are payout
// multipliers and must each exceed 1.0 to carry any information.
type Quote struct {
	MatchID  string  `json:"match_id"`
	Provider string  `json:"provider"`
	Home     float64 `json:"home"`
	Draw     float64 `json:"draw"`
	Away     float64 `json:"away"`
}

// Valid reports whether every price is a usable payout multiplier.
func (q Quote) Valid() bool {
	return q.Home > 1.0 && q.Draw > 1.0 && q.Away > 1.0
}

// Consensus is the devigged, cross-provider fair probability for one match.
type Consensus struct {
	MatchID   string     `json:"match_id"`
	Prob      core.Prob3 `json:"prob"`
	Source    string     `json:"source"`    // core.SourceConsensus or core.SourceNone
	Providers int        `json:"providers"` // quotes that survived validation
	// MeanOdds is the per-outcome mean decimal price across valid quotes,
	// kept alongside the fair probabilities for edge and Kelly reporting.
	MeanOdds [3]float64 `json:"mean_odds"`
}

// Engine devigs and merges quotes. Provider weights default to 1; a weight
// of 0 excludes the provider entirely.
type Engine struct {
	method  DevigMethod
	weights map[string]float64
}

// NewEngine creates a consensus engine. weights may be nil.
func NewEngine(method DevigMethod, weights map[string]float64) *Engine {
	return &Engine{method: method, weights: weights}
}

func (e *Engine) providerWeight(provider string) float64 {
	if e.weights == nil {
		return 1
	}
	w, ok := e.weights[provider]
	if !ok {
		return 1
	}
	return w
}

// Merge combines all quotes for one match into a single Consensus.
// Invalid quotes (any price <= 1.0) are excluded. A match with no valid
// quote gets the uniform triple flagged SourceNone rather than an error:
// sparse market data is a documented fallback, not a failure.
func (e *Engine) Merge(matchID string, quotes []Quote) Consensus {
	var (
		acc       core.Prob3
		oddsSum   [3]float64
		weightSum float64
		used      int
	)

	for _, q := range quotes {
		if q.MatchID != matchID || !q.Valid() {
			continue
		}
		w := e.providerWeight(q.Provider)
		if w <= 0 {
			continue
		}
		p := Devig(e.method, q.Home, q.Draw, q.Away)
		for i := range acc {
			acc[i] += w * p[i]
		}
		oddsSum[0] += q.Home
		oddsSum[1] += q.Draw
		oddsSum[2] += q.Away
		weightSum += w
		used++
	}

	if used == 0 || weightSum <= 0 {
		return Consensus{
			MatchID: matchID,
			Prob:    core.UniformProb3(),
			Source:  core.SourceNone,
		}
	}

	for i := range acc {
		acc[i] /= weightSum
	}
	var mean [3]float64
	for i := range mean {
		mean[i] = oddsSum[i] / float64(used)
	}

	return Consensus{
		MatchID:   matchID,
		Prob:      acc.Normalize(),
		Source:    core.SourceConsensus,
		Providers: used,
		MeanOdds:  mean,
	}
}

// MergeSlate runs Merge for every match in the slate, preserving slate
// order. Quotes for unknown matches are ignored.
func (e *Engine) MergeSlate(slate []core.Match, quotes []Quote) []Consensus {
	byMatch := make(map[string][]Quote, len(slate))
	for _, q := range quotes {
		byMatch[q.MatchID] = append(byMatch[q.MatchID], q)
	}

	out := make([]Consensus, 0, len(slate))
	for _, m := range slate {
		out = append(out, e.Merge(m.ID, byMatch[m.ID]))
	}
	return out
}

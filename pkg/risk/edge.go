package risk

import (
	"github.com/lotecalab/loteca-engine/core"
)

// MatchEdge compares the model's triple against the market for one match:
// normalized implied probabilities from the mean decimal prices, the raw
// edge per outcome, and the per-outcome Kelly fraction at those prices.
type MatchEdge struct {
	MatchID string
	Home    string
	Away    string

	Model    core.Prob3
	Odds     [3]float64 // mean decimal prices, 0 when unavailable
	Implied  core.Prob3
	Edge     [3]float64 // model minus implied
	Kelly    [3]float64
	KellyMax float64
	BestBet  string // outcome symbol of the strongest Kelly, "none" without one
	Notes    string
}

// EdgeFor builds the per-match edge row. Absent or invalid prices (≤ 1)
// zero out the implied probabilities and Kelly fractions and annotate the
// row, never fail it.
func EdgeFor(match core.Match, model core.Prob3, odds [3]float64) MatchEdge {
	e := MatchEdge{
		MatchID: match.ID,
		Home:    match.Home,
		Away:    match.Away,
		Model:   model.Normalize(),
		Odds:    odds,
		BestBet: "none",
	}

	impSum := 0.0
	for _, o := range core.Outcomes {
		if odds[o] > 1 {
			e.Implied[o] = 1 / odds[o]
			impSum += e.Implied[o]
		}
	}
	if impSum > 0 {
		for o := range e.Implied {
			e.Implied[o] /= impSum
		}
	} else {
		e.Notes = "odds unavailable"
	}

	for _, o := range core.Outcomes {
		e.Edge[o] = e.Model[o] - e.Implied[o]
		if odds[o] > 1 {
			e.Kelly[o] = priceKelly(e.Model[o], odds[o])
		}
		if e.Kelly[o] > e.KellyMax {
			e.KellyMax = e.Kelly[o]
			e.BestBet = o.Symbol()
		}
	}
	return e
}

// priceKelly is the per-outcome Kelly stake at decimal price k:
// f = (k*p - 1) / (k - 1), floored at 0 and capped at 1.
func priceKelly(p, k float64) float64 {
	if k <= 1 {
		return 0
	}
	f := (k*p - 1) / (k - 1)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// EdgeReport builds edge rows for a whole slate. Slices iterate in slate
// order; meanOdds entries line up with matches.
func EdgeReport(matches []core.Match, model []core.Prob3, meanOdds [][3]float64) []MatchEdge {
	rows := make([]MatchEdge, len(matches))
	for i, m := range matches {
		var odds [3]float64
		if i < len(meanOdds) {
			odds = meanOdds[i]
		}
		var p core.Prob3
		if i < len(model) {
			p = model[i]
		}
		rows[i] = EdgeFor(m, p, odds)
	}
	return rows
}

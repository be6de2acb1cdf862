package risk

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lotecalab/loteca-engine/core"
)

// Paytable maps an exact hit count to a payout per unit staked. When no
// table is supplied simulated returns use the dimensionless hit fraction
// instead, which ranks portfolios but carries no currency meaning.
type Paytable map[int]decimal.Decimal

// Payout returns the payout for an exact hit count, zero when the count is
// not in the table.
func (pt Paytable) Payout(hits int) decimal.Decimal {
	if pt == nil {
		return decimal.Zero
	}
	return pt[hits]
}

// Options configure one optimizer run.
type Options struct {
	SlateSize  int // expected number of matches; mismatch is fatal
	Sims       int
	Tickets    int // portfolio size K
	MaxDuplos  int
	MaxTriplos int

	KellyFraction      float64
	KellyCap           float64
	MinDiversification float64
	VaRConfidence      float64

	Bankroll decimal.Decimal
	Paytable Paytable
}

// DefaultOptions returns the standard slate settings.
func DefaultOptions() Options {
	return Options{
		SlateSize:          14,
		Sims:               50000,
		Tickets:            5,
		MaxDuplos:          4,
		MaxTriplos:         2,
		KellyFraction:      0.25,
		KellyCap:           1.0,
		MinDiversification: 0.20,
		VaRConfidence:      0.95,
	}
}

// TicketPlan is one chosen ticket with its stake.
type TicketPlan struct {
	ID          string
	Ticket      Ticket
	WinProb     float64 // analytic full-win probability
	StakeWeight float64
	Stake       decimal.Decimal // bankroll share, zero when no bankroll set
}

// RiskReport carries the portfolio's simulated tail risk. Monetary is
// false when no paytable was supplied: VaR/ES are then in hit-fraction
// units and must not be read as currency.
type RiskReport struct {
	Monetary    bool
	EV          float64 // mean simulated portfolio return per unit staked
	VaR         float64
	ES          float64
	Confidence  float64
	TopWinProb  float64
	MeanWinProb float64
}

// Plan is the optimizer's output.
type Plan struct {
	Tickets []TicketPlan
	Risk    RiskReport
}

// Optimizer builds a staked ticket portfolio from the slate's final
// probability matrix.
type Optimizer struct {
	opts Options
	rng  *rand.Rand
}

// NewOptimizer wires an optimizer around a seeded source. Zero-valued
// knobs fall back to defaults.
func NewOptimizer(opts Options, rng *rand.Rand) *Optimizer {
	def := DefaultOptions()
	if opts.SlateSize == 0 {
		opts.SlateSize = def.SlateSize
	}
	if opts.Sims == 0 {
		opts.Sims = def.Sims
	}
	if opts.Tickets == 0 {
		opts.Tickets = def.Tickets
	}
	if opts.KellyFraction == 0 {
		opts.KellyFraction = def.KellyFraction
	}
	if opts.KellyCap == 0 {
		opts.KellyCap = def.KellyCap
	}
	if opts.VaRConfidence == 0 {
		opts.VaRConfidence = def.VaRConfidence
	}
	return &Optimizer{opts: opts, rng: rng}
}

// Build runs pool generation, selection, staking and risk measurement.
// A probability matrix that does not match the expected slate size aborts
// the run: that is upstream data corruption, not sparseness.
func (o *Optimizer) Build(probs []core.Prob3) (*Plan, error) {
	if len(probs) != o.opts.SlateSize {
		return nil, fmt.Errorf("risk: probability matrix has %d matches, expected slate of %d", len(probs), o.opts.SlateSize)
	}

	poolSize := 20
	if s := o.opts.Tickets * 4; s > poolSize {
		poolSize = s
	}
	pool := CandidatePool(o.rng, probs, poolSize, o.opts.MaxDuplos, o.opts.MaxTriplos)

	// Rank candidates by analytic full-win probability and keep the top K.
	sort.SliceStable(pool, func(a, b int) bool {
		return pool[a].WinProb(probs) > pool[b].WinProb(probs)
	})
	k := o.opts.Tickets
	if k > len(pool) {
		k = len(pool)
	}
	chosen := pool[:k]

	sim := Simulate(o.rng, probs, o.opts.Sims)

	// Staking basis: analytic win probability, or mean simulated payout
	// when a paytable prices partial hits too.
	bases := make([]float64, len(chosen))
	for i, t := range chosen {
		if o.opts.Paytable == nil {
			bases[i] = t.WinProb(probs)
		} else {
			bases[i] = meanPayout(sim, t, o.opts.Paytable)
		}
	}

	weights := AllocateStakes(bases, StakeOptions{
		Fraction:           o.opts.KellyFraction,
		Cap:                o.opts.KellyCap,
		MinDiversification: o.opts.MinDiversification,
	})

	returns := portfolioReturns(sim, chosen, weights, o.opts.Paytable)
	vaR, es := VaRES(returns, o.opts.VaRConfidence)
	ev := 0.0
	if len(returns) > 0 {
		for _, r := range returns {
			ev += r
		}
		ev /= float64(len(returns))
	}

	plans := make([]TicketPlan, len(chosen))
	topWin, sumWin := 0.0, 0.0
	for i, t := range chosen {
		wp := t.WinProb(probs)
		if wp > topWin {
			topWin = wp
		}
		sumWin += wp
		plans[i] = TicketPlan{
			ID:          uuid.NewString(),
			Ticket:      t,
			WinProb:     wp,
			StakeWeight: weights[i],
		}
		if !o.opts.Bankroll.IsZero() {
			plans[i].Stake = o.opts.Bankroll.Mul(decimal.NewFromFloat(weights[i])).Round(2)
		}
	}

	return &Plan{
		Tickets: plans,
		Risk: RiskReport{
			Monetary:    o.opts.Paytable != nil,
			EV:          ev,
			VaR:         vaR,
			ES:          es,
			Confidence:  o.opts.VaRConfidence,
			TopWinProb:  topWin,
			MeanWinProb: sumWin / float64(len(chosen)),
		},
	}, nil
}

// portfolioReturns computes the weighted per-draw portfolio return: the
// hit fraction per ticket without a paytable, the exact-hit payout with
// one.
func portfolioReturns(sim *Simulation, tickets []Ticket, weights []float64, pt Paytable) []float64 {
	returns := make([]float64, len(sim.Draws))
	for ti, t := range tickets {
		w := weights[ti]
		if w == 0 {
			continue
		}
		counts := sim.HitCounts(t)
		if pt == nil {
			slate := float64(len(t.Cells))
			for i, h := range counts {
				returns[i] += w * float64(h) / slate
			}
		} else {
			for i, h := range counts {
				pay, _ := pt.Payout(h).Float64()
				returns[i] += w * pay
			}
		}
	}
	return returns
}

// meanPayout is the simulated expected payout per unit staked on one
// ticket.
func meanPayout(sim *Simulation, t Ticket, pt Paytable) float64 {
	if len(sim.Draws) == 0 {
		return 0
	}
	total := 0.0
	for _, h := range sim.HitCounts(t) {
		pay, _ := pt.Payout(h).Float64()
		total += pay
	}
	return total / float64(len(sim.Draws))
}

// VaRES returns the empirical Value-at-Risk and Expected Shortfall of a
// return sample at the given confidence: the (1-alpha) quantile of the
// sorted returns and the mean of the tail at or below it.
func VaRES(returns []float64, alpha float64) (vaR, es float64) {
	if len(returns) == 0 {
		return 0, 0
	}
	r := make([]float64, len(returns))
	copy(r, returns)
	sort.Float64s(r)

	idx := int((1 - alpha) * float64(len(r)-1))
	if idx < 0 {
		idx = 0
	}
	vaR = r[idx]
	tail := r[:idx+1]
	es = sum(tail) / float64(len(tail))
	return vaR, es
}

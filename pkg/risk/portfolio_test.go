package risk

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lotecalab/loteca-engine/core"
)

func fullSlate() []core.Prob3 {
	probs := make([]core.Prob3, 14)
	for i := range probs {
		switch i % 3 {
		case 0:
			probs[i] = core.Prob3{0.60, 0.25, 0.15}
		case 1:
			probs[i] = core.Prob3{0.38, 0.34, 0.28}
		default:
			probs[i] = core.Prob3{0.50, 0.28, 0.22}
		}
	}
	return probs
}

func TestBuildRejectsWrongSlateSize(t *testing.T) {
	opt := NewOptimizer(DefaultOptions(), rand.New(rand.NewSource(1)))
	if _, err := opt.Build(threeMatchSlate()); err == nil {
		t.Fatal("expected structural error for 3-match matrix against 14-match slate")
	}
}

func TestBuildPlanShape(t *testing.T) {
	opts := DefaultOptions()
	opts.Sims = 2000
	opts.Bankroll = decimal.NewFromInt(100)
	opt := NewOptimizer(opts, rand.New(rand.NewSource(7)))

	plan, err := opt.Build(fullSlate())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(plan.Tickets) != opts.Tickets {
		t.Fatalf("tickets = %d, want %d", len(plan.Tickets), opts.Tickets)
	}

	totalWeight := 0.0
	seen := map[string]bool{}
	for _, tp := range plan.Tickets {
		if tp.ID == "" || seen[tp.ID] {
			t.Errorf("ticket id %q missing or duplicated", tp.ID)
		}
		seen[tp.ID] = true
		if len(tp.Ticket.Cells) != opts.SlateSize {
			t.Errorf("ticket has %d cells, want %d", len(tp.Ticket.Cells), opts.SlateSize)
		}
		if tp.StakeWeight < 0 || tp.StakeWeight > 1 {
			t.Errorf("stake weight %v outside [0,1]", tp.StakeWeight)
		}
		totalWeight += tp.StakeWeight
		if tp.Stake.IsNegative() {
			t.Errorf("negative stake %v", tp.Stake)
		}
	}
	if math.Abs(totalWeight-1) > 1e-9 {
		t.Errorf("stake weights sum = %v, want 1", totalWeight)
	}

	// Tickets come ranked by analytic win probability.
	for i := 1; i < len(plan.Tickets); i++ {
		if plan.Tickets[i].WinProb > plan.Tickets[i-1].WinProb+1e-12 {
			t.Errorf("tickets not ranked: %v before %v", plan.Tickets[i-1].WinProb, plan.Tickets[i].WinProb)
		}
	}

	if plan.Risk.Monetary {
		t.Error("no paytable supplied, report must be flagged non-monetary")
	}
	if plan.Risk.VaR < 0 || plan.Risk.VaR > 1 {
		t.Errorf("hit-fraction VaR = %v outside [0,1]", plan.Risk.VaR)
	}
	if plan.Risk.ES > plan.Risk.VaR+1e-12 {
		t.Errorf("ES %v exceeds VaR %v", plan.Risk.ES, plan.Risk.VaR)
	}
	if plan.Risk.EV < plan.Risk.ES-1e-12 || plan.Risk.EV > 1 {
		t.Errorf("EV %v outside [ES, 1]", plan.Risk.EV)
	}
}

func TestBuildMonetaryWithPaytable(t *testing.T) {
	opts := DefaultOptions()
	opts.Sims = 1000
	opts.Paytable = Paytable{
		14: decimal.NewFromInt(100000),
		13: decimal.NewFromInt(1500),
	}
	opt := NewOptimizer(opts, rand.New(rand.NewSource(11)))
	plan, err := opt.Build(fullSlate())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !plan.Risk.Monetary {
		t.Error("paytable supplied, report must be monetary")
	}
}

func TestBuildSelectionDominatesBaseline(t *testing.T) {
	opts := DefaultOptions()
	opts.Sims = 500
	opt := NewOptimizer(opts, rand.New(rand.NewSource(3)))
	plan, err := opt.Build(fullSlate())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// The greedy baseline is always in the candidate pool, so the top
	// chosen ticket can never rank below it. Perturbations only ever
	// widen seco cells, never mint triplos.
	probs := fullSlate()
	baseline := GreedyTicket(probs, opts.MaxDuplos, opts.MaxTriplos).WinProb(probs)
	if plan.Tickets[0].WinProb < baseline-1e-12 {
		t.Errorf("top ticket win prob %v below greedy baseline %v", plan.Tickets[0].WinProb, baseline)
	}
	for _, tp := range plan.Tickets {
		if _, tr := tp.Ticket.Counts(); tr > opts.MaxTriplos {
			t.Errorf("ticket exceeds triplo budget: %d > %d", tr, opts.MaxTriplos)
		}
	}
}

func TestVaRES(t *testing.T) {
	returns := []float64{0.9, 0.1, 0.5, 0.3, 0.7, 0.2, 0.8, 0.4, 0.6, 1.0}
	vaR, es := VaRES(returns, 0.95)
	// idx = (1-0.95)*(10-1) = 0 after truncation.
	if vaR != 0.1 {
		t.Errorf("VaR = %v, want worst return 0.1", vaR)
	}
	if es != 0.1 {
		t.Errorf("ES = %v, want 0.1", es)
	}

	vaR, es = VaRES(returns, 0.50)
	// idx = 0.5*9 = 4 -> fifth-worst return.
	if vaR != 0.5 {
		t.Errorf("VaR@50 = %v, want 0.5", vaR)
	}
	wantES := (0.1 + 0.2 + 0.3 + 0.4 + 0.5) / 5
	if math.Abs(es-wantES) > 1e-12 {
		t.Errorf("ES@50 = %v, want %v", es, wantES)
	}
}

func TestVaRESEmpty(t *testing.T) {
	if v, e := VaRES(nil, 0.95); v != 0 || e != 0 {
		t.Errorf("empty returns gave (%v, %v)", v, e)
	}
}

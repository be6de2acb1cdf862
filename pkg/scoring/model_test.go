package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/lotecalab/loteca-engine/core"
	"github.com/lotecalab/loteca-engine/pkg/ratings"
)

func TestPoissonPMF(t *testing.T) {
	// P(X=0) = e^-lambda.
	if got, want := poissonPMF(1.5, 0), math.Exp(-1.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("pmf(1.5, 0) = %v, want %v", got, want)
	}
	// P(X=2) for lambda=2 is 2e^-2.
	if got, want := poissonPMF(2, 2), 2*math.Exp(-2); math.Abs(got-want) > 1e-12 {
		t.Errorf("pmf(2, 2) = %v, want %v", got, want)
	}
	if poissonPMF(1.5, -1) != 0 {
		t.Error("negative k must have zero mass")
	}
	if poissonPMF(0, 0) != 1 {
		t.Error("lambda=0 puts all mass at k=0")
	}
}

func TestPoissonOutcomeSumsToOne(t *testing.T) {
	m := PoissonModel{}
	for _, l := range [][2]float64{{1.4, 1.1}, {0.6, 0.5}, {3.2, 0.4}, {2.0, 2.0}} {
		p := m.Outcome(l[0], l[1])
		if s := p.Sum(); math.Abs(s-1) > 1e-9 {
			t.Errorf("lambdas %v: outcome sums to %v", l, s)
		}
	}
}

func TestPoissonOutcomeFavorsHigherLambda(t *testing.T) {
	p := PoissonModel{}.Outcome(2.4, 0.8)
	if p[core.Home] <= p[core.Away] {
		t.Errorf("home should be favored at lambdas 2.4/0.8: %v", p)
	}
	q := PoissonModel{}.Outcome(0.8, 2.4)
	if q[core.Away] <= q[core.Home] {
		t.Errorf("away should be favored at lambdas 0.8/2.4: %v", q)
	}
}

func TestDixonColesZeroRhoMatchesPoisson(t *testing.T) {
	uni := PoissonModel{}
	dc := DixonColesModel{Rho: 0}
	for _, l := range [][2]float64{{1.4, 1.1}, {0.5, 0.4}, {2.7, 1.9}, {0.9, 2.2}} {
		pu := uni.Outcome(l[0], l[1])
		pd := dc.Outcome(l[0], l[1])
		for i := range pu {
			if math.Abs(pu[i]-pd[i]) > 1e-12 {
				t.Errorf("lambdas %v outcome %d: dc %v != poisson %v", l, i, pd[i], pu[i])
			}
		}
	}
}

func TestDixonColesNegativeRhoLiftsDraw(t *testing.T) {
	// Negative rho inflates the 0-0 and 1-1 cells, so the draw mass must
	// rise relative to the independent model.
	uni := PoissonModel{}.Outcome(1.3, 1.1)
	dc := DixonColesModel{Rho: -0.10}.Outcome(1.3, 1.1)
	if dc[core.Draw] <= uni[core.Draw] {
		t.Errorf("draw mass %v should exceed independent %v under rho=-0.10", dc[core.Draw], uni[core.Draw])
	}
}

func TestDcTauFloor(t *testing.T) {
	// Extreme rho against large lambdas would push tau(0,0) negative
	// without the floor.
	if tau := dcTau(0, 0, 0.12, 10, 10); tau < core.ProbFloor {
		t.Errorf("tau = %v, must be floored above zero", tau)
	}
	if tau := dcTau(3, 2, 0.5, 1, 1); tau != 1 {
		t.Errorf("tau for high scores = %v, want 1", tau)
	}
}

func TestGridBound(t *testing.T) {
	if b := gridBound(1.4, 1.1); b != 11 {
		t.Errorf("bound(1.4, 1.1) = %d, want 11", b)
	}
	if b := gridBound(9, 9); b != maxGridBound {
		t.Errorf("bound(9, 9) = %d, want cap %d", b, maxGridBound)
	}
}

func fitSample(t *testing.T) (*ratings.Book, []ratings.Result) {
	t.Helper()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var hist []ratings.Result
	scores := [][2]int{{2, 0}, {1, 1}, {0, 0}, {2, 1}, {1, 0}, {3, 1}, {1, 1}, {0, 1}}
	teams := []string{"galo", "peixe", "leao", "tricolor"}
	for i, s := range scores {
		hist = append(hist, ratings.Result{
			Date:      base.AddDate(0, 0, i),
			Home:      teams[i%4],
			Away:      teams[(i+1)%4],
			HomeGoals: s[0],
			AwayGoals: s[1],
		})
	}
	book, err := ratings.Fit(hist, ratings.DefaultFilterConfig())
	if err != nil {
		t.Fatal(err)
	}
	return book, hist
}

func TestScoreSlate(t *testing.T) {
	book, _ := fitSample(t)
	slate := []core.Match{
		{ID: "m1", Home: "galo", Away: "peixe"},
		{ID: "m2", Home: "leao", Away: "tricolor"},
	}
	preds := ScoreSlate(book, DixonColesModel{Rho: -0.05}, slate)
	if len(preds) != 2 {
		t.Fatalf("predictions = %d, want 2", len(preds))
	}
	for _, p := range preds {
		if p.LambdaHome <= 0 || p.LambdaAway <= 0 {
			t.Errorf("%s: non-positive lambdas %v/%v", p.MatchID, p.LambdaHome, p.LambdaAway)
		}
		if s := p.Prob.Sum(); math.Abs(s-1) > 1e-9 {
			t.Errorf("%s: prob sums to %v", p.MatchID, s)
		}
		if p.Model != "dixon-coles" {
			t.Errorf("model name = %q", p.Model)
		}
	}
}

func TestEstimateRhoStaysInRange(t *testing.T) {
	book, hist := fitSample(t)
	search := DefaultRhoSearch()
	rho := EstimateRho(hist, book, search)
	if rho < search.Min-1e-12 || rho > search.Max+1e-12 {
		t.Errorf("rho %v escaped search range [%v, %v]", rho, search.Min, search.Max)
	}
}

func TestEstimateRhoEmptyHistory(t *testing.T) {
	book, _ := fitSample(t)
	if rho := EstimateRho(nil, book, DefaultRhoSearch()); rho != 0 {
		t.Errorf("rho on empty history = %v, want 0", rho)
	}
}

func TestEstimateRhoWindowCapsSample(t *testing.T) {
	book, hist := fitSample(t)
	search := DefaultRhoSearch()
	search.Window = 3
	// Just exercises the window path; result must stay in range.
	rho := EstimateRho(hist, book, search)
	if rho < search.Min || rho > search.Max {
		t.Errorf("windowed rho %v out of range", rho)
	}
}

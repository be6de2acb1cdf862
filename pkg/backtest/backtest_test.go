package backtest

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/lotecalab/loteca-engine/core"
	"github.com/lotecalab/loteca-engine/pkg/ratings"
)

// syntheticHistory builds seasons where "strong" sides consistently
// outscore "weak" ones, so the fitted model carries real signal into the
// held-out tail.
func syntheticHistory(n int, seed int64) []ratings.Result {
	rng := rand.New(rand.NewSource(seed))
	teams := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"}
	start := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	var out []ratings.Result
	for i := 0; i < n; i++ {
		h := teams[rng.Intn(len(teams))]
		a := teams[rng.Intn(len(teams))]
		for a == h {
			a = teams[rng.Intn(len(teams))]
		}
		// Earlier-indexed teams score more on average.
		hRate := 2.2 - 0.25*float64(indexOf(teams, h))
		aRate := 1.6 - 0.25*float64(indexOf(teams, a))
		out = append(out, ratings.Result{
			Date:      start.AddDate(0, 0, i),
			Home:      h,
			Away:      a,
			HomeGoals: poissonDraw(rng, hRate),
			AwayGoals: poissonDraw(rng, aRate),
		})
	}
	return out
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

func poissonDraw(rng *rand.Rand, lambda float64) int {
	l := math.Exp(-lambda)
	k, p := 0, 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

func TestRunSplitsChronologically(t *testing.T) {
	hist := syntheticHistory(200, 1)
	rep, err := Run(hist, DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.TrainMatches != 160 || rep.EvalMatches != 40 {
		t.Errorf("split = %d/%d, want 160/40", rep.TrainMatches, rep.EvalMatches)
	}
	if len(rep.Samples) != rep.EvalMatches {
		t.Errorf("samples = %d, want %d", len(rep.Samples), rep.EvalMatches)
	}
}

func TestRunMetricsBounded(t *testing.T) {
	rep, err := Run(syntheticHistory(300, 2), DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Multiclass Brier lives in [0, 2]; a model with signal should also
	// beat the uniform baseline's 2/3 expected squared error by a margin.
	if rep.Brier < 0 || rep.Brier > 2 {
		t.Errorf("brier = %v outside [0, 2]", rep.Brier)
	}
	if rep.LogLoss <= 0 {
		t.Errorf("log loss = %v, want positive", rep.LogLoss)
	}
	if rep.Accuracy < 0 || rep.Accuracy > 1 {
		t.Errorf("accuracy = %v outside [0, 1]", rep.Accuracy)
	}
	uniformLogLoss := math.Log(3)
	if rep.LogLoss > 2*uniformLogLoss {
		t.Errorf("log loss %v far above uniform baseline %v", rep.LogLoss, uniformLogLoss)
	}
}

func TestRunRejectsBadSplit(t *testing.T) {
	hist := syntheticHistory(50, 3)
	for _, split := range []float64{0, 1, -0.2, 1.5} {
		cfg := DefaultConfig()
		cfg.Split = split
		if _, err := Run(hist, cfg); err == nil {
			t.Errorf("split %v accepted", split)
		}
	}
}

func TestReliabilityBins(t *testing.T) {
	rep, err := Run(syntheticHistory(300, 4), DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, o := range core.Outcomes {
		bins := rep.Bins[o]
		if len(bins) != 10 {
			t.Fatalf("class %v has %d bins, want 10", o, len(bins))
		}
		total := 0
		for _, b := range bins {
			total += b.Count
			if b.Count > 0 && (b.MeanPredicted < b.Low-1e-9 || b.MeanPredicted > b.High+1e-9) {
				t.Errorf("class %v bin [%v,%v] mean %v outside range", o, b.Low, b.High, b.MeanPredicted)
			}
		}
		if total != rep.EvalMatches {
			t.Errorf("class %v bin counts sum to %d, want %d", o, total, rep.EvalMatches)
		}
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		hg, ag int
		want   core.Outcome
	}{
		{2, 1, core.Home},
		{0, 0, core.Draw},
		{1, 3, core.Away},
	}
	for _, tt := range tests {
		r := ratings.Result{HomeGoals: tt.hg, AwayGoals: tt.ag}
		if got := outcomeOf(r); got != tt.want {
			t.Errorf("outcomeOf(%d-%d) = %v, want %v", tt.hg, tt.ag, got, tt.want)
		}
	}
}

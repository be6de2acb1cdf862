package scoring

import (
	"github.com/lotecalab/loteca-engine/core"
	"github.com/lotecalab/loteca-engine/pkg/ratings"
)

// Model converts two expected goal rates into a 3-way outcome probability.
// The ensemble stage treats all variants uniformly through this interface.
type Model interface {
	Name() string
	Outcome(lambdaHome, lambdaAway float64) core.Prob3
}

// Prediction is one model's view of one match.
type Prediction struct {
	MatchID    string     `json:"match_id"`
	Model      string     `json:"model"`
	LambdaHome float64    `json:"lambda_home"`
	LambdaAway float64    `json:"lambda_away"`
	Prob       core.Prob3 `json:"prob"`
}

// PoissonModel treats home and away goals as independent Poisson counts.
type PoissonModel struct{}

func (PoissonModel) Name() string { return "poisson" }

func (PoissonModel) Outcome(lambdaHome, lambdaAway float64) core.Prob3 {
	bound := gridBound(lambdaHome, lambdaAway)
	ph := pmfVector(lambdaHome, bound)
	pa := pmfVector(lambdaAway, bound)

	var home, draw, away float64
	for i := 0; i <= bound; i++ {
		for j := 0; j <= bound; j++ {
			cell := ph[i] * pa[j]
			switch {
			case i > j:
				home += cell
			case i == j:
				draw += cell
			default:
				away += cell
			}
		}
	}
	// Normalize reabsorbs the truncated tail mass.
	return core.Prob3{home, draw, away}.Normalize()
}

// DixonColesModel applies the Dixon-Coles correction to the independent
// joint grid: the four low-score cells are scaled by tau factors driven by
// a single global dependence parameter Rho. Rho = 0 reproduces the
// independent Poisson model exactly.
type DixonColesModel struct {
	Rho float64
}

func (DixonColesModel) Name() string { return "dixon-coles" }

func (m DixonColesModel) Outcome(lambdaHome, lambdaAway float64) core.Prob3 {
	bound := gridBound(lambdaHome, lambdaAway)
	ph := pmfVector(lambdaHome, bound)
	pa := pmfVector(lambdaAway, bound)

	var home, draw, away float64
	for i := 0; i <= bound; i++ {
		for j := 0; j <= bound; j++ {
			cell := ph[i] * pa[j] * dcTau(i, j, m.Rho, lambdaHome, lambdaAway)
			switch {
			case i > j:
				home += cell
			case i == j:
				draw += cell
			default:
				away += cell
			}
		}
	}
	return core.Prob3{home, draw, away}.Normalize()
}

// dcTau is the Dixon-Coles low-score correction factor, floored above zero
// so an aggressive rho cannot produce a negative cell.
func dcTau(homeGoals, awayGoals int, rho, lambdaHome, lambdaAway float64) float64 {
	var tau float64
	switch {
	case homeGoals == 0 && awayGoals == 0:
		tau = 1 - rho*lambdaHome*lambdaAway
	case homeGoals == 1 && awayGoals == 0:
		tau = 1 + rho*lambdaHome
	case homeGoals == 0 && awayGoals == 1:
		tau = 1 + rho*lambdaAway
	case homeGoals == 1 && awayGoals == 1:
		tau = 1 - rho
	default:
		return 1
	}
	if tau < core.ProbFloor {
		return core.ProbFloor
	}
	return tau
}

// Score runs a model against the fitted rating book for one slate match.
func Score(book *ratings.Book, m Model, match core.Match) Prediction {
	lambdaHome, lambdaAway := book.Lambdas(match.Home, match.Away)
	return Prediction{
		MatchID:    match.ID,
		Model:      m.Name(),
		LambdaHome: lambdaHome,
		LambdaAway: lambdaAway,
		Prob:       m.Outcome(lambdaHome, lambdaAway),
	}
}

// ScoreSlate scores every match in the slate with one model, in slate
// order.
func ScoreSlate(book *ratings.Book, m Model, slate []core.Match) []Prediction {
	out := make([]Prediction, 0, len(slate))
	for _, match := range slate {
		out = append(out, Score(book, m, match))
	}
	return out
}

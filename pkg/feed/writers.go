package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lotecalab/loteca-engine/core"
	"github.com/lotecalab/loteca-engine/pkg/risk"
)

// ProbabilityRow is one match's final probability output.
type ProbabilityRow struct {
	Match       core.Match
	Prob        core.Prob3
	LambdaHome  float64
	LambdaAway  float64
	Sources     string
	Weights     string
	Calibration string
}

// WriteProbabilityTable writes one row per match with the final triple,
// its fair odds, the model's expected goals and the provenance columns.
func WriteProbabilityTable(path string, rows []ProbabilityRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("feed: creating probability table: %w", err)
	}
	defer f.Close()
	return writeProbabilityTable(f, rows)
}

func writeProbabilityTable(wr io.Writer, rows []ProbabilityRow) error {
	w := csv.NewWriter(wr)
	defer w.Flush()

	head := []string{
		"match_id", "home", "away",
		"p_home", "p_draw", "p_away",
		"fair_home", "fair_draw", "fair_away",
		"xg_home", "xg_away",
		"used_sources", "weights", "calibration",
	}
	if err := w.Write(head); err != nil {
		return fmt.Errorf("feed: writing probability header: %w", err)
	}

	for _, row := range rows {
		fair := row.Prob.FairOdds()
		rec := []string{
			row.Match.ID, row.Match.Home, row.Match.Away,
			ftoa(row.Prob[core.Home]), ftoa(row.Prob[core.Draw]), ftoa(row.Prob[core.Away]),
			ftoa(fair[core.Home]), ftoa(fair[core.Draw]), ftoa(fair[core.Away]),
			ftoa(row.LambdaHome), ftoa(row.LambdaAway),
			row.Sources, row.Weights, row.Calibration,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("feed: writing probability row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WritePortfolioTable writes one row per ticket with its per-match cells
// and stake, then a summary row carrying the portfolio risk figures. The
// summary leaves the cells empty and fills var/es; ticket rows do the
// opposite.
func WritePortfolioTable(path string, plan *risk.Plan, slateSize int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("feed: creating portfolio table: %w", err)
	}
	defer f.Close()
	return writePortfolioTable(f, plan, slateSize)
}

func writePortfolioTable(wr io.Writer, plan *risk.Plan, slateSize int) error {
	w := csv.NewWriter(wr)
	defer w.Flush()

	head := []string{"ticket_id", "stake_weight", "stake", "win_prob", "ev", "var", "es", "monetary"}
	for j := 1; j <= slateSize; j++ {
		head = append(head, fmt.Sprintf("J%d", j))
	}
	if err := w.Write(head); err != nil {
		return fmt.Errorf("feed: writing portfolio header: %w", err)
	}

	for _, tp := range plan.Tickets {
		rec := []string{
			tp.ID,
			ftoa(tp.StakeWeight),
			tp.Stake.String(),
			ftoa(tp.WinProb),
			"", "", "", "",
		}
		for _, c := range tp.Ticket.Cells {
			rec = append(rec, c.String())
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("feed: writing portfolio row: %w", err)
		}
	}

	summary := []string{
		"summary", "", "", ftoa(plan.Risk.TopWinProb),
		ftoa(plan.Risk.EV), ftoa(plan.Risk.VaR), ftoa(plan.Risk.ES),
		strconv.FormatBool(plan.Risk.Monetary),
	}
	for j := 0; j < slateSize; j++ {
		summary = append(summary, "")
	}
	if err := w.Write(summary); err != nil {
		return fmt.Errorf("feed: writing portfolio summary: %w", err)
	}
	w.Flush()
	return w.Error()
}

// WriteEdgeReport writes the per-match value analysis next to the plan.
func WriteEdgeReport(path string, rows []risk.MatchEdge) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("feed: creating edge report: %w", err)
	}
	defer f.Close()
	return writeEdgeReport(f, rows)
}

func writeEdgeReport(wr io.Writer, rows []risk.MatchEdge) error {
	w := csv.NewWriter(wr)
	defer w.Flush()

	head := []string{
		"match_id", "home", "away",
		"p_home", "p_draw", "p_away",
		"k1", "kx", "k2",
		"imp_home", "imp_draw", "imp_away",
		"edge_home", "edge_draw", "edge_away",
		"kelly_home", "kelly_draw", "kelly_away",
		"best_bet", "kelly_max", "notes",
	}
	if err := w.Write(head); err != nil {
		return fmt.Errorf("feed: writing edge header: %w", err)
	}

	for _, e := range rows {
		rec := []string{
			e.MatchID, e.Home, e.Away,
			ftoa(e.Model[core.Home]), ftoa(e.Model[core.Draw]), ftoa(e.Model[core.Away]),
			ftoa(e.Odds[core.Home]), ftoa(e.Odds[core.Draw]), ftoa(e.Odds[core.Away]),
			ftoa(e.Implied[core.Home]), ftoa(e.Implied[core.Draw]), ftoa(e.Implied[core.Away]),
			ftoa(e.Edge[core.Home]), ftoa(e.Edge[core.Draw]), ftoa(e.Edge[core.Away]),
			ftoa(e.Kelly[core.Home]), ftoa(e.Kelly[core.Draw]), ftoa(e.Kelly[core.Away]),
			e.BestBet, ftoa(e.KellyMax), e.Notes,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("feed: writing edge row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

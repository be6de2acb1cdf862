package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lotecalab/loteca-engine/core"
	"github.com/lotecalab/loteca-engine/pkg/ensemble"
	"github.com/lotecalab/loteca-engine/pkg/odds"
	"github.com/lotecalab/loteca-engine/pkg/ratings"
)

const dateLayout = "2006-01-02"

// header maps column names (lowercased, trimmed) to their index.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("feed: reading header: %w", err)
	}
	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return h, nil
}

// require returns the indices for the named columns, failing on the first
// missing one. Missing required columns are a structural error: the table
// is malformed, not sparse.
func (h header) require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j, ok := h[name]
		if !ok {
			return nil, fmt.Errorf("feed: required column %q is missing", name)
		}
		idx[i] = j
	}
	return idx, nil
}

func (h header) optional(name string) (int, bool) {
	j, ok := h[name]
	return j, ok
}

// ReadOddsTable parses the odds table: one row per (match, provider)
// quote with decimal prices. The slate is the distinct matches in first
// appearance order. Rows with unparseable prices become quotes with zero
// prices, which the consensus engine rejects and counts; that keeps one
// corrupt row from sinking the table.
func ReadOddsTable(path string) ([]core.Match, []odds.Quote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("feed: opening odds table: %w", err)
	}
	defer f.Close()
	return parseOddsTable(f)
}

func parseOddsTable(rd io.Reader) ([]core.Match, []odds.Quote, error) {
	r := csv.NewReader(rd)
	r.TrimLeadingSpace = true

	h, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}
	cols, err := h.require("match_id", "home", "away", "k1", "kx", "k2")
	if err != nil {
		return nil, nil, err
	}
	providerCol, hasProvider := h.optional("provider")

	var (
		slate  []core.Match
		quotes []odds.Quote
		seen   = map[string]bool{}
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("feed: reading odds row: %w", err)
		}

		id := strings.TrimSpace(row[cols[0]])
		home := strings.TrimSpace(row[cols[1]])
		away := strings.TrimSpace(row[cols[2]])
		if id == "" {
			id = MatchKey(home, away)
		}
		if !seen[id] {
			seen[id] = true
			slate = append(slate, core.Match{ID: id, Home: home, Away: away})
		}

		provider := "unknown"
		if hasProvider {
			provider = strings.TrimSpace(row[providerCol])
		}
		quotes = append(quotes, odds.Quote{
			MatchID:  id,
			Provider: provider,
			Home:     parseFloat(row[cols[3]]),
			Draw:     parseFloat(row[cols[4]]),
			Away:     parseFloat(row[cols[5]]),
		})
	}
	return slate, quotes, nil
}

// ReadHistory parses the historical results table used by the ratings
// fit: date, teams and final score.
func ReadHistory(path string) ([]ratings.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed: opening history table: %w", err)
	}
	defer f.Close()
	return parseHistory(f)
}

func parseHistory(rd io.Reader) ([]ratings.Result, error) {
	r := csv.NewReader(rd)
	r.TrimLeadingSpace = true

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	cols, err := h.require("date", "home", "away", "home_goals", "away_goals")
	if err != nil {
		return nil, err
	}

	var results []ratings.Result
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("feed: reading history row: %w", err)
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(row[cols[0]]))
		if err != nil {
			return nil, fmt.Errorf("feed: history row has unparseable date %q: %w", row[cols[0]], err)
		}
		hg, err := strconv.Atoi(strings.TrimSpace(row[cols[3]]))
		if err != nil {
			return nil, fmt.Errorf("feed: history row has unparseable home goals %q: %w", row[cols[3]], err)
		}
		ag, err := strconv.Atoi(strings.TrimSpace(row[cols[4]]))
		if err != nil {
			return nil, fmt.Errorf("feed: history row has unparseable away goals %q: %w", row[cols[4]], err)
		}

		results = append(results, ratings.Result{
			Date:      date,
			Home:      NormKey(row[cols[1]]),
			Away:      NormKey(row[cols[2]]),
			HomeGoals: hg,
			AwayGoals: ag,
		})
	}
	return results, nil
}

// ReadCalibration parses the optional calibration history: one predicted
// triple and the realized outcome per row.
func ReadCalibration(path string) ([]ensemble.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed: opening calibration table: %w", err)
	}
	defer f.Close()
	return parseCalibration(f)
}

func parseCalibration(rd io.Reader) ([]ensemble.Sample, error) {
	r := csv.NewReader(rd)
	r.TrimLeadingSpace = true

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	cols, err := h.require("p_home", "p_draw", "p_away", "result")
	if err != nil {
		return nil, err
	}

	var samples []ensemble.Sample
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("feed: reading calibration row: %w", err)
		}

		outcome, ok := core.ParseOutcome(strings.TrimSpace(row[cols[3]]))
		if !ok {
			return nil, fmt.Errorf("feed: calibration row has unknown result %q", row[cols[3]])
		}
		p := core.Prob3{
			parseFloat(row[cols[0]]),
			parseFloat(row[cols[1]]),
			parseFloat(row[cols[2]]),
		}
		samples = append(samples, ensemble.Sample{Prob: p.Normalize(), Result: outcome})
	}
	return samples, nil
}

// parseFloat reads a float, NaN-free: unparseable values come back 0 and
// are handled by the caller's validity rules.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

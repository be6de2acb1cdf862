// Package core provides the shared domain types for the probability and
// portfolio engine: matches, 3-way outcomes, probability triples, and the
// provenance tags that annotate degraded results.
package core

import "time"

// Outcome is one of the three possible results of a match.
// The integer values match the 0/1/2 encoding used throughout the
// simulation and ticket code.
type Outcome int

const (
	Home Outcome = 0
	Draw Outcome = 1
	Away Outcome = 2
)

// Outcomes lists all three outcomes in canonical order.
var Outcomes = [3]Outcome{Home, Draw, Away}

// Symbol returns the pool-betting rendering of the outcome: "1", "X" or "2".
func (o Outcome) Symbol() string {
	switch o {
	case Home:
		return "1"
	case Draw:
		return "X"
	case Away:
		return "2"
	default:
		return "?"
	}
}

// ParseOutcome converts a result label ("1", "X", "2", case-insensitive
// "h"/"d"/"a" also accepted) to an Outcome.
func ParseOutcome(s string) (Outcome, bool) {
	switch s {
	case "1", "H", "h", "home":
		return Home, true
	case "X", "x", "D", "d", "draw":
		return Draw, true
	case "2", "A", "a", "away":
		return Away, true
	}
	return 0, false
}

// Match identifies one fixture in the slate. Immutable once the slate is
// fixed; everything downstream keys on ID.
type Match struct {
	ID      string    `json:"id"`
	Home    string    `json:"home"`
	Away    string    `json:"away"`
	Kickoff time.Time `json:"kickoff,omitempty"`
}

// Provenance tags. Components that degrade instead of failing annotate
// their output with one of these so downstream consumers can audit
// confidence.
const (
	SourceConsensus     = "consensus"
	SourceNone          = "none"
	SourceModel         = "model"
	CalibrationIsotonic = "isotonic"
	CalibrationIdentity = "identity"
)

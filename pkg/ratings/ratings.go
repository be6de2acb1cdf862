// Package ratings maintains per-team attack/defense strengths fitted from a
// historical result table with a score-driven recursive filter: each
// observed match nudges the four involved ratings by the Poisson prediction
// error, in strict chronological order.
package ratings

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Result is one completed historical match.
type Result struct {
	Date      time.Time `json:"date"`
	Home      string    `json:"home"`
	Away      string    `json:"away"`
	HomeGoals int       `json:"home_goals"`
	AwayGoals int       `json:"away_goals"`
}

// Rating is the filter state for one team. Attack and defense are centered
// log-scale strengths; a team nobody has seen scores as neutral zero.
type Rating struct {
	Attack       float64   `json:"attack"`
	Defense      float64   `json:"defense"`
	LastSeen     time.Time `json:"last_seen"`
	Observations int       `json:"observations"`
}

// FilterConfig parameterizes the recursive filter.
type FilterConfig struct {
	// Gain is the fixed update step applied to the Poisson score
	// (realized minus predicted goals). Must lie in (0, 0.5] for the
	// filter to stay stable.
	Gain float64
	// Decay is the multiplicative pull toward zero applied after every
	// update, bounding drift over long histories.
	Decay float64
	// Clip bounds each rating to [-Clip, Clip].
	Clip float64
}

// DefaultFilterConfig returns the standard filter parameters.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Gain:  0.20,
		Decay: 0.001,
		Clip:  3.0,
	}
}

func (c FilterConfig) validate() error {
	if c.Gain <= 0 || c.Gain > 0.5 {
		return fmt.Errorf("ratings: gain %v outside (0, 0.5]", c.Gain)
	}
	if c.Decay < 0 || c.Decay >= 1 {
		return fmt.Errorf("ratings: decay %v outside [0, 1)", c.Decay)
	}
	if c.Clip <= 0 {
		return fmt.Errorf("ratings: clip %v must be positive", c.Clip)
	}
	return nil
}

// logRateBound clips log-rate arguments before exponentiation.
const logRateBound = 20.0

// Book is the fitted rating state for a whole league history: the global
// baselines plus one Rating per team. It is built once per run and
// read-only during slate scoring.
type Book struct {
	// Mu is the log mean away goal rate.
	Mu float64 `json:"mu"`
	// HomeAdv is the log home-scoring bonus over Mu.
	HomeAdv float64 `json:"home_adv"`

	teams map[string]Rating
}

// Rating returns the state for a team. Unknown teams get neutral zero
// ratings rather than an error.
func (b *Book) Rating(team string) Rating {
	if r, ok := b.teams[team]; ok {
		return r
	}
	return Rating{}
}

// Known reports whether the team has at least one historical observation.
func (b *Book) Known(team string) bool {
	_, ok := b.teams[team]
	return ok
}

// Teams returns the number of rated teams.
func (b *Book) Teams() int {
	return len(b.teams)
}

// Lambdas converts two teams' current ratings into expected home and away
// goal rates for a future match between them.
func (b *Book) Lambdas(home, away string) (lambdaHome, lambdaAway float64) {
	h := b.Rating(home)
	a := b.Rating(away)
	lambdaHome = math.Exp(clipLog(b.Mu + b.HomeAdv + h.Attack - a.Defense))
	lambdaAway = math.Exp(clipLog(b.Mu + a.Attack - h.Defense))
	return lambdaHome, lambdaAway
}

func clipLog(x float64) float64 {
	if x > logRateBound {
		return logRateBound
	}
	if x < -logRateBound {
		return -logRateBound
	}
	return x
}

func clamp(x, bound float64) float64 {
	if x > bound {
		return bound
	}
	if x < -bound {
		return -bound
	}
	return x
}

// Fit folds the historical results, in non-decreasing date order, into a
// Book. Results sharing a date keep their input order (stable sort), which
// makes the fold deterministic for a fixed input. The input slice is not
// modified.
func Fit(history []Result, cfg FilterConfig) (*Book, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("ratings: empty history")
	}

	ordered := make([]Result, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	book := &Book{teams: make(map[string]Rating)}
	book.Mu, book.HomeAdv = baselines(ordered)

	for _, r := range ordered {
		step(book, r, cfg)
	}
	return book, nil
}

// baselines estimates the global log rates from the sample means:
// mu = log(mean away goals), homeAdv = log(mean home) - log(mean away).
func baselines(history []Result) (mu, homeAdv float64) {
	var homeSum, awaySum float64
	for _, r := range history {
		homeSum += float64(r.HomeGoals)
		awaySum += float64(r.AwayGoals)
	}
	n := float64(len(history))
	meanHome := homeSum / n
	meanAway := awaySum / n

	// A goalless sample would send the logs to -inf; the clip keeps the
	// baselines finite.
	mu = clipLog(math.Log(math.Max(meanAway, math.Exp(-logRateBound))))
	homeAdv = clipLog(math.Log(math.Max(meanHome, math.Exp(-logRateBound)))) - mu
	return mu, homeAdv
}

// step applies one match to the filter state: predict both goal rates from
// the prior ratings, update by the Poisson score (y - lambda) scaled by the
// gain, then decay and clip the four touched values.
func step(book *Book, r Result, cfg FilterConfig) {
	h := book.teams[r.Home]
	a := book.teams[r.Away]

	lambdaHome := math.Exp(clipLog(book.Mu + book.HomeAdv + h.Attack - a.Defense))
	lambdaAway := math.Exp(clipLog(book.Mu + a.Attack - h.Defense))

	scoreHome := float64(r.HomeGoals) - lambdaHome
	scoreAway := float64(r.AwayGoals) - lambdaAway

	h.Attack += cfg.Gain * scoreHome
	a.Defense -= cfg.Gain * scoreHome
	a.Attack += cfg.Gain * scoreAway
	h.Defense -= cfg.Gain * scoreAway

	shrink := 1 - cfg.Decay
	h.Attack = clamp(h.Attack*shrink, cfg.Clip)
	h.Defense = clamp(h.Defense*shrink, cfg.Clip)
	a.Attack = clamp(a.Attack*shrink, cfg.Clip)
	a.Defense = clamp(a.Defense*shrink, cfg.Clip)

	h.LastSeen = r.Date
	h.Observations++
	a.LastSeen = r.Date
	a.Observations++

	book.teams[r.Home] = h
	book.teams[r.Away] = a
}

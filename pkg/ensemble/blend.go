// Package ensemble fuses the market consensus with one or more scoring
// model probabilities into the final per-match triple, optionally
// recalibrated against historical accuracy.
package ensemble

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lotecalab/loteca-engine/core"
)

// Input is one probability source present for a match. Absent sources are
// simply not passed: "absent" is first-class, the blender redistributes
// the missing weight across whatever did show up.
type Input struct {
	Name string
	Prob core.Prob3
}

// Ensemble is the fused probability for one match with its provenance:
// which sources contributed and with what effective weights.
type Ensemble struct {
	MatchID string     `json:"match_id"`
	Prob    core.Prob3 `json:"prob"`
	Sources string     `json:"used_sources"` // e.g. "consensus,dixon-coles"
	Weights string     `json:"weights"`      // e.g. "consensus:0.40;dixon-coles:0.60"
}

// Blender combines sources under configured weights.
type Blender struct {
	weights map[string]float64
}

// NewBlender validates the configured per-source weights. At least one
// weight must be positive; negatives are rejected.
func NewBlender(weights map[string]float64) (*Blender, error) {
	total := 0.0
	for name, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("ensemble: negative weight %v for source %q", w, name)
		}
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("ensemble: weights must sum to a positive value")
	}
	cp := make(map[string]float64, len(weights))
	for k, v := range weights {
		cp[k] = v
	}
	return &Blender{weights: cp}, nil
}

// Blend fuses the sources present for one match. Weights of absent sources
// are redistributed proportionally among the present ones for this match
// only. A match where no weighted source is present gets the uniform
// triple flagged source=none.
func (b *Blender) Blend(matchID string, inputs []Input) Ensemble {
	type contribution struct {
		name   string
		weight float64
		prob   core.Prob3
	}

	var present []contribution
	total := 0.0
	for _, in := range inputs {
		w := b.weights[in.Name]
		if w <= 0 {
			continue
		}
		present = append(present, contribution{name: in.Name, weight: w, prob: in.Prob})
		total += w
	}

	if len(present) == 0 || total <= 0 {
		return Ensemble{
			MatchID: matchID,
			Prob:    core.UniformProb3(),
			Sources: core.SourceNone,
			Weights: "",
		}
	}

	var acc core.Prob3
	names := make([]string, 0, len(present))
	weightParts := make([]string, 0, len(present))
	sort.Slice(present, func(i, j int) bool { return present[i].name < present[j].name })
	for _, c := range present {
		w := c.weight / total
		for i := range acc {
			acc[i] += w * c.prob[i]
		}
		names = append(names, c.name)
		weightParts = append(weightParts, fmt.Sprintf("%s:%.2f", c.name, w))
	}

	return Ensemble{
		MatchID: matchID,
		Prob:    acc.Normalize(),
		Sources: strings.Join(names, ","),
		Weights: strings.Join(weightParts, ";"),
	}
}

// Tilt applies a log-space context shift to a triple: a score in [-1, 1]
// moves the home logit by +strength*score and the away logit by the
// opposite amount, leaving the draw logit untouched, then renormalizes via
// softmax. A zero strength or score is the identity.
func Tilt(p core.Prob3, score, strength float64) core.Prob3 {
	if strength == 0 || score == 0 {
		return p.Normalize()
	}
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}

	q := p.Normalize()
	shift := strength * score
	logits := [3]float64{
		math.Log(q[core.Home]) + shift,
		math.Log(q[core.Draw]),
		math.Log(q[core.Away]) - shift,
	}
	return softmax3(logits)
}

func softmax3(logits [3]float64) core.Prob3 {
	m := math.Max(logits[0], math.Max(logits[1], logits[2]))
	var out core.Prob3
	s := 0.0
	for i, l := range logits {
		out[i] = math.Exp(l - m)
		s += out[i]
	}
	for i := range out {
		out[i] /= s
	}
	return out.Normalize()
}

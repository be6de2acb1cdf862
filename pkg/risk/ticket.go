// Package risk turns the slate's final probability matrix into a staked
// ticket portfolio: Monte-Carlo outcome simulation, entropy-driven ticket
// construction, fractional-Kelly stake allocation and VaR/ES measurement.
package risk

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/lotecalab/loteca-engine/core"
)

// Cell is the outcome subset a ticket accepts at one match, a bitmask over
// home/draw/away. A single bit is a "seco", two bits a "duplo", all three
// a "triplo".
type Cell uint8

const (
	cellHome Cell = 1 << core.Home
	cellDraw Cell = 1 << core.Draw
	cellAway Cell = 1 << core.Away

	// CellFull accepts every outcome.
	CellFull = cellHome | cellDraw | cellAway
)

// CellOf builds a cell accepting exactly the given outcomes.
func CellOf(outcomes ...core.Outcome) Cell {
	var c Cell
	for _, o := range outcomes {
		c |= 1 << o
	}
	return c
}

// Accepts reports whether the cell covers outcome o.
func (c Cell) Accepts(o core.Outcome) bool {
	return c&(1<<o) != 0
}

// Size is the number of accepted outcomes (1=seco, 2=duplo, 3=triplo).
func (c Cell) Size() int {
	n := 0
	for _, o := range core.Outcomes {
		if c.Accepts(o) {
			n++
		}
	}
	return n
}

// Mass is the probability the cell captures under p.
func (c Cell) Mass(p core.Prob3) float64 {
	m := 0.0
	for _, o := range core.Outcomes {
		if c.Accepts(o) {
			m += p[o]
		}
	}
	return m
}

// String renders the cell in fixed outcome order: "1", "X", "2", "1X",
// "12", "X2", "1X2".
func (c Cell) String() string {
	var b strings.Builder
	for _, o := range core.Outcomes {
		if c.Accepts(o) {
			b.WriteString(o.Symbol())
		}
	}
	return b.String()
}

// ParseCell parses a rendered cell. Unknown characters are ignored; an
// empty result degrades to full coverage, mirroring how a blank plan cell
// is read back.
func ParseCell(s string) Cell {
	var c Cell
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		switch r {
		case '1':
			c |= cellHome
		case 'X':
			c |= cellDraw
		case '2':
			c |= cellAway
		}
	}
	if c == 0 {
		return CellFull
	}
	return c
}

// Ticket is one bet card: an accepted outcome subset per slate match.
type Ticket struct {
	Cells []Cell
}

// NewSecoTicket picks the single highest-probability outcome at every
// match.
func NewSecoTicket(probs []core.Prob3) Ticket {
	cells := make([]Cell, len(probs))
	for i, p := range probs {
		cells[i] = CellOf(p.Argmax())
	}
	return Ticket{Cells: cells}
}

// Clone returns an independent copy.
func (t Ticket) Clone() Ticket {
	cells := make([]Cell, len(t.Cells))
	copy(cells, t.Cells)
	return Ticket{Cells: cells}
}

// WinProb is the exact full-win probability under cross-match
// independence: the product of the accepted mass at every match.
func (t Ticket) WinProb(probs []core.Prob3) float64 {
	p := 1.0
	for i, c := range t.Cells {
		p *= c.Mass(probs[i])
	}
	return p
}

// Hits counts matches where the drawn outcome falls inside the cell.
func (t Ticket) Hits(draw []core.Outcome) int {
	n := 0
	for i, c := range t.Cells {
		if c.Accepts(draw[i]) {
			n++
		}
	}
	return n
}

// Wins reports a full-ticket hit.
func (t Ticket) Wins(draw []core.Outcome) bool {
	return t.Hits(draw) == len(t.Cells)
}

// Counts returns how many duplos and triplos the ticket spends.
func (t Ticket) Counts() (duplos, triplos int) {
	for _, c := range t.Cells {
		switch c.Size() {
		case 2:
			duplos++
		case 3:
			triplos++
		}
	}
	return duplos, triplos
}

// GreedyTicket builds the baseline card: every match starts as a seco on
// its argmax, then the most uncertain matches (by outcome entropy) absorb
// the coverage budget, triplos on the very highest entropy and duplos on
// the next tier. Each promotion strictly increases the accepted mass at
// that match, so full-win probability is monotone in the budget.
func GreedyTicket(probs []core.Prob3, maxDuplos, maxTriplos int) Ticket {
	t := NewSecoTicket(probs)

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]].Entropy() > probs[order[b]].Entropy()
	})

	usedD, usedT := 0, 0
	for _, idx := range order {
		if usedT < maxTriplos {
			t.Cells[idx] = CellFull
			usedT++
		} else if usedD < maxDuplos {
			top := probs[idx].Top2()
			t.Cells[idx] = CellOf(top[0], top[1])
			usedD++
		}
	}
	return t
}

// CandidatePool returns the greedy baseline plus size-1 randomized
// variants. Each variant perturbs two random matches: a seco is promoted
// to a duplo on the two strongest outcomes, a duplo drops back to a seco
// with probability 1/2, a triplo is left alone.
func CandidatePool(rng *rand.Rand, probs []core.Prob3, size, maxDuplos, maxTriplos int) []Ticket {
	base := GreedyTicket(probs, maxDuplos, maxTriplos)
	pool := make([]Ticket, 0, size)
	pool = append(pool, base)

	n := len(probs)
	for len(pool) < size {
		t := base.Clone()
		for _, j := range pickTwo(rng, n) {
			switch t.Cells[j].Size() {
			case 1:
				top := probs[j].Top2()
				t.Cells[j] = CellOf(top[0], top[1])
			case 2:
				if rng.Float64() < 0.5 {
					t.Cells[j] = CellOf(probs[j].Argmax())
				}
			}
		}
		pool = append(pool, t)
	}
	return pool
}

// pickTwo draws two distinct indices in [0, n).
func pickTwo(rng *rand.Rand, n int) []int {
	if n < 2 {
		return []int{0}
	}
	a := rng.Intn(n)
	b := rng.Intn(n - 1)
	if b >= a {
		b++
	}
	return []int{a, b}
}

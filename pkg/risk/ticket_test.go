package risk

import (
	"math"
	"math/rand"
	"testing"

	"github.com/lotecalab/loteca-engine/core"
)

func TestCellString(t *testing.T) {
	tests := []struct {
		cell Cell
		want string
	}{
		{CellOf(core.Home), "1"},
		{CellOf(core.Draw), "X"},
		{CellOf(core.Away), "2"},
		{CellOf(core.Home, core.Draw), "1X"},
		{CellOf(core.Home, core.Away), "12"},
		{CellOf(core.Draw, core.Away), "X2"},
		{CellFull, "1X2"},
	}
	for _, tt := range tests {
		if got := tt.cell.String(); got != tt.want {
			t.Errorf("cell %b renders %q, want %q", tt.cell, got, tt.want)
		}
		if got := ParseCell(tt.want); got != tt.cell {
			t.Errorf("ParseCell(%q) = %b, want %b", tt.want, got, tt.cell)
		}
	}
	if got := ParseCell(" x2 "); got != CellOf(core.Draw, core.Away) {
		t.Errorf("ParseCell lowercase = %b", got)
	}
	if got := ParseCell("??"); got != CellFull {
		t.Errorf("ParseCell garbage = %b, want full coverage", got)
	}
}

func threeMatchSlate() []core.Prob3 {
	return []core.Prob3{
		{0.70, 0.20, 0.10}, // confident
		{0.40, 0.35, 0.25}, // uncertain
		{0.55, 0.25, 0.20},
	}
}

func TestGreedyTicketBudgets(t *testing.T) {
	probs := threeMatchSlate()

	tk := GreedyTicket(probs, 1, 0)
	d, tr := tk.Counts()
	if d != 1 || tr != 0 {
		t.Fatalf("counts = (%d,%d), want (1,0)", d, tr)
	}
	// The duplo must land on the highest-entropy match and cover its two
	// strongest outcomes.
	if got := tk.Cells[1]; got != CellOf(core.Home, core.Draw) {
		t.Errorf("duplo cell = %q, want 1X on the most uncertain match", got)
	}
	for _, i := range []int{0, 2} {
		if tk.Cells[i].Size() != 1 {
			t.Errorf("match %d = %q, want seco", i, tk.Cells[i])
		}
	}
}

func TestGreedyTicketTriploOutranksDuplo(t *testing.T) {
	probs := threeMatchSlate()
	tk := GreedyTicket(probs, 1, 1)
	if tk.Cells[1] != CellFull {
		t.Errorf("highest entropy match = %q, want triplo", tk.Cells[1])
	}
	d, tr := tk.Counts()
	if d != 1 || tr != 1 {
		t.Errorf("counts = (%d,%d), want (1,1)", d, tr)
	}
}

func TestPromotionMonotone(t *testing.T) {
	// Widening any single cell must not decrease full-win probability.
	probs := threeMatchSlate()
	base := NewSecoTicket(probs)
	p0 := base.WinProb(probs)

	for i := range probs {
		duplo := base.Clone()
		top := probs[i].Top2()
		duplo.Cells[i] = CellOf(top[0], top[1])
		p1 := duplo.WinProb(probs)
		if p1 < p0 {
			t.Errorf("duplo at %d lowered win prob: %v -> %v", i, p0, p1)
		}

		triplo := base.Clone()
		triplo.Cells[i] = CellFull
		if p2 := triplo.WinProb(probs); p2 < p1 {
			t.Errorf("triplo at %d lowered win prob below duplo: %v -> %v", i, p1, p2)
		}
	}
}

func TestWinProbAnalytic(t *testing.T) {
	probs := threeMatchSlate()
	tk := Ticket{Cells: []Cell{
		CellOf(core.Home),
		CellOf(core.Home, core.Draw),
		CellFull,
	}}
	want := 0.70 * (0.40 + 0.35) * 1.0
	if got := tk.WinProb(probs); math.Abs(got-want) > 1e-12 {
		t.Errorf("WinProb = %v, want %v", got, want)
	}
}

func TestHitsAndWins(t *testing.T) {
	tk := Ticket{Cells: []Cell{CellOf(core.Home), CellOf(core.Home, core.Draw), CellFull}}
	draw := []core.Outcome{core.Home, core.Draw, core.Away}
	if h := tk.Hits(draw); h != 3 {
		t.Errorf("hits = %d, want 3", h)
	}
	if !tk.Wins(draw) {
		t.Error("expected full win")
	}
	miss := []core.Outcome{core.Away, core.Draw, core.Away}
	if h := tk.Hits(miss); h != 2 {
		t.Errorf("hits = %d, want 2", h)
	}
	if tk.Wins(miss) {
		t.Error("unexpected full win")
	}
}

func TestCandidatePool(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	probs := threeMatchSlate()
	pool := CandidatePool(rng, probs, 12, 1, 0)
	if len(pool) != 12 {
		t.Fatalf("pool size = %d, want 12", len(pool))
	}
	// First entry is the greedy baseline.
	base := GreedyTicket(probs, 1, 0)
	for i, c := range pool[0].Cells {
		if c != base.Cells[i] {
			t.Fatalf("pool[0] differs from greedy baseline at %d", i)
		}
	}
	// Variants must not share backing storage with the baseline.
	pool[1].Cells[0] = CellFull
	if pool[0].Cells[0] == CellFull && base.Cells[0] != CellFull {
		t.Error("pool variants alias the baseline cells")
	}
}

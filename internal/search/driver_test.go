package search

import (
	"context"
	"testing"
	"time"

	"github.com/clockzhong/weizero/internal/board"
)

func newTestDriver(t *testing.T, cfg Config, budget time.Duration) (*Driver, *stubEvaluator) {
	t.Helper()
	ev := &stubEvaluator{value: 0.5}
	d := NewDriver(cfg, ev, &fixedClock{budget: budget}, nil, testLogger())
	return d, ev
}

func TestSetGameStateSameHashIsIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	d, _ := newTestDriver(t, cfg, time.Millisecond)
	gb := board.NewGoBoard(9, 0, 0)

	d.SetGameState(gb)
	firstRoot := d.Root()
	d.SetGameState(gb)
	if d.Root() != firstRoot {
		t.Fatalf("expected root identity to survive a repeated SetGameState with the same position")
	}
}

func TestSetGameStatePromotesMatchingChild(t *testing.T) {
	cfg := DefaultConfig()
	d, _ := newTestDriver(t, cfg, time.Millisecond)
	gb := board.NewGoBoard(9, 0, 0)
	d.SetGameState(gb)

	if err := d.prepareRoot(context.Background()); err != nil {
		t.Fatalf("unexpected error expanding root: %v", err)
	}
	var target board.Move = board.PASS
	for _, c := range d.Root().Children() {
		if c.Move() != board.PASS {
			target = c.Move()
			break
		}
	}
	next := gb.Clone()
	next.PlayMove(target)

	d.SetGameState(next)
	if d.Root() == nil || d.Root().Parent() != nil {
		t.Fatalf("expected a promoted subtree root with no parent")
	}
}

func TestSetGameStateUnrelatedPositionRebuildsRoot(t *testing.T) {
	cfg := DefaultConfig()
	d, _ := newTestDriver(t, cfg, time.Millisecond)
	gb := board.NewGoBoard(9, 0, 0)
	d.SetGameState(gb)
	if err := d.prepareRoot(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unrelated := board.NewGoBoard(9, 6.5, 0) // different komi, unrelated position
	d.SetGameState(unrelated)
	if d.Root().HasChildren() {
		t.Fatalf("expected a fresh unexpanded root for an unrelated position")
	}
}

// A zero time budget: Think still expands the root before its search
// loop, so it returns pass, resign, or a legal move without simulating.
func TestThinkWithZeroBudgetReturnsPassResignOrLegalMove(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumThreads = 1
	d, _ := newTestDriver(t, cfg, 0)
	gb := board.NewGoBoard(9, 0, 0)

	move, err := d.Think(context.Background(), board.Black, gb, PassFlagNormal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// prepareRoot always expands the root once before the search loop
	// runs, so even a zero budget still leaves the root with children;
	// this asserts the overall call stays well-behaved (no panic, a
	// legal sentinel move) under the smallest possible budget instead.
	if move != board.PASS && move != board.RESIGN {
		gb2 := board.NewGoBoard(9, 0, 0)
		legal := false
		for _, m := range gb2.LegalMoves() {
			if m == move {
				legal = true
				break
			}
		}
		if !legal {
			t.Fatalf("expected a legal move, pass, or resign, got %v", move)
		}
	}
}

// Tree-size cap (spec.md §8 scenario 3): with MAX_TREE_SIZE=1 the root
// expands exactly once; m_nodes never exceeds "1 + the children created
// by that single expansion" — every later simulation hits the
// direct-evaluation branch instead of creating more nodes.
func TestThinkNeverExpandsBeyondTreeSizeCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumThreads = 2
	cfg.MaxTreeSize = 1
	cfg.MaxPlayouts = 50
	d, _ := newTestDriver(t, cfg, time.Second)
	gb := board.NewGoBoard(5, 0, 0)

	d.SetGameState(gb)
	if err := d.prepareRoot(context.Background()); err != nil {
		t.Fatalf("unexpected error expanding root: %v", err)
	}
	afterFirstExpansion := d.liveNodes.Load()
	if afterFirstExpansion <= 0 {
		t.Fatalf("expected the single root expansion to have created children")
	}

	_, err := d.Think(context.Background(), board.Black, gb, PassFlagNormal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.liveNodes.Load() != afterFirstExpansion {
		t.Fatalf("expected no further node creation past the cap, had %d then %d", afterFirstExpansion, d.liveNodes.Load())
	}
}

func TestSetPlayoutAndVisitLimitsZeroMeansUnlimited(t *testing.T) {
	cfg := DefaultConfig()
	d, _ := newTestDriver(t, cfg, time.Millisecond)
	d.SetPlayoutLimit(0)
	d.SetVisitLimit(0)
	if limitReached(d.cfg, 1_000_000, 1_000_000) {
		t.Fatalf("expected limit_reached() to never fire on playouts/visits alone when both limits are 0")
	}
}

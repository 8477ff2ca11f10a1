package board

import "testing"

func TestNewGoBoardInitialState(t *testing.T) {
	b := NewGoBoard(9, 7.5, 0)
	if b.ToMove() != Black {
		t.Fatalf("expected Black to move first, got %v", b.ToMove())
	}
	if b.Passes() != 0 || b.MoveNumber() != 0 {
		t.Fatalf("expected a fresh board, got passes=%d movenum=%d", b.Passes(), b.MoveNumber())
	}
	if len(b.LegalMoves()) != 9*9+1 {
		t.Fatalf("expected every empty point plus pass to be legal, got %d", len(b.LegalMoves()))
	}
}

func TestHandicapStonesGiveWhiteTheMove(t *testing.T) {
	b := NewGoBoard(9, 0.5, 2)
	if b.ToMove() != White {
		t.Fatalf("expected White to move after handicap stones, got %v", b.ToMove())
	}
}

func TestCaptureRemovesSurroundedGroup(t *testing.T) {
	b := NewGoBoard(5, 0, 0)
	// Surround the white stone at (2,2) then fill the last liberty.
	plays := []struct {
		move  int
		color Color
	}{
		{2*5 + 1, Black}, // (2,1)
		{2*5 + 2, White}, // (2,2)
		{1*5 + 2, Black}, // (1,2)
		{0, White},       // elsewhere, pass-like filler
		{3*5 + 2, Black}, // (3,2)
		{4*5 + 4, White}, // elsewhere
		{2*5 + 3, Black}, // (2,3) captures (2,2)
	}
	for _, p := range plays {
		if b.ToMove() != p.color {
			t.Fatalf("expected %v to move, got %v", p.color, b.ToMove())
		}
		if !b.PlayMove(Move(p.move)) {
			t.Fatalf("move %d by %v should be legal", p.move, p.color)
		}
	}
	if b.points[2*5+2] != stoneNone {
		t.Fatalf("expected captured stone to be removed, board:\n%s", b.String())
	}
}

func TestSuicideIsIllegal(t *testing.T) {
	b := NewGoBoard(3, 0, 0)
	// Black occupies (0,1),(1,0),(1,2),(2,1) surrounding the center
	// point (1,1); White playing there would have zero liberties and
	// capture nothing, so it must be rejected as suicide.
	b.points[1] = stoneBlack
	b.points[3] = stoneBlack
	b.points[5] = stoneBlack
	b.points[7] = stoneBlack
	b.toMove = White
	if b.PlayMove(Move(4)) {
		t.Fatalf("expected suicide at center point to be rejected")
	}
}

func TestPassTwiceThenFinalScore(t *testing.T) {
	b := NewGoBoard(5, 0.5, 0)
	b.PlayPass()
	b.PlayPass()
	if b.Passes() != 2 {
		t.Fatalf("expected 2 passes, got %d", b.Passes())
	}
	score := b.FinalScore()
	if score != -0.5 {
		t.Fatalf("expected empty board score to be -komi (-0.5), got %v", score)
	}
}

func TestPositionalSuperkoDetected(t *testing.T) {
	b := NewGoBoard(3, 0, 0)
	if b.PlayMove(Move(4)) == false {
		t.Fatalf("center point should be legal on an empty board")
	}
	if b.Superko() {
		t.Fatalf("first move into a fresh position must not trip superko")
	}
	// Directly recreate the empty position the way a capture would, and
	// confirm the history set (white-box) flags the repeat.
	b.points[4] = stoneNone
	b.hash = b.computeHash()
	b.superkoViolated = b.history[b.hash]
	b.history[b.hash] = true
	if !b.Superko() {
		t.Fatalf("expected recreating the empty starting position to trip positional superko")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewGoBoard(9, 7.5, 0)
	b.PlayMove(Move(10))
	clone := b.Clone().(*GoBoard)
	clone.PlayMove(Move(11))
	if b.points[11] != stoneNone {
		t.Fatalf("mutating the clone must not affect the original")
	}
	if b.MoveNumber() == clone.MoveNumber() {
		t.Fatalf("clone and original should have diverged move numbers")
	}
}

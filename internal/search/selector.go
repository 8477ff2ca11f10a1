package search

import (
	"github.com/clockzhong/weizero/internal/board"
	"github.com/clockzhong/weizero/internal/node"
)

// SelectMove implements MoveSelector.get_best_move over an
// already-sorted root (SortChildren, and any RandomizeFirstProportionally,
// must have run first — the caller controls that ordering so random
// opening moves are not undone by a re-sort here). It applies the
// pass-sanity heuristics of spec.md §4.5 (both branches — "should we
// avoid passing" and "opponent passed, should we also pass and claim the
// win", per SPEC_FULL.md §10.2) and finally consults ShouldResign. It is
// a pure function: st is read (FinalScore, LastMove, MoveNumber, ...)
// but never mutated.
func SelectMove(root *node.Node, side board.Color, st board.Board, passFlag PassFlag, cfg Config) board.Move {
	children := root.Children()
	if len(children) == 0 {
		return board.PASS
	}
	best := children[0]
	move := best.Move()

	if best.FirstVisit() {
		// Preserves the original's bestscore=1.0f overwrite on the
		// first_visit fallback (spec.md §9's flagged ambiguity): the
		// pass heuristics are skipped, and ShouldResign sees a bestscore
		// of 1.0, so it suppresses resignation for a move chosen with
		// zero visits whenever the resign threshold is below 1.0 (the
		// default, and every ResignPct under 100).
		return finishSelection(move, 1.0, root.Visits(), side, st, passFlag, cfg)
	}

	if passFlag&PassFlagNoPass != 0 {
		if move == board.PASS {
			if alt := root.GetNopassChild(); alt != nil {
				best, move = alt, alt.Move()
			}
		}
	} else if !cfg.DumbPass {
		switch {
		case move == board.PASS:
			if passLosesFor(st.FinalScore(), side) {
				if alt := root.GetNopassChild(); alt != nil {
					best, move = alt, alt.Move()
				}
			}
		case st.LastMove() == board.PASS:
			if passWinsFor(st.FinalScore(), side) {
				move = board.PASS
				// best is left pointing at the non-pass child; its Q
				// still stands in for "bestscore" in the resign check
				// below, matching the original's use of the selected
				// child's eval regardless of the late pass override.
			}
		}
	}

	return finishSelection(move, best.GetEval(side), root.Visits(), side, st, passFlag, cfg)
}

func finishSelection(move board.Move, bestscore float64, rootVisits int64, side board.Color, st board.Board, passFlag PassFlag, cfg Config) board.Move {
	if move == board.PASS {
		return move
	}
	if ShouldResign(bestscore, side, rootVisits, st, cfg, passFlag) {
		return board.RESIGN
	}
	return move
}

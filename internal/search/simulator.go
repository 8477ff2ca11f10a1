package search

import (
	"context"
	"sync/atomic"

	"github.com/clockzhong/weizero/internal/board"
	"github.com/clockzhong/weizero/internal/node"
	"github.com/clockzhong/weizero/internal/tt"
)

// playSimulation runs one descend-expand-backup pass from n on a clone
// of the game state the caller owns, per spec.md §4.2. It recurses for
// internal nodes, so the return path IS the back-propagation: every
// caller applies node.Update to its own level on the way back up.
//
// err is non-nil only for an Evaluator failure, which is fatal to the
// whole simulation (and, per SPEC_FULL.md §7, propagates as a
// process-level fault out of Driver.Think).
func playSimulation(ctx context.Context, st board.Board, n *node.Node, table *tt.Table, ev board.Evaluator, maxTreeSize int64, liveNodes *atomic.Int64, cpuct float64) (valid bool, eval float64, err error) {
	hash, komi := st.Hash(), st.Komi()

	table.Sync(hash, komi, n)
	n.VirtualLoss()
	defer n.VirtualLossUndo()

	switch {
	case st.Passes() >= 2:
		valid, eval = true, terminalEval(st.FinalScore())

	case !n.HasChildren():
		if liveNodes.Load() < maxTreeSize {
			eval, valid, err = n.CreateChildren(ctx, liveNodes, maxTreeSize, st, ev)
			// ok==false here means either the CAS race was lost, or
			// CreateChildren's own defensive cap check fired; either
			// way the simulation contributes no result.
			valid = valid && err == nil
		} else {
			eval, err = n.EvalState(ctx, st, ev)
			valid = err == nil
		}

	default:
		child := n.UCTSelectChild(st.ToMove(), cpuct)
		if child == nil {
			valid = false
			break
		}
		if child.Move() == board.PASS {
			st.PlayPass()
			valid, eval, err = playSimulation(ctx, st, child, table, ev, maxTreeSize, liveNodes, cpuct)
		} else if !st.PlayMove(child.Move()) || st.Superko() {
			child.Invalidate()
			valid = false
		} else {
			valid, eval, err = playSimulation(ctx, st, child, table, ev, maxTreeSize, liveNodes, cpuct)
		}
	}

	if err != nil {
		return false, 0, err
	}
	if valid {
		n.Update(eval)
	}
	table.Update(hash, komi, n)
	return valid, eval, nil
}

// terminalEval converts a signed Tromp-Taylor score (positive favors
// Black) into the {0,1} Black-perspective value used for a two-pass
// terminal position. An exact tie has no natural winner; it is treated
// as a half point rather than arbitrarily favoring either side.
func terminalEval(score float64) float64 {
	switch {
	case score > 0:
		return 1.0
	case score < 0:
		return 0.0
	default:
		return 0.5
	}
}

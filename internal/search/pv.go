package search

import (
	"strings"

	"github.com/clockzhong/weizero/internal/board"
	"github.com/clockzhong/weizero/internal/node"
)

// PrincipalVariation walks the most-visited-child chain from root,
// rendering each move with Board.MoveToText, matching Leela Zero's
// get_pv/dump_stats (SPEC_FULL.md §10.1). It never mutates st; it clones
// once internally to play out the chain for move-text rendering.
func PrincipalVariation(root *node.Node, st board.Board) string {
	var sb strings.Builder
	probe := st.Clone()
	cur := root
	for cur.HasChildren() {
		best := mostVisitedValidChild(cur)
		if best == nil || best.Visits() == 0 {
			break
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		if best.Move() == board.PASS {
			sb.WriteString("pass")
			probe.PlayPass()
		} else {
			sb.WriteString(probe.MoveToText(best.Move()))
			if !probe.PlayMove(best.Move()) {
				break
			}
		}
		cur = best
	}
	return sb.String()
}

func mostVisitedValidChild(n *node.Node) *node.Node {
	var best *node.Node
	var bestVisits int64 = -1
	for _, c := range n.Children() {
		if !c.Valid() {
			continue
		}
		if v := c.Visits(); v > bestVisits {
			bestVisits = v
			best = c
		}
	}
	return best
}

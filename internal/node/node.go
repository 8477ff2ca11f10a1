// Package node implements the MCTS tree vertex: prior, visit and value
// statistics, virtual loss, and the three-state expansion flag described
// in SPEC_FULL.md §3–§4.1. All numeric fields are updated atomically so
// many search workers can read and mutate the same node concurrently
// without a node-wide lock.
package node

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"
	"sync/atomic"

	"github.com/clockzhong/weizero/internal/board"
)

// expansion states for Node.state.
const (
	unexpanded int32 = iota
	expanding
	expanded
)

// Node is one vertex of the search tree. Identity is by path from the
// root, not by position hash — equivalent positions reached by different
// move orders get separate Nodes (the TranspositionTable is what lets
// them share statistics).
type Node struct {
	move   board.Move
	prior  float64 // only mutated pre-search (DirichletNoise); read freely after
	parent *Node

	visits      atomic.Int64
	valueSumBit atomic.Uint64 // math.Float64bits of value_sum, Black's perspective
	virtualLoss atomic.Int32
	state       atomic.Int32
	valid       atomic.Bool

	// children is assigned exactly once, by the goroutine that wins the
	// unexpanded->expanding CAS, strictly before state is stored as
	// expanded. Readers only ever dereference it after observing
	// state == expanded, which the Go memory model guarantees
	// synchronizes-after that store. SortChildren and
	// RandomizeFirstProportionally later reorder its elements in place
	// without synchronisation, so they must not run while other
	// goroutines are descending through this node.
	children []*Node
}

// New creates a detached node for move, owned by parent (nil for a
// fresh root), with the given network-assigned prior.
func New(move board.Move, parent *Node, prior float64) *Node {
	n := &Node{move: move, parent: parent, prior: prior}
	n.valid.Store(true)
	return n
}

// NewExpanded builds an already-expanded node owning children directly,
// bypassing CreateChildren/Evaluator. It is for callers that already
// have an exact child set in hand — reconstructing a root from a
// transposition-table-style snapshot, or a test that needs precise
// control over the tree shape without a full expansion round-trip.
func NewExpanded(move board.Move, parent *Node, prior float64, children []*Node) *Node {
	n := New(move, parent, prior)
	n.children = children
	n.state.Store(expanded)
	return n
}

func (n *Node) Move() board.Move        { return n.move }
func (n *Node) Parent() *Node            { return n.parent }
func (n *Node) Prior() float64           { return n.prior }
func (n *Node) Valid() bool              { return n.valid.Load() }
func (n *Node) Invalidate()              { n.valid.Store(false) }
func (n *Node) VirtualLossCount() int32  { return n.virtualLoss.Load() }

// HasChildren reports whether expansion has completed (state ==
// expanded). This is the acquire-side of the children publication.
func (n *Node) HasChildren() bool {
	return n.state.Load() == expanded
}

// Children returns the published child slice. Callers must have already
// observed HasChildren() == true (directly, or via a caller that did).
func (n *Node) Children() []*Node {
	return n.children
}

func (n *Node) Visits() int64 {
	return n.visits.Load()
}

func (n *Node) FirstVisit() bool {
	return n.visits.Load() == 0
}

func (n *Node) valueSum() float64 {
	return math.Float64frombits(n.valueSumBit.Load())
}

// VirtualLoss / VirtualLossUndo atomically bump the in-flight-simulation
// counter. They are always called in matching pairs around a descent.
func (n *Node) VirtualLoss()     { n.virtualLoss.Add(1) }
func (n *Node) VirtualLossUndo() { n.virtualLoss.Add(-1) }

// Update folds a completed simulation's result (Black's perspective)
// into value_sum and bumps visits. The add-to-float64-via-CAS loop is
// the standard lock-free accumulate pattern; contention here is brief
// since a single simulation touches each node once.
func (n *Node) Update(evalBlack float64) {
	for {
		old := n.valueSumBit.Load()
		next := math.Float64bits(math.Float64frombits(old) + evalBlack)
		if n.valueSumBit.CompareAndSwap(old, next) {
			break
		}
	}
	n.visits.Add(1)
}

// GetEval returns the node's mean value in color's perspective, per the
// invariant value_sum / max(visits,1) ∈ [0,1].
func (n *Node) GetEval(color board.Color) float64 {
	visits := n.visits.Load()
	denom := visits
	if denom < 1 {
		denom = 1
	}
	mean := n.valueSum() / float64(denom)
	if color == board.Black {
		return mean
	}
	return 1 - mean
}

// VisitsAndValueSum / AdoptStats implement tt.Stats so the search layer
// can sync/update a transposition table entry without node importing tt.
func (n *Node) VisitsAndValueSum() (int64, float64) {
	return n.visits.Load(), n.valueSum()
}

func (n *Node) AdoptStats(visits int64, valueSum float64) {
	n.visits.Store(visits)
	n.valueSumBit.Store(math.Float64bits(valueSum))
}

// CreateChildren attempts the unexpanded->expanding transition; on
// success it queries ev for (value, priors), builds one child per legal
// move (pass included, since Board.LegalMoves() always appends it),
// publishes children, and returns the network's value for this position
// (Black's perspective). On losing the race (or
// the tree-size cap already being reached) it returns ok=false and
// leaves everything else untouched.
func (n *Node) CreateChildren(ctx context.Context, liveNodes *atomic.Int64, maxTreeSize int64, b board.Board, ev board.Evaluator) (blackEval float64, ok bool, err error) {
	if !n.state.CompareAndSwap(unexpanded, expanding) {
		return 0, false, nil
	}
	if liveNodes.Load() >= maxTreeSize {
		n.state.Store(unexpanded)
		return 0, false, nil
	}

	eval, err := ev.Evaluate(ctx, b)
	if err != nil {
		n.state.Store(unexpanded)
		return 0, false, err
	}

	legal := b.LegalMoves()
	total := 0.0
	for _, m := range legal {
		total += eval.Policy[m]
	}

	children := make([]*Node, 0, len(legal))
	for _, m := range legal {
		p := 0.0
		if total > 0 {
			p = eval.Policy[m] / total
		} else {
			p = 1.0 / float64(len(legal))
		}
		children = append(children, New(m, n, p))
	}

	n.children = children
	liveNodes.Add(int64(len(children)))
	n.state.Store(expanded)
	return eval.Value, true, nil
}

// EvalState evaluates a leaf without expanding it, used once the
// tree-size cap has been reached.
func (n *Node) EvalState(ctx context.Context, b board.Board, ev board.Evaluator) (float64, error) {
	eval, err := ev.Evaluate(ctx, b)
	return eval.Value, err
}

// UCTSelectChild returns the child maximising the PUCT selection score
// for side, skipping invalid children, or nil if none are valid.
func (n *Node) UCTSelectChild(side board.Color, cpuct float64) *Node {
	if !n.HasChildren() {
		return nil
	}
	parentVisits := float64(n.visits.Load())
	sqrtParent := math.Sqrt(math.Max(parentVisits, 1))

	var best *Node
	bestScore := math.Inf(-1)
	for _, c := range n.children {
		if !c.Valid() {
			continue
		}
		cv := float64(c.visits.Load())
		vl := float64(c.virtualLoss.Load())

		q := c.GetEval(side)
		if vl > 0 {
			// Treat each in-flight simulation as a provisional loss
			// (value 0 in side's perspective) blended into the mean.
			q = (q*cv + 0*vl) / (cv + vl)
		}

		u := cpuct * c.prior * sqrtParent / (1 + cv)
		score := q + u
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

// SortChildren stable-sorts children so the current best (highest
// visits, ties broken by Q in side's perspective, then prior) is first.
func (n *Node) SortChildren(side board.Color) {
	if !n.HasChildren() {
		return
	}
	children := n.children
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		av, bv := a.visits.Load(), b.visits.Load()
		if av != bv {
			return av > bv
		}
		aq, bq := a.GetEval(side), b.GetEval(side)
		if aq != bq {
			return aq > bq
		}
		return a.prior > b.prior
	})
}

// RandomizeFirstProportionally replaces the first child with one sampled
// from a visit-count distribution over children, for opening diversity.
// Call SortChildren first if callers rely on "first" meaning "best" when
// this does not trigger.
func (n *Node) RandomizeFirstProportionally(rng *rand.Rand) {
	if !n.HasChildren() || len(n.children) == 0 {
		return
	}
	children := n.children
	total := int64(0)
	for _, c := range children {
		total += c.visits.Load()
	}
	if total <= 0 {
		return
	}
	target := rng.Int64N(total)
	var running int64
	chosen := 0
	for i, c := range children {
		running += c.visits.Load()
		if target < running {
			chosen = i
			break
		}
	}
	children[0], children[chosen] = children[chosen], children[0]
}

// KillSuperkos marks every top-level child !valid whose move would
// violate positional superko in rootBoard.
func (n *Node) KillSuperkos(rootBoard board.Board) {
	if !n.HasChildren() {
		return
	}
	for _, c := range n.children {
		if c.move == board.PASS {
			continue
		}
		probe := rootBoard.Clone()
		if !probe.PlayMove(c.move) || probe.Superko() {
			c.Invalidate()
		}
	}
}

// DirichletNoise blends child priors with a symmetric Dirichlet(alpha)
// sample using mixing weight eps: p_i = (1-eps)*p_i + eps*noise_i.
func (n *Node) DirichletNoise(eps, alpha float64, rng *rand.Rand) {
	if !n.HasChildren() || len(n.children) == 0 {
		return
	}
	noise := make([]float64, len(n.children))
	sum := 0.0
	for i := range noise {
		noise[i] = sampleGamma(alpha, rng)
		sum += noise[i]
	}
	if sum <= 0 {
		return
	}
	for i, c := range n.children {
		c.prior = (1-eps)*c.prior + eps*(noise[i]/sum)
	}
}

// sampleGamma draws from Gamma(shape, 1) via the Marsaglia-Tsang method,
// which is accurate for the shape >= 1 case and adequate (boosted) for
// shape < 1 as used by typical Dirichlet noise alphas (~0.03-0.3).
func sampleGamma(shape float64, rng *rand.Rand) float64 {
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(shape+1, rng) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// FindNewRoot extracts and returns the subtree rooted at the child
// reached by move, detaching it from its siblings (which become
// unreachable and are left for the garbage collector). If the node is
// not expanded, or no child matches, a fresh unexpanded node is
// returned — the caller (SearchDriver) falls back to building a root
// from scratch.
func (n *Node) FindNewRoot(move board.Move) *Node {
	if n.HasChildren() {
		for _, c := range n.children {
			if c.move == move {
				c.parent = nil
				return c
			}
		}
	}
	return New(board.PASS, nil, 1.0)
}

// GetNopassChild returns the highest-visit valid child whose move is
// not pass, or nil if there is none.
func (n *Node) GetNopassChild() *Node {
	if !n.HasChildren() {
		return nil
	}
	var best *Node
	var bestVisits int64 = -1
	for _, c := range n.children {
		if !c.Valid() || c.move == board.PASS {
			continue
		}
		if v := c.visits.Load(); v > bestVisits {
			bestVisits = v
			best = c
		}
	}
	return best
}

// CountNodes returns the size of the subtree rooted at n, including n
// itself.
func (n *Node) CountNodes() int64 {
	count := int64(1)
	if n.HasChildren() {
		for _, c := range n.children {
			count += c.CountNodes()
		}
	}
	return count
}

package board

import (
	"fmt"
	"strings"
)

// GoBoard is a reference Board implementation: Tromp-Taylor area scoring,
// stone placement with group capture, and positional (situational is not
// distinguished from positional here — side-to-move is not part of the
// hash) superko detection via a Zobrist-hashed position history.
//
// It exists so the search core has something real to run against in
// tests and the demo commands; production deployments are expected to
// supply their own Board backed by a faster rules engine.
type GoBoard struct {
	size     int
	points   []int8 // 0 empty, 1 black, 2 white
	toMove   Color
	komi     float64
	handicap int

	passes     int
	moveNumber int
	lastMove   Move
	hash       uint64

	// history records every stones-only hash seen so far in the game
	// (handicap placement through the move that produced the current
	// position). Shared ownership ends at Clone: each clone gets its own
	// copy so concurrent simulators never race on it.
	history map[uint64]bool

	superkoViolated bool
}

// NewGoBoard constructs an empty board of the given size with komi and
// free-placement handicap stones for Black at traditional star points
// (clamped to whatever fits on non-19x19 boards).
func NewGoBoard(size int, komi float64, handicap int) *GoBoard {
	b := &GoBoard{
		size:     size,
		points:   make([]int8, size*size),
		toMove:   Black,
		komi:     komi,
		handicap: handicap,
		lastMove: PASS,
		history:  make(map[uint64]bool, 256),
	}
	for _, pt := range handicapPoints(size, handicap) {
		b.points[pt] = stoneBlack
	}
	if handicap > 0 {
		b.toMove = White
	}
	b.hash = b.computeHash()
	b.history[b.hash] = true
	return b
}

func handicapPoints(size, n int) []int {
	if n <= 0 || size < 9 {
		return nil
	}
	edge := 3
	if size >= 13 {
		edge = 3
	}
	lo, mid, hi := edge, size/2, size-1-edge
	candidates := [][2]int{{lo, hi}, {hi, lo}, {hi, hi}, {lo, lo}, {mid, mid}, {lo, mid}, {hi, mid}, {mid, lo}, {mid, hi}}
	if n > len(candidates) {
		n = len(candidates)
	}
	pts := make([]int, 0, n)
	for i := 0; i < n; i++ {
		r, c := candidates[i][0], candidates[i][1]
		pts = append(pts, r*size+c)
	}
	return pts
}

func (b *GoBoard) Clone() Board {
	clone := &GoBoard{
		size:       b.size,
		points:     append([]int8(nil), b.points...),
		toMove:     b.toMove,
		komi:       b.komi,
		handicap:   b.handicap,
		passes:     b.passes,
		moveNumber: b.moveNumber,
		lastMove:   b.lastMove,
		hash:       b.hash,
		history:    make(map[uint64]bool, len(b.history)+8),
	}
	for k := range b.history {
		clone.history[k] = true
	}
	return clone
}

func (b *GoBoard) Hash() uint64    { return b.hash }
func (b *GoBoard) Komi() float64   { return b.komi }
func (b *GoBoard) ToMove() Color   { return b.toMove }
func (b *GoBoard) BoardSize() int  { return b.size }
func (b *GoBoard) Passes() int     { return b.passes }
func (b *GoBoard) MoveNumber() int { return b.moveNumber }
func (b *GoBoard) Handicap() int   { return b.handicap }
func (b *GoBoard) LastMove() Move  { return b.lastMove }
func (b *GoBoard) Superko() bool   { return b.superkoViolated }

// StoneAt reports the color of the stone at idx, and false if the point
// is empty. It exists for NN-input-plane encoders that need direct
// access to the stone grid.
func (b *GoBoard) StoneAt(idx int) (Color, bool) {
	switch b.points[idx] {
	case stoneBlack:
		return Black, true
	case stoneWhite:
		return White, true
	default:
		return 0, false
	}
}

func (b *GoBoard) colorStone(c Color) int8 {
	if c == Black {
		return stoneBlack
	}
	return stoneWhite
}

// PlayMove places a stone for ToMove() at m, captures any opponent groups
// left without liberties, and rejects suicide. It reports whether the
// move was legal. Positional superko is not rejected here — the caller
// (the Simulator) is responsible for checking Superko() after the play
// and rolling the move back into an invalid-child marker, per
// SPEC_FULL.md §4.2.
func (b *GoBoard) PlayMove(m Move) bool {
	if m == PASS {
		b.PlayPass()
		return true
	}
	idx := int(m)
	if idx < 0 || idx >= len(b.points) || b.points[idx] != stoneNone {
		return false
	}

	mover := b.toMove
	moverStone := b.colorStone(mover)
	oppStone := b.colorStone(mover.Other())

	saved := append([]int8(nil), b.points...)
	b.points[idx] = moverStone

	captured := false
	for _, n := range b.neighbors(idx) {
		if b.points[n] == oppStone && b.groupLiberties(n) == 0 {
			b.removeGroup(n)
			captured = true
		}
	}

	// A move that captured at least one opponent group always gains a
	// liberty there, so it can never be suicide; skip the scan.
	if !captured && b.groupLiberties(idx) == 0 {
		b.points = saved
		return false
	}

	b.lastMove = m
	b.passes = 0
	b.moveNumber++
	b.toMove = mover.Other()
	b.hash = b.computeHash()
	b.superkoViolated = b.history[b.hash]
	b.history[b.hash] = true
	return true
}

func (b *GoBoard) PlayPass() {
	b.lastMove = PASS
	b.passes++
	b.moveNumber++
	b.toMove = b.toMove.Other()
	b.superkoViolated = false
}

func (b *GoBoard) neighbors(idx int) []int {
	r, c := idx/b.size, idx%b.size
	out := make([]int, 0, 4)
	if r > 0 {
		out = append(out, idx-b.size)
	}
	if r < b.size-1 {
		out = append(out, idx+b.size)
	}
	if c > 0 {
		out = append(out, idx-1)
	}
	if c < b.size-1 {
		out = append(out, idx+1)
	}
	return out
}

// groupLiberties floods the group containing idx and returns its
// liberty count (0 meaning it would be captured/is suicide).
func (b *GoBoard) groupLiberties(idx int) int {
	color := b.points[idx]
	if color == stoneNone {
		return 0
	}
	seen := map[int]bool{idx: true}
	stack := []int{idx}
	liberties := map[int]bool{}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range b.neighbors(cur) {
			switch b.points[n] {
			case stoneNone:
				liberties[n] = true
			case color:
				if !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
	}
	return len(liberties)
}

func (b *GoBoard) removeGroup(idx int) {
	color := b.points[idx]
	seen := map[int]bool{idx: true}
	stack := []int{idx}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b.points[cur] = stoneNone
		for _, n := range b.neighbors(cur) {
			if b.points[n] == color && !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
}

func (b *GoBoard) computeHash() uint64 {
	initZobrist()
	var h uint64
	for i, pt := range b.points {
		switch pt {
		case stoneBlack:
			h ^= stoneHashKey(stoneBlack, i)
		case stoneWhite:
			h ^= stoneHashKey(stoneWhite, i)
		}
	}
	return h
}

// LegalMoves returns every empty point that is not suicide and does not
// recreate a position already in history, plus PASS.
func (b *GoBoard) LegalMoves() []Move {
	moves := make([]Move, 0, len(b.points)+1)
	for i, pt := range b.points {
		if pt != stoneNone {
			continue
		}
		probe := b.Clone().(*GoBoard)
		if probe.PlayMove(Move(i)) && !probe.superkoViolated {
			moves = append(moves, Move(i))
		}
	}
	moves = append(moves, PASS)
	return moves
}

func (b *GoBoard) MoveToText(m Move) string {
	switch m {
	case PASS:
		return "pass"
	case RESIGN:
		return "resign"
	}
	idx := int(m)
	r, c := idx/b.size, idx%b.size
	col := rune('A' + c)
	if col >= 'I' {
		col++ // skip 'I', traditional Go coordinate convention
	}
	return fmt.Sprintf("%c%d", col, b.size-r)
}

// FinalScore computes Tromp-Taylor area score: stones plus territory
// bordering only one color, minus komi, positive favoring Black.
func (b *GoBoard) FinalScore() float64 {
	visited := make([]bool, len(b.points))
	var black, white float64
	for i, pt := range b.points {
		switch pt {
		case stoneBlack:
			black++
			continue
		case stoneWhite:
			white++
			continue
		}
		if visited[i] {
			continue
		}
		region, bordersBlack, bordersWhite := b.floodEmptyRegion(i, visited)
		switch {
		case bordersBlack && !bordersWhite:
			black += float64(len(region))
		case bordersWhite && !bordersBlack:
			white += float64(len(region))
		}
	}
	return black - white - b.komi
}

func (b *GoBoard) floodEmptyRegion(start int, visited []bool) (region []int, bordersBlack, bordersWhite bool) {
	stack := []int{start}
	visited[start] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		region = append(region, cur)
		for _, n := range b.neighbors(cur) {
			switch b.points[n] {
			case stoneNone:
				if !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			case stoneBlack:
				bordersBlack = true
			case stoneWhite:
				bordersWhite = true
			}
		}
	}
	return region, bordersBlack, bordersWhite
}

// String renders the board for debugging/CLI output.
func (b *GoBoard) String() string {
	var sb strings.Builder
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			switch b.points[r*b.size+c] {
			case stoneBlack:
				sb.WriteByte('X')
			case stoneWhite:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

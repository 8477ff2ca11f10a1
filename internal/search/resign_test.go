package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clockzhong/weizero/internal/board"
)

type resignBoardStub struct {
	board.Board
	boardSize int
	moveNum   int
	handicap  int
}

func (s resignBoardStub) BoardSize() int  { return s.boardSize }
func (s resignBoardStub) MoveNumber() int { return s.moveNum }
func (s resignBoardStub) Handicap() int   { return s.handicap }

func newResignBoard(boardSize, moveNum, handicap int) resignBoardStub {
	return resignBoardStub{Board: board.NewGoBoard(boardSize, 0, handicap), boardSize: boardSize, moveNum: moveNum, handicap: handicap}
}

// Resign suppression/activation by move number (spec.md §8 scenario 5
// and the exact-boundary test).
func TestShouldResignMoveNumberBoundary(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		name     string
		visits   int64
		moveNum  int
		bestscore float64
		want     bool
	}{
		{"too early at move 10", 600, 10, 0.0, false},
		{"late enough at move 91 with losing score", 600, 91, 0.0, true},
		{"exactly at boundary board_squares/4 must not resign", 600, 19 * 19 / 4, 0.0, false},
		{"one past boundary must allow resign", 600, 19*19/4 + 1, 0.0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newResignBoard(19, tc.moveNum, 0)
			got := ShouldResign(tc.bestscore, board.Black, tc.visits, st, cfg, PassFlagNormal)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestShouldResignSuppressedByNoResignFlag(t *testing.T) {
	cfg := DefaultConfig()
	st := newResignBoard(19, 200, 0)
	require.False(t, ShouldResign(0.0, board.Black, 600, st, cfg, PassFlagNoResign))
}

func TestShouldResignNeverFiresWhenResignPctIsZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResignPct = 0
	st := newResignBoard(19, 200, 0)
	require.False(t, ShouldResign(0.0, board.Black, 100000, st, cfg, PassFlagNormal))
}

func TestShouldResignRequiresMinimumVisits(t *testing.T) {
	cfg := DefaultConfig()
	st := newResignBoard(19, 200, 0)
	require.False(t, ShouldResign(0.0, board.Black, 499, st, cfg, PassFlagNormal))
	require.True(t, ShouldResign(0.0, board.Black, 500, st, cfg, PassFlagNormal))
}

func TestShouldResignMinVisitsSaturatesWithUnlimitedPlayouts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayouts = 0 // unlimited; must not collapse min(500, cap) to 0
	st := newResignBoard(19, 200, 0)
	require.False(t, ShouldResign(0.0, board.Black, 499, st, cfg, PassFlagNormal))
	require.True(t, ShouldResign(0.0, board.Black, 500, st, cfg, PassFlagNormal))
}

func TestShouldResignRespectsCustomResignPct(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResignPct = 20 // threshold 0.20
	st := newResignBoard(19, 200, 0)
	require.True(t, ShouldResign(0.19, board.Black, 600, st, cfg, PassFlagNormal))
	require.False(t, ShouldResign(0.21, board.Black, 600, st, cfg, PassFlagNormal))
}

func TestShouldResignHandicapBlendIsMoreForgivingForWhiteEarly(t *testing.T) {
	cfg := DefaultConfig() // ResignPct stays -1 (default), required for the blend to apply
	st := newResignBoard(19, 100, 6)

	// With the default threshold alone (no handicap) a score of 0.08 is
	// below 0.10 and resigns; the handicap blend makes White's effective
	// threshold lower (more forgiving) early in the game, about 0.054 at
	// move 100 with 6 stones, so the same score does not resign.
	withoutHandicap := newResignBoard(19, 100, 0)
	require.True(t, ShouldResign(0.08, board.White, 600, withoutHandicap, cfg, PassFlagNormal))
	require.False(t, ShouldResign(0.08, board.White, 600, st, cfg, PassFlagNormal))
}

func TestShouldResignHandicapBlendOnlyAppliesToWhiteAndDefaultPct(t *testing.T) {
	cfg := DefaultConfig()
	st := newResignBoard(19, 100, 6)
	// Black is never blended, regardless of handicap.
	require.True(t, ShouldResign(0.08, board.Black, 600, st, cfg, PassFlagNormal))

	cfg.ResignPct = 10 // no longer "default" (-1), blend must not apply
	require.True(t, ShouldResign(0.08, board.White, 600, st, cfg, PassFlagNormal))
}

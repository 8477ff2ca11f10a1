package search

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clockzhong/weizero/internal/board"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// stubEvaluator returns a fixed value and a flat prior over whatever
// legal moves the board reports, so every child gets an equal share.
type stubEvaluator struct {
	value float64
	calls int
}

func (s *stubEvaluator) Evaluate(ctx context.Context, b board.Board) (board.Evaluation, error) {
	s.calls++
	moves := b.LegalMoves()
	policy := make(map[board.Move]float64, len(moves))
	for _, m := range moves {
		policy[m] = 1.0
	}
	return board.Evaluation{Value: s.value, Policy: policy}, nil
}

type failingEvaluator struct{ err error }

func (f *failingEvaluator) Evaluate(ctx context.Context, b board.Board) (board.Evaluation, error) {
	return board.Evaluation{}, f.err
}

// fixedClock is a TimeControl with a constant per-move budget, for tests
// that need a deterministic, short search window.
type fixedClock struct {
	budget time.Duration
}

func (c *fixedClock) MaxTimeForMove(board.Color) time.Duration { return c.budget }
func (c *fixedClock) StartClock(board.Color)                   {}
func (c *fixedClock) StopClock(board.Color)                    {}
func (c *fixedClock) SetBoardSize(int)                          {}

var _ board.TimeControl = (*fixedClock)(nil)

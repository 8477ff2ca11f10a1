package search

import (
	"math"

	"github.com/clockzhong/weizero/internal/board"
)

// scoreFavors reports whether a signed Tromp-Taylor score (positive
// favors Black) favors c.
func scoreFavors(score float64, c board.Color) bool {
	if c == board.Black {
		return score > 0
	}
	return score < 0
}

func passLosesFor(score float64, side board.Color) bool {
	return !scoreFavors(score, side)
}

func passWinsFor(score float64, side board.Color) bool {
	return scoreFavors(score, side)
}

// ShouldResign implements spec.md §4.6, including the handicap blend.
// bestscore is the selected move's Q in side's own perspective.
func ShouldResign(bestscore float64, side board.Color, rootVisits int64, st board.Board, cfg Config, passFlag PassFlag) bool {
	if passFlag&PassFlagNoResign != 0 {
		return false
	}
	if cfg.ResignPct == 0 {
		return false
	}

	minVisits := saturate(cfg.MaxPlayouts)
	if minVisits > 500 {
		minVisits = 500
	}
	if rootVisits < minVisits {
		return false
	}

	boardSquares := st.BoardSize() * st.BoardSize()
	if st.MoveNumber() <= boardSquares/4 {
		return false
	}

	isDefault := cfg.ResignPct < 0
	normalThreshold := 0.10
	if !isDefault {
		normalThreshold = 0.01 * float64(cfg.ResignPct)
	}

	threshold := normalThreshold
	if st.Handicap() > 0 && side == board.White && isDefault {
		handicapThreshold := normalThreshold / float64(1+st.Handicap())
		blend := math.Min(1, float64(st.MoveNumber())/(0.6*float64(boardSquares)))
		threshold = blend*normalThreshold + (1-blend)*handicapThreshold
	}

	return bestscore <= threshold
}

package search

import (
	"math"
	"runtime"
	"time"
)

// Config is the plain struct the internal/config loader produces and
// Driver consumes — see SPEC_FULL.md §9.2 on why loading itself lives
// outside this package.
type Config struct {
	NumThreads  int
	MaxPlayouts int64 // 0 = unlimited
	MaxVisits   int64 // 0 = unlimited
	RandomCnt   int
	Noise       bool
	Quiet       bool
	ResignPct   int // -1 = default (10%)
	DumbPass    bool

	// Cpuct, MaxTreeSize and TTCapacity are implementation knobs for the
	// abstractly-specified PUCT formula and MAX_TREE_SIZE constant (see
	// spec.md §1's "formula itself is covered abstractly" and §6's
	// MAX_TREE_SIZE description).
	Cpuct       float64
	MaxTreeSize int64
	TTCapacity  int

	AnalysisInterval time.Duration
}

// DefaultConfig mirrors internal/config's defaults for callers (tests,
// demo commands) that construct a Driver without going through viper.
func DefaultConfig() Config {
	return Config{
		NumThreads:       runtime.NumCPU(),
		MaxPlayouts:      0,
		MaxVisits:        0,
		RandomCnt:        0,
		Noise:            false,
		Quiet:            false,
		ResignPct:        -1,
		DumbPass:         false,
		Cpuct:            0.5,
		MaxTreeSize:      5_000_000,
		TTCapacity:       1 << 20,
		AnalysisInterval: 2500 * time.Millisecond,
	}
}

// PassFlag is the bitfield controlling pass/resign overrides for one
// think() call.
type PassFlag uint8

const (
	PassFlagNormal   PassFlag = 0
	PassFlagNoPass   PassFlag = 1 << 0
	PassFlagNoResign PassFlag = 1 << 1
)

// saturate maps the 0-means-unlimited convention onto the largest
// representable playout/visit count.
func saturate(limit int64) int64 {
	if limit == 0 {
		return math.MaxInt64
	}
	return limit
}

// limitReached implements SearchDriver's limit_reached() predicate.
func limitReached(cfg Config, playouts, rootVisits int64) bool {
	return playouts >= saturate(cfg.MaxPlayouts) || rootVisits >= saturate(cfg.MaxVisits)
}

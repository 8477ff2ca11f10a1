package search

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clockzhong/weizero/internal/board"
	"github.com/clockzhong/weizero/internal/node"
	"github.com/clockzhong/weizero/internal/tt"
)

// TrainingRecorder receives the root's final visit distribution and the
// move actually played, once per think() call. Per-game state
// persistence and training-sample recording are out of scope (spec.md
// §1's Non-goals), so the only shipped implementation is a no-op; the
// core calls it unconditionally so a real implementation can be plugged
// in without touching Driver.
type TrainingRecorder interface {
	Record(root *node.Node, st board.Board, played board.Move)
}

type noopRecorder struct{}

func (noopRecorder) Record(*node.Node, board.Board, board.Move) {}

// Driver is SearchDriver: it owns the tree root, the current game state,
// and the per-call workers. A Driver is used by exactly one goroutine at
// a time (Think/Ponder are not meant to overlap); the tree they mutate
// is safe for concurrent access only by the workers spawned within a
// single call.
type Driver struct {
	cfg      Config
	ev       board.Evaluator
	tc       board.TimeControl
	table    *tt.Table
	recorder TrainingRecorder
	log      zerolog.Logger

	root      *node.Node
	rootBoard board.Board
	liveNodes atomic.Int64
	rng       *rand.Rand
}

// NewDriver wires a Driver from its external collaborators. recorder and
// log may be nil/zero; sane no-op defaults are substituted.
func NewDriver(cfg Config, ev board.Evaluator, tc board.TimeControl, recorder TrainingRecorder, log zerolog.Logger) *Driver {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Driver{
		cfg:      cfg,
		ev:       ev,
		tc:       tc,
		table:    tt.New(cfg.TTCapacity),
		recorder: recorder,
		log:      log,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SetPlayoutLimit and SetVisitLimit implement spec.md §4.4's limits: 0
// means unlimited.
func (d *Driver) SetPlayoutLimit(n int64) { d.cfg.MaxPlayouts = n }
func (d *Driver) SetVisitLimit(n int64)   { d.cfg.MaxVisits = n }

// SetGameState implements set_gamestate: same (hash, komi) keeps the
// existing root untouched; a one-ply-forward match against an existing
// child promotes that subtree via FindNewRoot; anything else starts a
// fresh, unexpanded root. Calling it twice with the same state is a
// no-op the second time, per spec.md §8's round-trip property.
//
// The Driver clones b into its own rootBoard rather than aliasing the
// caller's board: think()/finishMove go on to mutate rootBoard in place
// as the search advances, and the caller must keep its own board
// independently playable after the call returns.
func (d *Driver) SetGameState(b board.Board) {
	if d.root != nil && d.rootBoard != nil && b.Hash() == d.rootBoard.Hash() && b.Komi() == d.rootBoard.Komi() {
		return
	}

	if d.root != nil && d.root.HasChildren() {
		for _, c := range d.root.Children() {
			probe := d.rootBoard.Clone()
			if c.Move() == board.PASS {
				probe.PlayPass()
			} else if !probe.PlayMove(c.Move()) {
				continue
			}
			if probe.Hash() == b.Hash() && probe.Komi() == b.Komi() {
				d.root = d.root.FindNewRoot(c.Move())
				d.rootBoard = b.Clone()
				return
			}
		}
	}

	d.root = node.New(board.PASS, nil, 1.0)
	d.rootBoard = b.Clone()
}

// Root exposes the current root node, mainly for tests and diagnostics.
func (d *Driver) Root() *node.Node { return d.root }

// Think implements think(): expand/reuse the root, run workers for the
// board's per-move time budget (or until a playout/visit limit fires),
// then select and play a move, advancing the root for next time.
func (d *Driver) Think(ctx context.Context, side board.Color, gameState board.Board, passFlag PassFlag) (board.Move, error) {
	d.SetGameState(gameState)

	d.tc.StartClock(side)
	budget := d.tc.MaxTimeForMove(side)
	defer d.tc.StopClock(side)

	if err := d.prepareRoot(ctx); err != nil {
		return 0, err
	}

	start := time.Now()
	stop := func() bool { return time.Since(start) >= budget }
	if err := d.runWorkers(ctx, side, stop); err != nil {
		return 0, err
	}

	return d.finishMove(side, passFlag)
}

// Ponder implements ponder(): identical to Think's search loop, but the
// stop condition is external-input-pending rather than a time budget. It
// does not play a move or advance the root; the caller is expected to
// follow up with Think once it has a move to make.
func (d *Driver) Ponder(ctx context.Context, side board.Color, gameState board.Board, interrupt <-chan struct{}) error {
	d.SetGameState(gameState)
	if err := d.prepareRoot(ctx); err != nil {
		return err
	}
	stop := func() bool {
		select {
		case <-interrupt:
			return true
		default:
			return false
		}
	}
	return d.runWorkers(ctx, side, stop)
}

func (d *Driver) prepareRoot(ctx context.Context) error {
	if !d.root.HasChildren() {
		if _, _, err := d.root.CreateChildren(ctx, &d.liveNodes, d.cfg.MaxTreeSize, d.rootBoard, d.ev); err != nil {
			return fmt.Errorf("expand root: %w", err)
		}
	}
	d.root.KillSuperkos(d.rootBoard)
	if d.cfg.Noise {
		d.root.DirichletNoise(0.25, 0.03, d.rng)
	}
	return nil
}

func (d *Driver) runWorkers(ctx context.Context, side board.Color, stop func() bool) error {
	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var playouts atomic.Int64
	limitFn := func() bool { return limitReached(d.cfg, playouts.Load(), d.root.Visits()) }
	simulate := func(simCtx context.Context) (bool, error) {
		valid, _, err := playSimulation(simCtx, d.rootBoard.Clone(), d.root, d.table, d.ev, d.cfg.MaxTreeSize, &d.liveNodes, d.cfg.Cpuct)
		return valid, err
	}

	pool := NewWorkerPool(&playouts)
	workers := d.cfg.NumThreads - 1
	if workers < 0 {
		workers = 0
	}
	pool.Start(searchCtx, workers, limitFn, simulate)

	searchID := uuid.NewString()
	lastDump := time.Now()
	var driverErr error
	for {
		if ctx.Err() != nil || stop() || limitFn() {
			break
		}
		valid, err := simulate(searchCtx)
		if err != nil {
			driverErr = err
			break
		}
		if valid {
			playouts.Add(1)
		}
		if !d.cfg.Quiet && time.Since(lastDump) >= d.cfg.AnalysisInterval {
			d.dumpAnalysis(searchID, side)
			lastDump = time.Now()
		}
	}

	cancel()
	if poolErr := pool.Wait(); poolErr != nil && driverErr == nil {
		driverErr = poolErr
	}
	if driverErr != nil {
		return fmt.Errorf("search: %w", driverErr)
	}
	return nil
}

func (d *Driver) dumpAnalysis(searchID string, side board.Color) {
	pv := PrincipalVariation(d.root, d.rootBoard)
	winrate := d.root.GetEval(side)
	d.log.Info().
		Str("search_id", searchID).
		Int64("visits", d.root.Visits()).
		Float64("winrate", winrate).
		Str("pv", pv).
		Msg("analysis")
}

func (d *Driver) finishMove(side board.Color, passFlag PassFlag) (board.Move, error) {
	if !d.root.HasChildren() {
		return board.PASS, nil
	}

	d.root.SortChildren(side)
	if d.cfg.RandomCnt > 0 && d.rootBoard.MoveNumber() < d.cfg.RandomCnt {
		d.root.RandomizeFirstProportionally(d.rng)
	}

	best := SelectMove(d.root, side, d.rootBoard, passFlag, d.cfg)
	d.recorder.Record(d.root, d.rootBoard, best)

	if best == board.RESIGN {
		return board.RESIGN, nil
	}
	if best == board.PASS {
		d.rootBoard.PlayPass()
	} else if !d.rootBoard.PlayMove(best) {
		return board.PASS, fmt.Errorf("chosen move %d is illegal on the current root board", best)
	}
	d.root = d.root.FindNewRoot(best)
	return best, nil
}

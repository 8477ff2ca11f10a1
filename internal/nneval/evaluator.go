// Package nneval implements board.Evaluator against an ONNX Runtime
// policy/value network, adapted from the batched-inference design the
// teacher engine used for its own neural evaluator: requests queue up
// behind a single inference session and are flushed together either
// when the batch fills or a short timeout elapses, so concurrent search
// workers share GPU/CPU inference instead of serializing on it.
package nneval

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/clockzhong/weizero/internal/board"
)

const (
	// NumSpatialFeatures planes per point: own stones, opponent stones,
	// empty points, the point of the last move played, and an
	// all-ones bias plane.
	NumSpatialFeatures = 5
	// NumGlobalFeatures: side to move is Black, normalized komi,
	// normalized move number, handicap present.
	NumGlobalFeatures = 4
	MaxBatchSize       = 64
	BatchTimeout       = time.Millisecond
)

type evalRequest struct {
	b      board.Board
	result chan evalOutcome
}

type evalOutcome struct {
	eval board.Evaluation
	err  error
}

// Evaluator is a board.Evaluator backed by a single ONNX Runtime
// session. BoardSize is fixed at construction because the input/output
// tensor shapes are.
type Evaluator struct {
	boardSize int
	session   *ort.AdvancedSession
	queue     chan evalRequest

	binInput    []float32
	globalInput []float32
	policy      []float32
	value       []float32

	inputs  []ort.Value
	outputs []ort.Value

	mu           sync.Mutex
	totalItems   int64
	totalBatches int64
}

func prependPathEnv(key, dir string) {
	cur := os.Getenv(key)
	if cur == "" {
		setNativeEnv(key, dir)
		return
	}
	setNativeEnv(key, dir+string(os.PathListSeparator)+cur)
}

// New loads modelPath via the ONNX Runtime shared library at libPath and
// wires up a batched inference loop sized for a boardSize x boardSize
// board. It tries execution providers from fastest to slowest, falling
// back to CPU if none of the accelerated ones initialize.
func New(modelPath, libPath string, boardSize int) (*Evaluator, error) {
	absModel, err := resolveModelPath(modelPath)
	if err != nil {
		return nil, err
	}
	absLib, err := resolveORTSharedLibraryPath(libPath)
	if err != nil {
		return nil, err
	}
	configureORTSearchPath(filepath.Dir(absLib))

	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(absLib)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime environment: %w", err)
		}
	}

	planeSize := boardSize * boardSize
	policySize := planeSize + 1

	binInput := make([]float32, MaxBatchSize*NumSpatialFeatures*planeSize)
	globalInput := make([]float32, MaxBatchSize*NumGlobalFeatures)
	policy := make([]float32, MaxBatchSize*policySize)
	value := make([]float32, MaxBatchSize*3)

	binShape := ort.NewShape(MaxBatchSize, int64(NumSpatialFeatures), int64(boardSize), int64(boardSize))
	globalShape := ort.NewShape(MaxBatchSize, int64(NumGlobalFeatures))
	policyShape := ort.NewShape(MaxBatchSize, int64(policySize))
	valueShape := ort.NewShape(MaxBatchSize, 3)

	inputTensor1, err := ort.NewTensor(binShape, binInput)
	if err != nil {
		return nil, err
	}
	inputTensor2, err := ort.NewTensor(globalShape, globalInput)
	if err != nil {
		return nil, err
	}
	outputTensor1, err := ort.NewTensor(policyShape, policy)
	if err != nil {
		return nil, err
	}
	outputTensor2, err := ort.NewTensor(valueShape, value)
	if err != nil {
		return nil, err
	}

	inputNames := []string{"bin_inputs", "global_inputs"}
	outputNames := []string{"policy", "value"}
	inputs := []ort.Value{inputTensor1, inputTensor2}
	outputs := []ort.Value{outputTensor1, outputTensor2}

	session, err := initSessionWithFallback(absModel, inputNames, outputNames, inputs, outputs)
	if err != nil {
		return nil, err
	}

	e := &Evaluator{
		boardSize:   boardSize,
		session:     session,
		queue:       make(chan evalRequest, MaxBatchSize*10),
		binInput:    binInput,
		globalInput: globalInput,
		policy:      policy,
		value:       value,
		inputs:      inputs,
		outputs:     outputs,
	}
	go e.batchLoop()
	return e, nil
}

type providerSetup struct {
	name  string
	setup func(*ort.SessionOptions) error
}

func initSessionWithFallback(modelPath string, inputNames, outputNames []string, inputs, outputs []ort.Value) (*ort.AdvancedSession, error) {
	providers := []providerSetup{
		{"TensorRT", func(so *ort.SessionOptions) error {
			opts, err := ort.NewTensorRTProviderOptions()
			if err != nil {
				return err
			}
			defer opts.Destroy()
			return so.AppendExecutionProviderTensorRT(opts)
		}},
		{"CUDA", func(so *ort.SessionOptions) error {
			opts, err := ort.NewCUDAProviderOptions()
			if err != nil {
				return err
			}
			defer opts.Destroy()
			return so.AppendExecutionProviderCUDA(opts)
		}},
		{"DirectML", func(so *ort.SessionOptions) error {
			return so.AppendExecutionProviderDirectML(0)
		}},
		{"CPU", func(so *ort.SessionOptions) error { return nil }},
	}

	for _, p := range providers {
		so, err := ort.NewSessionOptions()
		if err != nil {
			continue
		}
		_ = so.SetLogSeverityLevel(3)
		if err := p.setup(so); err != nil {
			so.Destroy()
			continue
		}
		session, err := ort.NewAdvancedSession(modelPath, inputNames, outputNames, inputs, outputs, so)
		so.Destroy()
		if err != nil {
			continue
		}
		if err := session.Run(); err != nil {
			session.Destroy()
			continue
		}
		return session, nil
	}
	return nil, fmt.Errorf("failed to initialize NN with any execution provider")
}

func (e *Evaluator) Close() {
	if e.session != nil {
		e.session.Destroy()
	}
	for _, v := range e.inputs {
		v.Destroy()
	}
	for _, v := range e.outputs {
		v.Destroy()
	}
}

// Evaluate satisfies board.Evaluator.
func (e *Evaluator) Evaluate(ctx context.Context, b board.Board) (board.Evaluation, error) {
	req := evalRequest{b: b, result: make(chan evalOutcome, 1)}
	select {
	case e.queue <- req:
	case <-ctx.Done():
		return board.Evaluation{}, ctx.Err()
	}
	select {
	case out := <-req.result:
		return out.eval, out.err
	case <-ctx.Done():
		return board.Evaluation{}, ctx.Err()
	}
}

func (e *Evaluator) batchLoop() {
	requests := make([]evalRequest, 0, MaxBatchSize)
	for {
		requests = requests[:0]
		req, ok := <-e.queue
		if !ok {
			return
		}
		requests = append(requests, req)

		timeout := time.After(BatchTimeout)
	collect:
		for len(requests) < MaxBatchSize {
			select {
			case r := <-e.queue:
				requests = append(requests, r)
			case <-timeout:
				break collect
			}
		}
		e.processBatch(requests)
	}
}

func (e *Evaluator) processBatch(requests []evalRequest) {
	batchSize := len(requests)
	planeSize := e.boardSize * e.boardSize
	policySize := planeSize + 1

	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(idx int, r evalRequest) {
			defer wg.Done()
			e.fillOne(idx, r.b)
		}(i, req)
	}
	wg.Wait()

	if batchSize < MaxBatchSize {
		e.clearBatchTail(batchSize)
	}

	if err := e.session.Run(); err != nil {
		for _, req := range requests {
			req.result <- evalOutcome{err: fmt.Errorf("onnxruntime session run: %w", err)}
		}
		return
	}

	e.mu.Lock()
	e.totalBatches++
	e.totalItems += int64(batchSize)
	e.mu.Unlock()

	for i, req := range requests {
		v := e.value[i*3 : i*3+3]
		maxLogit := v[0]
		if v[1] > maxLogit {
			maxLogit = v[1]
		}
		if v[2] > maxLogit {
			maxLogit = v[2]
		}
		eBlack := math.Exp(float64(v[0] - maxLogit))
		eWhite := math.Exp(float64(v[1] - maxLogit))
		eDraw := math.Exp(float64(v[2] - maxLogit))
		sum := eBlack + eWhite + eDraw

		blackWin := eBlack / sum

		policy := make(map[board.Move]float64, policySize)
		rawPolicy := e.policy[i*policySize : (i+1)*policySize]
		for sq := 0; sq < planeSize; sq++ {
			policy[board.Move(sq)] = float64(rawPolicy[sq])
		}
		policy[board.PASS] = float64(rawPolicy[planeSize])

		req.result <- evalOutcome{eval: board.Evaluation{Value: blackWin, Policy: policy}}
	}
}

func (e *Evaluator) fillOne(batchIdx int, b board.Board) {
	planeSize := e.boardSize * e.boardSize
	spatialOffset := batchIdx * NumSpatialFeatures * planeSize
	globalOffset := batchIdx * NumGlobalFeatures

	subBin := e.binInput[spatialOffset : spatialOffset+NumSpatialFeatures*planeSize]
	for i := range subBin {
		subBin[i] = 0
	}
	subGlobal := e.globalInput[globalOffset : globalOffset+NumGlobalFeatures]
	for i := range subGlobal {
		subGlobal[i] = 0
	}

	pla := b.ToMove()
	gb, ok := b.(*board.GoBoard)
	if ok {
		fillSpatialFromGoBoard(subBin, gb, pla, planeSize)
	} else {
		// Unknown Board implementation: fall back to LegalMoves() to at
		// least mark on-board points; spatial planes stay zeroed
		// otherwise. A custom Board should provide richer encoding via
		// its own Evaluator in production.
		for _, m := range b.LegalMoves() {
			if m == board.PASS || int(m) >= planeSize {
				continue
			}
			subBin[2*planeSize+int(m)] = 1.0
		}
	}

	if pla == board.Black {
		subGlobal[0] = 1.0
	}
	subGlobal[1] = float32(b.Komi() / 20.0)
	subGlobal[2] = float32(b.MoveNumber()) / float32(planeSize+1)
	if b.Handicap() > 0 {
		subGlobal[3] = 1.0
	}
}

// fillSpatialFromGoBoard is defined in this package (not board) because
// it is an NN-input-plane encoding concern, not a rules concern.
func fillSpatialFromGoBoard(subBin []float32, gb *board.GoBoard, pla board.Color, planeSize int) {
	own, opp := board.Black, board.White
	if pla == board.White {
		own, opp = board.White, board.Black
	}
	for sq := 0; sq < planeSize; sq++ {
		color, occupied := gb.StoneAt(sq)
		switch {
		case !occupied:
			subBin[2*planeSize+sq] = 1.0
		case color == own:
			subBin[0*planeSize+sq] = 1.0
		case color == opp:
			subBin[1*planeSize+sq] = 1.0
		}
	}
	if last := gb.LastMove(); last != board.PASS && last != board.RESIGN && int(last) < planeSize {
		subBin[3*planeSize+int(last)] = 1.0
	}
	for i := 0; i < planeSize; i++ {
		subBin[4*planeSize+i] = 1.0
	}
}

func (e *Evaluator) clearBatchTail(startIdx int) {
	planeSize := e.boardSize * e.boardSize
	spatialSize := NumSpatialFeatures * planeSize
	for i := startIdx * spatialSize; i < MaxBatchSize*spatialSize; i++ {
		e.binInput[i] = 0
	}
	for i := startIdx * NumGlobalFeatures; i < MaxBatchSize*NumGlobalFeatures; i++ {
		e.globalInput[i] = 0
	}
}

// Stats returns lifetime batching statistics, useful for tuning
// MaxBatchSize/BatchTimeout against real worker counts.
func (e *Evaluator) Stats() (batches, items int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalBatches, e.totalItems
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/clockzhong/weizero/internal/board"
	"github.com/clockzhong/weizero/internal/mctslog"
	"github.com/clockzhong/weizero/internal/nneval"
	"github.com/clockzhong/weizero/internal/search"
)

func main() {
	modelPath := flag.String("model", "weizero.onnx", "path to ONNX model file")
	libPath := flag.String("lib", "onnxruntime.dll", "path to the onnxruntime shared library")
	boardSize := flag.Int("size", 19, "board size")
	komi := flag.Float64("komi", 7.5, "komi")
	handicap := flag.Int("handicap", 0, "free handicap stones for Black")
	maxMoves := flag.Int("maxmoves", 500, "max moves to play before giving up on the game")
	playouts := flag.Int64("playouts", 400, "playouts per move (0 = unlimited, bounded by time only)")
	noise := flag.Bool("noise", true, "apply Dirichlet root noise")
	flag.Parse()

	go func() {
		log.Println("pprof listening on :6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			log.Printf("pprof failed: %v", err)
		}
	}()

	ev, err := nneval.New(*modelPath, *libPath, *boardSize)
	log.Printf("initializing NN with model %s and lib %s", *modelPath, *libPath)
	if err != nil {
		log.Fatalf("failed to initialize NN: %v", err)
	}
	defer ev.Close()

	cfg := search.DefaultConfig()
	cfg.MaxPlayouts = *playouts
	cfg.Noise = *noise

	tc := board.NewSuddenDeathClock(20 * time.Minute)
	tc.SetBoardSize(*boardSize)
	driver := search.NewDriver(cfg, ev, tc, nil, mctslog.New(false))

	gb := board.NewGoBoard(*boardSize, *komi, *handicap)
	side := gb.ToMove()

	for i := 0; i < *maxMoves; i++ {
		log.Printf("--- move %d, side %v ---", i+1, side)

		start := time.Now()
		move, err := driver.Think(context.Background(), side, gb, search.PassFlagNormal)
		duration := time.Since(start)
		if err != nil {
			log.Fatalf("search failed: %v", err)
		}

		batches, items := ev.Stats()
		fmt.Printf("move: %s, time: %v, nn_batches: %d, nn_items: %d\n", gb.MoveToText(move), duration, batches, items)

		if move == board.RESIGN {
			log.Printf("%v resigns.", side)
			break
		}
		if move != board.PASS {
			if !gb.PlayMove(move) {
				log.Fatalf("driver returned an illegal move %v", move)
			}
		} else {
			gb.PlayPass()
		}
		side = side.Other()

		if gb.Passes() >= 2 {
			log.Printf("game over by two passes. final score: %v", gb.FinalScore())
			break
		}
	}

	log.Println("selfplay finished.")
	os.Exit(0)
}

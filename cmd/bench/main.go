package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/clockzhong/weizero/internal/board"
	"github.com/clockzhong/weizero/internal/mctslog"
	"github.com/clockzhong/weizero/internal/nneval"
	"github.com/clockzhong/weizero/internal/search"
)

type playerConfig struct {
	name string
	cfg  search.Config
}

func main() {
	modelPath := flag.String("model", "weizero.onnx", "path to ONNX model file")
	libPath := flag.String("lib", "onnxruntime.dll", "path to the onnxruntime shared library")
	boardSize := flag.Int("size", 9, "board size")
	komi := flag.Float64("komi", 7.5, "komi")
	totalGames := flag.Int("games", 10, "number of games to play")
	playoutsA := flag.Int64("playouts-a", 100, "playouts per move for player A")
	playoutsB := flag.Int64("playouts-b", 800, "playouts per move for player B")
	flag.Parse()

	ev, err := nneval.New(*modelPath, *libPath, *boardSize)
	if err != nil {
		log.Fatalf("failed to initialize NN: %v", err)
	}
	defer ev.Close()

	cfgA := search.DefaultConfig()
	cfgA.MaxPlayouts = *playoutsA
	playerA := playerConfig{name: fmt.Sprintf("fast (%d playouts)", *playoutsA), cfg: cfgA}

	cfgB := search.DefaultConfig()
	cfgB.MaxPlayouts = *playoutsB
	playerB := playerConfig{name: fmt.Sprintf("deep (%d playouts)", *playoutsB), cfg: cfgB}

	aWins, bWins, draws := 0, 0, 0
	for g := 0; g < *totalGames; g++ {
		var black, white playerConfig
		if g%2 == 0 {
			black, white = playerA, playerB
		} else {
			black, white = playerB, playerA
		}

		fmt.Printf("\n=== game %d: Black [%s] vs White [%s] ===\n", g+1, black.name, white.name)
		winner, draw := playGame(ev, black, white, *boardSize, *komi)

		switch {
		case draw:
			draws++
			fmt.Println("result: draw")
		case winner == board.Black:
			if g%2 == 0 {
				aWins++
			} else {
				bWins++
			}
			fmt.Println("result: Black wins")
		default:
			if g%2 == 0 {
				bWins++
			} else {
				aWins++
			}
			fmt.Println("result: White wins")
		}
	}

	fmt.Printf("\n%s: %d wins, %s: %d wins, draws: %d\n", playerA.name, aWins, playerB.name, bWins, draws)
}

func playGame(ev board.Evaluator, black, white playerConfig, boardSize int, komi float64) (winner board.Color, draw bool) {
	gb := board.NewGoBoard(boardSize, komi, 0)
	tc := board.NewSuddenDeathClock(2 * time.Minute)
	tc.SetBoardSize(boardSize)

	drivers := map[board.Color]*search.Driver{
		board.Black: search.NewDriver(black.cfg, ev, tc, nil, mctslog.New(true)),
		board.White: search.NewDriver(white.cfg, ev, tc, nil, mctslog.New(true)),
	}

	side := gb.ToMove()
	for move := 0; move < boardSize*boardSize*2; move++ {
		d := drivers[side]
		mv, err := d.Think(context.Background(), side, gb, search.PassFlagNormal)
		if err != nil {
			log.Printf("search error: %v", err)
			break
		}
		if mv == board.RESIGN {
			return side.Other(), false
		}
		if mv == board.PASS {
			gb.PlayPass()
		} else if !gb.PlayMove(mv) {
			log.Printf("driver returned illegal move %v, treating as resignation", mv)
			return side.Other(), false
		}
		side = side.Other()
		if gb.Passes() >= 2 {
			break
		}
	}

	score := gb.FinalScore()
	switch {
	case score > 0:
		return board.Black, false
	case score < 0:
		return board.White, false
	default:
		return board.Black, true
	}
}

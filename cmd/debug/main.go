package main

import (
	"flag"
	"fmt"

	"github.com/clockzhong/weizero/internal/board"
)

func main() {
	size := flag.Int("size", 9, "board size")
	komi := flag.Float64("komi", 7.5, "komi")
	handicap := flag.Int("handicap", 0, "free handicap stones for Black")
	flag.Parse()

	gb := board.NewGoBoard(*size, *komi, *handicap)
	fmt.Println(gb.String())
	fmt.Println("to move:", gb.ToMove())
	moves := gb.LegalMoves()
	fmt.Println("legal moves:", len(moves))
}

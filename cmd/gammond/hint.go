package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/gnubg"
)

// HintCmd asks the engine for its preferred turn in a single position and
// prints it in from/to notation. Handy for checking an engine install
// without starting a game.
type HintCmd struct {
	Binary   string        `default:"gnubg" help:"Engine binary to invoke"`
	Position string        `help:"Position as 28 comma-separated signed counts (default: starting position)"`
	Dice     string        `default:"3,1" help:"Dice roll, e.g. 6,4"`
	Black    bool          `help:"Move for black instead of white"`
	Timeout  time.Duration `default:"10s" help:"Engine call budget"`
}

func (c *HintCmd) Run() error {
	b := board.Initial()
	if c.Position != "" {
		parsed, err := parseBoard(c.Position)
		if err != nil {
			return err
		}
		b = parsed
	}

	dice, err := parseDice(c.Dice)
	if err != nil {
		return err
	}

	sign := board.White
	if c.Black {
		sign = board.Black
	}

	adapter := gnubg.New(gnubg.NewProcessRunner(c.Binary, nil), log.New(os.Stderr))

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	turn, err := adapter.ChooseTurn(ctx, b, dice, sign)
	if err != nil {
		return err
	}
	if turn == nil {
		fmt.Println("no legal moves")
		return nil
	}

	parts := make([]string, len(turn))
	for i, s := range turn {
		parts[i] = fmt.Sprintf("%d/%d", s.From, s.To)
	}
	fmt.Println(strings.Join(parts, " "))
	return nil
}

func parseBoard(s string) (board.Board, error) {
	var b board.Board
	fields := strings.Split(s, ",")
	if len(fields) != len(b) {
		return b, fmt.Errorf("position needs %d comma-separated counts, got %d", len(b), len(fields))
	}
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return b, fmt.Errorf("position slot %d: %w", i, err)
		}
		b[i] = n
	}
	return b, nil
}

func parseDice(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 2 {
		return nil, fmt.Errorf("dice must be two comma-separated pips, e.g. 6,4")
	}
	dice := make([]int, 2)
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 1 || n > 6 {
			return nil, fmt.Errorf("invalid die %q", f)
		}
		dice[i] = n
	}
	// Doubles play four moves.
	if dice[0] == dice[1] {
		dice = []int{dice[0], dice[0], dice[0], dice[0]}
	}
	return dice, nil
}

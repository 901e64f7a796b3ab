// Package simulator plays complete games in process, both seats driven by
// scripted strategies. It exists to exercise the move generator at scale
// and to measure how a candidate strategy fares against a baseline.
package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/bot"
	"github.com/lox/gammond/internal/randutil"
	"github.com/lox/gammond/internal/statistics"
)

// A runaway game means the move generator is broken; bail out well past
// any plausible legitimate length.
const maxTurnsPerGame = 10000

// Config holds configuration for running simulations.
type Config struct {
	Games    int
	Strategy string // candidate strategy
	Opponent string // baseline strategy
	Seed     int64
	Timeout  time.Duration // per game
	Logger   *log.Logger
}

// Simulator runs backgammon self-play simulations.
type Simulator struct {
	config    Config
	candidate bot.Strategy
	opponent  bot.Strategy
}

// New creates a simulator, resolving both strategies by name.
func New(config Config) (*Simulator, error) {
	candidate, err := bot.New(config.Strategy)
	if err != nil {
		return nil, err
	}
	opponent, err := bot.New(config.Opponent)
	if err != nil {
		return nil, err
	}
	return &Simulator{config: config, candidate: candidate, opponent: opponent}, nil
}

// Run executes the simulation and returns aggregate results. Every seed is
// played twice, once per candidate color, so both games see the same dice
// sequence and dice luck cancels out of the candidate's mean.
func (s *Simulator) Run() (*statistics.Statistics, error) {
	stats := &statistics.Statistics{}

	for game := 0; game < s.config.Games; game++ {
		gameSeed := s.config.Seed + int64(game)

		result, err := s.playGameWithTimeout(gameSeed, board.White)
		if err != nil {
			return nil, fmt.Errorf("game %d (white seat): %w", game+1, err)
		}
		stats.Add(result)

		mirrored, err := s.playGameWithTimeout(gameSeed, board.Black)
		if err != nil {
			return nil, fmt.Errorf("game %d (black seat): %w", game+1, err)
		}
		stats.Add(mirrored)
	}

	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	return stats, nil
}

// playGameWithTimeout runs a single game with stall protection.
func (s *Simulator) playGameWithTimeout(seed int64, candidateSeat int) (statistics.GameResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	resultCh := make(chan statistics.GameResult, 1)
	errorCh := make(chan error, 1)

	go func() {
		result, err := s.playGame(seed, candidateSeat)
		if err != nil {
			errorCh <- err
			return
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result, nil
	case err := <-errorCh:
		return statistics.GameResult{}, err
	case <-ctx.Done():
		return statistics.GameResult{}, fmt.Errorf("game timed out after %v (seed: %d, seat: %d)",
			s.config.Timeout, seed, candidateSeat)
	}
}

// playGame simulates a single game to bear-off. The candidate strategy
// holds candidateSeat; the opponent holds the other color. Dice come from
// their own RNG stream so the mirrored run of the same seed rolls the same
// pips turn for turn, whatever the strategies decide.
func (s *Simulator) playGame(seed int64, candidateSeat int) (statistics.GameResult, error) {
	diceRNG := randutil.New(seed)
	playRNG := randutil.New(seed + 1)

	strategies := map[int]bot.Strategy{
		candidateSeat:  s.candidate,
		-candidateSeat: s.opponent,
	}

	b := board.Initial()
	turns := 0
	hits := 0

	// Opening roll: ties reroll, the higher die starts and plays both pips.
	var mover int
	var dice []int
	for {
		whitePip, blackPip := randutil.RollPair(diceRNG)
		if whitePip == blackPip {
			continue
		}
		if whitePip > blackPip {
			mover = board.White
		} else {
			mover = board.Black
		}
		dice = []int{whitePip, blackPip}
		break
	}

	for {
		if turns >= maxTurnsPerGame {
			return statistics.GameResult{}, fmt.Errorf("no winner after %d turns (seed: %d)", maxTurnsPerGame, seed)
		}

		possible := board.EnumerateTurns(b, dice, mover)
		if len(possible) > 0 {
			turn := strategies[mover].Choose(playRNG, b, mover, possible)
			for _, step := range turn {
				if board.IsPoint(step.To) && b[step.To] == -mover {
					hits++
				}
				b = board.ApplyStep(b, step, mover)
			}
		}
		turns++

		borneWhite := b[board.TrayWhite]
		borneBlack := -b[board.TrayBlack]
		if winner := board.Winner(borneWhite, borneBlack); winner != 0 {
			if err := checkConservation(b); err != nil {
				return statistics.GameResult{}, fmt.Errorf("seed %d: %w", seed, err)
			}

			loserBorne := borneBlack
			if winner == board.Black {
				loserBorne = borneWhite
			}
			gammon := loserBorne == 0

			points := 1.0
			if gammon {
				points = 2.0
			}
			won := winner == candidateSeat
			if !won {
				points = -points
			}

			s.config.Logger.Debug("game finished",
				"seed", seed, "winner", winner, "turns", turns, "gammon", gammon)

			return statistics.GameResult{
				NetPoints: points,
				Seed:      seed,
				Seat:      candidateSeat,
				Won:       won,
				Gammon:    gammon,
				Turns:     turns,
				Hits:      hits,
			}, nil
		}

		mover = -mover
		d1, d2 := randutil.RollPair(diceRNG)
		dice = []int{d1, d2}
		if d1 == d2 {
			dice = append(dice, d1, d2)
		}
	}
}

// checkConservation verifies both sides still own fifteen checkers across
// points, bar and tray. A mismatch can only come from the rule engine.
func checkConservation(b board.Board) error {
	white, black := 0, 0
	for slot := range b {
		switch {
		case b[slot] > 0:
			white += b[slot]
		case b[slot] < 0:
			black -= b[slot]
		}
	}
	if white != 15 || black != 15 {
		return fmt.Errorf("checker conservation broken: white=%d, black=%d", white, black)
	}
	return nil
}

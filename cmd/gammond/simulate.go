package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/gammond/internal/simulator"
	"github.com/lox/gammond/internal/statistics"
)

// SimulateCmd plays scripted strategies against each other through the rule
// engine, no server or engine process involved.
type SimulateCmd struct {
	Games    int           `default:"500" help:"Number of game pairs to play (each seed is played from both seats)"`
	Strategy string        `default:"greedy" enum:"random,first,greedy" help:"Candidate strategy"`
	Opponent string        `default:"random" enum:"random,first,greedy" help:"Baseline opponent strategy"`
	Seed     int64         `default:"0" help:"RNG seed (0 picks one from the clock)"`
	Timeout  time.Duration `default:"30s" help:"Per-game stall guard"`
	Verbose  bool          `help:"Verbose logging"`
}

func (c *SimulateCmd) Run() error {
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}

	level := log.WarnLevel
	if c.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})

	fmt.Printf("Simulating %d game pairs: %s vs %s (seed: %d)\n",
		c.Games, c.Strategy, c.Opponent, c.Seed)

	sim, err := simulator.New(simulator.Config{
		Games:    c.Games,
		Strategy: c.Strategy,
		Opponent: c.Opponent,
		Seed:     c.Seed,
		Timeout:  c.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	stats, err := sim.Run()
	if err != nil {
		return err
	}
	printResults(stats, c.Strategy, c.Opponent, time.Since(start))
	return nil
}

func printResults(stats *statistics.Statistics, strategy, opponent string, duration time.Duration) {
	mean := stats.Mean()
	low, high := stats.ConfidenceInterval95()
	gamesPerSec := float64(stats.Games) / duration.Seconds()

	fmt.Printf("\n=== RESULTS: %s vs %s ===\n", strategy, opponent)
	fmt.Printf("Games played: %d (mirrored pairs)\n", stats.Games)
	fmt.Printf("Total time: %v (%.1f games/sec)\n", duration.Round(time.Millisecond), gamesPerSec)

	fmt.Printf("\nMean: %+.4f points/game\n", mean)
	fmt.Printf("Median: %+.4f points/game\n", stats.Median())
	fmt.Printf("Std Dev: %.4f\n", stats.StdDev())
	fmt.Printf("Std Error: %.4f\n", stats.StdError())
	fmt.Printf("95%% CI: [%+.4f, %+.4f] points/game\n", low, high)
	fmt.Printf("Win rate: %.1f%% (%d of %d, %d gammons)\n",
		stats.WinRate()*100, stats.Wins, stats.Games, stats.Gammons)

	fmt.Printf("\nGame length: mean %.1f half-moves (min %d, max %d)\n",
		stats.MeanTurns(), stats.MinTurns, stats.MaxTurns)
	fmt.Printf("Hits: %.2f per game\n", float64(stats.TotalHits)/float64(stats.Games))
	fmt.Printf("Seat check: white %+.4f, black %+.4f points/game\n",
		stats.SeatMean(1), stats.SeatMean(-1))

	verdict := "no significant edge"
	if low > 0 {
		verdict = fmt.Sprintf("%s beats %s", strategy, opponent)
	} else if high < 0 {
		verdict = fmt.Sprintf("%s loses to %s", strategy, opponent)
	}
	fmt.Printf("\nVerdict: %s\n", verdict)
}

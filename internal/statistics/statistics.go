// Package statistics aggregates self-play game results: net points per game
// with mean, spread and confidence-interval math, plus game-shape counters
// used to sanity-check the move generator at scale.
package statistics

import (
	"fmt"
	"math"
	"sort"
)

// GameResult is the outcome of one self-play game, scored from the
// candidate strategy's perspective.
type GameResult struct {
	NetPoints float64 // +1/+2 for a win, -1/-2 for a loss; 2 when the loser bore off nothing
	Seed      int64   // RNG seed for this game (for replay)
	Seat      int     // color the candidate held: 1 white, -1 black
	Won       bool
	Gammon    bool // loser finished with zero checkers borne off
	Turns     int  // half-moves played, both seats combined
	Hits      int  // blots sent to the bar, both seats combined
}

// SeatStats tracks results for one seat color.
type SeatStats struct {
	Games      int
	SumPoints  float64
	SumPoints2 float64
}

// Statistics tracks aggregate self-play results.
type Statistics struct {
	Games      int
	SumPoints  float64
	SumPoints2 float64   // Sum of squares for variance calculation
	Values     []float64 // Store all values for median/percentile calculation

	Wins    int
	Gammons int

	// Game-shape analytics
	SumTurns  int
	MinTurns  int
	MaxTurns  int
	TotalHits int

	// Seat analytics. The simulator alternates the candidate's color with
	// mirrored dice, so a skewed split here means the mirroring is broken.
	WhiteSeat SeatStats
	BlackSeat SeatStats
}

// Mean returns the arithmetic mean of all results in points per game
func (s *Statistics) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.SumPoints / float64(s.Games)
}

// Variance returns the sample variance of all results
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumPoints2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation of all results
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	se := s.StdError()
	margin := 1.96 * se // 95% confidence
	return mean - margin, mean + margin
}

// Add incorporates a new game result into the statistics
func (s *Statistics) Add(result GameResult) {
	net := result.NetPoints
	s.Games++
	s.SumPoints += net
	s.SumPoints2 += net * net
	s.Values = append(s.Values, net)

	if result.Won {
		s.Wins++
	}
	if result.Gammon {
		s.Gammons++
	}

	s.SumTurns += result.Turns
	if s.Games == 1 || result.Turns < s.MinTurns {
		s.MinTurns = result.Turns
	}
	if result.Turns > s.MaxTurns {
		s.MaxTurns = result.Turns
	}
	s.TotalHits += result.Hits

	seat := &s.WhiteSeat
	if result.Seat < 0 {
		seat = &s.BlackSeat
	}
	seat.Games++
	seat.SumPoints += net
	seat.SumPoints2 += net * net
}

// Median returns the median value of all results
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// WinRate returns the candidate's share of won games
func (s *Statistics) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// MeanTurns returns the average game length in half-moves
func (s *Statistics) MeanTurns() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.SumTurns) / float64(s.Games)
}

// SeatMean returns the mean result for one seat color (1 white, -1 black)
func (s *Statistics) SeatMean(seat int) float64 {
	ss := s.WhiteSeat
	if seat < 0 {
		ss = s.BlackSeat
	}
	if ss.Games == 0 {
		return 0
	}
	return ss.SumPoints / float64(ss.Games)
}

// IsLedgerBalanced checks that the seat buckets account for every point
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(s.SumPoints-s.WhiteSeat.SumPoints-s.BlackSeat.SumPoints) <= 1e-6
}

// Validate performs comprehensive validation of statistics data
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: SumPoints=%.6f, WhiteSeat=%.6f, BlackSeat=%.6f",
			s.SumPoints, s.WhiteSeat.SumPoints, s.BlackSeat.SumPoints)
	}

	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}

	if len(s.Values) != s.Games {
		return fmt.Errorf("values array length (%d) does not match games count (%d)",
			len(s.Values), s.Games)
	}

	if s.Wins > s.Games {
		return fmt.Errorf("wins (%d) exceed total games (%d)", s.Wins, s.Games)
	}

	if s.Gammons > s.Games {
		return fmt.Errorf("gammons (%d) exceed total games (%d)", s.Gammons, s.Games)
	}

	if seatGames := s.WhiteSeat.Games + s.BlackSeat.Games; seatGames != s.Games {
		return fmt.Errorf("seat games total (%d) does not match total games (%d)",
			seatGames, s.Games)
	}

	if s.MinTurns < 1 || s.MinTurns > s.MaxTurns {
		return fmt.Errorf("implausible game lengths: min=%d, max=%d", s.MinTurns, s.MaxTurns)
	}

	return nil
}

package statistics

import (
	"fmt"
	"math"
	"sort"
)

// GameResult is the outcome of one simulated game
type GameResult struct {
	Seed           int64    // RNG seed for this game (for replay)
	Turns          int      // Moves made until the game ended
	Seats          []string // Strategy name per seat, in turn order
	WinnerSeat     int      // Index into Seats, -1 when nobody won
	Stalled        bool     // Ran out of cards or moves before a winner
	CardsRemaining int      // Cards left in losers' hands at the end
}

// WinnerStrategy returns the strategy of the winning seat, or "".
func (r GameResult) WinnerStrategy() string {
	if r.WinnerSeat < 0 || r.WinnerSeat >= len(r.Seats) {
		return ""
	}
	return r.Seats[r.WinnerSeat]
}

// StrategyStats tracks how one strategy fared across games
type StrategyStats struct {
	Seats int // Seats occupied across all games
	Wins  int
}

// WinRate returns wins per seat occupied.
func (s StrategyStats) WinRate() float64 {
	if s.Seats == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Seats)
}

// Statistics aggregates simulation results. Turn statistics only include
// finished games.
type Statistics struct {
	Games    int
	Finished int
	Stalled  int

	SumTurns  float64
	SumTurns2 float64   // Sum of squares for variance calculation
	Values    []float64 // Turn counts of finished games, for median/percentiles
	MaxTurns  int
	SumCards  int // Cards left in losers' hands across finished games
	Strategy  map[string]*StrategyStats
	SeatWins  []int // Wins by seat index, for first-player advantage
	SeatGames []int
}

// Mean returns the mean number of turns in a finished game
func (s *Statistics) Mean() float64 {
	if s.Finished == 0 {
		return 0
	}
	return s.SumTurns / float64(s.Finished)
}

// Variance returns the sample variance of turns per finished game
func (s *Statistics) Variance() float64 {
	if s.Finished < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumTurns2 - float64(s.Finished)*mean*mean) / float64(s.Finished-1)
}

// StdDev returns the sample standard deviation of turns per finished game
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Finished == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Finished))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// WinRateInterval95 returns the normal-approximation 95% interval for a
// strategy's win rate, clamped to [0, 1].
func (s *Statistics) WinRateInterval95(strategy string) (float64, float64) {
	st, ok := s.Strategy[strategy]
	if !ok || st.Seats == 0 {
		return 0, 0
	}
	p := st.WinRate()
	margin := 1.96 * math.Sqrt(p*(1-p)/float64(st.Seats))
	return math.Max(0, p-margin), math.Min(1, p+margin)
}

// Add incorporates a new game result into the statistics
func (s *Statistics) Add(result GameResult) {
	if s.Strategy == nil {
		s.Strategy = make(map[string]*StrategyStats)
	}
	for len(s.SeatGames) < len(result.Seats) {
		s.SeatGames = append(s.SeatGames, 0)
		s.SeatWins = append(s.SeatWins, 0)
	}

	s.Games++
	for i, name := range result.Seats {
		st, ok := s.Strategy[name]
		if !ok {
			st = &StrategyStats{}
			s.Strategy[name] = st
		}
		st.Seats++
		s.SeatGames[i]++
	}

	if result.Stalled || result.WinnerSeat < 0 {
		s.Stalled++
		return
	}

	s.Finished++
	s.Strategy[result.WinnerStrategy()].Wins++
	s.SeatWins[result.WinnerSeat]++

	turns := float64(result.Turns)
	s.SumTurns += turns
	s.SumTurns2 += turns * turns
	s.Values = append(s.Values, turns)
	s.MaxTurns = max(s.MaxTurns, result.Turns)
	s.SumCards += result.CardsRemaining
}

// Median returns the median turns of finished games
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
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

// SeatWinRate returns the share of games won by the given seat.
func (s *Statistics) SeatWinRate(seat int) float64 {
	if seat < 0 || seat >= len(s.SeatGames) || s.SeatGames[seat] == 0 {
		return 0
	}
	return float64(s.SeatWins[seat]) / float64(s.SeatGames[seat])
}

// StrategyNames returns the strategies seen, sorted.
func (s *Statistics) StrategyNames() []string {
	names := make([]string, 0, len(s.Strategy))
	for name := range s.Strategy {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the counters agree with each other
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}
	if s.Finished+s.Stalled != s.Games {
		return fmt.Errorf("finished (%d) + stalled (%d) does not match games (%d)", s.Finished, s.Stalled, s.Games)
	}
	if len(s.Values) != s.Finished {
		return fmt.Errorf("values array length (%d) does not match finished count (%d)", len(s.Values), s.Finished)
	}

	wins := 0
	for name, st := range s.Strategy {
		if st.Wins > st.Seats {
			return fmt.Errorf("strategy %s won %d of %d seats", name, st.Wins, st.Seats)
		}
		wins += st.Wins
	}
	if wins != s.Finished {
		return fmt.Errorf("total wins (%d) does not match finished games (%d)", wins, s.Finished)
	}

	seatWins := 0
	for _, w := range s.SeatWins {
		seatWins += w
	}
	if seatWins != s.Finished {
		return fmt.Errorf("seat wins (%d) does not match finished games (%d)", seatWins, s.Finished)
	}
	return nil
}

package game

import (
	"math"
	"sort"
)

// Reward bounds
const (
	WinnerReward  = 1000
	RewardStep    = 300
	MinimumReward = 100
)

// Standing is one row of the race order.
type Standing struct {
	Position       int
	Vehicle        VehicleID
	Name           string
	Controller     Controller
	Lap            int
	Passed         int
	DistanceToNext float64
	Finished       bool
	FinishTime     float64
	BestLap        float64
	Reward         int
}

// Ranker orders the field. Implementations must return every entry they
// are given; positions are assigned by the caller from the returned order.
type Ranker interface {
	Rank(entries []Standing) []Standing
}

// RankerFunc adapts a plain function to Ranker.
type RankerFunc func(entries []Standing) []Standing

// Rank calls f(entries).
func (f RankerFunc) Rank(entries []Standing) []Standing {
	return f(entries)
}

// DefaultRanker puts finishers first by finish time, then everyone else by
// laps, checkpoints passed this lap and distance to the next checkpoint.
var DefaultRanker Ranker = RankerFunc(rankByProgress)

func rankByProgress(entries []Standing) []Standing {
	out := make([]Standing, len(entries))
	copy(out, entries)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Finished != b.Finished {
			return a.Finished
		}
		if a.Finished && a.FinishTime != b.FinishTime {
			return a.FinishTime < b.FinishTime
		}
		if a.Lap != b.Lap {
			return a.Lap > b.Lap
		}
		if a.Passed != b.Passed {
			return a.Passed > b.Passed
		}
		if a.DistanceToNext != b.DistanceToNext {
			return a.DistanceToNext < b.DistanceToNext
		}
		return a.Vehicle < b.Vehicle
	})
	return out
}

// Reward is the credit payout for a finishing position.
func Reward(position int, multiplier float64) int {
	if position < 1 {
		position = 1
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	base := math.Max(MinimumReward, float64(WinnerReward-(position-1)*RewardStep))
	return int(math.Round(base * multiplier))
}

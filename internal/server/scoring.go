package server

import "math"

const (
	BasePoints     = 1000
	DecayPerSecond = 10
	MinimumPoints  = 100

	currencyDivisor = 10
)

// Score returns the points for one answer. Correct answers lose DecayPerSecond
// per elapsed second but never drop below MinimumPoints.
func Score(correct bool, elapsedSeconds float64) int {
	if !correct {
		return 0
	}
	if elapsedSeconds < 0 || math.IsNaN(elapsedSeconds) {
		elapsedSeconds = 0
	}
	points := math.Max(MinimumPoints, BasePoints-elapsedSeconds*DecayPerSecond)
	return int(math.Floor(points))
}

// CurrencyReward is the wallet credit for the points of one correct answer.
func CurrencyReward(points int) int {
	if points <= 0 {
		return 0
	}
	return points / currencyDivisor
}

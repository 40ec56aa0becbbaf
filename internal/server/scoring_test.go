package server

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		correct bool
		elapsed float64
		want    int
	}{
		{"instant", true, 0, 1000},
		{"five seconds", true, 5, 950},
		{"fractional floors", true, 2.35, 976},
		{"floor reached", true, 90, 100},
		{"far past floor", true, 1000, 100},
		{"negative clamps", true, -4, 1000},
		{"nan clamps", true, math.NaN(), 1000},
		{"wrong", false, 0, 0},
		{"wrong and slow", false, 30, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.correct, tt.elapsed))
		})
	}
}

func TestCurrencyReward(t *testing.T) {
	assert.Equal(t, 400, CurrencyReward(4000))
	assert.Equal(t, 95, CurrencyReward(950))
	assert.Equal(t, 0, CurrencyReward(9))
	assert.Equal(t, 0, CurrencyReward(0))
	assert.Equal(t, 0, CurrencyReward(-50))
}

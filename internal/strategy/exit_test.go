package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
)

func TestStopLossBreached(t *testing.T) {
	tests := []struct {
		name       string
		closePrice float64
		entryPrice float64
		stopLoss   float64
		want       bool
	}{
		{name: "exactly at stop level triggers", closePrice: 97, entryPrice: 100, stopLoss: 0.03, want: true},
		{name: "below stop level triggers", closePrice: 96.5, entryPrice: 100, stopLoss: 0.03, want: true},
		{name: "above stop level holds", closePrice: 97.01, entryPrice: 100, stopLoss: 0.03, want: false},
		{name: "zero entry price never triggers", closePrice: 1, entryPrice: 0, stopLoss: 0.03, want: false},
		{name: "negative entry price never triggers", closePrice: 1, entryPrice: -5, stopLoss: 0.03, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StopLossBreached(tt.closePrice, tt.entryPrice, tt.stopLoss)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateExit(t *testing.T) {
	tests := []struct {
		name       string
		window     func() []dto.Bar
		entryPrice float64
		want       bool
	}{
		{
			name:       "healthy long holds",
			window:     bullishWindow,
			entryPrice: 100,
			want:       false,
		},
		{
			name: "trend reversal exits",
			window: func() []dto.Bar {
				win := bullishWindow()
				win[1].EMAFast = 100.5
				return win
			},
			entryPrice: 100,
			want:       true,
		},
		{
			name: "momentum loss exits",
			window: func() []dto.Bar {
				win := bullishWindow()
				win[1].MACDLine = 0.1
				return win
			},
			entryPrice: 100,
			want:       true,
		},
		{
			name: "high volatility exits",
			window: func() []dto.Bar {
				win := bullishWindow()
				win[0].ATR = 1
				win[1].ATR = 3
				return win
			},
			entryPrice: 100,
			want:       true,
		},
		{
			name: "aroon downtrend exits",
			window: func() []dto.Bar {
				win := bullishWindow()
				win[1].AroonOsc = -10
				return win
			},
			entryPrice: 100,
			want:       true,
		},
		{
			name: "stop loss breach exits",
			window: func() []dto.Bar {
				win := bullishWindow()
				win[1].Close = 97
				return win
			},
			entryPrice: 100,
			want:       true,
		},
		{
			name:       "zero entry price fails closed",
			window:     bullishWindow,
			entryPrice: 0,
			want:       false,
		},
		{
			name: "empty window fails closed",
			window: func() []dto.Bar {
				return nil
			},
			entryPrice: 100,
			want:       false,
		},
		{
			name: "undefined indicator fails closed even when bearish",
			window: func() []dto.Bar {
				win := bullishWindow()
				win[1].EMAFast = 90
				win[1].ATR = math.NaN()
				return win
			},
			entryPrice: 100,
			want:       false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateExit(tt.window(), tt.entryPrice, DefaultParams())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExitReasonsOrdersStopLossFirst(t *testing.T) {
	win := bullishWindow()
	win[0].ATR = 1
	last := &win[1]
	last.Close = 90
	last.EMAFast = 100
	last.MACDLine = 0.1
	last.ATR = 3
	last.AroonOsc = -20

	got := ExitReasons(win, 100, DefaultParams())
	want := []string{ExitStopLoss, ExitTrendReversal, ExitMomentumLoss, ExitHighVolatility, ExitAroonDowntrend}
	assert.Equal(t, want, got)
}

func TestExitReasonsHealthyWindowIsEmpty(t *testing.T) {
	assert.Empty(t, ExitReasons(bullishWindow(), 100, DefaultParams()))
}

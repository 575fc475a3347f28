package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
)

func TestLedgerOpenLong(t *testing.T) {
	l := newLedger(10000, 0.001, 0.99)
	entryTime := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	l.openLong(100, entryTime)

	assert.True(t, l.long())
	assert.InDelta(t, 99.0, l.size, 1e-9)
	assert.InDelta(t, 100.0, l.entryPrice, 1e-9)
	assert.InDelta(t, 9.9, l.entryCommission, 1e-9)
	assert.InDelta(t, 90.1, l.capital, 1e-9)
	assert.Equal(t, entryTime, l.entryTime)
}

func TestLedgerCloseNetsBothCommissions(t *testing.T) {
	entryTime := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	exitTime := entryTime.Add(time.Hour)

	tests := []struct {
		name        string
		exitPrice   float64
		wantNetPnL  float64
		wantCapital float64
		wantPct     float64
	}{
		{
			name:        "profitable exit",
			exitPrice:   105,
			wantNetPnL:  474.705, // 5*99 - 9.9 - 10.395
			wantCapital: 10474.705,
			wantPct:     4.7950,
		},
		{
			name:        "losing exit",
			exitPrice:   95,
			wantNetPnL:  -514.305, // -5*99 - 9.9 - 9.405
			wantCapital: 9485.695,
			wantPct:     -5.1950,
		},
		{
			name:        "flat exit loses only commission",
			exitPrice:   100,
			wantNetPnL:  -19.8,
			wantCapital: 9980.2,
			wantPct:     -0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(10000, 0.001, 0.99)
			l.openLong(100, entryTime)

			trade := l.close(tt.exitPrice, exitTime, dto.ExitReasonSignalSell)

			assert.InDelta(t, tt.wantNetPnL, trade.NetPnL, 1e-9)
			assert.InDelta(t, tt.wantCapital, l.capital, 1e-9)
			assert.InDelta(t, tt.wantPct, trade.PnLPercent, 1e-4)

			assert.Equal(t, entryTime, trade.EntryTime)
			assert.Equal(t, exitTime, trade.ExitTime)
			assert.InDelta(t, 100.0, trade.EntryPrice, 1e-9)
			assert.InDelta(t, tt.exitPrice, trade.ExitPrice, 1e-9)
			assert.InDelta(t, 99.0, trade.Size, 1e-9)
			assert.Equal(t, dto.ExitReasonSignalSell, trade.ExitReason)

			// The trade's cash effect must reconcile exactly.
			assert.InDelta(t, 10000+trade.NetPnL, l.capital, 1e-9)
		})
	}
}

func TestLedgerCloseResetsPositionState(t *testing.T) {
	l := newLedger(10000, 0.001, 0.99)
	l.openLong(100, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	l.close(100, time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC), dto.ExitReasonStopLoss)

	assert.False(t, l.long())
	assert.Zero(t, l.entryPrice)
	assert.Zero(t, l.size)
	assert.Zero(t, l.entryCommission)
	assert.True(t, l.entryTime.IsZero())
}

func TestLedgerMarkToMarket(t *testing.T) {
	l := newLedger(10000, 0.001, 0.99)
	assert.InDelta(t, 10000.0, l.markToMarket(123), 1e-9, "flat ledger values at cash")

	l.openLong(100, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.InDelta(t, 90.1+99*102, l.markToMarket(102), 1e-9)
	assert.InDelta(t, 90.1+99*98, l.markToMarket(98), 1e-9)
}

package engine

import (
	"time"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
)

// ledger tracks cash and the single open position for one run. Commission
// is charged once at entry and once at exit, never twice on either side.
type ledger struct {
	capital        float64
	commissionRate float64
	entryFraction  float64

	inPosition      bool
	entryPrice      float64
	size            float64
	entryTime       time.Time
	entryCommission float64
}

func newLedger(initialCapital, commissionRate, entryFraction float64) ledger {
	return ledger{
		capital:        initialCapital,
		commissionRate: commissionRate,
		entryFraction:  entryFraction,
	}
}

func (l *ledger) long() bool {
	return l.inPosition
}

// markToMarket values the portfolio at the given close: cash plus the open
// position, if any.
func (l *ledger) markToMarket(closePrice float64) float64 {
	if l.inPosition {
		return l.capital + l.size*closePrice
	}
	return l.capital
}

// openLong commits capital*entryFraction at the given price, deducting both
// the position cost and the entry commission from cash. The fraction held
// back keeps the commission payable from the remaining cash.
func (l *ledger) openLong(price float64, ts time.Time) {
	size := (l.capital * l.entryFraction) / price
	l.entryCommission = size * price * l.commissionRate
	l.capital -= size*price + l.entryCommission

	l.inPosition = true
	l.entryPrice = price
	l.size = size
	l.entryTime = ts
}

// close liquidates the open position at the given price and returns the
// completed trade. Net PnL nets out both commissions; the entry commission
// was already paid from cash at entry, so only the exit commission is
// deducted from the proceeds here.
func (l *ledger) close(price float64, ts time.Time, reason string) dto.CompletedTrade {
	exitValue := l.size * price
	exitCommission := exitValue * l.commissionRate
	netPnL := (price-l.entryPrice)*l.size - l.entryCommission - exitCommission

	l.capital += exitValue - exitCommission

	trade := dto.CompletedTrade{
		EntryTime:  l.entryTime,
		ExitTime:   ts,
		EntryPrice: l.entryPrice,
		ExitPrice:  price,
		Size:       l.size,
		NetPnL:     netPnL,
		PnLPercent: netPnL / (l.size * l.entryPrice) * 100,
		Commission: l.entryCommission + exitCommission,
		ExitReason: reason,
	}

	l.inPosition = false
	l.entryPrice = 0
	l.size = 0
	l.entryTime = time.Time{}
	l.entryCommission = 0

	return trade
}

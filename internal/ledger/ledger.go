// Package ledger keeps the per-tick working set of open and closed
// positions. The orchestrator builds a Ledger from a store snapshot at
// the start of a tick, mutates it sequentially, and hands the result
// back to the store when the tick settles.
package ledger

import (
	"fmt"
	"time"

	"papertrade/internal/domain"
)

// Ledger holds open positions indexed by symbol plus the closed-trade
// history, newest first. It is not safe for concurrent use; the
// orchestrator owns it exclusively for the duration of one tick.
type Ledger struct {
	open         []domain.OpenTrade
	openBySymbol map[string]int
	closed       []domain.ClosedTrade
}

// New builds a ledger from a store snapshot.
func New(open []domain.OpenTrade, closed []domain.ClosedTrade) *Ledger {
	l := &Ledger{
		open:         make([]domain.OpenTrade, 0, len(open)),
		openBySymbol: make(map[string]int, len(open)),
		closed:       append([]domain.ClosedTrade(nil), closed...),
	}
	for _, t := range open {
		l.open = append(l.open, t)
		l.openBySymbol[t.Symbol] = len(l.open) - 1
	}
	return l
}

// Open admits a new long position. It enforces the one-open-trade-per-
// symbol invariant and returns domain.ErrDuplicateSymbol on violation.
func (l *Ledger) Open(symbol string, qty, price, notional float64, now time.Time) (domain.OpenTrade, error) {
	if _, exists := l.openBySymbol[symbol]; exists {
		return domain.OpenTrade{}, fmt.Errorf("%w: %s", domain.ErrDuplicateSymbol, symbol)
	}

	trade := domain.NewOpenTrade(symbol, qty, price, notional, now)
	l.open = append(l.open, trade)
	l.openBySymbol[symbol] = len(l.open) - 1
	return trade, nil
}

// Admit inserts an externally constructed open trade, used by the
// manual trade endpoint. The same uniqueness invariant applies.
func (l *Ledger) Admit(trade domain.OpenTrade) error {
	if _, exists := l.openBySymbol[trade.Symbol]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSymbol, trade.Symbol)
	}
	l.open = append(l.open, trade)
	l.openBySymbol[trade.Symbol] = len(l.open) - 1
	return nil
}

// Close settles the open position for symbol at exitPrice. Removing the
// open trade and prepending the closed one is a single step: a reader
// of the resulting ledger never sees the symbol in both states or in
// neither. Returns domain.ErrNoOpenTrade when the symbol has no open
// position.
func (l *Ledger) Close(symbol string, exitPrice float64, now time.Time) (domain.ClosedTrade, error) {
	idx, exists := l.openBySymbol[symbol]
	if !exists {
		return domain.ClosedTrade{}, fmt.Errorf("%w: %s", domain.ErrNoOpenTrade, symbol)
	}

	closed := domain.Settle(l.open[idx], exitPrice, now)

	l.open = append(l.open[:idx], l.open[idx+1:]...)
	delete(l.openBySymbol, symbol)
	for sym, i := range l.openBySymbol {
		if i > idx {
			l.openBySymbol[sym] = i - 1
		}
	}

	// Newest first, matching the closed-trades API ordering.
	l.closed = append([]domain.ClosedTrade{closed}, l.closed...)
	return closed, nil
}

// HasOpen reports whether symbol currently has an open position.
func (l *Ledger) HasOpen(symbol string) bool {
	_, ok := l.openBySymbol[symbol]
	return ok
}

// OpenTrade returns the open position for symbol, if any.
func (l *Ledger) OpenTrade(symbol string) (domain.OpenTrade, bool) {
	idx, ok := l.openBySymbol[symbol]
	if !ok {
		return domain.OpenTrade{}, false
	}
	return l.open[idx], true
}

// OpenCount returns the number of open positions.
func (l *Ledger) OpenCount() int {
	return len(l.open)
}

// CurrentExposure sums notional over all open positions. It is
// recomputed on every call; nothing is cached across mutations.
func (l *Ledger) CurrentExposure() float64 {
	total := 0.0
	for _, t := range l.open {
		total += t.NotionalUSDC
	}
	return total
}

// Open trades and closed history, copied out for persistence.

// OpenTrades returns a copy of the open positions.
func (l *Ledger) OpenTrades() []domain.OpenTrade {
	return append([]domain.OpenTrade(nil), l.open...)
}

// ClosedTrades returns a copy of the closed history, newest first.
func (l *Ledger) ClosedTrades() []domain.ClosedTrade {
	return append([]domain.ClosedTrade(nil), l.closed...)
}

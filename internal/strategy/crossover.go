// Package strategy holds the signal math. Everything here is pure: a
// price series goes in, a signal comes out, nothing else moves.
package strategy

import "papertrade/internal/domain"

// SMA window lengths for the crossover pair.
const (
	FastPeriod = 20
	SlowPeriod = 60
)

// MinHistory is the observation count required before the crossover can
// fire: the slow window plus one bar for the previous-bar comparison.
const MinHistory = SlowPeriod + 1

// Crossover evaluates an SMA(20/60) crossover on a closing-price series
// ordered oldest to newest. It compares the fast/slow means on the last
// bar against the same windows shifted back one bar:
//
//	BUY  when the fast mean crosses above the slow mean
//	SELL when the fast mean crosses below the slow mean
//
// The previous-bar comparison uses <= and >=, so a cross fires even
// when the prior pair was exactly equal. Fewer than MinHistory
// observations is insufficient history, not an error, and yields NONE.
func Crossover(prices []float64) domain.Signal {
	n := len(prices)
	if n < MinHistory {
		return domain.SignalNone
	}

	fast := mean(prices[n-FastPeriod:])
	slow := mean(prices[n-SlowPeriod:])
	fastPrev := mean(prices[n-FastPeriod-1 : n-1])
	slowPrev := mean(prices[n-SlowPeriod-1 : n-1])

	if fastPrev <= slowPrev && fast > slow {
		return domain.SignalBuy
	}
	if fastPrev >= slowPrev && fast < slow {
		return domain.SignalSell
	}
	return domain.SignalNone
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

package domain

// Signal is the outcome of a strategy evaluation for one symbol.
type Signal string

// Signal constants
const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalNone Signal = "NONE"
)

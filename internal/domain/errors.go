package domain

import "errors"

// Sentinel errors surfaced by the ledger and the stores.
var (
	// ErrNoSettings means the settings store holds no configuration yet.
	// A tick treats this as a documented no-op, not a failure.
	ErrNoSettings = errors.New("settings not found")

	// ErrDuplicateSymbol is returned when opening a position for a
	// symbol that already has one.
	ErrDuplicateSymbol = errors.New("open trade already exists for symbol")

	// ErrNoOpenTrade is returned when closing a symbol with no open
	// position.
	ErrNoOpenTrade = errors.New("no open trade for symbol")

	// ErrInvalidSide is returned when admitting a trade with any side
	// other than BUY. The ledger is long-only; settlement math assumes
	// it.
	ErrInvalidSide = errors.New("only BUY side is supported")
)

package model

import "errors"

// Per-ticker failures. The screener skips the ticker and keeps going.
var (
	ErrProviderUnavailable = errors.New("price provider unavailable")
	ErrData                = errors.New("invalid price data")
)

// Run-level failures. Nothing is dispatched when one of these occurs.
var (
	ErrConfig              = errors.New("invalid configuration")
	ErrUniverseUnavailable = errors.New("ticker universe unavailable")
)

package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers of a dashboard lookup.
var (
	// ErrUpstreamUnavailable means the price fetch failed or timed out.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInvalidSymbol means the symbol is malformed or the vendor has no data for it.
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrSourceNotConfigured means the selected vendor has no API key.
	ErrSourceNotConfigured = errors.New("source not configured")
)

// UserGuidance is appended to every user-facing failure message.
const UserGuidance = "ensure the symbol is valid and try again"

// SymbolError ties an error kind to the symbol that produced it.
type SymbolError struct {
	Symbol string
	Kind   error
	Err    error
}

// NewSymbolError wraps cause with a kind.
func NewSymbolError(symbol string, kind, cause error) *SymbolError {
	return &SymbolError{Symbol: symbol, Kind: kind, Err: cause}
}

func (e *SymbolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Symbol, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Symbol, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *SymbolError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UserMessage renders a short, non-technical message for err. Internal
// details are never included.
func UserMessage(err error) string {
	symbol := ""
	var se *SymbolError
	if errors.As(err, &se) {
		symbol = se.Symbol
	}

	var msg string
	switch {
	case errors.Is(err, ErrInvalidSymbol):
		msg = "No market data found"
	case errors.Is(err, ErrUpstreamUnavailable):
		msg = "Market data is temporarily unavailable"
	case errors.Is(err, ErrSourceNotConfigured):
		return "API configuration error"
	default:
		msg = "Failed to load market data"
	}
	if symbol != "" {
		msg += " for " + symbol
	}
	return msg
}

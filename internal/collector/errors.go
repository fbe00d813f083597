package collector

import (
	"errors"
	"fmt"
)

var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrRateLimited         = errors.New("rate limited")

	errEmptyResult = errors.New("empty result")
)

// ProviderError records which provider call failed. Err wraps one of the
// sentinel errors above so callers can test it with errors.Is.
type ProviderError struct {
	Provider string
	Op       string
	Symbol   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Provider, e.Op, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// providerErr wraps kind (a sentinel) and an optional cause.
func providerErr(provider, op, symbol string, kind, cause error) error {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %v", kind, cause)
	}
	return &ProviderError{Provider: provider, Op: op, Symbol: symbol, Err: err}
}

// Outcome classifies an attempt for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrSymbolNotFound):
		return "not_found"
	case errors.Is(err, errEmptyResult):
		return "empty"
	default:
		return "unavailable"
	}
}

package model

import "fmt"

// FetchErrorKind classifies why a data provider call failed.
type FetchErrorKind string

const (
	FetchUnreachable   FetchErrorKind = "UNREACHABLE"
	FetchUnknownSymbol FetchErrorKind = "UNKNOWN_SYMBOL"
	FetchMalformed     FetchErrorKind = "MALFORMED"
	FetchTimeout       FetchErrorKind = "TIMEOUT"
)

// FetchError is returned by providers and the collector for every failed fetch.
type FetchError struct {
	Kind   FetchErrorKind
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.Symbol, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Symbol, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError builds a FetchError with a formatted cause.
func NewFetchError(kind FetchErrorKind, symbol, format string, args ...any) *FetchError {
	return &FetchError{Kind: kind, Symbol: symbol, Err: fmt.Errorf(format, args...)}
}

// InvalidSelectionError reports an unrecognised chart or symbol key.
type InvalidSelectionError struct {
	Field string
	Value string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid %s selection: %q", e.Field, e.Value)
}

package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrProvider matches every failure reported by a weather provider.
	ErrProvider = errors.New("weather provider failure")
	// ErrLocationUnavailable is returned when the device position cannot be determined.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrNoActiveLocation is returned by operations that need a selected location.
	ErrNoActiveLocation = errors.New("no location selected")
	// ErrDayOutOfRange is returned when toggling a day group that does not exist.
	ErrDayOutOfRange = errors.New("day index out of range")
)

// ProviderErrorCode classifies provider failures.
type ProviderErrorCode string

const (
	CodeNetwork     ProviderErrorCode = "network"
	CodeAuth        ProviderErrorCode = "auth"
	CodeRateLimited ProviderErrorCode = "rate_limited"
	CodeUpstream    ProviderErrorCode = "upstream"
	CodeDecode      ProviderErrorCode = "decode"
	CodeCircuitOpen ProviderErrorCode = "circuit_open"
	CodeConfig      ProviderErrorCode = "config"
)

// ProviderError describes why a provider could not return a snapshot.
type ProviderError struct {
	Provider string
	Code     ProviderErrorCode
	Err      error
}

// NewProviderError wraps err with the provider name and failure code.
func NewProviderError(provider string, code ProviderErrorCode, err error) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Err: err}
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Code)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrProvider) match any ProviderError.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// IsCode reports whether err carries a ProviderError with the given code.
func IsCode(err error, code ProviderErrorCode) bool {
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}

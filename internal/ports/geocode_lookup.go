package ports

import (
	"context"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// Classification of a lookup that reached the provider and got an answer.
// Transport and parse failures are reported as errors instead.
type LookupStatus int

const (
	StatusMatch LookupStatus = iota
	StatusNoMatch
	StatusInvalidCredential
	StatusQuotaExhausted
	StatusRateLimited
)

func (s LookupStatus) String() string {
	switch s {
	case StatusMatch:
		return "match"
	case StatusNoMatch:
		return "no_match"
	case StatusInvalidCredential:
		return "invalid_credential"
	case StatusQuotaExhausted:
		return "quota_exhausted"
	case StatusRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Terminal reports whether retrying the same request is useless.
func (s LookupStatus) Terminal() bool {
	switch s {
	case StatusNoMatch, StatusInvalidCredential, StatusQuotaExhausted:
		return true
	}
	return false
}

type LookupRequest struct {
	Address    string
	Credential string
	// Region is an optional provider-specific hint (city list, country code).
	Region string
}

type LookupResult struct {
	Status           LookupStatus
	Location         domain.Coordinates
	Level            string
	FormattedAddress string
	// Info carries the provider's own code or message for logging.
	Info string
}

// Port: a single attempt against an external address lookup service.
// Retries, caching and fallbacks are the caller's concern.
type GeocodeLookup interface {
	Lookup(ctx context.Context, req LookupRequest) (LookupResult, error)
}

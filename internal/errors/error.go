package errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrNotConfigured     = errors.New("integration is not configured")

	// registrar errors
	ErrDomainNotAvailable = errors.New("domain is not available")
	ErrInvalidDomainName  = errors.New("registrar rejected the domain name")
	ErrInsufficientFunds  = errors.New("insufficient funds on registrar account")

	// purchase errors
	ErrPurchaseCanceled  = errors.New("purchase session canceled")
	ErrNoCandidate       = errors.New("name oracle returned no candidate")
	ErrNoDomainPurchased = errors.New("no domain purchased")

	// domain errors
	ErrDomainNotFound = errors.New("domain not found")
)

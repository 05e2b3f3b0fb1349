package namecheap

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/siteforge/domainops/config"
	er "github.com/siteforge/domainops/internal/errors"
)

func TestCheckAvailability_MissingConfiguration(t *testing.T) {
	service := NewNamecheapService(&config.NamecheapConfig{})

	availability, err := service.CheckAvailability(context.Background(), "niceshop.online")

	assert.Nil(t, availability)
	assert.True(t, errors.Is(err, er.ErrNotConfigured))
}

func TestClassifyPurchaseError_InsufficientFunds(t *testing.T) {
	err := classifyPurchaseError("Error 2528166: Insufficient funds in account")

	assert.True(t, errors.Is(err, er.ErrInsufficientFunds))
	assert.Contains(t, err.Error(), "Insufficient funds in account")
}

func TestClassifyPurchaseError_InvalidDomain(t *testing.T) {
	err := classifyPurchaseError("Domain name is invalid: contains illegal characters")

	assert.True(t, errors.Is(err, er.ErrInvalidDomainName))
	assert.False(t, errors.Is(err, er.ErrInsufficientFunds))
}

func TestClassifyPurchaseError_InsufficientFundsWinsOverInvalid(t *testing.T) {
	// some provider messages carry both phrases; funds exhaustion must win
	// so the batch aborts instead of retrying
	err := classifyPurchaseError("Invalid request: insufficient funds")

	assert.True(t, errors.Is(err, er.ErrInsufficientFunds))
}

func TestClassifyPurchaseError_Unrecognized(t *testing.T) {
	err := classifyPurchaseError("Domain is locked by registry")

	assert.False(t, errors.Is(err, er.ErrInsufficientFunds))
	assert.False(t, errors.Is(err, er.ErrInvalidDomainName))
	assert.Contains(t, err.Error(), "Domain is locked by registry")
}

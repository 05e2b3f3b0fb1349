package interfaces

import (
	"context"

	"github.com/siteforge/domainops/internal/enum"
	"github.com/siteforge/domainops/internal/models"
)

type PurchaseService interface {
	// Run drives one purchase session to completion. It always returns a
	// result; external failures are absorbed into retries or reported in
	// the result, never raised.
	Run(ctx context.Context, request PurchaseRequest) *PurchaseResult
	// Cancel flags the session for cooperative cancellation. Returns false
	// when the session is unknown (already finished or swept).
	Cancel(ctx context.Context, sessionID string) bool
	GetProgress(ctx context.Context, sessionID string) (*models.PurchaseProgress, error)
}

type PurchaseRequest struct {
	Quantity      int           `json:"quantity"`
	Language      string        `json:"language"`
	Niche         string        `json:"niche"`
	SessionID     string        `json:"sessionId"`
	ManualDomain  string        `json:"manualDomain"`
	UserID        string        `json:"userId"`
	TrafficSource string        `json:"trafficSource"`
	Platform      enum.Platform `json:"platform"`
	// Unlimited bypasses the configured price ceiling.
	Unlimited bool `json:"unlimited"`
}

type PurchaseResult struct {
	Success           bool     `json:"success"`
	DomainsRegistered []string `json:"domainsRegistered"`
	TotalRequested    int      `json:"totalRequested"`
	TotalRegistered   int      `json:"totalRegistered"`
	Cancelled         bool     `json:"cancelled"`
	Error             string   `json:"error,omitempty"`
}

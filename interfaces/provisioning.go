package interfaces

import (
	"context"

	"github.com/siteforge/domainops/internal/enum"
)

// ProvisioningService runs the post-purchase setup for an already-owned
// domain. Every step is best-effort: failures are logged, reflected in the
// outcome and notified, but never revert the purchase.
type ProvisioningService interface {
	Setup(ctx context.Context, request ProvisioningRequest) *ProvisioningOutcome
}

type ProvisioningRequest struct {
	Domain        string
	SessionID     string
	UserID        string
	TrafficSource string
	Platform      enum.Platform
}

type ProvisioningOutcome struct {
	Domain        string   `json:"domain"`
	ZoneID        string   `json:"zoneId,omitempty"`
	Nameservers   []string `json:"nameservers,omitempty"`
	DNSConfigured bool     `json:"dnsConfigured"`
	AccountUser   string   `json:"accountUser,omitempty"`
	CMSInstalled  bool     `json:"cmsInstalled"`
	Errors        []string `json:"errors,omitempty"`
}

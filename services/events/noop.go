package events

import (
	"context"

	"github.com/siteforge/domainops/interfaces"
	"github.com/siteforge/domainops/internal/logger"
)

// noopPublisher stands in when no broker URL is configured: outcomes are
// logged locally and dropped.
type noopPublisher struct {
	logger logger.Logger
}

func NewNoopPublisher(logger logger.Logger) interfaces.NotificationPublisher {
	return &noopPublisher{logger: logger}
}

func (p *noopPublisher) NotifyDomainOutcome(ctx context.Context, domain string, success bool, reason string) {
	p.logger.Infof("notification skipped (no broker configured): domain=%s success=%t reason=%s", domain, success, reason)
}

func (p *noopPublisher) Close() error {
	return nil
}

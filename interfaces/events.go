package interfaces

import "context"

// NotificationPublisher is the outbound messaging contract. Publishing is
// fire-and-forget: implementations log failures and never propagate them.
type NotificationPublisher interface {
	NotifyDomainOutcome(ctx context.Context, domain string, success bool, reason string)
	Close() error
}

package interfaces

import "context"

type DNSService interface {
	// Configured reports whether provider credentials are present; callers
	// skip DNS steps when false.
	Configured() bool
	CreateZone(ctx context.Context, domain string) (*DNSZone, error)
	CreateARecord(ctx context.Context, zoneID, name, content string, proxied bool) error
	FindZoneByName(ctx context.Context, domain string) (*DNSZone, error)
	DeleteZone(ctx context.Context, zoneID string) error
}

type DNSZone struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Nameservers []string `json:"name_servers"`
}

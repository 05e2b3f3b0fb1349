package interfaces

import "context"

// RegistrarService is the registrar-side contract: availability lookup,
// purchase, info lookup and nameserver assignment. The concrete adapter
// translates the provider's semi-structured responses into typed results;
// the rest of the system never inspects provider error text.
type RegistrarService interface {
	// CheckAvailability returns the availability answer together with the
	// normalized registration price in decimal USD. Definitive is false when
	// the provider could not give an authoritative answer (premium names,
	// pricing lookup failures).
	CheckAvailability(ctx context.Context, domain string) (*DomainAvailability, error)
	// Purchase registers the domain for one year with the configured
	// registrant/admin/tech/billing contact set. Terminal conditions are
	// surfaced as errors.ErrInvalidDomainName / errors.ErrInsufficientFunds.
	Purchase(ctx context.Context, domain string) (*DomainPurchase, error)
	// GetDomainInfo is best-effort: (nil, nil) when the provider cannot
	// answer.
	GetDomainInfo(ctx context.Context, domain string) (*RegistrarDomainInfo, error)
	// UpdateNameservers replaces the domain's nameserver set (2..12 entries).
	UpdateNameservers(ctx context.Context, domain string, nameservers []string) error
}

type DomainAvailability struct {
	Domain     string  `json:"domain"`
	Available  bool    `json:"available"`
	Price      float64 `json:"price"`
	Definitive bool    `json:"definitive"`
}

type DomainPurchase struct {
	Domain        string `json:"domain"`
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
	ChargedAmount string `json:"chargedAmount"`
}

type RegistrarDomainInfo struct {
	DomainName  string   `json:"domainName"`
	CreatedDate string   `json:"createdDate"`
	ExpiredDate string   `json:"expiredDate"`
	Status      string   `json:"status"`
	Nameservers []string `json:"nameservers"`
	WhoisGuard  bool     `json:"whoisGuard"`
	AutoRenew   bool     `json:"autoRenew"`
}

package interfaces

import "context"

// HostingService is the control-panel contract: account lifecycle on the
// WHM side and CMS installations through the panel's application installer.
type HostingService interface {
	// Configured reports whether panel credentials are present.
	Configured() bool
	FindAccountByDomain(ctx context.Context, domain string) (*HostingAccount, error)
	CreateAccount(ctx context.Context, domain string) (*HostingAccount, error)
	TerminateAccount(ctx context.Context, username string) error
	FindInstallationByDomain(ctx context.Context, domain string) (*CMSInstallation, error)
	InstallWordPress(ctx context.Context, domain string) (*CMSInstallation, error)
	RemoveInstallation(ctx context.Context, installationID string) error
}

type HostingAccount struct {
	Username  string `json:"user"`
	Domain    string `json:"domain"`
	IP        string `json:"ip"`
	Suspended bool   `json:"suspended"`
}

type CMSInstallation struct {
	ID      string `json:"insid"`
	Domain  string `json:"softdomain"`
	Path    string `json:"softpath"`
	URL     string `json:"softurl"`
	Version string `json:"ver"`
}

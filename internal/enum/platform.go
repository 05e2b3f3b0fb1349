package enum

// Platform selects the provisioning variant applied after a purchase.
type Platform string

const (
	// PlatformManagedWordPress registers the domain and provisions
	// Cloudflare DNS, a cPanel account and a WordPress installation.
	PlatformManagedWordPress Platform = "wordpress"
	// PlatformRegistrationOnly stops after registration.
	PlatformRegistrationOnly Platform = "registration_only"
)

func (p Platform) String() string {
	return string(p)
}

func DecodePlatform(s string) Platform {
	switch s {
	case string(PlatformManagedWordPress):
		return PlatformManagedWordPress
	case string(PlatformRegistrationOnly):
		return PlatformRegistrationOnly
	default:
		return PlatformRegistrationOnly
	}
}

package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var domainLabelRegex = regexp.MustCompile(`^[a-z0-9]+$`)

// ValidateCandidateDomain checks a candidate name offline before any network
// call: a single alphanumeric label followed by the required TLD suffix.
// Case-insensitive; the returned name is lowercased.
func ValidateCandidateDomain(name, tld string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	suffix := "." + strings.TrimPrefix(strings.ToLower(tld), ".")

	if name == "" {
		return "", fmt.Errorf("domain name is empty")
	}
	if !strings.HasSuffix(name, suffix) {
		return "", fmt.Errorf("domain %s does not end with %s", name, suffix)
	}
	label := strings.TrimSuffix(name, suffix)
	if !domainLabelRegex.MatchString(label) {
		return "", fmt.Errorf("domain label %q contains invalid characters", label)
	}
	return name, nil
}

// DomainLabel returns the leftmost label, e.g. "niceshop" for "niceshop.online".
func DomainLabel(domain string) string {
	return strings.Split(domain, ".")[0]
}

// DomainTLD returns everything after the first dot.
func DomainTLD(domain string) string {
	parts := strings.SplitN(domain, ".", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

package interfaces

import "context"

type AIService interface {
	// GenerateDomainName asks the oracle for one candidate matching the
	// constraints. Returns the raw candidate; syntax validation happens at
	// the caller.
	GenerateDomainName(ctx context.Context, request DomainNameRequest) (string, error)
	// Translate localizes a short text, best-effort. Callers fall back to
	// the original text on error.
	Translate(ctx context.Context, text, language string) (string, error)
}

type DomainNameRequest struct {
	Niche     string `json:"niche"`
	Language  string `json:"language"`
	WordCount int    `json:"wordCount"`
	TLD       string `json:"tld"`
	// Diversify hints the oracle to avoid names similar to earlier,
	// rejected attempts.
	Diversify bool `json:"diversify"`
}

package interfaces

import (
	"context"
	"time"
)

// Teardown step names, keyed into TeardownResult.Steps.
const (
	TeardownStepCMS            = "cms"
	TeardownStepHostingAccount = "hostingAccount"
	TeardownStepDNSZone        = "dnsZone"
	TeardownStepRecord         = "persistedRecord"
)

type TeardownService interface {
	// Detect probes the three integrations independently. A failing probe
	// counts as "not found" and never fails the call.
	Detect(ctx context.Context, domainName string) *IntegrationSnapshot
	// Deactivate removes every detected integration, each step independent
	// of the others' outcomes, then always marks the domain deactivated in
	// the store. OverallSuccess reflects only the persisted-record step.
	Deactivate(ctx context.Context, domainID uint64, domainName string) *TeardownResult
}

type IntegrationState struct {
	Exists     bool              `json:"exists"`
	ExternalID string            `json:"externalId,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// IntegrationSnapshot holds three independently sourced sub-records; absence
// of one implies nothing about the others.
type IntegrationSnapshot struct {
	CMS            IntegrationState `json:"cms"`
	HostingAccount IntegrationState `json:"hostingAccount"`
	DNSZone        IntegrationState `json:"dnsZone"`
}

type TeardownStep struct {
	Executed bool   `json:"executed"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

type TeardownResult struct {
	DomainID       uint64                  `json:"domainId"`
	DomainName     string                  `json:"domainName"`
	Steps          map[string]TeardownStep `json:"steps"`
	OverallSuccess bool                    `json:"overallSuccess"`
	CompletedAt    time.Time               `json:"completedAt"`
}

package dto

import "github.com/siteforge/domainops/internal/enum"

type Event struct {
	Event    EventDetails  `json:"event"`
	Metadata EventMetadata `json:"metadata"`
}

type EventDetails struct {
	Id         string          `json:"id"`
	EntityId   string          `json:"entityId"`
	EntityType enum.EntityType `json:"entityType"`
	EventType  string          `json:"eventType"`
	Data       interface{}     `json:"data"`
}

type EventMetadata struct {
	UberTraceId string `json:"uber-trace-id"`
	AppSource   string `json:"appSource"`
	UserId      string `json:"userId"`
	UserEmail   string `json:"userEmail"`
	Timestamp   string `json:"timestamp"`
}

// DomainOutcome announces the terminal state of a domain operation to
// downstream consumers (billing, user-facing notifications).
type DomainOutcome struct {
	Domain  string `json:"domain"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

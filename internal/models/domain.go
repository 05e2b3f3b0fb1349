package models

import (
	"time"
)

const (
	DomainStatusActive      = "active"
	DomainStatusDeactivated = "deactivated"
)

type Domain struct {
	ID                  uint64     `gorm:"primary_key;autoIncrement" json:"id"`
	Domain              string     `gorm:"column:domain;type:varchar(255);NOT NULL;uniqueIndex" json:"domain"`
	UserID              string     `gorm:"column:user_id;type:varchar(255)" json:"userId"`
	Registrar           string     `gorm:"column:registrar;type:varchar(64)" json:"registrar"`
	Platform            string     `gorm:"column:platform;type:varchar(64)" json:"platform"`
	TrafficSource       string     `gorm:"column:traffic_source;type:varchar(64)" json:"trafficSource"`
	Status              string     `gorm:"column:status;type:varchar(32);NOT NULL;DEFAULT:'active'" json:"status"`
	DNSConfigured       bool       `gorm:"column:dns_configured;type:boolean;NOT NULL;DEFAULT:false" json:"dnsConfigured"`
	Nameservers         StringList `gorm:"column:nameservers;type:text" json:"nameservers"`
	RegisteredAt        *time.Time `gorm:"column:registered_at;type:timestamp" json:"registeredAt"`
	ExpiresAt           *time.Time `gorm:"column:expires_at;type:timestamp" json:"expiresAt"`
	ManuallyDeactivated bool       `gorm:"column:manually_deactivated;type:boolean;NOT NULL;DEFAULT:false" json:"manuallyDeactivated"`
	CreatedAt           time.Time  `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;type:timestamp;DEFAULT:current_timestamp" json:"updatedAt"`
}

func (Domain) TableName() string {
	return "domains"
}

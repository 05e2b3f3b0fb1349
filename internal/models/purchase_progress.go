package models

import (
	"time"
)

// PurchaseProgress is the durable progress record for one purchase session.
// One row per session id, upserted on every workflow transition; it is the
// single source of truth read by status-polling callers.
type PurchaseProgress struct {
	ID         uint64    `gorm:"primary_key;autoIncrement" json:"id"`
	SessionID  string    `gorm:"column:session_id;type:varchar(255);NOT NULL;uniqueIndex" json:"sessionId"`
	UserID     string    `gorm:"column:user_id;type:varchar(255)" json:"userId"`
	Step       string    `gorm:"column:step;type:varchar(32);NOT NULL" json:"step"`
	Status     string    `gorm:"column:status;type:varchar(32);NOT NULL" json:"status"`
	Message    string    `gorm:"column:message;type:text" json:"message"`
	DomainName *string   `gorm:"column:domain_name;type:varchar(255)" json:"domainName"`
	Platform   string    `gorm:"column:platform;type:varchar(64)" json:"platform"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamp;DEFAULT:current_timestamp" json:"updatedAt"`
}

func (PurchaseProgress) TableName() string {
	return "purchase_progress"
}

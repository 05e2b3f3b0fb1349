package models

import (
	"time"
)

// ActivityLog keeps an audit trail of domain lifecycle events.
type ActivityLog struct {
	ID        uint64    `gorm:"primary_key;autoIncrement" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(255)" json:"userId"`
	Domain    string    `gorm:"column:domain;type:varchar(255);index" json:"domain"`
	Action    string    `gorm:"column:action;type:varchar(64);NOT NULL" json:"action"`
	Details   JSONMap   `gorm:"column:details;type:text" json:"details"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

package repository

import (
	"gorm.io/gorm"

	"github.com/siteforge/domainops/internal/models"
)

type Repositories struct {
	DomainRepository      DomainRepository
	ProgressRepository    ProgressRepository
	ActivityLogRepository ActivityLogRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DomainRepository:      NewDomainRepository(db),
		ProgressRepository:    NewProgressRepository(db),
		ActivityLogRepository: NewActivityLogRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Domain{},
		&models.PurchaseProgress{},
		&models.ActivityLog{},
	)
}

package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/siteforge/domainops/internal/models"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/internal/utils"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
}

type activityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{
		db: db,
	}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "ActivityLogRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	entry.CreatedAt = utils.Now()

	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/siteforge/domainops/internal/enum"
	"github.com/siteforge/domainops/internal/models"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/internal/utils"
)

type ProgressUpdate struct {
	SessionID  string
	UserID     string
	Step       enum.PurchaseStep
	Status     enum.PurchaseStatus
	Message    string
	DomainName *string
	Platform   enum.Platform
}

type ProgressRepository interface {
	// UpsertProgress writes the session's current step/status keyed by
	// session id. Once a terminal step is stored the row is sticky:
	// further writes are ignored.
	UpsertProgress(ctx context.Context, update ProgressUpdate) error
	GetProgress(ctx context.Context, sessionID string) (*models.PurchaseProgress, error)
}

type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{
		db: db,
	}
}

func (r *progressRepository) UpsertProgress(ctx context.Context, update ProgressUpdate) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "ProgressRepository.UpsertProgress")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagSession(span, update.SessionID)
	span.LogKV("step", update.Step.String(), "status", update.Status.String())

	var existing models.PurchaseProgress
	err := r.db.WithContext(ctx).
		Where("session_id = ?", update.SessionID).
		First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}

	if err == nil {
		if enum.PurchaseStep(existing.Step).IsTerminal() {
			span.LogFields(tracingLog.Bool("result.skipped", true))
			return nil
		}
		updates := map[string]interface{}{
			"step":       update.Step.String(),
			"status":     update.Status.String(),
			"message":    update.Message,
			"updated_at": utils.Now(),
		}
		if update.DomainName != nil {
			updates["domain_name"] = *update.DomainName
		}
		err = r.db.WithContext(ctx).
			Model(&models.PurchaseProgress{}).
			Where("session_id = ?", update.SessionID).
			Updates(updates).
			Error
		if err != nil {
			tracing.TraceErr(span, errors.Wrap(err, "db error"))
			return err
		}
		return nil
	}

	record := models.PurchaseProgress{
		SessionID:  update.SessionID,
		UserID:     update.UserID,
		Step:       update.Step.String(),
		Status:     update.Status.String(),
		Message:    update.Message,
		DomainName: update.DomainName,
		Platform:   update.Platform.String(),
		UpdatedAt:  utils.Now(),
	}
	err = r.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}

	return nil
}

func (r *progressRepository) GetProgress(ctx context.Context, sessionID string) (*models.PurchaseProgress, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "ProgressRepository.GetProgress")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagSession(span, sessionID)

	var record models.PurchaseProgress
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &record, nil
}

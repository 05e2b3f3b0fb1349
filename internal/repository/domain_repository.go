package repository

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/siteforge/domainops/internal/models"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/internal/utils"
)

type DomainRepository interface {
	RegisterDomain(ctx context.Context, domain *models.Domain) (*models.Domain, error)
	GetDomainByName(ctx context.Context, domain string) (*models.Domain, error)
	GetDomainByID(ctx context.Context, id uint64) (*models.Domain, error)
	GetActiveDomains(ctx context.Context) ([]models.Domain, error)
	MarkDNSConfigured(ctx context.Context, domain string, nameservers []string) error
	SetRegistrarDates(ctx context.Context, domain string, registeredAt, expiresAt *time.Time) error
	DeactivateDomain(ctx context.Context, id uint64) error
}

type domainRepository struct {
	db *gorm.DB
}

func NewDomainRepository(db *gorm.DB) DomainRepository {
	return &domainRepository{
		db: db,
	}
}

func (r *domainRepository) RegisterDomain(ctx context.Context, domain *models.Domain) (*models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.RegisterDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domain", domain.Domain)

	now := utils.Now()
	domain.CreatedAt = now
	domain.UpdatedAt = now
	if domain.Status == "" {
		domain.Status = models.DomainStatusActive
	}

	err := r.db.WithContext(ctx).Create(domain).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return domain, nil
}

func (r *domainRepository) GetDomainByName(ctx context.Context, domain string) (*models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetDomainByName")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domain", domain)

	var domainModel models.Domain
	err := r.db.WithContext(ctx).
		Where("domain = ?", domain).
		First(&domainModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("result.found", false))
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &domainModel, nil
}

func (r *domainRepository) GetDomainByID(ctx context.Context, id uint64) (*models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetDomainByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var domainModel models.Domain
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&domainModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &domainModel, nil
}

func (r *domainRepository) GetActiveDomains(ctx context.Context) ([]models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetActiveDomains")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var domainModels []models.Domain
	err := r.db.WithContext(ctx).
		Where("status = ?", models.DomainStatusActive).
		Find(&domainModels).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return domainModels, nil
}

func (r *domainRepository) MarkDNSConfigured(ctx context.Context, domain string, nameservers []string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.MarkDNSConfigured")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domain", domain)

	err := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Where("domain = ?", domain).
		UpdateColumn("dns_configured", true).
		UpdateColumn("nameservers", models.StringList(nameservers)).
		UpdateColumn("updated_at", utils.Now()).
		Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}

	return nil
}

func (r *domainRepository) SetRegistrarDates(ctx context.Context, domain string, registeredAt, expiresAt *time.Time) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.SetRegistrarDates")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domain", domain)

	updates := map[string]interface{}{
		"updated_at": utils.Now(),
	}
	if registeredAt != nil {
		updates["registered_at"] = *registeredAt
	}
	if expiresAt != nil {
		updates["expires_at"] = *expiresAt
	}

	err := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Where("domain = ?", domain).
		Updates(updates).
		Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}

	return nil
}

func (r *domainRepository) DeactivateDomain(ctx context.Context, id uint64) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.DeactivateDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Where("id = ?", id).
		UpdateColumn("status", models.DomainStatusDeactivated).
		UpdateColumn("manually_deactivated", true).
		UpdateColumn("updated_at", utils.Now()).
		Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}

	return nil
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/siteforge/domainops/interfaces"
	er "github.com/siteforge/domainops/internal/errors"
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/repository"
	"github.com/siteforge/domainops/internal/tracing"
)

type DomainHandler struct {
	log              logger.Logger
	domainRepository repository.DomainRepository
	teardownService  interfaces.TeardownService
}

func NewDomainHandler(log logger.Logger, repos *repository.Repositories, teardownService interfaces.TeardownService) *DomainHandler {
	return &DomainHandler{
		log:              log,
		domainRepository: repos.DomainRepository,
		teardownService:  teardownService,
	}
}

// List returns the active domain records.
func (h *DomainHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "ListDomains")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domains, err := h.domainRepository.GetActiveDomains(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list domains"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"domains": domains})
	}
}

// Integrations probes which external integrations exist for the domain.
func (h *DomainHandler) Integrations() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainIntegrations")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domain, ok := h.loadDomain(c, span)
		if !ok {
			return
		}

		snapshot := h.teardownService.Detect(ctx, domain.Domain)
		c.JSON(http.StatusOK, snapshot)
	}
}

// Deactivate tears down the domain's integrations and marks it retired.
// The response always carries the full per-step breakdown.
func (h *DomainHandler) Deactivate() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DeactivateDomain")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domain, ok := h.loadDomain(c, span)
		if !ok {
			return
		}

		result := h.teardownService.Deactivate(ctx, domain.ID, domain.Domain)
		c.JSON(http.StatusOK, result)
	}
}

func (h *DomainHandler) loadDomain(c *gin.Context, span opentracing.Span) (domain *domainRecord, ok bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		tracing.TraceErr(span, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid domain id"})
		return nil, false
	}
	tracing.TagEntity(span, c.Param("id"))

	record, err := h.domainRepository.GetDomainByID(c.Request.Context(), id)
	if err != nil {
		tracing.TraceErr(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load domain"})
		return nil, false
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": er.ErrDomainNotFound.Error()})
		return nil, false
	}

	return &domainRecord{ID: record.ID, Domain: record.Domain}, true
}

type domainRecord struct {
	ID     uint64
	Domain string
}

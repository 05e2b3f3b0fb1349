package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/siteforge/domainops/interfaces"
	er "github.com/siteforge/domainops/internal/errors"
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/models"
	"github.com/siteforge/domainops/internal/repository"
)

type fakeDomainRepo struct {
	record *models.Domain
}

func (f *fakeDomainRepo) RegisterDomain(ctx context.Context, domain *models.Domain) (*models.Domain, error) {
	return domain, nil
}

func (f *fakeDomainRepo) GetDomainByName(ctx context.Context, domain string) (*models.Domain, error) {
	return nil, nil
}

func (f *fakeDomainRepo) GetDomainByID(ctx context.Context, id uint64) (*models.Domain, error) {
	return f.record, nil
}

func (f *fakeDomainRepo) GetActiveDomains(ctx context.Context) ([]models.Domain, error) {
	return nil, nil
}

func (f *fakeDomainRepo) MarkDNSConfigured(ctx context.Context, domain string, nameservers []string) error {
	return nil
}

func (f *fakeDomainRepo) SetRegistrarDates(ctx context.Context, domain string, registeredAt, expiresAt *time.Time) error {
	return nil
}

func (f *fakeDomainRepo) DeactivateDomain(ctx context.Context, id uint64) error {
	return nil
}

type fakeTeardownService struct {
	detected []string
}

func (f *fakeTeardownService) Detect(ctx context.Context, domainName string) *interfaces.IntegrationSnapshot {
	f.detected = append(f.detected, domainName)
	return &interfaces.IntegrationSnapshot{}
}

func (f *fakeTeardownService) Deactivate(ctx context.Context, domainID uint64, domainName string) *interfaces.TeardownResult {
	return &interfaces.TeardownResult{DomainID: domainID, DomainName: domainName}
}

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

func newDomainRouter(repo *fakeDomainRepo, teardown *fakeTeardownService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewDomainHandler(testLogger(), &repository.Repositories{DomainRepository: repo}, teardown)
	router := gin.New()
	router.GET("/v1/domains/:id/integrations", handler.Integrations())
	return router
}

func TestDomainIntegrations_UnknownDomainReturns404(t *testing.T) {
	teardown := &fakeTeardownService{}
	router := newDomainRouter(&fakeDomainRepo{}, teardown)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/domains/42/integrations", nil)
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), er.ErrDomainNotFound.Error())
	assert.Empty(t, teardown.detected)
}

func TestDomainIntegrations_InvalidIDReturns400(t *testing.T) {
	router := newDomainRouter(&fakeDomainRepo{}, &fakeTeardownService{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/domains/not-a-number/integrations", nil)
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestDomainIntegrations_FoundDomainProbesByName(t *testing.T) {
	teardown := &fakeTeardownService{}
	router := newDomainRouter(&fakeDomainRepo{record: &models.Domain{ID: 42, Domain: "niceshop.online"}}, teardown)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/domains/42/integrations", nil)
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{"niceshop.online"}, teardown.detected)
}

package teardown

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteforge/domainops/config"
	"github.com/siteforge/domainops/interfaces"
	er "github.com/siteforge/domainops/internal/errors"
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/models"
)

type fakeDNS struct {
	configured bool
	zone       *interfaces.DNSZone
	findErr    error
	deleteErr  error
	deleted    []string
}

func (f *fakeDNS) Configured() bool { return f.configured }

func (f *fakeDNS) CreateZone(ctx context.Context, domain string) (*interfaces.DNSZone, error) {
	return nil, nil
}

func (f *fakeDNS) CreateARecord(ctx context.Context, zoneID, name, content string, proxied bool) error {
	return nil
}

func (f *fakeDNS) FindZoneByName(ctx context.Context, domain string) (*interfaces.DNSZone, error) {
	return f.zone, f.findErr
}

func (f *fakeDNS) DeleteZone(ctx context.Context, zoneID string) error {
	f.deleted = append(f.deleted, zoneID)
	return f.deleteErr
}

type fakeHosting struct {
	configured    bool
	account       *interfaces.HostingAccount
	installation  *interfaces.CMSInstallation
	terminateErr  error
	removeErr     error
	terminated    []string
	removed       []string
	reprobeResult *interfaces.HostingAccount
	reprobed      bool
}

func (f *fakeHosting) Configured() bool { return f.configured }

func (f *fakeHosting) FindAccountByDomain(ctx context.Context, domain string) (*interfaces.HostingAccount, error) {
	if len(f.terminated) > 0 {
		f.reprobed = true
		return f.reprobeResult, nil
	}
	return f.account, nil
}

func (f *fakeHosting) CreateAccount(ctx context.Context, domain string) (*interfaces.HostingAccount, error) {
	return nil, nil
}

func (f *fakeHosting) TerminateAccount(ctx context.Context, username string) error {
	f.terminated = append(f.terminated, username)
	return f.terminateErr
}

func (f *fakeHosting) FindInstallationByDomain(ctx context.Context, domain string) (*interfaces.CMSInstallation, error) {
	return f.installation, nil
}

func (f *fakeHosting) InstallWordPress(ctx context.Context, domain string) (*interfaces.CMSInstallation, error) {
	return nil, nil
}

func (f *fakeHosting) RemoveInstallation(ctx context.Context, installationID string) error {
	f.removed = append(f.removed, installationID)
	return f.removeErr
}

type fakeAI struct {
	translated   string
	translateErr error
}

func (f *fakeAI) GenerateDomainName(ctx context.Context, request interfaces.DomainNameRequest) (string, error) {
	return "", nil
}

func (f *fakeAI) Translate(ctx context.Context, text, language string) (string, error) {
	if f.translateErr != nil {
		return "", f.translateErr
	}
	return f.translated, nil
}

type fakeDomainRepo struct {
	deactivateErr error
	deactivated   []uint64
}

func (f *fakeDomainRepo) RegisterDomain(ctx context.Context, domain *models.Domain) (*models.Domain, error) {
	return domain, nil
}

func (f *fakeDomainRepo) GetDomainByName(ctx context.Context, domain string) (*models.Domain, error) {
	return nil, nil
}

func (f *fakeDomainRepo) GetDomainByID(ctx context.Context, id uint64) (*models.Domain, error) {
	return nil, nil
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
	f.deactivated = append(f.deactivated, id)
	return f.deactivateErr
}

type fakeActivityRepo struct{}

func (f *fakeActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	outcomes []bool
	reasons  []string
}

func (f *fakePublisher) NotifyDomainOutcome(ctx context.Context, domain string, success bool, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, success)
	f.reasons = append(f.reasons, reason)
}

func (f *fakePublisher) Close() error { return nil }

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

func newTestService(dns *fakeDNS, hosting *fakeHosting, ai *fakeAI, domainRepo *fakeDomainRepo, publisher *fakePublisher) interfaces.TeardownService {
	panelConsistencyDelay = 0
	terminateReprobeDelay = 0
	return NewTeardownService(
		testLogger(),
		&config.DomainConfig{},
		dns,
		hosting,
		ai,
		domainRepo,
		&fakeActivityRepo{},
		publisher,
	)
}

func TestDetect_ReportsIndependentIntegrations(t *testing.T) {
	dns := &fakeDNS{configured: true, zone: &interfaces.DNSZone{ID: "zone1", Name: "niceshop.online"}}
	hosting := &fakeHosting{
		configured:   true,
		account:      &interfaces.HostingAccount{Username: "niceshop", Domain: "niceshop.online", IP: "1.2.3.4"},
		installation: &interfaces.CMSInstallation{ID: "42", Domain: "niceshop.online"},
	}
	service := newTestService(dns, hosting, &fakeAI{}, &fakeDomainRepo{}, &fakePublisher{})

	snapshot := service.Detect(context.Background(), "niceshop.online")

	assert.True(t, snapshot.CMS.Exists)
	assert.Equal(t, "42", snapshot.CMS.ExternalID)
	assert.True(t, snapshot.HostingAccount.Exists)
	assert.Equal(t, "niceshop", snapshot.HostingAccount.ExternalID)
	assert.True(t, snapshot.DNSZone.Exists)
	assert.Equal(t, "zone1", snapshot.DNSZone.ExternalID)
}

func TestDetect_ProbeFailureTreatedAsNotFound(t *testing.T) {
	dns := &fakeDNS{configured: true, findErr: assert.AnError}
	hosting := &fakeHosting{configured: true}
	service := newTestService(dns, hosting, &fakeAI{}, &fakeDomainRepo{}, &fakePublisher{})

	snapshot := service.Detect(context.Background(), "niceshop.online")

	assert.False(t, snapshot.DNSZone.Exists)
	assert.False(t, snapshot.CMS.Exists)
	assert.False(t, snapshot.HostingAccount.Exists)
}

func TestDeactivate_AttemptsOnlyDetectedSteps(t *testing.T) {
	dns := &fakeDNS{configured: true, zone: &interfaces.DNSZone{ID: "zone1", Name: "niceshop.online"}}
	hosting := &fakeHosting{configured: true} // no account, no CMS
	domainRepo := &fakeDomainRepo{}
	service := newTestService(dns, hosting, &fakeAI{}, domainRepo, &fakePublisher{})

	result := service.Deactivate(context.Background(), 7, "niceshop.online")

	assert.False(t, result.Steps[interfaces.TeardownStepCMS].Executed)
	assert.False(t, result.Steps[interfaces.TeardownStepHostingAccount].Executed)
	assert.True(t, result.Steps[interfaces.TeardownStepDNSZone].Executed)
	assert.True(t, result.Steps[interfaces.TeardownStepDNSZone].Success)
	assert.Equal(t, []string{"zone1"}, dns.deleted)
	assert.Empty(t, hosting.terminated)
	assert.Empty(t, hosting.removed)
}

func TestDeactivate_RecordStepAloneDefinesOverallSuccess(t *testing.T) {
	dns := &fakeDNS{configured: true, zone: &interfaces.DNSZone{ID: "zone1"}, deleteErr: assert.AnError}
	hosting := &fakeHosting{
		configured:   true,
		account:      &interfaces.HostingAccount{Username: "niceshop", Domain: "niceshop.online"},
		installation: &interfaces.CMSInstallation{ID: "42", Domain: "niceshop.online"},
		terminateErr: assert.AnError,
		removeErr:    assert.AnError,
	}
	domainRepo := &fakeDomainRepo{}
	service := newTestService(dns, hosting, &fakeAI{}, domainRepo, &fakePublisher{})

	result := service.Deactivate(context.Background(), 7, "niceshop.online")

	// every external removal failed, the persisted record still decides
	assert.False(t, result.Steps[interfaces.TeardownStepCMS].Success)
	assert.False(t, result.Steps[interfaces.TeardownStepHostingAccount].Success)
	assert.False(t, result.Steps[interfaces.TeardownStepDNSZone].Success)
	assert.True(t, result.Steps[interfaces.TeardownStepRecord].Executed)
	assert.True(t, result.Steps[interfaces.TeardownStepRecord].Success)
	assert.True(t, result.OverallSuccess)
	assert.Equal(t, []uint64{7}, domainRepo.deactivated)
}

func TestDeactivate_RecordStepFailureFailsOverall(t *testing.T) {
	dns := &fakeDNS{}
	hosting := &fakeHosting{}
	domainRepo := &fakeDomainRepo{deactivateErr: assert.AnError}
	publisher := &fakePublisher{}
	service := newTestService(dns, hosting, &fakeAI{}, domainRepo, publisher)

	result := service.Deactivate(context.Background(), 7, "niceshop.online")

	assert.False(t, result.OverallSuccess)
	assert.True(t, result.Steps[interfaces.TeardownStepRecord].Executed)
	assert.False(t, result.Steps[interfaces.TeardownStepRecord].Success)
	require.Len(t, publisher.outcomes, 1)
	assert.False(t, publisher.outcomes[0])
}

func TestDeactivate_TerminateTimeoutReprobesBeforeFailing(t *testing.T) {
	hosting := &fakeHosting{
		configured:    true,
		account:       &interfaces.HostingAccount{Username: "niceshop", Domain: "niceshop.online"},
		terminateErr:  er.ErrConnectionTimeout,
		reprobeResult: nil, // account gone on re-probe
	}
	service := newTestService(&fakeDNS{}, hosting, &fakeAI{}, &fakeDomainRepo{}, &fakePublisher{})

	result := service.Deactivate(context.Background(), 7, "niceshop.online")

	step := result.Steps[interfaces.TeardownStepHostingAccount]
	assert.True(t, hosting.reprobed)
	assert.True(t, step.Executed)
	assert.True(t, step.Success)
}

func TestDeactivate_TerminateTimeoutAccountStillPresentFails(t *testing.T) {
	account := &interfaces.HostingAccount{Username: "niceshop", Domain: "niceshop.online"}
	hosting := &fakeHosting{
		configured:    true,
		account:       account,
		terminateErr:  er.ErrConnectionTimeout,
		reprobeResult: account, // still there after the timeout
	}
	service := newTestService(&fakeDNS{}, hosting, &fakeAI{}, &fakeDomainRepo{}, &fakePublisher{})

	result := service.Deactivate(context.Background(), 7, "niceshop.online")

	step := result.Steps[interfaces.TeardownStepHostingAccount]
	assert.True(t, step.Executed)
	assert.False(t, step.Success)
}

func TestLocalizeReason_FallsBackOnTranslationFailure(t *testing.T) {
	ai := &fakeAI{translateErr: assert.AnError}
	service := NewTeardownService(
		testLogger(),
		&config.DomainConfig{NotificationLanguage: "german"},
		&fakeDNS{},
		&fakeHosting{},
		ai,
		&fakeDomainRepo{},
		&fakeActivityRepo{},
		&fakePublisher{},
	).(*teardownService)

	reason := service.localizeReason(context.Background(), "original reason")
	assert.Equal(t, "original reason", reason)
}

func TestLocalizeReason_UsesTranslationWhenAvailable(t *testing.T) {
	ai := &fakeAI{translated: "übersetzt"}
	service := NewTeardownService(
		testLogger(),
		&config.DomainConfig{NotificationLanguage: "german"},
		&fakeDNS{},
		&fakeHosting{},
		ai,
		&fakeDomainRepo{},
		&fakeActivityRepo{},
		&fakePublisher{},
	).(*teardownService)

	reason := service.localizeReason(context.Background(), "original reason")
	assert.Equal(t, "übersetzt", reason)
}

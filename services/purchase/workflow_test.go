package purchase

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteforge/domainops/config"
	"github.com/siteforge/domainops/interfaces"
	"github.com/siteforge/domainops/internal/enum"
	er "github.com/siteforge/domainops/internal/errors"
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/models"
	"github.com/siteforge/domainops/internal/repository"
)

// fakeRegistrar scripts availability and purchase answers per domain.
type fakeRegistrar struct {
	mu             sync.Mutex
	availability   func(domain string) (*interfaces.DomainAvailability, error)
	purchaseErr    func(domain string) error
	checkedDomains []string
	purchased      []string
}

func (f *fakeRegistrar) CheckAvailability(ctx context.Context, domain string) (*interfaces.DomainAvailability, error) {
	f.mu.Lock()
	f.checkedDomains = append(f.checkedDomains, domain)
	f.mu.Unlock()
	if f.availability != nil {
		return f.availability(domain)
	}
	return &interfaces.DomainAvailability{Domain: domain, Available: true, Price: 1.99, Definitive: true}, nil
}

func (f *fakeRegistrar) Purchase(ctx context.Context, domain string) (*interfaces.DomainPurchase, error) {
	if f.purchaseErr != nil {
		if err := f.purchaseErr(domain); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	f.purchased = append(f.purchased, domain)
	f.mu.Unlock()
	return &interfaces.DomainPurchase{Domain: domain, OrderID: "1", TransactionID: "2", ChargedAmount: "1.99"}, nil
}

func (f *fakeRegistrar) GetDomainInfo(ctx context.Context, domain string) (*interfaces.RegistrarDomainInfo, error) {
	return nil, nil
}

func (f *fakeRegistrar) UpdateNameservers(ctx context.Context, domain string, nameservers []string) error {
	return nil
}

type fakeOracle struct {
	mu         sync.Mutex
	candidates []string
	next       int
}

func (f *fakeOracle) GenerateDomainName(ctx context.Context, request interfaces.DomainNameRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.candidates) {
		return f.candidates[len(f.candidates)-1], nil
	}
	candidate := f.candidates[f.next]
	f.next++
	return candidate, nil
}

func (f *fakeOracle) Translate(ctx context.Context, text, language string) (string, error) {
	return text, nil
}

type fakeProvisioner struct {
	mu    sync.Mutex
	setup []interfaces.ProvisioningRequest
}

func (f *fakeProvisioner) Setup(ctx context.Context, request interfaces.ProvisioningRequest) *interfaces.ProvisioningOutcome {
	f.mu.Lock()
	f.setup = append(f.setup, request)
	f.mu.Unlock()
	return &interfaces.ProvisioningOutcome{Domain: request.Domain}
}

// memoryProgressRepo records every accepted write in order, mirroring the
// sticky-terminal behavior of the durable store.
type memoryProgressRepo struct {
	mu      sync.Mutex
	writes  []repository.ProgressUpdate
	current *models.PurchaseProgress
}

func (m *memoryProgressRepo) UpsertProgress(ctx context.Context, update repository.ProgressUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && enum.PurchaseStep(m.current.Step).IsTerminal() {
		return nil
	}
	m.writes = append(m.writes, update)
	record := &models.PurchaseProgress{
		SessionID: update.SessionID,
		Step:      update.Step.String(),
		Status:    update.Status.String(),
		Message:   update.Message,
	}
	if update.DomainName != nil {
		record.DomainName = update.DomainName
	}
	m.current = record
	return nil
}

func (m *memoryProgressRepo) GetProgress(ctx context.Context, sessionID string) (*models.PurchaseProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

func (m *memoryProgressRepo) steps() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	steps := make([]string, 0, len(m.writes))
	for _, w := range m.writes {
		steps = append(steps, w.Step.String()+"/"+w.Status.String())
	}
	return steps
}

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

func newTestService(registrar *fakeRegistrar, oracle *fakeOracle) (interfaces.PurchaseService, *memoryProgressRepo, *fakeProvisioner, *SessionRegistry) {
	domainCfg := &config.DomainConfig{
		TLD:                  "online",
		MaxAttempts:          3,
		RetryBackoffSeconds:  0,
		SessionMaxAgeMinutes: 60,
	}
	registrarCfg := &config.NamecheapConfig{MaxPrice: 20.0, Years: 1}
	progress := &memoryProgressRepo{}
	provisioner := &fakeProvisioner{}
	sessions := NewSessionRegistry(0)

	service := NewPurchaseService(testLogger(), domainCfg, registrarCfg, registrar, oracle, provisioner, progress, sessions)
	return service, progress, provisioner, sessions
}

func TestRun_ManualPurchaseRegistrationOnly(t *testing.T) {
	registrar := &fakeRegistrar{
		availability: func(domain string) (*interfaces.DomainAvailability, error) {
			return &interfaces.DomainAvailability{Domain: domain, Available: true, Price: 0.99, Definitive: true}, nil
		},
	}
	service, progress, provisioner, _ := newTestService(registrar, &fakeOracle{})

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		ManualDomain: "niceshop.online",
		SessionID:    "sess_manual",
		UserID:       "user_1",
		Platform:     enum.PlatformRegistrationOnly,
	})

	require.True(t, result.Success)
	assert.Equal(t, []string{"niceshop.online"}, result.DomainsRegistered)
	assert.Equal(t, 1, result.TotalRegistered)
	assert.Equal(t, 1, result.TotalRequested)
	assert.False(t, result.Cancelled)

	steps := progress.steps()
	assert.Contains(t, steps, "purchasing/completed")
	assert.Equal(t, "completed/completed", steps[len(steps)-1])

	require.Len(t, provisioner.setup, 1)
	assert.Equal(t, enum.PlatformRegistrationOnly, provisioner.setup[0].Platform)
}

func TestRun_ManualCandidatePassesThroughVerbatim(t *testing.T) {
	registrar := &fakeRegistrar{}
	service, _, _, _ := newTestService(registrar, &fakeOracle{})

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		ManualDomain: "NiceShop.Online",
		SessionID:    "sess_case",
		Platform:     enum.PlatformRegistrationOnly,
	})

	require.True(t, result.Success)
	assert.Equal(t, []string{"niceshop.online"}, result.DomainsRegistered)
}

func TestRun_AllUnavailableExhaustsRetriesPerSlot(t *testing.T) {
	registrar := &fakeRegistrar{
		availability: func(domain string) (*interfaces.DomainAvailability, error) {
			return &interfaces.DomainAvailability{Domain: domain, Available: false, Definitive: true}, nil
		},
	}
	oracle := &fakeOracle{candidates: []string{"alpha.online", "beta.online", "gamma.online"}}
	service, progress, _, _ := newTestService(registrar, oracle)

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		Quantity:  2,
		Niche:     "shops",
		SessionID: "sess_unavail",
		Platform:  enum.PlatformRegistrationOnly,
	})

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.TotalRegistered)
	assert.Empty(t, registrar.purchased)
	// MaxAttempts=3 per slot, 2 slots
	assert.Len(t, registrar.checkedDomains, 6)

	steps := progress.steps()
	assert.Equal(t, "error/error", steps[len(steps)-1])
}

func TestRun_InsufficientFundsAbortsBatch(t *testing.T) {
	registrar := &fakeRegistrar{
		purchaseErr: func(domain string) error {
			return errors.Wrap(er.ErrInsufficientFunds, "Error 2515610: insufficient funds")
		},
	}
	oracle := &fakeOracle{candidates: []string{"alpha.online"}}
	service, progress, _, _ := newTestService(registrar, oracle)

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		Quantity:  3,
		Niche:     "shops",
		SessionID: "sess_funds",
		Platform:  enum.PlatformRegistrationOnly,
	})

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.TotalRegistered)
	assert.Equal(t, er.ErrInsufficientFunds.Error(), result.Error)
	// the first purchase failure aborts the remaining slots
	assert.Len(t, registrar.checkedDomains, 1)

	steps := progress.steps()
	assert.Equal(t, "error/error", steps[len(steps)-1])
}

func TestRun_FundsExhaustionAfterRegistrationFinishesCompleted(t *testing.T) {
	purchases := 0
	registrar := &fakeRegistrar{
		purchaseErr: func(domain string) error {
			purchases++
			if purchases > 1 {
				return errors.Wrap(er.ErrInsufficientFunds, "Error 2515610: insufficient funds")
			}
			return nil
		},
	}
	oracle := &fakeOracle{candidates: []string{"alpha.online", "beta.online"}}
	service, progress, _, _ := newTestService(registrar, oracle)

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		Quantity:  3,
		Niche:     "shops",
		SessionID: "sess_partial_funds",
		Platform:  enum.PlatformRegistrationOnly,
	})

	// funds ran out mid-batch, but the session did register a domain
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.TotalRegistered)
	assert.Equal(t, []string{"alpha.online"}, result.DomainsRegistered)
	assert.Equal(t, er.ErrInsufficientFunds.Error(), result.Error)

	steps := progress.steps()
	assert.Contains(t, steps, "purchasing/completed")
	assert.Equal(t, "completed/completed", steps[len(steps)-1])
}

func TestRun_InvalidDomainErrorIsRetryable(t *testing.T) {
	calls := 0
	registrar := &fakeRegistrar{
		purchaseErr: func(domain string) error {
			calls++
			if calls == 1 {
				return errors.Wrap(er.ErrInvalidDomainName, "Error 2030280: invalid domain name")
			}
			return nil
		},
	}
	oracle := &fakeOracle{candidates: []string{"bad.online", "good.online"}}
	service, _, _, _ := newTestService(registrar, oracle)

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		Quantity:  1,
		Niche:     "shops",
		SessionID: "sess_invalid",
		Platform:  enum.PlatformRegistrationOnly,
	})

	require.True(t, result.Success)
	assert.Equal(t, []string{"good.online"}, result.DomainsRegistered)
}

func TestRun_CancellationBeforePurchaseNeverPurchases(t *testing.T) {
	registrar := &fakeRegistrar{}
	oracle := &fakeOracle{candidates: []string{"alpha.online"}}
	service, progress, _, sessions := newTestService(registrar, oracle)

	// cancel mid-flight, after the availability answer but before the
	// purchase call
	registrar.availability = func(domain string) (*interfaces.DomainAvailability, error) {
		sessions.Cancel("sess_cancel")
		return &interfaces.DomainAvailability{Domain: domain, Available: true, Price: 1.99, Definitive: true}, nil
	}

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		Quantity:  2,
		Niche:     "shops",
		SessionID: "sess_cancel",
		Platform:  enum.PlatformRegistrationOnly,
	})

	assert.True(t, result.Cancelled)
	assert.False(t, result.Success)
	assert.Empty(t, registrar.purchased)

	steps := progress.steps()
	assert.Equal(t, "canceled/canceled", steps[len(steps)-1])
}

func TestRun_CancellationKeepsAlreadyRegisteredDomains(t *testing.T) {
	registrar := &fakeRegistrar{}
	oracle := &fakeOracle{candidates: []string{"alpha.online", "beta.online"}}
	service, _, _, sessions := newTestService(registrar, oracle)

	purchases := 0
	registrar.purchaseErr = func(domain string) error {
		purchases++
		if purchases == 1 {
			// cancel right after the first purchase goes through
			defer sessions.Cancel("sess_keep")
		}
		return nil
	}

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		Quantity:  3,
		Niche:     "shops",
		SessionID: "sess_keep",
		Platform:  enum.PlatformRegistrationOnly,
	})

	assert.True(t, result.Cancelled)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.TotalRegistered)
	assert.Equal(t, []string{"alpha.online"}, result.DomainsRegistered)
}

func TestRun_PriceCeilingConsumesRetries(t *testing.T) {
	registrar := &fakeRegistrar{
		availability: func(domain string) (*interfaces.DomainAvailability, error) {
			return &interfaces.DomainAvailability{Domain: domain, Available: true, Price: 49.99, Definitive: true}, nil
		},
	}
	oracle := &fakeOracle{candidates: []string{"pricey.online"}}
	service, _, _, _ := newTestService(registrar, oracle)

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		Quantity:  1,
		Niche:     "shops",
		SessionID: "sess_price",
		Platform:  enum.PlatformRegistrationOnly,
	})

	assert.False(t, result.Success)
	assert.Empty(t, registrar.purchased)
	assert.Len(t, registrar.checkedDomains, 3)
}

func TestRun_UnlimitedBypassesPriceCeiling(t *testing.T) {
	registrar := &fakeRegistrar{
		availability: func(domain string) (*interfaces.DomainAvailability, error) {
			return &interfaces.DomainAvailability{Domain: domain, Available: true, Price: 49.99, Definitive: true}, nil
		},
	}
	oracle := &fakeOracle{candidates: []string{"pricey.online"}}
	service, _, _, _ := newTestService(registrar, oracle)

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		Quantity:  1,
		Niche:     "shops",
		SessionID: "sess_unlimited",
		Platform:  enum.PlatformRegistrationOnly,
		Unlimited: true,
	})

	require.True(t, result.Success)
	assert.Equal(t, []string{"pricey.online"}, result.DomainsRegistered)
}

func TestRun_BatchRegistersOnlyAvailableSlot(t *testing.T) {
	registrar := &fakeRegistrar{
		availability: func(domain string) (*interfaces.DomainAvailability, error) {
			available := domain == "gamma.online"
			return &interfaces.DomainAvailability{Domain: domain, Available: available, Price: 1.99, Definitive: true}, nil
		},
	}
	// first two slots burn through unavailable candidates, third hits
	// gamma
	oracle := &fakeOracle{candidates: []string{
		"alpha.online", "beta.online", "delta.online",
		"epsilon.online", "zeta.online", "eta.online",
		"gamma.online",
	}}
	service, _, _, _ := newTestService(registrar, oracle)

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		Quantity:  3,
		Niche:     "shops",
		SessionID: "sess_batch",
		Platform:  enum.PlatformRegistrationOnly,
	})

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.TotalRequested)
	assert.Equal(t, 1, result.TotalRegistered)
	assert.Equal(t, []string{"gamma.online"}, result.DomainsRegistered)
}

func TestRun_OracleCandidateFailingSyntaxConsumesAttempt(t *testing.T) {
	registrar := &fakeRegistrar{}
	oracle := &fakeOracle{candidates: []string{"has space.online", "clean.online"}}
	service, _, _, _ := newTestService(registrar, oracle)

	result := service.Run(context.Background(), interfaces.PurchaseRequest{
		Quantity:  1,
		Niche:     "shops",
		SessionID: "sess_syntax",
		Platform:  enum.PlatformRegistrationOnly,
	})

	require.True(t, result.Success)
	assert.Equal(t, []string{"clean.online"}, result.DomainsRegistered)
	// the malformed candidate never reached the registrar
	assert.Equal(t, []string{"clean.online"}, registrar.checkedDomains)
}

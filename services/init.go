package services

import (
	"time"

	"github.com/siteforge/domainops/config"
	"github.com/siteforge/domainops/interfaces"
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/repository"
	"github.com/siteforge/domainops/services/ai"
	"github.com/siteforge/domainops/services/cloudflare"
	"github.com/siteforge/domainops/services/cpanel"
	"github.com/siteforge/domainops/services/events"
	"github.com/siteforge/domainops/services/namecheap"
	"github.com/siteforge/domainops/services/provisioning"
	"github.com/siteforge/domainops/services/purchase"
	"github.com/siteforge/domainops/services/teardown"
)

type Services struct {
	Sessions            *purchase.SessionRegistry
	Publisher           interfaces.NotificationPublisher
	RegistrarService    interfaces.RegistrarService
	DNSService          interfaces.DNSService
	HostingService      interfaces.HostingService
	AIService           interfaces.AIService
	ProvisioningService interfaces.ProvisioningService
	PurchaseService     interfaces.PurchaseService
	TeardownService     interfaces.TeardownService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	var publisher interfaces.NotificationPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		rabbitPublisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, nil)
		if err != nil {
			return nil, err
		}
		publisher = rabbitPublisher
	} else {
		publisher = events.NewNoopPublisher(log)
	}

	registrarService := namecheap.NewNamecheapService(cfg.NamecheapConfig)
	dnsService := cloudflare.NewCloudflareService(cfg.CloudflareConfig)
	hostingService := cpanel.NewCPanelService(cfg.CPanelConfig)
	aiService := ai.NewAIService(cfg.OpenAIConfig)

	provisioningService := provisioning.NewProvisioningService(
		log,
		cfg.DomainConfig,
		dnsService,
		registrarService,
		hostingService,
		repos.DomainRepository,
		repos.ActivityLogRepository,
		repos.ProgressRepository,
		publisher,
	)

	sessions := purchase.NewSessionRegistry(time.Duration(cfg.DomainConfig.SessionMaxAgeMinutes) * time.Minute)

	purchaseService := purchase.NewPurchaseService(
		log,
		cfg.DomainConfig,
		cfg.NamecheapConfig,
		registrarService,
		aiService,
		provisioningService,
		repos.ProgressRepository,
		sessions,
	)

	teardownService := teardown.NewTeardownService(
		log,
		cfg.DomainConfig,
		dnsService,
		hostingService,
		aiService,
		repos.DomainRepository,
		repos.ActivityLogRepository,
		publisher,
	)

	return &Services{
		Sessions:            sessions,
		Publisher:           publisher,
		RegistrarService:    registrarService,
		DNSService:          dnsService,
		HostingService:      hostingService,
		AIService:           aiService,
		ProvisioningService: provisioningService,
		PurchaseService:     purchaseService,
		TeardownService:     teardownService,
	}, nil
}

package provisioning

import (
	"context"
	"fmt"
	"time"

	"github.com/customeros/mailwatcher/domainage"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/siteforge/domainops/config"
	"github.com/siteforge/domainops/interfaces"
	"github.com/siteforge/domainops/internal/enum"
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/models"
	"github.com/siteforge/domainops/internal/repository"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/internal/utils"
)

const (
	registrarName = "namecheap"
	// zonePropagationDelay sits between zone creation and the first record
	// write; Cloudflare occasionally 404s the zone right after creating it.
	zonePropagationDelay = 5 * time.Second
)

// provisioningService converges an already-owned domain towards its target
// platform. Every step is best-effort: a failure is logged, recorded in the
// outcome and notified, never propagated, and never blocks the next step.
type provisioningService struct {
	log          logger.Logger
	domainCfg    *config.DomainConfig
	dns          interfaces.DNSService
	registrar    interfaces.RegistrarService
	hosting      interfaces.HostingService
	domainRepo   repository.DomainRepository
	activityRepo repository.ActivityLogRepository
	progressRepo repository.ProgressRepository
	publisher    interfaces.NotificationPublisher
}

func NewProvisioningService(
	log logger.Logger,
	domainCfg *config.DomainConfig,
	dns interfaces.DNSService,
	registrar interfaces.RegistrarService,
	hosting interfaces.HostingService,
	domainRepo repository.DomainRepository,
	activityRepo repository.ActivityLogRepository,
	progressRepo repository.ProgressRepository,
	publisher interfaces.NotificationPublisher,
) interfaces.ProvisioningService {
	return &provisioningService{
		log:          log,
		domainCfg:    domainCfg,
		dns:          dns,
		registrar:    registrar,
		hosting:      hosting,
		domainRepo:   domainRepo,
		activityRepo: activityRepo,
		progressRepo: progressRepo,
		publisher:    publisher,
	}
}

func (s *provisioningService) Setup(ctx context.Context, request interfaces.ProvisioningRequest) *interfaces.ProvisioningOutcome {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ProvisioningService.Setup")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagSession(span, request.SessionID)
	span.LogKV("domain", request.Domain, "platform", request.Platform.String())

	outcome := &interfaces.ProvisioningOutcome{Domain: request.Domain}

	if request.Platform == enum.PlatformManagedWordPress {
		s.setupDNS(ctx, request, outcome)
		s.setupHosting(ctx, request, outcome)
	}

	s.persistDomain(ctx, request, outcome)
	s.notify(ctx, request, outcome)

	tracing.LogObjectAsJson(span, "outcome", outcome)

	return outcome
}

// setupDNS creates the zone, points it at the hosting IP and switches the
// registrar nameservers over. Later sub-steps depend on the zone existing
// and are skipped if it does not.
func (s *provisioningService) setupDNS(ctx context.Context, request interfaces.ProvisioningRequest, outcome *interfaces.ProvisioningOutcome) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ProvisioningService.setupDNS")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", request.Domain)

	if !s.dns.Configured() {
		s.log.Infof("session %s: DNS provider not configured, skipping zone setup for %s", request.SessionID, request.Domain)
		return
	}

	s.writeProgress(ctx, request, enum.StepCloudflare, "Configuring DNS")

	zone, err := s.dns.CreateZone(ctx, request.Domain)
	if err != nil {
		s.recordFailure(ctx, span, request, outcome, errors.Wrap(err, "zone creation failed"))
		return
	}
	outcome.ZoneID = zone.ID
	outcome.Nameservers = zone.Nameservers

	if s.domainCfg.HostingIP != "" {
		time.Sleep(zonePropagationDelay)
		err = s.dns.CreateARecord(ctx, zone.ID, request.Domain, s.domainCfg.HostingIP, true)
		if err != nil {
			s.recordFailure(ctx, span, request, outcome, errors.Wrap(err, "A record creation failed"))
		}
	}

	if len(zone.Nameservers) >= 2 {
		s.writeProgress(ctx, request, enum.StepNameservers, "Switching nameservers")
		err = s.registrar.UpdateNameservers(ctx, request.Domain, zone.Nameservers)
		if err != nil {
			s.recordFailure(ctx, span, request, outcome, errors.Wrap(err, "nameserver switch failed"))
			return
		}
		outcome.DNSConfigured = true
	}
}

// setupHosting ensures the panel account exists and installs WordPress on
// it. Account creation is idempotent by domain.
func (s *provisioningService) setupHosting(ctx context.Context, request interfaces.ProvisioningRequest, outcome *interfaces.ProvisioningOutcome) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ProvisioningService.setupHosting")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", request.Domain)

	if !s.hosting.Configured() {
		s.log.Infof("session %s: hosting panel not configured, skipping account setup for %s", request.SessionID, request.Domain)
		return
	}

	s.writeProgress(ctx, request, enum.StepCPanel, "Creating hosting account")

	account, err := s.hosting.CreateAccount(ctx, request.Domain)
	if err != nil {
		s.recordFailure(ctx, span, request, outcome, errors.Wrap(err, "hosting account creation failed"))
		return
	}
	outcome.AccountUser = account.Username

	s.writeProgress(ctx, request, enum.StepWordPress, "Installing WordPress")

	_, err = s.hosting.InstallWordPress(ctx, request.Domain)
	if err != nil {
		s.recordFailure(ctx, span, request, outcome, errors.Wrap(err, "WordPress installation failed"))
		return
	}
	outcome.CMSInstalled = true
}

// persistDomain writes the domain record and an activity-log entry.
// Registrar dates come from the registrar's info endpoint when it answers,
// otherwise from a WHOIS age lookup.
func (s *provisioningService) persistDomain(ctx context.Context, request interfaces.ProvisioningRequest, outcome *interfaces.ProvisioningOutcome) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ProvisioningService.persistDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", request.Domain)

	registeredAt, expiresAt := s.registrarDates(ctx, request.Domain)

	record := &models.Domain{
		Domain:        request.Domain,
		UserID:        request.UserID,
		Registrar:     registrarName,
		Platform:      request.Platform.String(),
		TrafficSource: request.TrafficSource,
		Status:        models.DomainStatusActive,
		DNSConfigured: outcome.DNSConfigured,
		Nameservers:   outcome.Nameservers,
		RegisteredAt:  registeredAt,
		ExpiresAt:     expiresAt,
	}
	_, err := s.domainRepo.RegisterDomain(ctx, record)
	if err != nil {
		s.recordFailure(ctx, span, request, outcome, errors.Wrap(err, "failed to persist domain record"))
		return
	}

	err = s.activityRepo.Create(ctx, &models.ActivityLog{
		UserID: request.UserID,
		Domain: request.Domain,
		Action: "domain_purchased",
		Details: models.JSONMap{
			"sessionId":     request.SessionID,
			"platform":      request.Platform.String(),
			"dnsConfigured": outcome.DNSConfigured,
			"cmsInstalled":  outcome.CMSInstalled,
		},
	})
	if err != nil {
		// the domain record is in; a missing log line is not worth a retry
		s.log.Warnf("session %s: failed to write activity log for %s: %v", request.SessionID, request.Domain, err)
	}
}

func (s *provisioningService) registrarDates(ctx context.Context, domain string) (*time.Time, *time.Time) {
	info, err := s.registrar.GetDomainInfo(ctx, domain)
	if err == nil && info != nil {
		registeredAt := parseRegistrarDate(info.CreatedDate)
		expiresAt := parseRegistrarDate(info.ExpiredDate)
		if registeredAt != nil || expiresAt != nil {
			return registeredAt, expiresAt
		}
	}

	domainDates, err := domainage.GetDomainDates(domain)
	if err != nil || !domainDates.Success {
		return nil, nil
	}
	registered := utils.Now().AddDate(0, 0, -domainDates.CreationAge)
	expires := registered.AddDate(1, 0, 0)
	return &registered, &expires
}

// parseRegistrarDate handles the registrar's MM/DD/YYYY dates.
func parseRegistrarDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{"01/02/2006", time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}

func (s *provisioningService) notify(ctx context.Context, request interfaces.ProvisioningRequest, outcome *interfaces.ProvisioningOutcome) {
	if len(outcome.Errors) == 0 {
		s.publisher.NotifyDomainOutcome(ctx, request.Domain, true, "")
		return
	}
	reason := fmt.Sprintf("provisioning finished with %d errors: %s", len(outcome.Errors), outcome.Errors[0])
	s.publisher.NotifyDomainOutcome(ctx, request.Domain, false, reason)
}

func (s *provisioningService) recordFailure(ctx context.Context, span opentracing.Span, request interfaces.ProvisioningRequest, outcome *interfaces.ProvisioningOutcome, err error) {
	tracing.TraceErr(span, err)
	s.log.Errorf("session %s: %v", request.SessionID, err)
	outcome.Errors = append(outcome.Errors, err.Error())
}

func (s *provisioningService) writeProgress(ctx context.Context, request interfaces.ProvisioningRequest, step enum.PurchaseStep, message string) {
	err := s.progressRepo.UpsertProgress(ctx, repository.ProgressUpdate{
		SessionID:  request.SessionID,
		UserID:     request.UserID,
		Step:       step,
		Status:     enum.StatusInProgress,
		Message:    fmt.Sprintf("%s for %s", message, request.Domain),
		DomainName: &request.Domain,
		Platform:   request.Platform,
	})
	if err != nil {
		s.log.Errorf("session %s: failed to persist progress %s: %v", request.SessionID, step, err)
	}
}

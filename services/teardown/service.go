package teardown

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/siteforge/domainops/config"
	"github.com/siteforge/domainops/interfaces"
	er "github.com/siteforge/domainops/internal/errors"
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/models"
	"github.com/siteforge/domainops/internal/repository"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/internal/utils"
)

var (
	// panelConsistencyDelay follows a CMS removal; the panel's installation
	// list lags the removal slightly.
	panelConsistencyDelay = 2 * time.Second
	// terminateReprobeDelay precedes the existence re-check after a
	// terminate-account timeout.
	terminateReprobeDelay = 5 * time.Second
)

// teardownService detects and removes a domain's integrations. Removal
// steps run unconditionally of each other's outcome; only the persisted
// deactivation decides overall success.
type teardownService struct {
	log          logger.Logger
	domainCfg    *config.DomainConfig
	dns          interfaces.DNSService
	hosting      interfaces.HostingService
	ai           interfaces.AIService
	domainRepo   repository.DomainRepository
	activityRepo repository.ActivityLogRepository
	publisher    interfaces.NotificationPublisher
}

func NewTeardownService(
	log logger.Logger,
	domainCfg *config.DomainConfig,
	dns interfaces.DNSService,
	hosting interfaces.HostingService,
	ai interfaces.AIService,
	domainRepo repository.DomainRepository,
	activityRepo repository.ActivityLogRepository,
	publisher interfaces.NotificationPublisher,
) interfaces.TeardownService {
	return &teardownService{
		log:          log,
		domainCfg:    domainCfg,
		dns:          dns,
		hosting:      hosting,
		ai:           ai,
		domainRepo:   domainRepo,
		activityRepo: activityRepo,
		publisher:    publisher,
	}
}

// Detect probes the three integrations independently. A failing probe is
// logged and treated as "not found"; one probe's answer never constrains
// another's.
func (s *teardownService) Detect(ctx context.Context, domainName string) *interfaces.IntegrationSnapshot {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TeardownService.Detect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domainName)

	snapshot := &interfaces.IntegrationSnapshot{}

	if s.hosting.Configured() {
		installation, err := s.hosting.FindInstallationByDomain(ctx, domainName)
		if err != nil {
			s.log.Warnf("CMS probe failed for %s, treating as not found: %v", domainName, err)
		} else if installation != nil {
			snapshot.CMS = interfaces.IntegrationState{
				Exists:     true,
				ExternalID: installation.ID,
				Details: map[string]string{
					"url":     installation.URL,
					"path":    installation.Path,
					"version": installation.Version,
				},
			}
		}

		account, err := s.hosting.FindAccountByDomain(ctx, domainName)
		if err != nil {
			s.log.Warnf("hosting account probe failed for %s, treating as not found: %v", domainName, err)
		} else if account != nil {
			snapshot.HostingAccount = interfaces.IntegrationState{
				Exists:     true,
				ExternalID: account.Username,
				Details: map[string]string{
					"ip":        account.IP,
					"suspended": fmt.Sprintf("%t", account.Suspended),
				},
			}
		}
	}

	if s.dns.Configured() {
		zone, err := s.dns.FindZoneByName(ctx, domainName)
		if err != nil {
			s.log.Warnf("DNS zone probe failed for %s, treating as not found: %v", domainName, err)
		} else if zone != nil {
			snapshot.DNSZone = interfaces.IntegrationState{
				Exists:     true,
				ExternalID: zone.ID,
			}
		}
	}

	tracing.LogObjectAsJson(span, "snapshot", snapshot)

	return snapshot
}

// Deactivate removes every detected integration and always marks the
// domain deactivated in the store. A step whose integration was absent is
// recorded as executed=false, not as a failure.
func (s *teardownService) Deactivate(ctx context.Context, domainID uint64, domainName string) *interfaces.TeardownResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TeardownService.Deactivate")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, fmt.Sprintf("%d", domainID))
	span.LogKV("domain", domainName)

	snapshot := s.Detect(ctx, domainName)

	result := &interfaces.TeardownResult{
		DomainID:   domainID,
		DomainName: domainName,
		Steps:      make(map[string]interfaces.TeardownStep),
	}

	result.Steps[interfaces.TeardownStepCMS] = s.removeCMS(ctx, domainName, snapshot.CMS)
	result.Steps[interfaces.TeardownStepHostingAccount] = s.removeHostingAccount(ctx, domainName, snapshot.HostingAccount)
	result.Steps[interfaces.TeardownStepDNSZone] = s.removeDNSZone(ctx, domainName, snapshot.DNSZone)

	recordStep := s.deactivateRecord(ctx, domainID, domainName)
	result.Steps[interfaces.TeardownStepRecord] = recordStep

	// The persisted record alone is the authoritative "retired" signal;
	// the external removals are best-effort cleanup.
	result.OverallSuccess = recordStep.Success
	result.CompletedAt = utils.Now()

	s.publisher.NotifyDomainOutcome(ctx, domainName, result.OverallSuccess, teardownSummary(result))
	tracing.LogObjectAsJson(span, "result", result)

	return result
}

func (s *teardownService) removeCMS(ctx context.Context, domainName string, state interfaces.IntegrationState) interfaces.TeardownStep {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TeardownService.removeCMS")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domainName)

	if !state.Exists {
		return interfaces.TeardownStep{Executed: false, Message: "no CMS installation found"}
	}

	err := s.hosting.RemoveInstallation(ctx, state.ExternalID)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("failed to remove CMS installation %s for %s: %v", state.ExternalID, domainName, err)
		return interfaces.TeardownStep{Executed: true, Success: false, Message: err.Error()}
	}

	time.Sleep(panelConsistencyDelay)

	return interfaces.TeardownStep{Executed: true, Success: true, Message: "CMS installation removed"}
}

func (s *teardownService) removeHostingAccount(ctx context.Context, domainName string, state interfaces.IntegrationState) interfaces.TeardownStep {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TeardownService.removeHostingAccount")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domainName, "username", state.ExternalID)

	if !state.Exists {
		return interfaces.TeardownStep{Executed: false, Message: "no hosting account found"}
	}

	err := s.hosting.TerminateAccount(ctx, state.ExternalID)
	if err == nil {
		return interfaces.TeardownStep{Executed: true, Success: true, Message: "hosting account terminated"}
	}

	// A timed-out terminate can still have gone through server-side;
	// re-probe before declaring failure.
	if errors.Is(err, er.ErrConnectionTimeout) {
		span.LogKV("reprobe", true)
		time.Sleep(terminateReprobeDelay)
		account, probeErr := s.hosting.FindAccountByDomain(ctx, domainName)
		if probeErr == nil && account == nil {
			return interfaces.TeardownStep{Executed: true, Success: true, Message: "hosting account terminated (confirmed after timeout)"}
		}
	}

	tracing.TraceErr(span, err)
	s.log.Errorf("failed to terminate hosting account %s for %s: %v", state.ExternalID, domainName, err)

	reason := fmt.Sprintf("could not remove the hosting account for %s: %s", domainName, err.Error())
	return interfaces.TeardownStep{Executed: true, Success: false, Message: s.localizeReason(ctx, reason)}
}

func (s *teardownService) removeDNSZone(ctx context.Context, domainName string, state interfaces.IntegrationState) interfaces.TeardownStep {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TeardownService.removeDNSZone")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domainName, "zoneID", state.ExternalID)

	if !state.Exists {
		return interfaces.TeardownStep{Executed: false, Message: "no DNS zone found"}
	}

	err := s.dns.DeleteZone(ctx, state.ExternalID)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("failed to delete DNS zone %s for %s: %v", state.ExternalID, domainName, err)
		return interfaces.TeardownStep{Executed: true, Success: false, Message: err.Error()}
	}

	return interfaces.TeardownStep{Executed: true, Success: true, Message: "DNS zone deleted"}
}

func (s *teardownService) deactivateRecord(ctx context.Context, domainID uint64, domainName string) interfaces.TeardownStep {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TeardownService.deactivateRecord")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, fmt.Sprintf("%d", domainID))

	err := s.domainRepo.DeactivateDomain(ctx, domainID)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("failed to deactivate domain %s (%d): %v", domainName, domainID, err)
		return interfaces.TeardownStep{Executed: true, Success: false, Message: err.Error()}
	}

	logErr := s.activityRepo.Create(ctx, &models.ActivityLog{
		Domain: domainName,
		Action: "domain_deactivated",
		Details: models.JSONMap{
			"domainId": domainID,
		},
	})
	if logErr != nil {
		s.log.Warnf("failed to write activity log for %s: %v", domainName, logErr)
	}

	return interfaces.TeardownStep{Executed: true, Success: true, Message: "domain marked deactivated"}
}

// localizeReason translates a failure reason into the configured language,
// falling back to the original text when translation is unavailable.
func (s *teardownService) localizeReason(ctx context.Context, reason string) string {
	if s.domainCfg.NotificationLanguage == "" {
		return reason
	}
	translated, err := s.ai.Translate(ctx, reason, s.domainCfg.NotificationLanguage)
	if err != nil || translated == "" {
		s.log.Warnf("failed to translate failure reason, keeping original: %v", err)
		return reason
	}
	return translated
}

func teardownSummary(result *interfaces.TeardownResult) string {
	if result.OverallSuccess {
		return ""
	}
	return result.Steps[interfaces.TeardownStepRecord].Message
}

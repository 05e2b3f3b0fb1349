package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/siteforge/domainops/config"
	"github.com/siteforge/domainops/interfaces"
	"github.com/siteforge/domainops/internal/enum"
	er "github.com/siteforge/domainops/internal/errors"
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/models"
	"github.com/siteforge/domainops/internal/repository"
	"github.com/siteforge/domainops/internal/retry"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/internal/utils"
)

// purchaseService drives one purchase session through
// generate -> check -> purchase -> provision. Cancellation is polled at the
// start of every iteration, before every retry attempt and immediately
// before the purchase call; a purchase that went through is never rolled
// back.
type purchaseService struct {
	log          logger.Logger
	domainCfg    *config.DomainConfig
	registrarCfg *config.NamecheapConfig
	registrar    interfaces.RegistrarService
	oracle       interfaces.AIService
	provisioner  interfaces.ProvisioningService
	progressRepo repository.ProgressRepository
	sessions     *SessionRegistry
}

func NewPurchaseService(
	log logger.Logger,
	domainCfg *config.DomainConfig,
	registrarCfg *config.NamecheapConfig,
	registrar interfaces.RegistrarService,
	oracle interfaces.AIService,
	provisioner interfaces.ProvisioningService,
	progressRepo repository.ProgressRepository,
	sessions *SessionRegistry,
) interfaces.PurchaseService {
	return &purchaseService{
		log:          log,
		domainCfg:    domainCfg,
		registrarCfg: registrarCfg,
		registrar:    registrar,
		oracle:       oracle,
		provisioner:  provisioner,
		progressRepo: progressRepo,
		sessions:     sessions,
	}
}

func (s *purchaseService) Run(ctx context.Context, request interfaces.PurchaseRequest) *interfaces.PurchaseResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PurchaseService.Run")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.LogObjectAsJson(span, "request", request)

	manualMode := request.ManualDomain != ""
	quantity := request.Quantity
	if manualMode || quantity < 1 {
		quantity = 1
	}
	sessionID := request.SessionID
	if sessionID == "" {
		sessionID = utils.GenerateNanoIDWithPrefix("sess", 21)
	}
	tracing.TagSession(span, sessionID)

	s.sessions.Register(sessionID)
	defer s.sessions.Remove(sessionID)

	result := &interfaces.PurchaseResult{
		TotalRequested: quantity,
	}

	s.writeProgress(ctx, request, sessionID, enum.StepGenerating, enum.StatusInProgress, "Looking for a domain", nil)

	fundsExhausted := false

	for slot := 0; slot < quantity; slot++ {
		if s.sessions.IsCancelled(sessionID) {
			s.finishCancelled(ctx, request, sessionID, result)
			return result
		}

		domain, err := s.acquireDomain(ctx, request, sessionID, manualMode)
		if err != nil {
			switch {
			case errors.Is(err, er.ErrPurchaseCanceled):
				s.finishCancelled(ctx, request, sessionID, result)
				return result
			case errors.Is(err, er.ErrInsufficientFunds):
				// terminal for the whole batch
				s.log.Warnf("session %s: aborting batch, registrar reports insufficient funds", sessionID)
				fundsExhausted = true
			default:
				// slot exhausted its attempts; the batch moves on
				s.log.Warnf("session %s: no domain registered for slot %d: %v", sessionID, slot+1, err)
			}
			if fundsExhausted {
				break
			}
			continue
		}

		result.DomainsRegistered = append(result.DomainsRegistered, domain)
		result.TotalRegistered++

		// The caller-visible "domain is mine" signal never waits on
		// provisioning.
		s.writeProgress(ctx, request, sessionID, enum.StepPurchasing, enum.StatusCompleted,
			fmt.Sprintf("Domain %s registered", domain), &domain)

		outcome := s.provisioner.Setup(ctx, interfaces.ProvisioningRequest{
			Domain:        domain,
			SessionID:     sessionID,
			UserID:        request.UserID,
			TrafficSource: request.TrafficSource,
			Platform:      request.Platform,
		})
		if len(outcome.Errors) > 0 {
			s.log.Warnf("session %s: provisioning of %s finished with %d errors", sessionID, domain, len(outcome.Errors))
		}
	}

	result.Success = result.TotalRegistered > 0

	// A session that registered anything finishes completed, even when the
	// batch was cut short by funds exhaustion.
	switch {
	case result.TotalRegistered > 0:
		message := fmt.Sprintf("Registered %d of %d domains", result.TotalRegistered, result.TotalRequested)
		if fundsExhausted {
			result.Error = er.ErrInsufficientFunds.Error()
			message = fmt.Sprintf("Registered %d of %d domains before funds ran out", result.TotalRegistered, result.TotalRequested)
		}
		s.writeProgress(ctx, request, sessionID, enum.StepCompleted, enum.StatusCompleted, message, lastOf(result.DomainsRegistered))
	case fundsExhausted:
		result.Error = er.ErrInsufficientFunds.Error()
		s.writeProgress(ctx, request, sessionID, enum.StepError, enum.StatusError, "Insufficient funds on registrar account", nil)
	default:
		result.Error = er.ErrNoDomainPurchased.Error()
		s.writeProgress(ctx, request, sessionID, enum.StepError, enum.StatusError, "No domain purchased", nil)
	}

	tracing.LogObjectAsJson(span, "result", result)

	return result
}

// acquireDomain runs the per-slot candidate loop and returns the registered
// domain name. Manual mode fails fast on the first unusable candidate.
func (s *purchaseService) acquireDomain(ctx context.Context, request interfaces.PurchaseRequest, sessionID string, manualMode bool) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PurchaseService.acquireDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagSession(span, sessionID)

	maxAttempts := s.domainCfg.MaxAttempts
	if manualMode {
		maxAttempts = 1
	}

	policy := retry.NewPolicy(maxAttempts, time.Duration(s.domainCfg.RetryBackoffSeconds)*time.Second).
		WithRetryable(func(err error) bool {
			return !errors.Is(err, er.ErrPurchaseCanceled) && !errors.Is(err, er.ErrInsufficientFunds)
		})

	var registered string
	err := policy.Do(ctx, func(attempt int) error {
		if s.sessions.IsCancelled(sessionID) {
			return er.ErrPurchaseCanceled
		}

		candidate, err := s.nextCandidate(ctx, request, sessionID, manualMode, attempt)
		if err != nil {
			return err
		}

		s.writeProgress(ctx, request, sessionID, enum.StepChecking, enum.StatusInProgress,
			fmt.Sprintf("Checking availability of %s", candidate), nil)

		availability, err := s.registrar.CheckAvailability(ctx, candidate)
		if err != nil {
			return errors.Wrapf(err, "availability check failed for %s", candidate)
		}
		if !availability.Available {
			return errors.Wrapf(er.ErrDomainNotAvailable, "domain %s", candidate)
		}
		if !request.Unlimited && availability.Price > s.registrarCfg.MaxPrice {
			return errors.Errorf("domain %s price %.2f exceeds ceiling %.2f", candidate, availability.Price, s.registrarCfg.MaxPrice)
		}

		// Last checkpoint: cancellation must never race past the
		// non-idempotent purchase call.
		if s.sessions.IsCancelled(sessionID) {
			return er.ErrPurchaseCanceled
		}

		s.writeProgress(ctx, request, sessionID, enum.StepPurchasing, enum.StatusInProgress,
			fmt.Sprintf("Purchasing %s", candidate), nil)

		purchase, err := s.registrar.Purchase(ctx, candidate)
		if err != nil {
			return err
		}

		registered = purchase.Domain
		return nil
	})
	if err != nil {
		return "", err
	}
	span.LogKV("result.domain", registered)
	return registered, nil
}

// nextCandidate produces a validated candidate: the caller-supplied name in
// manual mode, otherwise one oracle suggestion. Validation is offline and
// precedes any network call.
func (s *purchaseService) nextCandidate(ctx context.Context, request interfaces.PurchaseRequest, sessionID string, manualMode bool, attempt int) (string, error) {
	if manualMode {
		candidate, err := utils.ValidateCandidateDomain(request.ManualDomain, utils.DomainTLD(request.ManualDomain))
		if err != nil {
			return "", err
		}
		return candidate, nil
	}

	s.writeProgress(ctx, request, sessionID, enum.StepGenerating, enum.StatusInProgress, "Generating a domain name", nil)

	suggestion, err := s.oracle.GenerateDomainName(ctx, interfaces.DomainNameRequest{
		Niche:     request.Niche,
		Language:  request.Language,
		WordCount: 2,
		TLD:       s.domainCfg.TLD,
		Diversify: attempt > 0,
	})
	if err != nil {
		return "", errors.Wrap(err, "name generation failed")
	}
	if suggestion == "" {
		return "", er.ErrNoCandidate
	}

	candidate, err := utils.ValidateCandidateDomain(suggestion, s.domainCfg.TLD)
	if err != nil {
		return "", errors.Wrapf(err, "oracle produced unusable candidate %q", suggestion)
	}
	return candidate, nil
}

func (s *purchaseService) finishCancelled(ctx context.Context, request interfaces.PurchaseRequest, sessionID string, result *interfaces.PurchaseResult) {
	result.Cancelled = true
	result.Success = result.TotalRegistered > 0
	s.writeProgress(ctx, request, sessionID, enum.StepCanceled, enum.StatusCanceled, "Purchase canceled", lastOf(result.DomainsRegistered))
	s.log.Infof("session %s: canceled after registering %d domains", sessionID, result.TotalRegistered)
}

// writeProgress upserts the session's progress row; store failures are
// logged, never fatal to the workflow.
func (s *purchaseService) writeProgress(ctx context.Context, request interfaces.PurchaseRequest, sessionID string, step enum.PurchaseStep, status enum.PurchaseStatus, message string, domainName *string) {
	err := s.progressRepo.UpsertProgress(ctx, repository.ProgressUpdate{
		SessionID:  sessionID,
		UserID:     request.UserID,
		Step:       step,
		Status:     status,
		Message:    message,
		DomainName: domainName,
		Platform:   request.Platform,
	})
	if err != nil {
		s.log.Errorf("session %s: failed to persist progress %s/%s: %v", sessionID, step, status, err)
	}
}

func (s *purchaseService) Cancel(ctx context.Context, sessionID string) bool {
	span, _ := opentracing.StartSpanFromContext(ctx, "PurchaseService.Cancel")
	defer span.Finish()
	tracing.TagSession(span, sessionID)

	known := s.sessions.Cancel(sessionID)
	span.LogKV("result.known", known)
	if known {
		s.log.Infof("session %s: cancellation requested", sessionID)
	}
	return known
}

func (s *purchaseService) GetProgress(ctx context.Context, sessionID string) (*models.PurchaseProgress, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PurchaseService.GetProgress")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagSession(span, sessionID)

	return s.progressRepo.GetProgress(ctx, sessionID)
}

func lastOf(domains []string) *string {
	if len(domains) == 0 {
		return nil
	}
	return &domains[len(domains)-1]
}

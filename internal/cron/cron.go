package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/google/uuid"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/siteforge/domainops/config"
	cron_config "github.com/siteforge/domainops/internal/cron/config"
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/repository"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/services"
)

// CONSTANTS
const (
	// GroupDomainops is the group for domain maintenance jobs
	GroupDomainops = "domainops"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupDomainops: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg      *config.Config
	log      logger.Logger
	cron     *cronv3.Cron
	k8s      kubernetes.Interface
	stopCh   chan struct{}
	jobIDs   map[string]cronv3.EntryID
	services *services.Services
	repos    *repository.Repositories
}

func NewCronManager(cfg *config.Config, log logger.Logger, k8s kubernetes.Interface, svcs *services.Services, repos *repository.Repositories) *CronManager {
	return &CronManager{
		cfg:      cfg,
		log:      log,
		k8s:      k8s,
		stopCh:   make(chan struct{}),
		jobIDs:   make(map[string]cronv3.EntryID),
		services: svcs,
		repos:    repos,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start(podName, namespace string) error {
	// If k8s client is nil or we're in local development, start in local mode
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	identity := podName
	if identity == "" {
		identity = uuid.New().String()
	}

	// Create the leader election lock
	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "domainops-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: identity,
		},
	}

	// Channel to track leader election errors
	errCh := make(chan error, 1)

	// Start leader election
	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		ctx := context.Background()
		le.Run(ctx)
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
		// Leader election seems to be working, continue normally
	}

	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	// Load cron config from environment variables
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	// Register heartbeat job
	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	// Session sweep: evict stale purchase sessions from the registry
	if cronConfig.CronScheduleSessionSweep != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleSessionSweep, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.sweepSessions()
		})
		if err != nil {
			cm.log.Fatalf("Could not add session sweep cron job: %v", err)
		}
		cm.jobIDs["session_sweep"] = id
		cm.log.Infof("Registered session sweep job with schedule: %s", cronConfig.CronScheduleSessionSweep)
	}

	// Registrar dates refresh for domains missing them
	if cronConfig.CronScheduleRegistrarDates != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleRegistrarDates, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupDomainops].Lock()
			defer jobLocks.locks[GroupDomainops].Unlock()
			cm.refreshRegistrarDates()
		})
		if err != nil {
			cm.log.Fatalf("Could not add registrar dates cron job: %v", err)
		}
		cm.jobIDs["registrar_dates"] = id
		cm.log.Infof("Registered registrar dates job with schedule: %s", cronConfig.CronScheduleRegistrarDates)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	// Create a new cron with seconds field enabled and panic recovery
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger), // Skip if still running
			cronv3.Recover(cronv3.DefaultLogger),            // Default recovery as backup
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

func (cm *CronManager) sweepSessions() {
	removed := cm.services.Sessions.Sweep()
	if removed > 0 {
		cm.log.Infof("Session sweep evicted %d stale sessions", removed)
	}
}

func (cm *CronManager) refreshRegistrarDates() {
	cm.log.Info("Running registrar dates refresh")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.refreshRegistrarDates")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	domains, err := cm.repos.DomainRepository.GetActiveDomains(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to list active domains: %v", err)
		return
	}

	refreshed := 0
	for _, domain := range domains {
		if domain.RegisteredAt != nil && domain.ExpiresAt != nil {
			continue
		}
		info, err := cm.services.RegistrarService.GetDomainInfo(ctx, domain.Domain)
		if err != nil || info == nil {
			continue
		}
		registeredAt := parseRegistrarDate(info.CreatedDate)
		expiresAt := parseRegistrarDate(info.ExpiredDate)
		if registeredAt == nil && expiresAt == nil {
			continue
		}
		if err := cm.repos.DomainRepository.SetRegistrarDates(ctx, domain.Domain, registeredAt, expiresAt); err != nil {
			tracing.TraceErr(span, err)
			cm.log.Errorf("Failed to update registrar dates for %s: %v", domain.Domain, err)
			continue
		}
		refreshed++
	}

	cm.log.Infof("Registrar dates refresh completed, updated %d domains", refreshed)
}

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

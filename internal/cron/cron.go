package cron

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go/log"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/interfaces"
	cron_config "github.com/customeros/formlayer/internal/cron/config"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/tracing"
)

// CONSTANTS
const (
	// GroupRelay is the group for jobs touching the option relay
	GroupRelay = "relay"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second

	JobHeartbeat  = "heartbeat"
	JobRelaySweep = "relay_sweep"
	JobHostProbe  = "host_probe"
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupRelay: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg      *config.Config
	cronCfg  *cron_config.Config
	log      logger.Logger
	cron     *cronv3.Cron
	k8s      kubernetes.Interface
	stopCh   chan struct{}
	stopOnce sync.Once
	jobIDs   map[string]cronv3.EntryID
	delivery interfaces.DeliveryService
	status   interfaces.StatusService
}

func NewCronManager(cfg *config.Config, cronCfg *cron_config.Config, log logger.Logger, k8s kubernetes.Interface,
	delivery interfaces.DeliveryService, status interfaces.StatusService) *CronManager {
	if cronCfg == nil {
		cronCfg = &cron_config.Config{}
	}
	return &CronManager{
		cfg:      cfg,
		cronCfg:  cronCfg,
		log:      log,
		k8s:      k8s,
		stopCh:   make(chan struct{}),
		jobIDs:   make(map[string]cronv3.EntryID),
		delivery: delivery,
		status:   status,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start() error {
	k8sCfg := cm.cfg.KubernetesConfig
	if k8sCfg == nil {
		k8sCfg = &config.KubernetesConfig{PodName: "local", LocalDev: true}
	}

	// If k8s client is nil or we're in local development, start in local mode
	if cm.k8s == nil || k8sCfg.LocalDev {
		cm.log.Info("Starting cron manager in local mode")
		return cm.StartCron()
	}

	// Create the leader election lock
	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "formlayer-cron-leader",
			Namespace: k8sCfg.Namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: k8sCfg.PodName,
		},
	}

	// Channel to track leader election errors
	errCh := make(chan error, 1)

	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					if err := cm.StartCron(); err != nil {
						cm.log.Errorf("Failed to start crons as leader: %v", err)
					}
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

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-cm.stopCh
			cancel()
		}()
		le.Run(ctx)
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		return cm.StartCron()
	case <-time.After(5 * time.Second):
		// Leader election seems to be working, continue normally
	}

	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	cm.stopOnce.Do(func() {
		if cm.cron != nil {
			cm.log.Info("Stopping cron manager")
			ctx := cm.cron.Stop()
			// Wait for jobs to finish
			<-ctx.Done()
		}
		close(cm.stopCh)
	})
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) error {
	if cm.cronCfg.CronScheduleHeartbeat != "" {
		podName := "local"
		if cm.cfg.KubernetesConfig != nil && cm.cfg.KubernetesConfig.PodName != "" {
			podName = cm.cfg.KubernetesConfig.PodName
		}
		id, err := c.AddFunc(cm.cronCfg.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			return err
		}
		cm.jobIDs[JobHeartbeat] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cm.cronCfg.CronScheduleHeartbeat)
	}

	if cm.cronCfg.CronScheduleRelaySweep != "" && cm.delivery != nil {
		id, err := c.AddFunc(cm.cronCfg.CronScheduleRelaySweep, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupRelay].Lock()
			defer jobLocks.locks[GroupRelay].Unlock()
			cm.sweepRelay()
		})
		if err != nil {
			return err
		}
		cm.jobIDs[JobRelaySweep] = id
		cm.log.Infof("Registered relay sweep job with schedule: %s", cm.cronCfg.CronScheduleRelaySweep)
	}

	if cm.cronCfg.CronScheduleHostProbe != "" && cm.status != nil {
		id, err := c.AddFunc(cm.cronCfg.CronScheduleHostProbe, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.probeHost()
		})
		if err != nil {
			return err
		}
		cm.jobIDs[JobHostProbe] = id
		cm.log.Infof("Registered host probe job with schedule: %s", cm.cronCfg.CronScheduleHostProbe)
	}
	return nil
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() error {
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
	if err := cm.registerJobs(c); err != nil {
		return err
	}
	c.Start()
	cm.cron = c
	return nil
}

func (cm *CronManager) sweepRelay() {
	span, ctx := tracing.StartTracerSpan(context.Background(), "CronManager.sweepRelay")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	result, err := cm.delivery.Sweep(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to sweep relay: %v", err)
		return
	}
	span.LogFields(log.Int("records", result.Records), log.Int64("expired", result.Expired))
}

func (cm *CronManager) probeHost() {
	span, ctx := tracing.StartTracerSpan(context.Background(), "CronManager.probeHost")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	// failures end up as status notices
	_ = cm.status.Probe(ctx)
}

package jobs

import (
	"context"
	"time"

	"catalog-service/internal/metrics"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultStaleAfter    = 30 * time.Minute
)

// RecoverySweeper puts jobs that were lost from the in-memory queues back
// on them: QUEUED jobs from a previous process, and PROCESSING jobs whose
// worker died
type RecoverySweeper struct {
	importJobs  repository.ImportJobRepositoryInterface
	exportJobs  repository.ExportJobRepositoryInterface
	importQueue services.JobQueue
	exportQueue services.JobQueue
	logger      *logrus.Logger
	interval    time.Duration
	staleAfter  time.Duration
	stopCh      chan struct{}
	now         func() time.Time
}

// NewRecoverySweeper creates a new recovery sweeper
func NewRecoverySweeper(
	importJobs repository.ImportJobRepositoryInterface,
	exportJobs repository.ExportJobRepositoryInterface,
	importQueue, exportQueue services.JobQueue,
	interval, staleAfter time.Duration,
	logger *logrus.Logger,
) *RecoverySweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RecoverySweeper{
		importJobs:  importJobs,
		exportJobs:  exportJobs,
		importQueue: importQueue,
		exportQueue: exportQueue,
		logger:      logger,
		interval:    interval,
		staleAfter:  staleAfter,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}
}

// Start runs a sweep immediately and then on every tick until stopped
func (j *RecoverySweeper) Start(ctx context.Context) {
	j.logger.Info("Job recovery sweeper started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			j.RunOnce(ctx)
		case <-j.stopCh:
			j.logger.Info("Job recovery sweeper stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Job recovery sweeper context cancelled")
			return
		}
	}
}

// Stop signals the sweeper to stop
func (j *RecoverySweeper) Stop() {
	close(j.stopCh)
}

// RunOnce performs a single sweep and returns how many jobs were re-enqueued
func (j *RecoverySweeper) RunOnce(ctx context.Context) int {
	staleBefore := j.now().Add(-j.staleAfter)
	recovered := 0

	if j.importJobs != nil && j.importQueue != nil {
		recovered += j.sweep(metrics.KindImport, j.importQueue,
			func() ([]uuid.UUID, error) {
				return j.importJobs.ListIDsByStatus(ctx, models.ImportStatusQueued, nil)
			},
			func() ([]uuid.UUID, error) {
				return j.importJobs.ListIDsByStatus(ctx, models.ImportStatusProcessing, &staleBefore)
			},
			func(id uuid.UUID) (bool, error) {
				return j.importJobs.TransitionStatus(ctx, id, models.ImportStatusProcessing, models.ImportStatusQueued)
			},
		)
	}

	if j.exportJobs != nil && j.exportQueue != nil {
		recovered += j.sweep(metrics.KindExport, j.exportQueue,
			func() ([]uuid.UUID, error) {
				return j.exportJobs.ListIDsByStatus(ctx, models.ExportStatusQueued, nil)
			},
			func() ([]uuid.UUID, error) {
				return j.exportJobs.ListIDsByStatus(ctx, models.ExportStatusProcessing, &staleBefore)
			},
			func(id uuid.UUID) (bool, error) {
				return j.exportJobs.TransitionStatus(ctx, id, models.ExportStatusProcessing, models.ExportStatusQueued)
			},
		)
	}

	if recovered > 0 {
		j.logger.Infof("Recovered %d catalog jobs", recovered)
	} else {
		j.logger.Debug("No catalog jobs needed recovery")
	}
	return recovered
}

func (j *RecoverySweeper) sweep(
	kind string,
	q services.JobQueue,
	listQueued func() ([]uuid.UUID, error),
	listStale func() ([]uuid.UUID, error),
	requeue func(id uuid.UUID) (bool, error),
) int {
	recovered := 0

	queued, err := listQueued()
	if err != nil {
		j.logger.Errorf("Failed to list queued %s jobs: %v", kind, err)
	}
	for _, id := range queued {
		if err := q.Enqueue(id); err != nil {
			j.logger.Errorf("Failed to re-enqueue %s job %s: %v", kind, id, err)
			continue
		}
		metrics.JobsRecovered.WithLabelValues(kind, "QUEUED").Inc()
		recovered++
	}

	stale, err := listStale()
	if err != nil {
		j.logger.Errorf("Failed to list stale %s jobs: %v", kind, err)
	}
	for _, id := range stale {
		moved, err := requeue(id)
		if err != nil {
			j.logger.Errorf("Failed to reset stale %s job %s: %v", kind, id, err)
			continue
		}
		if !moved {
			continue
		}
		if err := q.Enqueue(id); err != nil {
			j.logger.Errorf("Failed to re-enqueue %s job %s: %v", kind, id, err)
			continue
		}
		metrics.JobsRecovered.WithLabelValues(kind, "PROCESSING").Inc()
		recovered++
	}

	return recovered
}

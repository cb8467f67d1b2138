package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/shoptrack/shoptrack/internal/analytics"
)

// Reconciler rebuilds one tenant's analytics summary.
type Reconciler interface {
	Reconcile(ctx context.Context, tenantID string) (analytics.Summary, error)
}

// TenantLister enumerates tenant ids for the fan-out path.
type TenantLister interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
}

// ReconcileJob handles analytics:reconcile tasks. Each tenant's rebuild is
// its own transaction, so one failing tenant never blocks the rest.
type ReconcileJob struct {
	Analytics Reconciler
	Tenants   TenantLister
	Logger    *slog.Logger
}

// NewReconcileJob wires dependencies for the reconcile handler.
func NewReconcileJob(analyticsSvc Reconciler, tenants TenantLister, logger *slog.Logger) *ReconcileJob {
	return &ReconcileJob{Analytics: analyticsSvc, Tenants: tenants, Logger: logger}
}

// Handle processes TaskAnalyticsReconcile tasks.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("reconcile: handler not configured")
	}
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.TenantID == "" {
		return asynq.SkipRetry
	}

	logger := j.logger()
	started := time.Now()

	if payload.TenantID != ReconcileAllTenants {
		if err := j.reconcileOne(ctx, payload.TenantID); err != nil {
			logger.Error("reconcile tenant", slog.String("tenant_id", payload.TenantID), slog.Any("error", err))
			return err
		}
		return nil
	}

	if j.Tenants == nil {
		return errors.New("reconcile: tenant lister not configured")
	}
	ids, err := j.Tenants.ListTenantIDs(ctx)
	if err != nil {
		logger.Error("list tenants for reconcile", slog.Any("error", err))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range ids {
		g.Go(func() error {
			return j.reconcileOne(gctx, id)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("reconcile fan-out", slog.Any("error", err))
		return err
	}

	logger.Info("completed reconcile fan-out",
		slog.Int("tenants", len(ids)),
		slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *ReconcileJob) reconcileOne(ctx context.Context, tenantID string) error {
	tenantCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := j.Analytics.Reconcile(tenantCtx, tenantID)
	return err
}

func (j *ReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsReconcile))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsReconcile))
}

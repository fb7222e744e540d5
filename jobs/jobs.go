package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const jobTimeout = 5 * time.Minute

type PlanExpirer interface {
	ExpireLapsedPlans(ctx context.Context) (int, error)
}

type PendingPaymentCleaner interface {
	CleanupStalePendingPayments(ctx context.Context, ttl time.Duration) (int, error)
}

// Jobs holds the periodic maintenance tasks.
type Jobs struct {
	plans      PlanExpirer
	payments   PendingPaymentCleaner
	pendingTTL time.Duration
	logger     *logrus.Entry
}

func NewJobs(plans PlanExpirer, payments PendingPaymentCleaner, pendingTTL time.Duration, logger *logrus.Logger) *Jobs {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Jobs{
		plans:      plans,
		payments:   payments,
		pendingTTL: pendingTTL,
		logger:     logger.WithField("component", "jobs"),
	}
}

// ExpirePlans marks lapsed plans Expired and refreshes planActive.
func (j *Jobs) ExpirePlans() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	changed, err := j.plans.ExpireLapsedPlans(ctx)
	if err != nil {
		j.logger.WithError(err).Error("Plan expiry sweep failed")
		return
	}
	j.logger.WithFields(logrus.Fields{
		"accounts": changed,
		"duration": time.Since(start).String(),
	}).Info("Plan expiry sweep finished")
}

// CleanupPendingPayments drops pending orders older than the configured TTL.
func (j *Jobs) CleanupPendingPayments() {
	if j.pendingTTL <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := j.payments.CleanupStalePendingPayments(ctx, j.pendingTTL)
	if err != nil {
		j.logger.WithError(err).Error("Pending payment cleanup failed")
		return
	}
	j.logger.WithField("removed", removed).Info("Pending payment cleanup finished")
}

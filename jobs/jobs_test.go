package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlans struct {
	calls int32
	err   error
}

func (f *fakePlans) ExpireLapsedPlans(ctx context.Context) (int, error) {
	atomic.AddInt32(&f.calls, 1)
	return 2, f.err
}

type fakePayments struct {
	calls int32
	ttl   time.Duration
}

func (f *fakePayments) CleanupStalePendingPayments(ctx context.Context, ttl time.Duration) (int, error) {
	atomic.AddInt32(&f.calls, 1)
	f.ttl = ttl
	return 1, nil
}

func TestExpirePlansLogs(t *testing.T) {
	logger, hook := test.NewNullLogger()
	plans := &fakePlans{}
	j := NewJobs(plans, &fakePayments{}, time.Hour, logger)

	j.ExpirePlans()
	assert.Equal(t, int32(1), plans.calls)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, 2, hook.LastEntry().Data["accounts"])

	plans.err = errors.New("db down")
	j.ExpirePlans()
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestCleanupPendingPayments(t *testing.T) {
	logger, _ := test.NewNullLogger()
	payments := &fakePayments{}

	NewJobs(&fakePlans{}, payments, 48*time.Hour, logger).CleanupPendingPayments()
	assert.Equal(t, int32(1), payments.calls)
	assert.Equal(t, 48*time.Hour, payments.ttl)

	NewJobs(&fakePlans{}, payments, 0, logger).CleanupPendingPayments()
	assert.Equal(t, int32(1), payments.calls)
}

func TestSchedulerRegister(t *testing.T) {
	logger, _ := test.NewNullLogger()
	j := NewJobs(&fakePlans{}, &fakePayments{}, time.Hour, logger)

	n, err := NewScheduler(j, Schedules{PlanExpiry: "@every 1h", PendingCleanup: "@every 6h"}, logger).Register()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = NewScheduler(j, Schedules{PlanExpiry: "@every 1h"}, logger).Register()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = NewScheduler(j, Schedules{PlanExpiry: "not a schedule"}, logger).Register()
	assert.Error(t, err)
}

func TestSchedulerRunsJobs(t *testing.T) {
	logger, _ := test.NewNullLogger()
	plans := &fakePlans{}
	s := NewScheduler(NewJobs(plans, &fakePayments{}, time.Hour, logger), Schedules{PlanExpiry: "@every 1s"}, logger)
	_, err := s.Register()
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&plans.calls) > 0
	}, 3*time.Second, 50*time.Millisecond)
}

package services

import (
	"context"
	"math"
	"testing"
	"time"

	"agrispray/events"
	"agrispray/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseDurationMonths(t *testing.T) {
	tests := map[string]int{
		"1":        1,
		"3 months": 3,
		"12":       12,
		"":         1,
		"0":        1,
		"monthly":  1,
		"-2":       2,
		"120":      120,
		"121":      1,

		"2305843009213693952": 1,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseDurationMonths(in), in)
	}
}

func TestSpraysPerMonth(t *testing.T) {
	tests := []struct {
		title  string
		planID string
		want   int
	}{
		{title: "Starter Plan", want: 2},
		{title: "Pro Plan", want: 3},
		{title: "Premium Plan", want: 4},
		{title: "PREMIUM", want: 4},
		{title: "Basic", planID: "pro-monthly", want: 3},
		{title: "Starter 5 Spray Pack", want: 5},
		{title: "Family", planID: "6-sprays", want: 6},
		{title: "Basic", want: 1},
		{title: "Premium 5000 Spray", want: 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SpraysPerMonth(tt.title, tt.planID), tt.title+"/"+tt.planID)
	}
}

func TestValidateDuration(t *testing.T) {
	for _, raw := range []string{"", "1", "12 months", "120", "0120", "monthly"} {
		assert.NoError(t, ValidateDuration(raw), raw)
	}
	for _, raw := range []string{"121", "1000", "2305843009213693952", "99999999999999999999999"} {
		assert.ErrorIs(t, ValidateDuration(raw), ErrInvalidDuration, raw)
	}
}

func TestPlanQuotaSaturates(t *testing.T) {
	assert.Equal(t, 12, planQuota(4, 3))
	assert.Equal(t, 0, planQuota(4, 0))
	assert.Equal(t, math.MaxInt32, planQuota(math.MaxInt32, 2))
}

func TestActivatePlanExpiresPreviousActive(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	account := &models.Account{}

	first := activatePlan(account, PlanDescriptor{PlanID: "starter", Title: "Starter Plan", Duration: "2 months"}, now)
	assert.Equal(t, 4, first.SpraysAllowed)
	assert.Equal(t, now.AddDate(0, 2, 0), *first.EndDate)

	second := activatePlan(account, PlanDescriptor{PlanID: "premium", Title: "Premium Plan", Duration: ""}, now)
	assert.Equal(t, 4, second.SpraysAllowed)
	assert.Equal(t, 1, second.Months)
	assert.Equal(t, "1", second.Duration)

	require.Len(t, account.PurchasedPlans, 2)
	assert.Equal(t, models.PlanStatusExpired, account.PurchasedPlans[0].Status)
	assert.Equal(t, models.PlanStatusActive, account.PurchasedPlans[1].Status)
	assert.Equal(t, 1, countActive(account, now))
	assert.True(t, account.PlanActive)
}

func TestAdjustQuotaBounds(t *testing.T) {
	plan := &models.Plan{SpraysAllowed: 2}

	require.NoError(t, adjustQuota(plan, 2))
	assert.Equal(t, 2, plan.SpraysUsed)

	err := adjustQuota(plan, 1)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "Only 0 sprays remaining")
	assert.Equal(t, 2, plan.SpraysUsed)

	require.NoError(t, adjustQuota(plan, -5))
	assert.Equal(t, 0, plan.SpraysUsed)
}

func TestPlanServiceActivatePlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.createAccount(t, models.RoleFarmer)

	plan, err := env.plans.ActivatePlan(ctx, farmer.ID, PlanDescriptor{PlanID: "starter", Title: "Starter Plan", Duration: "1"})
	require.NoError(t, err)
	assert.Equal(t, 2, plan.SpraysAllowed)

	_, err = env.plans.ActivatePlan(ctx, farmer.ID, PlanDescriptor{PlanID: "pro", Title: "Pro Plan", Duration: "1"})
	require.NoError(t, err)

	stored := env.account(t, farmer.ID)
	assert.Equal(t, 1, countActive(stored, env.clock.Now()))
	assert.Equal(t, "pro", activePlanOf(t, stored, env.clock.Now()).PlanID)
	assert.Contains(t, env.publisher.Keys(), events.PlanActivated)

	_, err = env.plans.ActivatePlan(ctx, primitive.NewObjectID(), PlanDescriptor{Title: "Starter"})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestPlanServicePurchasePlanRejectsWhileActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.createAccount(t, models.RoleFarmer)

	_, err := env.plans.PurchasePlan(ctx, farmer.ID, models.PurchasePlanRequest{PlanID: "starter", Title: "Starter Plan", Price: "499", Duration: "1"})
	require.NoError(t, err)

	_, err = env.plans.PurchasePlan(ctx, farmer.ID, models.PurchasePlanRequest{PlanID: "pro", Title: "Pro Plan", Price: "799", Duration: "1"})
	assert.ErrorIs(t, err, ErrActiveAlreadyExists)
	assert.Len(t, env.account(t, farmer.ID).PurchasedPlans, 1)

	// Once the first plan lapses a new purchase goes through.
	env.clock.Advance(32 * 24 * time.Hour)
	_, err = env.plans.PurchasePlan(ctx, farmer.ID, models.PurchasePlanRequest{PlanID: "pro", Title: "Pro Plan", Price: "799", Duration: "1"})
	require.NoError(t, err)

	stored := env.account(t, farmer.ID)
	require.Len(t, stored.PurchasedPlans, 2)
	assert.Equal(t, models.PlanStatusExpired, stored.PurchasedPlans[0].Status)
	assert.Equal(t, 1, countActive(stored, env.clock.Now()))
}

func TestPlanServicePurchasePlanRejectsLongDuration(t *testing.T) {
	env := newTestEnv(t)
	farmer := env.createAccount(t, models.RoleFarmer)

	_, err := env.plans.PurchasePlan(context.Background(), farmer.ID, models.PurchasePlanRequest{
		PlanID:   "premium",
		Title:    "Premium Plan",
		Duration: "2305843009213693952",
	})
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.Empty(t, env.account(t, farmer.ID).PurchasedPlans)

	plan, err := env.plans.PurchasePlan(context.Background(), farmer.ID, models.PurchasePlanRequest{
		PlanID:   "premium",
		Title:    "Premium Plan",
		Duration: "120",
	})
	require.NoError(t, err)
	assert.Equal(t, 480, plan.SpraysAllowed)
	assert.Equal(t, env.clock.Now().AddDate(10, 0, 0), *plan.EndDate)
}

func TestPlanServiceAdjustQuota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.farmerWithPlan(t, "Starter Plan")

	plan, err := env.plans.AdjustQuota(ctx, farmer.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.SpraysUsed)

	_, err = env.plans.AdjustQuota(ctx, farmer.ID, 1)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	noPlan := env.createAccount(t, models.RoleFarmer)
	_, err = env.plans.AdjustQuota(ctx, noPlan.ID, 1)
	assert.ErrorIs(t, err, ErrNoActivePlan)
}

func TestExpireLapsedPlans(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lapsing := env.farmerWithPlan(t, "Starter Plan")

	env.clock.Advance(20 * 24 * time.Hour)
	fresh := env.farmerWithPlan(t, "Pro Plan")

	env.clock.Advance(15 * 24 * time.Hour)
	changed, err := env.plans.ExpireLapsedPlans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	stored := env.account(t, lapsing.ID)
	assert.False(t, stored.PlanActive)
	assert.Equal(t, models.PlanStatusExpired, stored.PurchasedPlans[0].Status)
	assert.True(t, env.account(t, fresh.ID).PlanActive)
	assert.Contains(t, env.publisher.Keys(), events.PlanExpired)

	changed, err = env.plans.ExpireLapsedPlans(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

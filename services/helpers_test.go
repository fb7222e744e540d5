package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"agrispray/gateway"
	"agrispray/models"
	"agrispray/repository"
	"agrispray/utils"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	testKeySecret     = "rzp_test_secret"
	testWebhookSecret = "whsec_test"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type testEnv struct {
	accounts  *repository.MemoryAccountStore
	bookings  *repository.MemoryBookingStore
	gateway   *gateway.SandboxGateway
	publisher *recordingPublisher
	clock     *fakeClock
	logHook   *test.Hook
	deps      Dependencies

	plans    *PlanService
	booking  *BookingService
	payments *PaymentService
	auth     *AuthService
	users    *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	utils.SetBcryptCost(bcrypt.MinCost)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	env := &testEnv{
		accounts:  repository.NewMemoryAccountStore(),
		bookings:  repository.NewMemoryBookingStore(),
		gateway:   gateway.NewSandboxGateway(),
		publisher: &recordingPublisher{},
		clock:     &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
		logHook:   hook,
	}
	deps := Dependencies{
		Accounts:  env.accounts,
		Bookings:  env.bookings,
		Publisher: env.publisher,
		Logger:    logger,
		Clock:     env.clock.Now,
	}
	env.deps = deps
	env.plans = NewPlanService(deps)
	env.booking = NewBookingService(deps)
	env.payments = NewPaymentService(deps, env.gateway, nil, PaymentConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
		Currency:      "INR",
	})
	env.auth = NewAuthService(deps)
	env.users = NewUserService(deps)
	return env
}

func (env *testEnv) createAccount(t *testing.T, role string) *models.Account {
	t.Helper()
	id := primitive.NewObjectID()
	account := newAccount("Test "+role, id.Hex()+"@example.com", "9876543210", "hash", role, env.clock.Now())
	account.ID = id
	require.NoError(t, env.accounts.Create(context.Background(), account))
	return account
}

func (env *testEnv) account(t *testing.T, id primitive.ObjectID) *models.Account {
	t.Helper()
	account, err := env.accounts.FindByID(context.Background(), id)
	require.NoError(t, err)
	return account
}

func (env *testEnv) farmerWithPlan(t *testing.T, title string) *models.Account {
	t.Helper()
	farmer := env.createAccount(t, models.RoleFarmer)
	_, err := env.plans.ActivatePlan(context.Background(), farmer.ID, PlanDescriptor{PlanID: "plan_" + title, Title: title, Price: "499", Duration: "1"})
	require.NoError(t, err)
	return farmer
}

func activePlanOf(t *testing.T, account *models.Account, now time.Time) *models.Plan {
	t.Helper()
	plan := FindUsableActivePlan(account, now)
	require.NotNil(t, plan)
	return plan
}

func countActive(account *models.Account, now time.Time) int {
	n := 0
	for i := range account.PurchasedPlans {
		if account.PurchasedPlans[i].IsUsable(now) {
			n++
		}
	}
	return n
}

func bookReq(sprays int) models.BookServiceRequest {
	return models.BookServiceRequest{
		Field:       "North plot",
		Address:     "Village road 4",
		Pincode:     "560001",
		SpraysCount: sprays,
	}
}

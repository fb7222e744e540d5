package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"agrispray/events"
	"agrispray/gateway"
	"agrispray/models"
	"agrispray/repository"
	"agrispray/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanDescriptor identifies the plan being purchased or activated.
type PlanDescriptor struct {
	PlanID   string
	Title    string
	Price    string
	Duration string
	OrderID  string
}

var explicitSprays = regexp.MustCompile(`(?i)(\d+)\s*-?\s*sprays?\b`)

// Sprays per month granted by plan keywords, checked in order.
var planKeywords = []struct {
	keyword string
	sprays  int
}{
	{"premium", 4},
	{"starter", 2},
	{"pro", 3},
}

const (
	defaultSpraysPerMonth = 1
	maxSpraysPerMonth     = 1000

	// MaxPlanMonths is the longest plan that can be purchased.
	MaxPlanMonths = 120
)

// ParseDurationMonths reads the digits of a duration such as "3 months".
// Missing, zero, unparseable or out of range durations fall back to one month.
func ParseDurationMonths(raw string) int {
	if months := utils.DigitsOnly(raw); months > 0 && months <= MaxPlanMonths {
		return months
	}
	return 1
}

// ValidateDuration rejects durations whose digits exceed MaxPlanMonths.
// Durations without digits are accepted and fall back to one month.
func ValidateDuration(raw string) error {
	digits := strings.TrimLeft(strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw), "0")
	if len(digits) > 3 || utils.DigitsOnly(digits) > MaxPlanMonths {
		return ErrInvalidDuration
	}
	return nil
}

// planQuota multiplies the monthly quota by the plan length, saturating
// instead of overflowing.
func planQuota(perMonth, months int) int {
	if perMonth <= 0 || months <= 0 {
		return 0
	}
	if perMonth > math.MaxInt32/months {
		return math.MaxInt32
	}
	return perMonth * months
}

// SpraysPerMonth derives the monthly quota from the plan title or id. An
// explicit "<N> Spray" in either wins over the keyword table.
func SpraysPerMonth(title, planID string) int {
	for _, source := range []string{title, planID} {
		if m := explicitSprays.FindStringSubmatch(source); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n <= maxSpraysPerMonth {
				return n
			}
		}
	}
	for _, source := range []string{title, planID} {
		lower := strings.ToLower(source)
		for _, k := range planKeywords {
			if strings.Contains(lower, k.keyword) {
				return k.sprays
			}
		}
	}
	return defaultSpraysPerMonth
}

// FindUsableActivePlan returns the first Active plan that has not ended, or nil.
// The pointer refers into account.PurchasedPlans.
func FindUsableActivePlan(account *models.Account, now time.Time) *models.Plan {
	for i := range account.PurchasedPlans {
		if account.PurchasedPlans[i].IsUsable(now) {
			return &account.PurchasedPlans[i]
		}
	}
	return nil
}

// activatePlan expires every Active plan and appends a fresh one.
func activatePlan(account *models.Account, desc PlanDescriptor, now time.Time) models.Plan {
	for i := range account.PurchasedPlans {
		if account.PurchasedPlans[i].Status == models.PlanStatusActive {
			account.PurchasedPlans[i].Status = models.PlanStatusExpired
		}
	}

	months := ParseDurationMonths(desc.Duration)
	end := now.AddDate(0, months, 0)
	plan := models.Plan{
		PlanID:        desc.PlanID,
		Title:         desc.Title,
		Price:         desc.Price,
		Duration:      desc.Duration,
		Months:        months,
		StartDate:     now,
		EndDate:       &end,
		Status:        models.PlanStatusActive,
		SpraysAllowed: planQuota(SpraysPerMonth(desc.Title, desc.PlanID), months),
		SpraysUsed:    0,
		OrderID:       desc.OrderID,
	}
	if plan.Duration == "" {
		plan.Duration = strconv.Itoa(months)
	}

	account.PurchasedPlans = append(account.PurchasedPlans, plan)
	account.PlanActive = true
	return plan
}

// adjustQuota moves spraysUsed by delta, clamped at zero. Consumption fails
// when fewer than delta sprays remain.
func adjustQuota(plan *models.Plan, delta int) error {
	if delta > 0 && plan.Remaining() < delta {
		return ErrQuotaExceeded.WithMessage(fmt.Sprintf("Only %d sprays remaining on your plan", plan.Remaining()))
	}
	plan.SpraysUsed += delta
	if plan.SpraysUsed < 0 {
		plan.SpraysUsed = 0
	}
	return nil
}

// PlanActivatedEvent is published whenever a plan becomes active.
type PlanActivatedEvent struct {
	UserID        string    `json:"userId"`
	PlanID        string    `json:"planId"`
	Title         string    `json:"title"`
	SpraysAllowed int       `json:"spraysAllowed"`
	EndDate       time.Time `json:"endDate"`
	OrderID       string    `json:"orderId,omitempty"`
}

func planActivatedEvent(userID primitive.ObjectID, plan models.Plan) PlanActivatedEvent {
	return PlanActivatedEvent{
		UserID:        userID.Hex(),
		PlanID:        plan.PlanID,
		Title:         plan.Title,
		SpraysAllowed: plan.SpraysAllowed,
		EndDate:       *plan.EndDate,
		OrderID:       plan.OrderID,
	}
}

type PlanService struct {
	*BaseService
}

func NewPlanService(deps Dependencies) *PlanService {
	return &PlanService{BaseService: NewBaseService(deps, "plans")}
}

// ActivatePlan replaces any Active plan on the account with a new one.
func (ps *PlanService) ActivatePlan(ctx context.Context, userID primitive.ObjectID, desc PlanDescriptor) (*models.Plan, error) {
	ctx, cancel := ps.withTimeout(ctx)
	defer cancel()

	var plan models.Plan
	_, err := ps.mutateAccount(ctx, userID, func(account *models.Account) error {
		plan = activatePlan(account, desc, ps.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	ps.logger.WithFields(logrus.Fields{
		"user_id": userID.Hex(),
		"plan_id": plan.PlanID,
		"sprays":  plan.SpraysAllowed,
	}).Info("Plan activated")
	ps.publish(ctx, events.PlanActivated, planActivatedEvent(userID, plan))
	return &plan, nil
}

// PurchasePlan activates a plan for a farmer who has no usable active plan.
func (ps *PlanService) PurchasePlan(ctx context.Context, userID primitive.ObjectID, req models.PurchasePlanRequest) (*models.Plan, error) {
	ctx, cancel := ps.withTimeout(ctx)
	defer cancel()

	if req.Price != "" {
		if _, err := gateway.ToMinorUnits(string(req.Price)); err != nil {
			return nil, ErrInvalidPrice
		}
	}
	if err := ValidateDuration(req.Duration); err != nil {
		return nil, err
	}

	desc := PlanDescriptor{
		PlanID:   strings.TrimSpace(req.PlanID),
		Title:    strings.TrimSpace(req.Title),
		Price:    string(req.Price),
		Duration: req.Duration,
	}

	var plan models.Plan
	_, err := ps.mutateAccount(ctx, userID, func(account *models.Account) error {
		now := ps.now()
		if FindUsableActivePlan(account, now) != nil {
			return ErrActiveAlreadyExists
		}
		plan = activatePlan(account, desc, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ps.publish(ctx, events.PlanActivated, planActivatedEvent(userID, plan))
	return &plan, nil
}

// AdjustQuota changes spraysUsed on the account's usable active plan.
func (ps *PlanService) AdjustQuota(ctx context.Context, userID primitive.ObjectID, delta int) (*models.Plan, error) {
	ctx, cancel := ps.withTimeout(ctx)
	defer cancel()

	var plan models.Plan
	_, err := ps.mutateAccount(ctx, userID, func(account *models.Account) error {
		active := FindUsableActivePlan(account, ps.now())
		if active == nil {
			return ErrNoActivePlan
		}
		if err := adjustQuota(active, delta); err != nil {
			return err
		}
		plan = *active
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ExpireLapsedPlans marks Active plans past their end date as Expired and
// refreshes planActive. It returns the number of accounts changed.
func (ps *PlanService) ExpireLapsedPlans(ctx context.Context) (int, error) {
	active := true
	accounts, err := ps.accounts.List(ctx, repository.AccountFilter{PlanActive: &active})
	if err != nil {
		return 0, internalError(err)
	}

	changed := 0
	for _, candidate := range accounts {
		var expired []models.Plan
		_, err := ps.mutateAccount(ctx, candidate.ID, func(account *models.Account) error {
			expired = expired[:0]
			now := ps.now()
			for i := range account.PurchasedPlans {
				p := &account.PurchasedPlans[i]
				if p.Status == models.PlanStatusActive && !p.IsUsable(now) {
					p.Status = models.PlanStatusExpired
					expired = append(expired, *p)
				}
			}
			wasActive := account.PlanActive
			account.RefreshPlanActive(now)
			if len(expired) == 0 && wasActive == account.PlanActive {
				return repository.ErrSkipWrite
			}
			return nil
		})
		if err != nil {
			ps.logger.WithError(err).WithField("user_id", candidate.ID.Hex()).Warn("Failed to expire plans")
			continue
		}
		if len(expired) > 0 {
			changed++
			for _, p := range expired {
				ps.publish(ctx, events.PlanExpired, map[string]string{"userId": candidate.ID.Hex(), "planId": p.PlanID})
			}
		}
	}
	return changed, nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"agrispray/events"
	"agrispray/gateway"
	"agrispray/models"
	"agrispray/repository"
	"agrispray/storage"
	"agrispray/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentSourceVerify  = "verify"
	PaymentSourceWebhook = "webhook"
)

// PaymentConfig carries the gateway credentials the service signs with.
type PaymentConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
}

// VerifyResult reports the outcome of a client payment confirmation.
type VerifyResult struct {
	Plan             *models.Plan `json:"plan"`
	AlreadyProcessed bool         `json:"alreadyProcessed"`
}

// WebhookResult reports what a webhook delivery did.
type WebhookResult struct {
	Event    string `json:"event"`
	Recorded bool   `json:"recorded"`
	Ignored  bool   `json:"ignored"`
}

// PaymentRecordedEvent is published when a payment record is appended.
type PaymentRecordedEvent struct {
	UserID    string `json:"userId"`
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Source    string `json:"source"`
}

type PaymentService struct {
	*BaseService
	gateway gateway.Gateway
	archive storage.Archive
	config  PaymentConfig
}

func NewPaymentService(deps Dependencies, gw gateway.Gateway, archive storage.Archive, cfg PaymentConfig) *PaymentService {
	if archive == nil {
		archive = storage.NopArchive{}
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &PaymentService{
		BaseService: NewBaseService(deps, "payments"),
		gateway:     gw,
		archive:     archive,
		config:      cfg,
	}
}

// CreateOrder opens a gateway order whose notes identify the buyer and plan.
func (ps *PaymentService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.OrderResponse, error) {
	ctx, cancel := ps.withTimeout(ctx)
	defer cancel()

	userID, err := utils.StringToObjectID(req.UserID)
	if err != nil {
		return nil, ErrValidation.WithMessage("Invalid userId")
	}
	amount, err := gateway.ToMinorUnits(string(req.Price))
	if err != nil {
		return nil, ErrInvalidPrice
	}
	if err := ValidateDuration(req.Duration); err != nil {
		return nil, err
	}

	account, err := ps.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if FindUsableActivePlan(account, ps.now()) != nil {
		return nil, ErrActiveAlreadyExists
	}

	notes := map[string]string{
		gateway.NoteUserID:    userID.Hex(),
		gateway.NotePlanID:    strings.TrimSpace(req.PlanID),
		gateway.NotePlanTitle: strings.TrimSpace(req.Title),
		gateway.NotePlanPrice: string(req.Price),
	}
	if d := strings.TrimSpace(req.Duration); d != "" {
		notes[gateway.NotePlanDuration] = d
	}

	order, err := ps.gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   amount,
		Currency: ps.config.Currency,
		Receipt:  "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Notes:    notes,
	})
	if err != nil {
		ps.logger.WithError(err).WithField("user_id", userID.Hex()).Error("Gateway order creation failed")
		return nil, &AppError{Kind: KindInternal, Code: ErrGateway.Code, Message: ErrGateway.Message, Err: err}
	}

	// The gateway order is authoritative; the pending entry only helps support.
	_, err = ps.mutateAccount(ctx, userID, func(account *models.Account) error {
		account.PendingPayments = append(account.PendingPayments, models.PendingPayment{
			OrderID:   order.ID,
			PlanID:    notes[gateway.NotePlanID],
			Amount:    order.Amount,
			Currency:  order.Currency,
			CreatedAt: ps.now(),
		})
		return nil
	})
	if err != nil {
		ps.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":  userID.Hex(),
			"order_id": order.ID,
		}).Warn("Failed to record pending payment")
	}

	return &models.OrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		KeyID:    ps.config.KeyID,
	}, nil
}

// VerifyPayment checks the checkout signature and activates the purchased plan
// from the order's own notes. A repeat call for an already activated order is
// answered without changing the account.
func (ps *PaymentService) VerifyPayment(ctx context.Context, req models.VerifyPaymentRequest) (*VerifyResult, error) {
	ctx, cancel := ps.withTimeout(ctx)
	defer cancel()

	if !gateway.VerifyPaymentSignature(ps.config.KeySecret, req.OrderID, req.PaymentID, req.Signature) {
		ps.logger.WithField("order_id", req.OrderID).Warn("Payment signature mismatch")
		return nil, ErrInvalidSignature
	}

	order, err := ps.fetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	userID, err := userFromNotes(order.Notes)
	if err != nil {
		return nil, err
	}

	price := order.Notes[gateway.NotePlanPrice]
	if price == "" {
		price = gateway.FromMinorUnits(order.Amount)
	}
	desc := PlanDescriptor{
		PlanID:   order.Notes[gateway.NotePlanID],
		Title:    order.Notes[gateway.NotePlanTitle],
		Price:    price,
		Duration: order.Notes[gateway.NotePlanDuration],
		OrderID:  order.ID,
	}
	record := models.PaymentRecord{
		OrderID:   order.ID,
		PaymentID: req.PaymentID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Source:    PaymentSourceVerify,
		Notes:     order.Notes,
	}

	var (
		result        VerifyResult
		rejected      bool
		recordAdded   bool
		activatedPlan models.Plan
	)
	_, err = ps.mutateAccount(ctx, userID, func(account *models.Account) error {
		now := ps.now()
		result, rejected, recordAdded = VerifyResult{}, false, false

		for i := range account.PurchasedPlans {
			if account.PurchasedPlans[i].OrderID == order.ID {
				plan := account.PurchasedPlans[i]
				result = VerifyResult{Plan: &plan, AlreadyProcessed: true}
				if !account.RemovePendingPayment(order.ID) {
					return repository.ErrSkipWrite
				}
				return nil
			}
		}

		if FindUsableActivePlan(account, now) != nil {
			rejected = true
			if !account.RemovePendingPayment(order.ID) {
				return repository.ErrSkipWrite
			}
			return nil
		}

		activatedPlan = activatePlan(account, desc, now)
		result = VerifyResult{Plan: &activatedPlan}
		account.RemovePendingPayment(order.ID)
		if !account.HasPayment(req.PaymentID) {
			record.CreatedAt = now
			account.Payments = append(account.Payments, record)
			recordAdded = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejected {
		ps.logger.WithFields(logrus.Fields{
			"user_id":  userID.Hex(),
			"order_id": order.ID,
		}).Warn("Payment verified but account already has an active plan")
		return nil, ErrActiveAlreadyExists
	}
	if result.AlreadyProcessed {
		return &result, nil
	}

	ps.logger.WithFields(logrus.Fields{
		"user_id":    userID.Hex(),
		"order_id":   order.ID,
		"payment_id": req.PaymentID,
	}).Info("Payment verified and plan activated")
	ps.publish(ctx, events.PlanActivated, planActivatedEvent(userID, activatedPlan))
	if recordAdded {
		ps.publish(ctx, events.PaymentRecorded, paymentRecordedEvent(userID, record))
	}
	return &result, nil
}

// HandleWebhook verifies a provider webhook against the raw body and records
// captured payments for audit. It never activates or expires plans.
func (ps *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	ctx, cancel := ps.withTimeout(ctx)
	defer cancel()

	if ps.config.WebhookSecret == "" || strings.TrimSpace(signature) == "" {
		return nil, ErrInvalidSignature.WithMessage("Webhook signature missing")
	}
	if !gateway.VerifyWebhookSignature(ps.config.WebhookSecret, body, signature) {
		ps.logger.Warn("Webhook signature mismatch")
		return nil, ErrInvalidSignature
	}

	event, err := gateway.ParseWebhookEvent(body)
	if err != nil {
		return nil, ErrValidation.WithMessage("Invalid webhook payload")
	}

	ps.archivePayload(ctx, event.Event, body)

	if event.Event != gateway.EventPaymentCaptured {
		return &WebhookResult{Event: event.Event, Ignored: true}, nil
	}

	payment := event.Payment()
	if payment.ID == "" || payment.OrderID == "" {
		return nil, ErrValidation.WithMessage("Webhook payment is missing identifiers")
	}

	order, err := ps.fetchOrder(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	userID, err := userFromNotes(order.Notes)
	if err != nil {
		return nil, err
	}

	amount, currency := payment.Amount, payment.Currency
	if amount == 0 {
		amount = order.Amount
	}
	if currency == "" {
		currency = order.Currency
	}
	record := models.PaymentRecord{
		OrderID:   order.ID,
		PaymentID: payment.ID,
		Amount:    amount,
		Currency:  currency,
		Source:    PaymentSourceWebhook,
		Notes:     order.Notes,
	}

	recorded := false
	_, err = ps.mutateAccount(ctx, userID, func(account *models.Account) error {
		recorded = false
		if account.HasPayment(payment.ID) {
			return repository.ErrSkipWrite
		}
		record.CreatedAt = ps.now()
		account.Payments = append(account.Payments, record)
		recorded = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if recorded {
		ps.publish(ctx, events.PaymentRecorded, paymentRecordedEvent(userID, record))
	}
	return &WebhookResult{Event: event.Event, Recorded: recorded}, nil
}

// CleanupStalePendingPayments drops pending entries older than ttl and returns
// how many were removed.
func (ps *PaymentService) CleanupStalePendingPayments(ctx context.Context, ttl time.Duration) (int, error) {
	accounts, err := ps.accounts.List(ctx, repository.AccountFilter{HasPendingPayments: true})
	if err != nil {
		return 0, internalError(err)
	}

	removed := 0
	for _, candidate := range accounts {
		dropped := 0
		_, err := ps.mutateAccount(ctx, candidate.ID, func(account *models.Account) error {
			cutoff := ps.now().Add(-ttl)
			kept := account.PendingPayments[:0]
			dropped = 0
			for _, pp := range account.PendingPayments {
				if pp.CreatedAt.Before(cutoff) {
					dropped++
					continue
				}
				kept = append(kept, pp)
			}
			if dropped == 0 {
				return repository.ErrSkipWrite
			}
			account.PendingPayments = kept
			return nil
		})
		if err != nil {
			ps.logger.WithError(err).WithField("user_id", candidate.ID.Hex()).Warn("Failed to clean pending payments")
			continue
		}
		removed += dropped
	}
	return removed, nil
}

func (ps *PaymentService) fetchOrder(ctx context.Context, orderID string) (*gateway.Order, error) {
	order, err := ps.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gateway.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		ps.logger.WithError(err).WithField("order_id", orderID).Error("Gateway order fetch failed")
		return nil, &AppError{Kind: KindInternal, Code: ErrGateway.Code, Message: ErrGateway.Message, Err: err}
	}
	return order, nil
}

func (ps *PaymentService) archivePayload(ctx context.Context, eventName string, body []byte) {
	key := storage.ArchiveKey("webhooks", eventName, ps.now())
	if err := ps.archive.Put(ctx, key, body, "application/json"); err != nil {
		ps.logger.WithError(err).WithField("key", key).Warn("Failed to archive webhook payload")
	}
}

func userFromNotes(notes map[string]string) (primitive.ObjectID, error) {
	raw := strings.TrimSpace(notes[gateway.NoteUserID])
	if raw == "" {
		return primitive.NilObjectID, ErrInvalidOrderNotes
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidOrderNotes
	}
	return id, nil
}

func paymentRecordedEvent(userID primitive.ObjectID, record models.PaymentRecord) PaymentRecordedEvent {
	return PaymentRecordedEvent{
		UserID:    userID.Hex(),
		OrderID:   record.OrderID,
		PaymentID: record.PaymentID,
		Amount:    record.Amount,
		Currency:  record.Currency,
		Source:    record.Source,
	}
}

package services

import (
	"context"
	"errors"
	"strings"

	"agrispray/models"
	"agrispray/repository"
	"agrispray/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService struct {
	*BaseService
}

func NewUserService(deps Dependencies) *UserService {
	return &UserService{BaseService: NewBaseService(deps, "users")}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a one-based page request. Out of range values are normalised.
type Page struct {
	Number int
	Size   int
}

func (p Page) normalise() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

// ListUsers returns one page of account summaries, optionally narrowed to one
// role, with the total number of matching accounts.
func (us *UserService) ListUsers(ctx context.Context, role string, page Page) ([]models.UserSummary, int, Page, error) {
	ctx, cancel := us.withTimeout(ctx)
	defer cancel()

	page = page.normalise()
	filter := repository.AccountFilter{Role: role}
	total, err := us.accounts.Count(ctx, filter)
	if err != nil {
		return nil, 0, page, internalError(err)
	}

	filter.Skip = int64(page.Number-1) * int64(page.Size)
	filter.Limit = int64(page.Size)
	accounts, err := us.accounts.List(ctx, filter)
	if err != nil {
		return nil, 0, page, internalError(err)
	}
	summaries := make([]models.UserSummary, 0, len(accounts))
	for _, account := range accounts {
		summaries = append(summaries, account.Summary())
	}
	return summaries, int(total), page, nil
}

// GetUser returns the account with its bookings and their assigned sprayers.
func (us *UserService) GetUser(ctx context.Context, userID primitive.ObjectID) (*models.UserDetail, error) {
	ctx, cancel := us.withTimeout(ctx)
	defer cancel()

	account, err := us.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	bookings, err := us.bookings.ListByAccount(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}

	sprayers := make(map[primitive.ObjectID]*models.UserSummary)
	views := make([]models.BookingView, 0, len(bookings))
	for _, booking := range bookings {
		view := models.BookingView{Booking: booking}
		if booking.AssignedSprayer != nil {
			id := *booking.AssignedSprayer
			summary, seen := sprayers[id]
			if !seen {
				sprayer, err := us.accounts.FindByID(ctx, id)
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					return nil, internalError(err)
				}
				if sprayer != nil {
					s := sprayer.Summary()
					summary = &s
				}
				sprayers[id] = summary
			}
			view.Sprayer = summary
		}
		views = append(views, view)
	}

	return &models.UserDetail{Account: account, Bookings: views}, nil
}

// UpdateUser changes profile fields; a new password is re-hashed.
func (us *UserService) UpdateUser(ctx context.Context, userID primitive.ObjectID, req models.UpdateUserRequest) (*models.PublicUser, error) {
	ctx, cancel := us.withTimeout(ctx)
	defer cancel()

	var hashedPassword string
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, internalError(err)
		}
		hashedPassword = hashed
	}

	if req.Email != nil {
		email := utils.NormalizeEmail(*req.Email)
		existing, err := us.accounts.FindByEmail(ctx, email)
		if err == nil && existing.ID != userID {
			return nil, ErrEmailTaken
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, internalError(err)
		}
	}

	account, err := us.mutateAccount(ctx, userID, func(account *models.Account) error {
		if req.Name != nil {
			account.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			account.Email = utils.NormalizeEmail(*req.Email)
		}
		if req.Phone != nil {
			account.Phone = strings.TrimSpace(*req.Phone)
		}
		if hashedPassword != "" {
			account.Password = hashedPassword
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	public := account.Public()
	return &public, nil
}

// GetPurchases lists plans, payments and bookings for an account.
func (us *UserService) GetPurchases(ctx context.Context, userID primitive.ObjectID) (*models.PurchasesResponse, error) {
	ctx, cancel := us.withTimeout(ctx)
	defer cancel()

	account, err := us.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	bookings, err := us.bookings.ListByAccount(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}

	resp := &models.PurchasesResponse{
		Plans:           account.PurchasedPlans,
		PlanActive:      account.PlanActive,
		PendingPayments: account.PendingPayments,
		Payments:        account.Payments,
		Bookings:        make([]models.Booking, 0, len(bookings)),
	}
	if active := FindUsableActivePlan(account, us.now()); active != nil {
		plan := *active
		resp.ActivePlan = &plan
	}
	for _, booking := range bookings {
		resp.Bookings = append(resp.Bookings, *booking)
	}
	return resp, nil
}

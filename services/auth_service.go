package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"agrispray/models"
	"agrispray/repository"
	"agrispray/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthService struct {
	*BaseService
}

func NewAuthService(deps Dependencies) *AuthService {
	return &AuthService{BaseService: NewBaseService(deps, "auth")}
}

// Register creates a farmer or sprayer account and signs the caller in.
func (as *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	ctx, cancel := as.withTimeout(ctx)
	defer cancel()

	role := req.Type
	if role == "" {
		role = models.RoleFarmer
	}
	if role == models.RoleAdmin {
		return nil, ErrForbidden.WithMessage("Admin accounts cannot be self-registered")
	}

	email := utils.NormalizeEmail(req.Email)
	if _, err := as.accounts.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, internalError(err)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, internalError(err)
	}

	account := newAccount(strings.TrimSpace(req.Name), email, strings.TrimSpace(req.Phone), hashedPassword, role, as.now())
	if err := as.accounts.Create(ctx, account); err != nil {
		return nil, fromStore(err, ErrAccountNotFound)
	}

	as.logger.WithField("user_id", account.ID.Hex()).WithField("type", role).Info("Account registered")
	return as.issueTokens(account)
}

// Login checks credentials. Unknown emails and wrong passwords are reported separately.
func (as *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	ctx, cancel := as.withTimeout(ctx)
	defer cancel()

	account, err := as.accounts.FindByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		return nil, fromStore(err, ErrAccountNotFound)
	}
	if !utils.CheckPasswordHash(req.Password, account.Password) {
		return nil, ErrInvalidCredentials
	}
	return as.issueTokens(account)
}

// RefreshToken exchanges a refresh token for a new pair.
func (as *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	ctx, cancel := as.withTimeout(ctx)
	defer cancel()

	claims, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	account, err := as.accounts.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, internalError(err)
	}
	return as.issueTokens(account)
}

// Authenticate resolves an access token to its account.
func (as *AuthService) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	claims, err := utils.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	account, err := as.accounts.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, internalError(err)
	}
	return account, nil
}

// EnsureDefaultAdmin creates the bootstrap admin when no admin exists.
func (as *AuthService) EnsureDefaultAdmin(ctx context.Context, email, password string) error {
	ctx, cancel := as.withTimeout(ctx)
	defer cancel()

	admins, err := as.accounts.Count(ctx, repository.AccountFilter{Role: models.RoleAdmin})
	if err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := newAccount("Administrator", utils.NormalizeEmail(email), "", hashedPassword, models.RoleAdmin, as.now())
	if err := as.accounts.Create(ctx, admin); err != nil {
		return err
	}

	as.logger.WithField("email", admin.Email).Warn("Created default admin account, change its password")
	return nil
}

func (as *AuthService) issueTokens(account *models.Account) (*models.AuthResponse, error) {
	pair, err := utils.GenerateTokenPair(account.ID, account.Email, account.Type)
	if err != nil {
		return nil, internalError(err)
	}
	return &models.AuthResponse{
		User:         account.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func newAccount(name, email, phone, hashedPassword, role string, now time.Time) *models.Account {
	return &models.Account{
		ID:               primitive.NewObjectID(),
		Name:             name,
		Email:            email,
		Phone:            phone,
		Password:         hashedPassword,
		Type:             role,
		PurchasedPlans:   []models.Plan{},
		BookedServices:   []primitive.ObjectID{},
		AssignedServices: []models.Assignment{},
		PendingPayments:  []models.PendingPayment{},
		Payments:         []models.PaymentRecord{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

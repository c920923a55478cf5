package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/auth"
	"github.com/helpdesk/it-helpdesk/internal/config"
	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/events"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

const MinPasswordLength = 6

const (
	msgUnknownEmail       = "No registered account for this email."
	msgInvalidCredentials = "Invalid credentials."
	msgUnderReview        = "Your account is under review. Please wait for approval."
	msgEmailRegistered    = "Email is already registered."
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg),
		dispatcher: dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		now:        nowUTC,
	}
}

// RegisterInput carries a self-registration request.
type RegisterInput struct {
	FirstName   string
	MiddleName  string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
}

// LoginResult is a freshly issued access token and its owner.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Register creates a Staff account awaiting approval.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(input.Email)
	if len(input.Password) < MinPasswordLength {
		return nil, validationFailed("Password must be at least 6 characters.")
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, validationFailed(msgEmailRegistered)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		MiddleName:   strings.TrimSpace(input.MiddleName),
		LastName:     strings.TrimSpace(input.LastName),
		PhoneNumber:  strings.TrimSpace(input.PhoneNumber),
		Role:         domain.RoleStaff,
		IsStaff:      false,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// a concurrent registration won the unique index
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validationFailed(msgEmailRegistered)
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	s.dispatcher.Publish(ctx, events.New(events.EventUserRegistered, user.ID, events.UserRegisteredPayload{User: *user}))
	return user, nil
}

// Login verifies credentials and issues an access token carrying the user's role.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(msgUnknownEmail)
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if !user.IsStaff {
		return nil, apperrors.NewUnauthorized(msgUnderReview)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Logout is an acknowledgement only; tokens stay valid until they expire.
func (s *AuthService) Logout(_ context.Context, userID string) error {
	s.logger.Debug("user logged out", zap.String("user_id", userID))
	return nil
}

// UpdatePassword verifies the current password before storing a new hash.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return validationFailed("Password must be at least 6 characters.")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, userResource)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return validationFailed("Current password is incorrect.")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return notFoundOr(err, userResource)
	}
	return nil
}

// SeedAdminInput describes the bootstrap administrator.
type SeedAdminInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SeedAdmin creates an approved Admin unless the email is already taken.
// It reports whether a user was created.
func (s *AuthService) SeedAdmin(ctx context.Context, input SeedAdminInput) (*domain.User, bool, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, false, validationFailed("Email and password are required.")
	}
	if existing, err := s.users.GetByEmail(ctx, email); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, false, apperrors.NewInternalError(err)
	}
	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		firstName = "System"
	}
	lastName := strings.TrimSpace(input.LastName)
	if lastName == "" {
		lastName = "Administrator"
	}

	now := s.now()
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         domain.RoleAdmin,
		IsStaff:      true,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, conflictOr(err, msgEmailRegistered)
	}
	s.logger.Info("admin account seeded", zap.String("user_id", user.ID))
	return user, true, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

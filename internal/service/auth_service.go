package service

import (
	"context"
	"errors"

	"maintenance-service/internal/auth"
	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/errs"
	"maintenance-service/pkg/jwtutil"
	"maintenance-service/prometheus"

	"go.uber.org/zap"
)

const (
	msgInvalidCredentials  = "Invalid credentials"
	msgAccountDeactivated  = "Account is deactivated"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgRegistrationClosed  = "Registration is disabled for this company"
)

// TokenIssuer signs and verifies self-issued token pairs
type TokenIssuer interface {
	GeneratePair(userID, email, companyID, role string) (*jwtutil.TokenPair, error)
	ValidateRefreshToken(tokenString string) (*jwtutil.UserClaims, error)
}

// VerifyResult is the answer of the token verification endpoint
type VerifyResult struct {
	Valid bool           `json:"valid"`
	User  *auth.Identity `json:"user"`
}

// AuthService implements login, registration and token refresh for self-issued tokens,
// and session lookups for every strategy.
type AuthService struct {
	users     *UserService
	companies repository.CompanyRepository
	sessions  *SessionService
	tokens    TokenIssuer
	validator auth.TokenValidator
	logger    *zap.Logger
}

// NewAuthService wires the auth flows; tokens may be nil under the remote strategy
func NewAuthService(users *UserService, companies repository.CompanyRepository, sessions *SessionService, tokens TokenIssuer, validator auth.TokenValidator, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:     users,
		companies: companies,
		sessions:  sessions,
		tokens:    tokens,
		validator: validator,
		logger:    logger,
	}
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*model.AuthResponse, error) {
	prometheus.LoginCounter.Inc()

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errs.Is(err, errs.ErrNotFound) {
			prometheus.RecordAuthError("invalid_credentials")
			return nil, errs.Unauthorized(msgInvalidCredentials)
		}
		return nil, err
	}

	if !checkPassword(user.Password, in.Password) {
		prometheus.RecordAuthError("invalid_credentials")
		s.logger.Warn("Login failed", zap.String("user_id", user.ID))
		return nil, errs.Unauthorized(msgInvalidCredentials)
	}
	if !user.IsActive {
		prometheus.RecordAuthError("deactivated")
		return nil, errs.Unauthorized(msgAccountDeactivated)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID), zap.String("company_id", user.CompanyID))
	return s.issue(ctx, user)
}

// Register creates a user in a company that accepts registrations, with the company's default role
func (s *AuthService) Register(ctx context.Context, in CreateUserInput) (*model.AuthResponse, error) {
	if in.CompanyID == "" {
		return nil, errs.BadRequest("Company is required")
	}
	company, err := s.companies.FindByID(ctx, in.CompanyID)
	if err != nil {
		return nil, lookupError(err, msgCompanyNotFound)
	}
	settings := company.Settings.Data()
	if !settings.AllowUserRegistration {
		return nil, errs.Forbidden(msgRegistrationClosed)
	}

	in.Role = settings.DefaultUserRole
	in.IsActive = nil
	in.EmailVerified = false

	user, err := s.users.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	prometheus.RegisterCounter.Inc()
	return s.issue(ctx, user)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.AuthResponse, error) {
	prometheus.RefreshCounter.Inc()
	if refreshToken == "" {
		return nil, errs.Unauthorized(msgInvalidRefreshToken)
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		prometheus.RecordAuthError("invalid_refresh_token")
		return nil, errs.Wrap(errs.ErrUnauthorized, msgInvalidRefreshToken, err)
	}

	user, err := s.users.FindOne(ctx, claims.Subject, claims.CompanyID)
	if err != nil {
		if errs.Is(err, errs.ErrNotFound) {
			return nil, errs.Unauthorized(msgInvalidRefreshToken)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errs.Unauthorized(msgAccountDeactivated)
	}

	return s.issue(ctx, user)
}

// Profile returns the session of the authenticated subject
func (s *AuthService) Profile(ctx context.Context, subject string) (*model.Session, error) {
	return s.sessions.BuildSession(ctx, subject)
}

func (s *AuthService) ChangePassword(ctx context.Context, identity *auth.Identity, in ChangePasswordInput) error {
	return s.users.ChangePassword(ctx, identity.Subject, identity.CompanyID, in)
}

// Logout does not revoke anything; tokens stay valid until they expire
func (s *AuthService) Logout(ctx context.Context, identity *auth.Identity) map[string]string {
	if identity != nil {
		s.logger.Info("User logged out", zap.String("user_id", identity.Subject))
	}
	return map[string]string{"message": "Logged out successfully"}
}

// VerifyToken validates token with the active strategy
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*VerifyResult, error) {
	identity, err := s.validator.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Valid: true, User: identity}, nil
}

// CheckPermissions reports whether token holds every permission in required
func (s *AuthService) CheckPermissions(ctx context.Context, token string, required []string) bool {
	return s.validator.CheckPermissions(ctx, token, required)
}

func (s *AuthService) issue(ctx context.Context, user *model.User) (*model.AuthResponse, error) {
	if s.tokens == nil {
		return nil, errs.Internal("token issuing is not configured", errors.New("nil token issuer"))
	}

	session, err := s.sessions.BuildSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.GeneratePair(user.ID, user.Email, user.CompanyID, string(user.Role))
	if err != nil {
		return nil, errs.Internal("token signing failed", err)
	}

	return &model.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		Session:      session,
	}, nil
}

package service

import (
	"context"
	"time"

	"maintenance-service/internal/auth"
	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/prometheus"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	msgUserNotFound         = "User not found"
	msgCompanyNotFound      = "Company not found"
	msgAccountNotFound      = "Account not found"
	msgSubscriptionNotFound = "Subscription not found"
)

// SessionService assembles sessions from the four entity stores. Nothing is cached.
type SessionService struct {
	users         repository.UserRepository
	companies     repository.CompanyRepository
	accounts      repository.AccountRepository
	subscriptions repository.SubscriptionRepository
	logger        *zap.Logger
}

func NewSessionService(store *repository.Store, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		users:         store.Users,
		companies:     store.Companies,
		accounts:      store.Accounts,
		subscriptions: store.Subscriptions,
		logger:        logger,
	}
}

// BuildSession resolves user, company, account and subscription into a Session.
// The first missing record in that order decides the NotFound error.
func (s *SessionService) BuildSession(ctx context.Context, userID string) (*model.Session, error) {
	start := time.Now()
	session, err := s.buildSession(ctx, userID)
	prometheus.RecordSessionBuild(start, err)
	if err != nil {
		s.logger.Debug("Session build failed", zap.String("user_id", userID), zap.Error(err))
	}
	return session, err
}

func (s *SessionService) buildSession(ctx context.Context, userID string) (*model.Session, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}

	var (
		g            errgroup.Group
		company      *model.Company
		subscription *model.Subscription
		companyErr   error
		accountErr   error
		subErr       error
	)

	// Company is independent of the account -> subscription chain. Each lookup keeps
	// its own error so the reported one follows company, account, subscription order.
	g.Go(func() error {
		company, companyErr = s.companies.FindByID(ctx, user.CompanyID)
		return nil
	})
	g.Go(func() error {
		account, err := s.accounts.FindByCompany(ctx, user.CompanyID)
		if err != nil {
			accountErr = err
			return nil
		}
		subscription, subErr = s.subscriptions.FindByID(ctx, account.SubscriptionID)
		return nil
	})
	_ = g.Wait()

	if companyErr != nil {
		return nil, lookupError(companyErr, msgCompanyNotFound)
	}
	if accountErr != nil {
		return nil, lookupError(accountErr, msgAccountNotFound)
	}
	if subErr != nil {
		return nil, lookupError(subErr, msgSubscriptionNotFound)
	}

	return model.NewSession(user, company, subscription), nil
}

// ValidateUserAccess reports whether the user exists and belongs to companyID
func (s *SessionService) ValidateUserAccess(ctx context.Context, userID, companyID string) bool {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false
	}
	return user.CompanyID == companyID
}

// UserPermissions returns the role-table permissions of a user; unknown users have none
func (s *SessionService) UserPermissions(ctx context.Context, userID string) []string {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return []string{}
	}
	return auth.PermissionsForRole(string(user.Role))
}

package service

import (
	"context"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/errs"
	"maintenance-service/prometheus"

	"go.uber.org/zap"
)

const (
	entityAccounts = "accounts"

	msgAccountExists = "Account already exists for this company"
)

// AccountService binds companies to subscriptions, one live account per company
type AccountService struct {
	accounts      repository.AccountRepository
	subscriptions repository.SubscriptionRepository
	logger        *zap.Logger
}

func NewAccountService(accounts repository.AccountRepository, subscriptions repository.SubscriptionRepository, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{accounts: accounts, subscriptions: subscriptions, logger: logger}
}

func (s *AccountService) Create(ctx context.Context, in CreateAccountInput) (*model.Account, error) {
	if in.CompanyID == "" || in.SubscriptionID == "" {
		return nil, errs.BadRequest("companyId and subscriptionId are required")
	}

	if err := s.ensureNoActiveAccount(ctx, in.CompanyID, ""); err != nil {
		return nil, err
	}
	if err := s.ensureSubscription(ctx, in.SubscriptionID); err != nil {
		return nil, err
	}

	account := &model.Account{
		Base:           model.Base{CompanyID: in.CompanyID},
		SubscriptionID: in.SubscriptionID,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, writeError(err, msgAccountNotFound, msgAccountExists)
	}

	prometheus.RecordEntityOperation(entityAccounts, "create")
	s.logger.Info("Account created",
		zap.String("account_id", account.ID),
		zap.String("company_id", account.CompanyID),
		zap.String("subscription_id", account.SubscriptionID))
	return account, nil
}

func (s *AccountService) List(ctx context.Context, filter model.AccountFilter) (model.Page[model.Account], error) {
	filter.PageQuery = filter.PageQuery.Normalize(model.AccountSortKeys)
	accounts, total, err := s.accounts.List(ctx, filter)
	if err != nil {
		return model.Page[model.Account]{}, errs.Internal("account listing failed", err)
	}
	return model.NewPage(accounts, total, filter.PageQuery), nil
}

func (s *AccountService) FindOne(ctx context.Context, id, companyID string) (*model.Account, error) {
	account, err := s.accounts.FindScoped(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgAccountNotFound)
	}
	return account, nil
}

func (s *AccountService) FindByCompany(ctx context.Context, companyID string) (*model.Account, error) {
	account, err := s.accounts.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, lookupError(err, msgAccountNotFound)
	}
	return account, nil
}

func (s *AccountService) Update(ctx context.Context, id, companyID string, patch model.AccountPatch) (*model.Account, error) {
	account, err := s.accounts.FindScoped(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgAccountNotFound)
	}

	if patch.CompanyID != nil && *patch.CompanyID != account.CompanyID {
		if err := s.ensureNoActiveAccount(ctx, *patch.CompanyID, id); err != nil {
			return nil, err
		}
	}
	if patch.SubscriptionID != nil {
		if err := s.ensureSubscription(ctx, *patch.SubscriptionID); err != nil {
			return nil, err
		}
	}

	columns := patch.Apply(account)
	if err := s.accounts.Update(ctx, account, columns); err != nil {
		return nil, writeError(err, msgAccountNotFound, msgAccountExists)
	}

	prometheus.RecordEntityOperation(entityAccounts, "update")
	return account, nil
}

func (s *AccountService) SoftDelete(ctx context.Context, id, companyID string) (*model.Account, error) {
	account, err := s.accounts.SoftDelete(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgAccountNotFound)
	}
	prometheus.RecordEntityOperation(entityAccounts, "delete")
	return account, nil
}

// Restore fails with Conflict while another live account exists for the company
func (s *AccountService) Restore(ctx context.Context, id, companyID string) (*model.Account, error) {
	if err := s.ensureNoActiveAccount(ctx, companyID, id); err != nil {
		return nil, err
	}
	account, err := s.accounts.Restore(ctx, id, companyID)
	if err != nil {
		return nil, writeError(err, "Account not found or not deleted", msgAccountExists)
	}
	prometheus.RecordEntityOperation(entityAccounts, "restore")
	return account, nil
}

func (s *AccountService) FindDeleted(ctx context.Context, companyID string) ([]model.Account, error) {
	accounts, err := s.accounts.FindDeleted(ctx, companyID)
	if err != nil {
		return nil, errs.Internal("deleted account listing failed", err)
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, nil
}

func (s *AccountService) ensureNoActiveAccount(ctx context.Context, companyID, excludeID string) error {
	exists, err := s.accounts.ActiveExists(ctx, companyID, excludeID)
	if err != nil {
		return errs.Internal("account lookup failed", err)
	}
	if exists {
		return errs.Conflict(msgAccountExists)
	}
	return nil
}

func (s *AccountService) ensureSubscription(ctx context.Context, subscriptionID string) error {
	if _, err := s.subscriptions.FindByID(ctx, subscriptionID); err != nil {
		return lookupError(err, msgSubscriptionNotFound)
	}
	return nil
}

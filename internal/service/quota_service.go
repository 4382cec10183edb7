package service

import (
	"context"
	"fmt"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/errs"
	"maintenance-service/prometheus"
)

// EntityCounter counts live records and knows which entities it can count
type EntityCounter interface {
	repository.EntityCounter
	Supports(entity string) bool
}

// QuotaService evaluates subscription create limits
type QuotaService struct {
	accounts      repository.AccountRepository
	subscriptions repository.SubscriptionRepository
	counter       EntityCounter
}

func NewQuotaService(store *repository.Store) *QuotaService {
	return &QuotaService{
		accounts:      store.Accounts,
		subscriptions: store.Subscriptions,
		counter:       store.Counters,
	}
}

// CheckEntityLimit counts the company's live records of entity and evaluates its limit.
// Entities without a registered counter are evaluated with a count of zero.
func (s *QuotaService) CheckEntityLimit(ctx context.Context, companyID, entity string) (model.QuotaResult, error) {
	subscription, err := s.resolveSubscription(ctx, companyID)
	if err != nil {
		return model.QuotaResult{}, err
	}
	if subscription == nil {
		prometheus.RecordQuotaCheck(entity, false)
		return model.QuotaResult{}, nil
	}

	current, err := s.count(ctx, companyID, entity)
	if err != nil {
		return model.QuotaResult{}, err
	}

	result := evaluateLimit(subscription, entity, current)
	prometheus.RecordQuotaCheck(entity, result.Allowed)
	return result, nil
}

func (s *QuotaService) count(ctx context.Context, companyID, entity string) (int64, error) {
	if s.counter == nil || !s.counter.Supports(entity) {
		return 0, nil
	}
	current, err := s.counter.CountEntities(ctx, companyID, entity)
	if err != nil {
		return 0, errs.Internal("count failed", err)
	}
	return current, nil
}

// EvaluateEntityLimit evaluates the limit against a caller-supplied count
func (s *QuotaService) EvaluateEntityLimit(ctx context.Context, companyID, entity string, current int64) (model.QuotaResult, error) {
	subscription, err := s.resolveSubscription(ctx, companyID)
	if err != nil {
		return model.QuotaResult{}, err
	}
	if subscription == nil {
		prometheus.RecordQuotaCheck(entity, false)
		return model.QuotaResult{}, nil
	}

	result := evaluateLimit(subscription, entity, current)
	prometheus.RecordQuotaCheck(entity, result.Allowed)
	return result, nil
}

// Enforce returns Forbidden when the company may not create another entity
func (s *QuotaService) Enforce(ctx context.Context, companyID, entity string) error {
	result, err := s.CheckEntityLimit(ctx, companyID, entity)
	if err != nil {
		return err
	}
	if !result.Allowed {
		if result.Limit == 0 && result.Current == 0 {
			return errs.Forbidden("No active subscription for this company")
		}
		return errs.Forbidden(fmt.Sprintf("Subscription limit reached for %s (%d/%d)", entity, result.Current, result.Limit))
	}
	return nil
}

// resolveSubscription returns nil, nil when the company has no account or subscription
func (s *QuotaService) resolveSubscription(ctx context.Context, companyID string) (*model.Subscription, error) {
	account, err := s.accounts.FindByCompany(ctx, companyID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Internal("account lookup failed", err)
	}

	subscription, err := s.subscriptions.FindByID(ctx, account.SubscriptionID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Internal("subscription lookup failed", err)
	}
	return subscription, nil
}

func evaluateLimit(subscription *model.Subscription, entity string, current int64) model.QuotaResult {
	setting, ok := subscription.LimitFor(entity)
	if !ok {
		return model.QuotaResult{Allowed: true, Limit: model.Unlimited, Current: current}
	}
	return model.QuotaResult{
		Allowed: current < setting.CreateLimitRegistry,
		Limit:   setting.CreateLimitRegistry,
		Current: current,
	}
}

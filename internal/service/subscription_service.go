package service

import (
	"context"
	"strings"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/errs"
	"maintenance-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	entitySubscriptions = "subscriptions"

	msgSubscriptionNameTaken = "Subscription with this name already exists"
)

// SubscriptionService manages plans and their per-entity limits
type SubscriptionService struct {
	subscriptions repository.SubscriptionRepository
	logger        *zap.Logger
}

func NewSubscriptionService(subscriptions repository.SubscriptionRepository, logger *zap.Logger) *SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{subscriptions: subscriptions, logger: logger}
}

func (s *SubscriptionService) Create(ctx context.Context, in CreateSubscriptionInput) (*model.Subscription, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errs.BadRequest("Name is required")
	}
	if in.CompanyID == "" {
		return nil, errs.BadRequest("Company is required")
	}
	if err := validateSettings(in.Settings); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	settings := in.Settings
	if settings == nil {
		settings = []model.EntitySetting{}
	}
	subscription := &model.Subscription{
		Base:        model.Base{CompanyID: in.CompanyID},
		Name:        name,
		Description: in.Description,
		Settings:    datatypes.JSONSlice[model.EntitySetting](settings),
	}
	if err := s.subscriptions.Create(ctx, subscription); err != nil {
		return nil, writeError(err, msgSubscriptionNotFound, msgSubscriptionNameTaken)
	}

	prometheus.RecordEntityOperation(entitySubscriptions, "create")
	s.logger.Info("Subscription created", zap.String("subscription_id", subscription.ID), zap.String("name", name))
	return subscription, nil
}

func (s *SubscriptionService) List(ctx context.Context, filter model.ScopeFilter) (model.Page[model.Subscription], error) {
	filter.PageQuery = filter.PageQuery.Normalize(model.SubscriptionSortKeys)
	subscriptions, total, err := s.subscriptions.List(ctx, filter)
	if err != nil {
		return model.Page[model.Subscription]{}, errs.Internal("subscription listing failed", err)
	}
	return model.NewPage(subscriptions, total, filter.PageQuery), nil
}

func (s *SubscriptionService) FindOne(ctx context.Context, id, companyID string) (*model.Subscription, error) {
	subscription, err := s.subscriptions.FindScoped(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgSubscriptionNotFound)
	}
	return subscription, nil
}

func (s *SubscriptionService) Update(ctx context.Context, id, companyID string, patch model.SubscriptionPatch) (*model.Subscription, error) {
	subscription, err := s.subscriptions.FindScoped(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgSubscriptionNotFound)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, errs.BadRequest("Name is required")
		}
		if err := s.ensureNameFree(ctx, name, id); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if patch.Settings != nil {
		if err := validateSettings(*patch.Settings); err != nil {
			return nil, err
		}
	}

	columns := patch.Apply(subscription)
	if err := s.subscriptions.Update(ctx, subscription, columns); err != nil {
		return nil, writeError(err, msgSubscriptionNotFound, msgSubscriptionNameTaken)
	}

	prometheus.RecordEntityOperation(entitySubscriptions, "update")
	return subscription, nil
}

func (s *SubscriptionService) SoftDelete(ctx context.Context, id, companyID string) (*model.Subscription, error) {
	subscription, err := s.subscriptions.SoftDelete(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgSubscriptionNotFound)
	}
	prometheus.RecordEntityOperation(entitySubscriptions, "delete")
	return subscription, nil
}

func (s *SubscriptionService) Restore(ctx context.Context, id, companyID string) (*model.Subscription, error) {
	subscription, err := s.subscriptions.Restore(ctx, id, companyID)
	if err != nil {
		return nil, writeError(err, "Subscription not found or not deleted", msgSubscriptionNameTaken)
	}
	prometheus.RecordEntityOperation(entitySubscriptions, "restore")
	return subscription, nil
}

func (s *SubscriptionService) FindDeleted(ctx context.Context, companyID string) ([]model.Subscription, error) {
	subscriptions, err := s.subscriptions.FindDeleted(ctx, companyID)
	if err != nil {
		return nil, errs.Internal("deleted subscription listing failed", err)
	}
	if subscriptions == nil {
		subscriptions = []model.Subscription{}
	}
	return subscriptions, nil
}

func (s *SubscriptionService) ensureNameFree(ctx context.Context, name, excludeID string) error {
	taken, err := s.subscriptions.NameTaken(ctx, name, excludeID)
	if err != nil {
		return errs.Internal("subscription name lookup failed", err)
	}
	if taken {
		return errs.Conflict(msgSubscriptionNameTaken)
	}
	return nil
}

// Duplicate entities are accepted; the first one in list order applies
func validateSettings(settings []model.EntitySetting) error {
	for _, setting := range settings {
		if strings.TrimSpace(setting.Entity) == "" {
			return errs.BadRequest("Setting entity is required")
		}
		if setting.CreateLimitRegistry < 0 {
			return errs.BadRequest("createLimitRegistry must not be negative")
		}
	}
	return nil
}

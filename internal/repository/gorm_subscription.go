package repository

import (
	"context"
	"time"

	"maintenance-service/internal/model"

	"gorm.io/gorm"
)

type gormSubscriptionRepository struct {
	table gormTable[model.Subscription]
}

func (r *gormSubscriptionRepository) Create(ctx context.Context, subscription *model.Subscription) error {
	subscription.EnsureID()
	return r.table.create(ctx, subscription)
}

func (r *gormSubscriptionRepository) FindByID(ctx context.Context, id string) (*model.Subscription, error) {
	return r.table.first(ctx, "id = ?", id)
}

func (r *gormSubscriptionRepository) FindScoped(ctx context.Context, id, companyID string) (*model.Subscription, error) {
	return r.table.first(ctx, "id = ? AND company_id = ?", id, companyID)
}

func (r *gormSubscriptionRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	if excludeID == "" {
		return r.table.exists(ctx, "name = ?", name)
	}
	return r.table.exists(ctx, "name = ? AND id <> ?", name, excludeID)
}

func (r *gormSubscriptionRepository) List(ctx context.Context, filter model.ScopeFilter) ([]model.Subscription, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", filter.CompanyID)
	}
	return r.table.list(ctx, scope, filter.PageQuery, model.SubscriptionSortKeys, "name", "description")
}

func (r *gormSubscriptionRepository) Update(ctx context.Context, subscription *model.Subscription, columns []string) error {
	return r.table.update(ctx, subscription, columns)
}

func (r *gormSubscriptionRepository) SoftDelete(ctx context.Context, id, companyID string) (*model.Subscription, error) {
	return r.table.softDelete(ctx, id, companyID)
}

func (r *gormSubscriptionRepository) Restore(ctx context.Context, id, companyID string) (*model.Subscription, error) {
	return r.table.restore(ctx, id, companyID)
}

func (r *gormSubscriptionRepository) FindDeleted(ctx context.Context, companyID string) ([]model.Subscription, error) {
	return r.table.deleted(ctx, companyID)
}

func (r *gormSubscriptionRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return r.table.purge(ctx, before)
}

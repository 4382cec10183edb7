package repository

import (
	"context"
	"time"

	"maintenance-service/internal/model"

	"gorm.io/gorm"
)

type gormAccountRepository struct {
	table gormTable[model.Account]
}

func (r *gormAccountRepository) Create(ctx context.Context, account *model.Account) error {
	account.EnsureID()
	return r.table.create(ctx, account)
}

func (r *gormAccountRepository) FindScoped(ctx context.Context, id, companyID string) (*model.Account, error) {
	return r.table.first(ctx, "id = ? AND company_id = ?", id, companyID)
}

func (r *gormAccountRepository) FindByCompany(ctx context.Context, companyID string) (*model.Account, error) {
	return r.table.first(ctx, "company_id = ?", companyID)
}

func (r *gormAccountRepository) ActiveExists(ctx context.Context, companyID, excludeID string) (bool, error) {
	if excludeID == "" {
		return r.table.exists(ctx, "company_id = ?", companyID)
	}
	return r.table.exists(ctx, "company_id = ? AND id <> ?", companyID, excludeID)
}

func (r *gormAccountRepository) List(ctx context.Context, filter model.AccountFilter) ([]model.Account, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.CompanyID != "" {
			db = db.Where("company_id = ?", filter.CompanyID)
		}
		if filter.SubscriptionID != "" {
			db = db.Where("subscription_id = ?", filter.SubscriptionID)
		}
		return db
	}
	return r.table.list(ctx, scope, filter.PageQuery, model.AccountSortKeys)
}

func (r *gormAccountRepository) Update(ctx context.Context, account *model.Account, columns []string) error {
	return r.table.update(ctx, account, columns)
}

func (r *gormAccountRepository) SoftDelete(ctx context.Context, id, companyID string) (*model.Account, error) {
	return r.table.softDelete(ctx, id, companyID)
}

func (r *gormAccountRepository) Restore(ctx context.Context, id, companyID string) (*model.Account, error) {
	return r.table.restore(ctx, id, companyID)
}

func (r *gormAccountRepository) FindDeleted(ctx context.Context, companyID string) ([]model.Account, error) {
	return r.table.deleted(ctx, companyID)
}

func (r *gormAccountRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return r.table.purge(ctx, before)
}

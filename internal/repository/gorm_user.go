package repository

import (
	"context"
	"time"

	"maintenance-service/internal/model"

	"gorm.io/gorm"
)

type gormUserRepository struct {
	table gormTable[model.User]
}

func (r *gormUserRepository) Create(ctx context.Context, user *model.User) error {
	user.EnsureID()
	return r.table.create(ctx, user)
}

func (r *gormUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := r.table.first(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

func (r *gormUserRepository) FindScoped(ctx context.Context, id, companyID string) (*model.User, error) {
	return r.table.first(ctx, "id = ? AND company_id = ?", id, companyID)
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.table.first(ctx, "email = ?", model.NormalizeEmail(email))
}

func (r *gormUserRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	if excludeID == "" {
		return r.table.exists(ctx, "email = ?", model.NormalizeEmail(email))
	}
	return r.table.exists(ctx, "email = ? AND id <> ?", model.NormalizeEmail(email), excludeID)
}

func (r *gormUserRepository) List(ctx context.Context, filter model.UserFilter) ([]model.User, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("company_id = ?", filter.CompanyID)
		if filter.Role != "" {
			db = db.Where("role = ?", filter.Role)
		}
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		if filter.EmailVerified != nil {
			db = db.Where("email_verified = ?", *filter.EmailVerified)
		}
		return db
	}
	return r.table.list(ctx, scope, filter.PageQuery, model.UserSortKeys, "name", "email")
}

func (r *gormUserRepository) Update(ctx context.Context, user *model.User, columns []string) error {
	return r.table.update(ctx, user, columns)
}

func (r *gormUserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.table.updateColumns(ctx, id, map[string]interface{}{"password": hash})
}

func (r *gormUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.table.updateColumns(ctx, id, map[string]interface{}{"last_login": at})
}

func (r *gormUserRepository) SoftDelete(ctx context.Context, id, companyID string) (*model.User, error) {
	return r.table.softDelete(ctx, id, companyID)
}

func (r *gormUserRepository) Restore(ctx context.Context, id, companyID string) (*model.User, error) {
	return r.table.restore(ctx, id, companyID)
}

func (r *gormUserRepository) FindDeleted(ctx context.Context, companyID string) ([]model.User, error) {
	return r.table.deleted(ctx, companyID)
}

func (r *gormUserRepository) CountByCompany(ctx context.Context, companyID string) (int64, error) {
	return r.table.count(ctx, "company_id = ?", companyID)
}

func (r *gormUserRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return r.table.purge(ctx, before)
}

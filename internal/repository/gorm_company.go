package repository

import (
	"context"
	"time"

	"maintenance-service/internal/model"

	"gorm.io/gorm"
)

type gormCompanyRepository struct {
	table gormTable[model.Company]
}

func (r *gormCompanyRepository) Create(ctx context.Context, company *model.Company) error {
	company.EnsureID()
	if company.CompanyID == "" {
		company.CompanyID = company.ID
	}
	return r.table.create(ctx, company)
}

func (r *gormCompanyRepository) FindByID(ctx context.Context, id string) (*model.Company, error) {
	return r.table.first(ctx, "id = ?", id)
}

func (r *gormCompanyRepository) FindScoped(ctx context.Context, id, companyID string) (*model.Company, error) {
	return r.table.first(ctx, "id = ? AND company_id = ?", id, companyID)
}

func (r *gormCompanyRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	if excludeID == "" {
		return r.table.exists(ctx, "name = ?", name)
	}
	return r.table.exists(ctx, "name = ? AND id <> ?", name, excludeID)
}

func (r *gormCompanyRepository) List(ctx context.Context, filter model.ScopeFilter) ([]model.Company, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", filter.CompanyID)
	}
	return r.table.list(ctx, scope, filter.PageQuery, model.CompanySortKeys, "name")
}

func (r *gormCompanyRepository) Update(ctx context.Context, company *model.Company, columns []string) error {
	return r.table.update(ctx, company, columns)
}

func (r *gormCompanyRepository) SoftDelete(ctx context.Context, id, companyID string) (*model.Company, error) {
	return r.table.softDelete(ctx, id, companyID)
}

func (r *gormCompanyRepository) Restore(ctx context.Context, id, companyID string) (*model.Company, error) {
	return r.table.restore(ctx, id, companyID)
}

func (r *gormCompanyRepository) FindDeleted(ctx context.Context, companyID string) ([]model.Company, error) {
	return r.table.deleted(ctx, companyID)
}

func (r *gormCompanyRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return r.table.purge(ctx, before)
}

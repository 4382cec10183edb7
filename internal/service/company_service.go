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
	entityCompanies = "companies"

	msgCompanyNameTaken = "Company with this name already exists"
)

// CompanyService manages tenants, their branding and settings
type CompanyService struct {
	companies repository.CompanyRepository
	logger    *zap.Logger
}

func NewCompanyService(companies repository.CompanyRepository, logger *zap.Logger) *CompanyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{companies: companies, logger: logger}
}

func (s *CompanyService) Create(ctx context.Context, in CreateCompanyInput) (*model.Company, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errs.BadRequest("Name is required")
	}

	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	branding := model.Branding{}
	if in.Branding != nil {
		branding = *in.Branding
	}
	if branding.AppName == "" {
		branding.AppName = name
	}
	if branding.PrimaryColor == "" {
		branding.PrimaryColor = model.DefaultPrimaryColor
	}
	if branding.Logo == "" {
		branding.Logo = in.Logo
	}

	settings := model.DefaultCompanySettings()
	if in.Settings != nil {
		settings = *in.Settings
		if settings.DefaultUserRole == "" {
			settings.DefaultUserRole = model.RoleUser
		}
	}
	if !settings.DefaultUserRole.Valid() {
		return nil, errs.BadRequest("Invalid default user role")
	}

	company := &model.Company{
		Name:     name,
		Logo:     in.Logo,
		Branding: datatypes.NewJSONType(branding),
		Settings: datatypes.NewJSONType(settings),
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, writeError(err, msgCompanyNotFound, msgCompanyNameTaken)
	}

	prometheus.RecordEntityOperation(entityCompanies, "create")
	s.logger.Info("Company created", zap.String("company_id", company.ID), zap.String("name", company.Name))
	return company, nil
}

func (s *CompanyService) List(ctx context.Context, filter model.ScopeFilter) (model.Page[model.Company], error) {
	filter.PageQuery = filter.PageQuery.Normalize(model.CompanySortKeys)
	companies, total, err := s.companies.List(ctx, filter)
	if err != nil {
		return model.Page[model.Company]{}, errs.Internal("company listing failed", err)
	}
	return model.NewPage(companies, total, filter.PageQuery), nil
}

func (s *CompanyService) FindOne(ctx context.Context, id, companyID string) (*model.Company, error) {
	company, err := s.companies.FindScoped(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgCompanyNotFound)
	}
	return company, nil
}

func (s *CompanyService) Update(ctx context.Context, id, companyID string, patch model.CompanyPatch) (*model.Company, error) {
	company, err := s.companies.FindScoped(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgCompanyNotFound)
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
	if patch.Settings != nil && !patch.Settings.DefaultUserRole.Valid() {
		return nil, errs.BadRequest("Invalid default user role")
	}

	columns := patch.Apply(company)
	if err := s.companies.Update(ctx, company, columns); err != nil {
		return nil, writeError(err, msgCompanyNotFound, msgCompanyNameTaken)
	}

	prometheus.RecordEntityOperation(entityCompanies, "update")
	return company, nil
}

// UpdateBranding merges the non-empty fields of branding into the stored branding
func (s *CompanyService) UpdateBranding(ctx context.Context, id, companyID string, branding model.Branding) (*model.Company, error) {
	company, err := s.companies.FindScoped(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgCompanyNotFound)
	}

	merged := company.Branding.Data()
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&merged.AppName, branding.AppName},
		{&merged.PrimaryColor, branding.PrimaryColor},
		{&merged.SecondaryColor, branding.SecondaryColor},
		{&merged.AccentColor, branding.AccentColor},
		{&merged.Logo, branding.Logo},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}

	return s.Update(ctx, id, companyID, model.CompanyPatch{Branding: &merged})
}

// UpdateSettings replaces the company settings
func (s *CompanyService) UpdateSettings(ctx context.Context, id, companyID string, settings model.CompanySettings) (*model.Company, error) {
	if settings.DefaultUserRole == "" {
		settings.DefaultUserRole = model.RoleUser
	}
	return s.Update(ctx, id, companyID, model.CompanyPatch{Settings: &settings})
}

func (s *CompanyService) SoftDelete(ctx context.Context, id, companyID string) (*model.Company, error) {
	company, err := s.companies.SoftDelete(ctx, id, companyID)
	if err != nil {
		return nil, lookupError(err, msgCompanyNotFound)
	}
	prometheus.RecordEntityOperation(entityCompanies, "delete")
	return company, nil
}

func (s *CompanyService) Restore(ctx context.Context, id, companyID string) (*model.Company, error) {
	company, err := s.companies.Restore(ctx, id, companyID)
	if err != nil {
		return nil, writeError(err, "Company not found or not deleted", msgCompanyNameTaken)
	}
	prometheus.RecordEntityOperation(entityCompanies, "restore")
	return company, nil
}

func (s *CompanyService) FindDeleted(ctx context.Context, companyID string) ([]model.Company, error) {
	companies, err := s.companies.FindDeleted(ctx, companyID)
	if err != nil {
		return nil, errs.Internal("deleted company listing failed", err)
	}
	if companies == nil {
		companies = []model.Company{}
	}
	return companies, nil
}

func (s *CompanyService) ensureNameFree(ctx context.Context, name, excludeID string) error {
	taken, err := s.companies.NameTaken(ctx, name, excludeID)
	if err != nil {
		return errs.Internal("company name lookup failed", err)
	}
	if taken {
		return errs.Conflict(msgCompanyNameTaken)
	}
	return nil
}

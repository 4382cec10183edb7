package repository

import (
	"context"
	"time"

	"maintenance-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/datatypes"
)

type companyDocument struct {
	BaseDocument `bson:",inline"`
	Name         string                `bson:"name"`
	Logo         string                `bson:"logo"`
	Branding     model.Branding        `bson:"branding"`
	Settings     model.CompanySettings `bson:"settings"`
}

func toCompanyDocument(c *model.Company) *companyDocument {
	return &companyDocument{
		BaseDocument: newBaseDocument(&c.Base),
		Name:         c.Name,
		Logo:         c.Logo,
		Branding:     c.Branding.Data(),
		Settings:     c.Settings.Data(),
	}
}

func (d *companyDocument) model() *model.Company {
	return &model.Company{
		Base:     d.base(),
		Name:     d.Name,
		Logo:     d.Logo,
		Branding: datatypes.NewJSONType(d.Branding),
		Settings: datatypes.NewJSONType(d.Settings),
	}
}

func companyModels(docs []companyDocument) []model.Company {
	companies := make([]model.Company, len(docs))
	for i := range docs {
		companies[i] = *docs[i].model()
	}
	return companies
}

type mongoCompanyRepository struct {
	coll mongoCollection[companyDocument]
}

func (r *mongoCompanyRepository) Create(ctx context.Context, company *model.Company) error {
	stamp(&company.Base, r.coll.now())
	if company.CompanyID == "" {
		company.CompanyID = company.ID
	}
	return r.coll.insert(ctx, toCompanyDocument(company))
}

func (r *mongoCompanyRepository) one(ctx context.Context, filter bson.M) (*model.Company, error) {
	doc, err := r.coll.findOne(ctx, live(filter))
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoCompanyRepository) FindByID(ctx context.Context, id string) (*model.Company, error) {
	return r.one(ctx, bson.M{"_id": id})
}

func (r *mongoCompanyRepository) FindScoped(ctx context.Context, id, companyID string) (*model.Company, error) {
	return r.one(ctx, bson.M{"_id": id, "company_id": companyID})
}

func (r *mongoCompanyRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	filter := bson.M{"name": name}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return r.coll.exists(ctx, live(filter))
}

func (r *mongoCompanyRepository) List(ctx context.Context, filter model.ScopeFilter) ([]model.Company, int64, error) {
	docs, total, err := r.coll.list(ctx, bson.M{"company_id": filter.CompanyID}, filter.PageQuery, model.CompanySortKeys, "name")
	if err != nil {
		return nil, 0, err
	}
	return companyModels(docs), total, nil
}

func (r *mongoCompanyRepository) Update(ctx context.Context, company *model.Company, columns []string) error {
	return r.coll.setColumns(ctx, company.ID, toCompanyDocument(company), columns)
}

func (r *mongoCompanyRepository) SoftDelete(ctx context.Context, id, companyID string) (*model.Company, error) {
	doc, err := r.coll.softDelete(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoCompanyRepository) Restore(ctx context.Context, id, companyID string) (*model.Company, error) {
	doc, err := r.coll.restore(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoCompanyRepository) FindDeleted(ctx context.Context, companyID string) ([]model.Company, error) {
	docs, err := r.coll.deleted(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return companyModels(docs), nil
}

func (r *mongoCompanyRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return r.coll.purge(ctx, before)
}

package repository

import (
	"context"
	"time"

	"maintenance-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
)

type accountDocument struct {
	BaseDocument   `bson:",inline"`
	SubscriptionID string `bson:"subscription_id"`
}

func toAccountDocument(a *model.Account) *accountDocument {
	return &accountDocument{
		BaseDocument:   newBaseDocument(&a.Base),
		SubscriptionID: a.SubscriptionID,
	}
}

func (d *accountDocument) model() *model.Account {
	return &model.Account{
		Base:           d.base(),
		SubscriptionID: d.SubscriptionID,
	}
}

func accountModels(docs []accountDocument) []model.Account {
	accounts := make([]model.Account, len(docs))
	for i := range docs {
		accounts[i] = *docs[i].model()
	}
	return accounts
}

type mongoAccountRepository struct {
	coll mongoCollection[accountDocument]
}

func (r *mongoAccountRepository) Create(ctx context.Context, account *model.Account) error {
	stamp(&account.Base, r.coll.now())
	return r.coll.insert(ctx, toAccountDocument(account))
}

func (r *mongoAccountRepository) one(ctx context.Context, filter bson.M) (*model.Account, error) {
	doc, err := r.coll.findOne(ctx, live(filter))
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoAccountRepository) FindScoped(ctx context.Context, id, companyID string) (*model.Account, error) {
	return r.one(ctx, bson.M{"_id": id, "company_id": companyID})
}

func (r *mongoAccountRepository) FindByCompany(ctx context.Context, companyID string) (*model.Account, error) {
	return r.one(ctx, bson.M{"company_id": companyID})
}

func (r *mongoAccountRepository) ActiveExists(ctx context.Context, companyID, excludeID string) (bool, error) {
	filter := bson.M{"company_id": companyID}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return r.coll.exists(ctx, live(filter))
}

func (r *mongoAccountRepository) List(ctx context.Context, filter model.AccountFilter) ([]model.Account, int64, error) {
	query := bson.M{}
	if filter.CompanyID != "" {
		query["company_id"] = filter.CompanyID
	}
	if filter.SubscriptionID != "" {
		query["subscription_id"] = filter.SubscriptionID
	}
	docs, total, err := r.coll.list(ctx, query, filter.PageQuery, model.AccountSortKeys)
	if err != nil {
		return nil, 0, err
	}
	return accountModels(docs), total, nil
}

func (r *mongoAccountRepository) Update(ctx context.Context, account *model.Account, columns []string) error {
	return r.coll.setColumns(ctx, account.ID, toAccountDocument(account), columns)
}

func (r *mongoAccountRepository) SoftDelete(ctx context.Context, id, companyID string) (*model.Account, error) {
	doc, err := r.coll.softDelete(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoAccountRepository) Restore(ctx context.Context, id, companyID string) (*model.Account, error) {
	doc, err := r.coll.restore(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoAccountRepository) FindDeleted(ctx context.Context, companyID string) ([]model.Account, error) {
	docs, err := r.coll.deleted(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return accountModels(docs), nil
}

func (r *mongoAccountRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return r.coll.purge(ctx, before)
}

package repository

import (
	"context"
	"time"

	"maintenance-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/datatypes"
)

type subscriptionDocument struct {
	BaseDocument `bson:",inline"`
	Name         string                `bson:"name"`
	Description  string                `bson:"description"`
	Settings     []model.EntitySetting `bson:"settings"`
}

func toSubscriptionDocument(s *model.Subscription) *subscriptionDocument {
	settings := []model.EntitySetting(s.Settings)
	if settings == nil {
		settings = []model.EntitySetting{}
	}
	return &subscriptionDocument{
		BaseDocument: newBaseDocument(&s.Base),
		Name:         s.Name,
		Description:  s.Description,
		Settings:     settings,
	}
}

func (d *subscriptionDocument) model() *model.Subscription {
	return &model.Subscription{
		Base:        d.base(),
		Name:        d.Name,
		Description: d.Description,
		Settings:    datatypes.JSONSlice[model.EntitySetting](d.Settings),
	}
}

func subscriptionModels(docs []subscriptionDocument) []model.Subscription {
	subscriptions := make([]model.Subscription, len(docs))
	for i := range docs {
		subscriptions[i] = *docs[i].model()
	}
	return subscriptions
}

type mongoSubscriptionRepository struct {
	coll mongoCollection[subscriptionDocument]
}

func (r *mongoSubscriptionRepository) Create(ctx context.Context, subscription *model.Subscription) error {
	stamp(&subscription.Base, r.coll.now())
	return r.coll.insert(ctx, toSubscriptionDocument(subscription))
}

func (r *mongoSubscriptionRepository) one(ctx context.Context, filter bson.M) (*model.Subscription, error) {
	doc, err := r.coll.findOne(ctx, live(filter))
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoSubscriptionRepository) FindByID(ctx context.Context, id string) (*model.Subscription, error) {
	return r.one(ctx, bson.M{"_id": id})
}

func (r *mongoSubscriptionRepository) FindScoped(ctx context.Context, id, companyID string) (*model.Subscription, error) {
	return r.one(ctx, bson.M{"_id": id, "company_id": companyID})
}

func (r *mongoSubscriptionRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	filter := bson.M{"name": name}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return r.coll.exists(ctx, live(filter))
}

func (r *mongoSubscriptionRepository) List(ctx context.Context, filter model.ScopeFilter) ([]model.Subscription, int64, error) {
	docs, total, err := r.coll.list(ctx, bson.M{"company_id": filter.CompanyID}, filter.PageQuery, model.SubscriptionSortKeys, "name", "description")
	if err != nil {
		return nil, 0, err
	}
	return subscriptionModels(docs), total, nil
}

func (r *mongoSubscriptionRepository) Update(ctx context.Context, subscription *model.Subscription, columns []string) error {
	return r.coll.setColumns(ctx, subscription.ID, toSubscriptionDocument(subscription), columns)
}

func (r *mongoSubscriptionRepository) SoftDelete(ctx context.Context, id, companyID string) (*model.Subscription, error) {
	doc, err := r.coll.softDelete(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoSubscriptionRepository) Restore(ctx context.Context, id, companyID string) (*model.Subscription, error) {
	doc, err := r.coll.restore(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoSubscriptionRepository) FindDeleted(ctx context.Context, companyID string) ([]model.Subscription, error) {
	docs, err := r.coll.deleted(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return subscriptionModels(docs), nil
}

func (r *mongoSubscriptionRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return r.coll.purge(ctx, before)
}

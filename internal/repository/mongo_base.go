package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"maintenance-service/internal/model"
	"maintenance-service/prometheus"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

const (
	usersCollection         = "users"
	companiesCollection     = "companies"
	accountsCollection      = "accounts"
	subscriptionsCollection = "subscriptions"
)

// BaseDocument is the stored form of model.Base
type BaseDocument struct {
	ID        string     `bson:"_id"`
	CompanyID string     `bson:"company_id"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
	DeleteAt  *time.Time `bson:"delete_at,omitempty"`
}

func newBaseDocument(b *model.Base) BaseDocument {
	return BaseDocument{
		ID:        b.ID,
		CompanyID: b.CompanyID,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		DeleteAt:  b.DeletedAt(),
	}
}

func (d BaseDocument) base() model.Base {
	b := model.Base{
		ID:        d.ID,
		CompanyID: d.CompanyID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.DeleteAt != nil {
		b.DeleteAt = gorm.DeletedAt{Time: *d.DeleteAt, Valid: true}
	}
	return b
}

// stamp prepares base fields of a record about to be inserted
func stamp(b *model.Base, now time.Time) {
	b.EnsureID()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrRecordNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicateKey
	}
	return err
}

// live adds the "not deleted" condition to filter
func live(filter bson.M) bson.M {
	filter["delete_at"] = bson.M{"$exists": false}
	return filter
}

// mongoCollection holds the operations shared by all soft-deletable collections
type mongoCollection[D any] struct {
	coll *mongo.Collection
	now  func() time.Time
}

func newMongoCollection[D any](db *mongo.Database, name string) mongoCollection[D] {
	return mongoCollection[D]{
		coll: db.Collection(name),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (c mongoCollection[D]) insert(ctx context.Context, doc *D) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	_, err := c.coll.InsertOne(ctx, doc)
	return translateMongo(err)
}

func (c mongoCollection[D]) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*D, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var doc D
	if err := c.coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		return nil, translateMongo(err)
	}
	return &doc, nil
}

func (c mongoCollection[D]) exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := c.count(ctx, filter, options.Count().SetLimit(1))
	return count > 0, err
}

func (c mongoCollection[D]) count(ctx context.Context, filter bson.M, opts ...*options.CountOptions) (int64, error) {
	defer prometheus.TrackDBOperation("count")(time.Now())
	return c.coll.CountDocuments(ctx, filter, opts...)
}

// set applies fields to the single live document matching filter
func (c mongoCollection[D]) set(ctx context.Context, filter bson.M, fields bson.M) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	fields["updated_at"] = c.now()
	result, err := c.coll.UpdateOne(ctx, live(filter), bson.M{"$set": fields})
	if err != nil {
		return translateMongo(err)
	}
	if result.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// setColumns writes the named columns of doc to the live document with id
func (c mongoCollection[D]) setColumns(ctx context.Context, id string, doc *D, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	var all bson.M
	if err := bson.Unmarshal(raw, &all); err != nil {
		return err
	}

	fields := bson.M{}
	for _, column := range columns {
		if value, ok := all[column]; ok {
			fields[column] = value
		} else {
			// omitempty dropped it, so the zero value is meant
			fields[column] = nil
		}
	}
	return c.set(ctx, bson.M{"_id": id}, fields)
}

func (c mongoCollection[D]) softDelete(ctx context.Context, id, companyID string) (*D, error) {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	now := c.now()
	var doc D
	err := c.coll.FindOneAndUpdate(ctx,
		live(bson.M{"_id": id, "company_id": companyID}),
		bson.M{"$set": bson.M{"delete_at": now, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, translateMongo(err)
	}
	return &doc, nil
}

func (c mongoCollection[D]) restore(ctx context.Context, id, companyID string) (*D, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())
	var doc D
	err := c.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "company_id": companyID, "delete_at": bson.M{"$exists": true}},
		bson.M{"$unset": bson.M{"delete_at": ""}, "$set": bson.M{"updated_at": c.now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, translateMongo(err)
	}
	return &doc, nil
}

func (c mongoCollection[D]) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]D, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	cursor, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var docs []D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c mongoCollection[D]) deleted(ctx context.Context, companyID string) ([]D, error) {
	return c.find(ctx,
		bson.M{"company_id": companyID, "delete_at": bson.M{"$exists": true}},
		options.Find().SetSort(bson.D{{Key: "delete_at", Value: -1}}),
	)
}

func (c mongoCollection[D]) purge(ctx context.Context, before time.Time) (int64, error) {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	result, err := c.coll.DeleteMany(ctx, bson.M{"delete_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (c mongoCollection[D]) list(ctx context.Context, filter bson.M, q model.PageQuery, keys model.SortKeys, searchFields ...string) ([]D, int64, error) {
	q = q.Normalize(keys)
	filter = live(filter)
	if q.Search != "" && len(searchFields) > 0 {
		pattern := regexp.QuoteMeta(q.Search)
		or := make(bson.A, len(searchFields))
		for i, field := range searchFields {
			or[i] = bson.M{field: bson.M{"$regex": pattern, "$options": "i"}}
		}
		filter["$or"] = or
	}

	total, err := c.count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	direction := -1
	if q.SortOrder == "asc" {
		direction = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: q.SortBy, Value: direction}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))

	docs, err := c.find(ctx, filter, opts)
	return docs, total, err
}

// EnsureMongoIndexes creates the lookup and uniqueness indexes
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "company_id", Value: 1}}},
			{Keys: bson.D{{Key: "delete_at", Value: 1}}},
		},
		companiesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}},
			{Keys: bson.D{{Key: "company_id", Value: 1}}},
		},
		accountsCollection: {
			{Keys: bson.D{{Key: "company_id", Value: 1}}},
			{Keys: bson.D{{Key: "subscription_id", Value: 1}}},
		},
		subscriptionsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}},
			{Keys: bson.D{{Key: "company_id", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// NewMongoStore builds the document-backed repositories
func NewMongoStore(db *mongo.Database) *Store {
	return newStore(
		&mongoUserRepository{coll: newMongoCollection[userDocument](db, usersCollection)},
		&mongoCompanyRepository{coll: newMongoCollection[companyDocument](db, companiesCollection)},
		&mongoAccountRepository{coll: newMongoCollection[accountDocument](db, accountsCollection)},
		&mongoSubscriptionRepository{coll: newMongoCollection[subscriptionDocument](db, subscriptionsCollection)},
	)
}

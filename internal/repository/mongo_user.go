package repository

import (
	"context"
	"time"

	"maintenance-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/datatypes"
)

type userDocument struct {
	BaseDocument  `bson:",inline"`
	Email         string                `bson:"email"`
	Password      string                `bson:"password,omitempty"`
	Name          string                `bson:"name"`
	Role          model.Role            `bson:"role"`
	IsActive      bool                  `bson:"is_active"`
	EmailVerified bool                  `bson:"email_verified"`
	LastLogin     *time.Time            `bson:"last_login,omitempty"`
	Preferences   model.UserPreferences `bson:"preferences"`
}

func toUserDocument(u *model.User) *userDocument {
	return &userDocument{
		BaseDocument:  newBaseDocument(&u.Base),
		Email:         u.Email,
		Password:      u.Password,
		Name:          u.Name,
		Role:          u.Role,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLogin,
		Preferences:   u.Preferences.Data(),
	}
}

func (d *userDocument) model() *model.User {
	return &model.User{
		Base:          d.base(),
		Email:         d.Email,
		Password:      d.Password,
		Name:          d.Name,
		Role:          d.Role,
		IsActive:      d.IsActive,
		EmailVerified: d.EmailVerified,
		LastLogin:     d.LastLogin,
		Preferences:   datatypes.NewJSONType(d.Preferences),
	}
}

func userModels(docs []userDocument) []model.User {
	users := make([]model.User, len(docs))
	for i := range docs {
		users[i] = *docs[i].model()
	}
	return users
}

type mongoUserRepository struct {
	coll mongoCollection[userDocument]
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	stamp(&user.Base, r.coll.now())
	return r.coll.insert(ctx, toUserDocument(user))
}

func (r *mongoUserRepository) one(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*model.User, error) {
	doc, err := r.coll.findOne(ctx, live(filter), opts...)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.one(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"password": 0}))
}

func (r *mongoUserRepository) FindScoped(ctx context.Context, id, companyID string) (*model.User, error) {
	return r.one(ctx, bson.M{"_id": id, "company_id": companyID})
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.one(ctx, bson.M{"email": model.NormalizeEmail(email)})
}

func (r *mongoUserRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	filter := bson.M{"email": model.NormalizeEmail(email)}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return r.coll.exists(ctx, live(filter))
}

func (r *mongoUserRepository) List(ctx context.Context, filter model.UserFilter) ([]model.User, int64, error) {
	query := bson.M{"company_id": filter.CompanyID}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.IsActive != nil {
		query["is_active"] = *filter.IsActive
	}
	if filter.EmailVerified != nil {
		query["email_verified"] = *filter.EmailVerified
	}
	docs, total, err := r.coll.list(ctx, query, filter.PageQuery, model.UserSortKeys, "name", "email")
	if err != nil {
		return nil, 0, err
	}
	return userModels(docs), total, nil
}

func (r *mongoUserRepository) Update(ctx context.Context, user *model.User, columns []string) error {
	return r.coll.setColumns(ctx, user.ID, toUserDocument(user), columns)
}

func (r *mongoUserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.coll.set(ctx, bson.M{"_id": id}, bson.M{"password": hash})
}

func (r *mongoUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.coll.set(ctx, bson.M{"_id": id}, bson.M{"last_login": at})
}

func (r *mongoUserRepository) SoftDelete(ctx context.Context, id, companyID string) (*model.User, error) {
	doc, err := r.coll.softDelete(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoUserRepository) Restore(ctx context.Context, id, companyID string) (*model.User, error) {
	doc, err := r.coll.restore(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoUserRepository) FindDeleted(ctx context.Context, companyID string) ([]model.User, error) {
	docs, err := r.coll.deleted(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return userModels(docs), nil
}

func (r *mongoUserRepository) CountByCompany(ctx context.Context, companyID string) (int64, error) {
	return r.coll.count(ctx, live(bson.M{"company_id": companyID}))
}

func (r *mongoUserRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return r.coll.purge(ctx, before)
}

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"maintenance-service/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestUserDocumentConversion(t *testing.T) {
	deletedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	user := &model.User{
		Base:        model.Base{ID: "u1", CompanyID: "c1", DeleteAt: gorm.DeletedAt{Time: deletedAt, Valid: true}},
		Email:       "ana@example.com",
		Role:        model.RoleAdmin,
		Preferences: datatypes.NewJSONType(model.DefaultUserPreferences()),
	}

	doc := toUserDocument(user)
	require.NotNil(t, doc.DeleteAt)
	assert.Equal(t, deletedAt, *doc.DeleteAt)
	assert.Equal(t, "en", doc.Preferences.Language)

	back := doc.model()
	assert.True(t, back.IsDeleted())
	assert.Equal(t, user.Email, back.Email)
	assert.Equal(t, model.RoleAdmin, back.Role)
}

func TestUserDocumentBSONLayout(t *testing.T) {
	doc := toUserDocument(&model.User{Base: model.Base{ID: "u1", CompanyID: "c1"}, Email: "a@example.com"})

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))

	assert.Equal(t, "u1", fields["_id"])
	assert.Equal(t, "c1", fields["company_id"])
	_, hasDeleteAt := fields["delete_at"]
	assert.False(t, hasDeleteAt, "live documents carry no delete_at")
}

func TestLiveFilter(t *testing.T) {
	filter := live(bson.M{"_id": "x"})
	assert.Equal(t, bson.M{"$exists": false}, filter["delete_at"])
}

// The document store tests need a running server.
func mongoTestDB(t *testing.T) *mongo.Database {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("maintenance_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	require.NoError(t, EnsureMongoIndexes(ctx, db))
	return db
}

func TestMongoStoreSoftDeleteCycle(t *testing.T) {
	db := mongoTestDB(t)
	store := NewMongoStore(db)
	ctx := context.Background()

	user := &model.User{Base: model.Base{CompanyID: "c1"}, Email: "ana@example.com", Password: "hash", Name: "Ana", Role: model.RoleUser, IsActive: true}
	require.NoError(t, store.Users.Create(ctx, user))
	assert.ErrorIs(t, store.Users.Create(ctx, &model.User{Base: model.Base{CompanyID: "c1"}, Email: "ana@example.com"}), ErrDuplicateKey)

	found, err := store.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Password)

	_, err = store.Users.SoftDelete(ctx, user.ID, "c1")
	require.NoError(t, err)
	_, err = store.Users.FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	deleted, err := store.Users.FindDeleted(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	restored, err := store.Users.Restore(ctx, user.ID, "c1")
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted())

	name := "Ana Maria"
	columns := model.UserPatch{Name: &name}.Apply(restored)
	require.NoError(t, store.Users.Update(ctx, restored, columns))
	found, err = store.Users.FindScoped(ctx, user.ID, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", found.Name)
	assert.Equal(t, "hash", found.Password)
}

func TestMongoStoreAccountAndSubscription(t *testing.T) {
	db := mongoTestDB(t)
	store := NewMongoStore(db)
	ctx := context.Background()

	sub := &model.Subscription{Base: model.Base{CompanyID: "c1"}, Name: "Pro",
		Settings: datatypes.JSONSlice[model.EntitySetting]{{Entity: "users", CreateLimitRegistry: 5}}}
	require.NoError(t, store.Subscriptions.Create(ctx, sub))

	account := &model.Account{Base: model.Base{CompanyID: "c1"}, SubscriptionID: sub.ID}
	require.NoError(t, store.Accounts.Create(ctx, account))

	found, err := store.Accounts.FindByCompany(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, found.SubscriptionID)

	loaded, err := store.Subscriptions.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	setting, ok := loaded.LimitFor("users")
	require.True(t, ok)
	assert.EqualValues(t, 5, setting.CreateLimitRegistry)
}

package repository

import (
	"context"
	"errors"
	"time"

	"maintenance-service/internal/model"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrUnknownEntity  = errors.New("no counter registered for entity")
)

// Default lookups exclude soft-deleted records. Scoped lookups additionally require
// the record to belong to the given company.

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// FindByID returns a live user with the password hash cleared
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindScoped(ctx context.Context, id, companyID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	List(ctx context.Context, filter model.UserFilter) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User, columns []string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	SoftDelete(ctx context.Context, id, companyID string) (*model.User, error)
	Restore(ctx context.Context, id, companyID string) (*model.User, error)
	FindDeleted(ctx context.Context, companyID string) ([]model.User, error)
	CountByCompany(ctx context.Context, companyID string) (int64, error)
	Purger
}

type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	FindByID(ctx context.Context, id string) (*model.Company, error)
	FindScoped(ctx context.Context, id, companyID string) (*model.Company, error)
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)
	List(ctx context.Context, filter model.ScopeFilter) ([]model.Company, int64, error)
	Update(ctx context.Context, company *model.Company, columns []string) error
	SoftDelete(ctx context.Context, id, companyID string) (*model.Company, error)
	Restore(ctx context.Context, id, companyID string) (*model.Company, error)
	FindDeleted(ctx context.Context, companyID string) ([]model.Company, error)
	Purger
}

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	FindScoped(ctx context.Context, id, companyID string) (*model.Account, error)
	FindByCompany(ctx context.Context, companyID string) (*model.Account, error)
	ActiveExists(ctx context.Context, companyID, excludeID string) (bool, error)
	List(ctx context.Context, filter model.AccountFilter) ([]model.Account, int64, error)
	Update(ctx context.Context, account *model.Account, columns []string) error
	SoftDelete(ctx context.Context, id, companyID string) (*model.Account, error)
	Restore(ctx context.Context, id, companyID string) (*model.Account, error)
	FindDeleted(ctx context.Context, companyID string) ([]model.Account, error)
	Purger
}

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *model.Subscription) error
	FindByID(ctx context.Context, id string) (*model.Subscription, error)
	FindScoped(ctx context.Context, id, companyID string) (*model.Subscription, error)
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)
	List(ctx context.Context, filter model.ScopeFilter) ([]model.Subscription, int64, error)
	Update(ctx context.Context, subscription *model.Subscription, columns []string) error
	SoftDelete(ctx context.Context, id, companyID string) (*model.Subscription, error)
	Restore(ctx context.Context, id, companyID string) (*model.Subscription, error)
	FindDeleted(ctx context.Context, companyID string) ([]model.Subscription, error)
	Purger
}

// Purger hard-removes records soft-deleted before a cutoff
type Purger interface {
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

// EntityCounter reports how many live records of an entity a company holds
type EntityCounter interface {
	CountEntities(ctx context.Context, companyID, entity string) (int64, error)
}

// CountFunc counts live records for one company
type CountFunc func(ctx context.Context, companyID string) (int64, error)

// Counters is an EntityCounter backed by per-entity count functions
type Counters struct {
	counters map[string]CountFunc
}

func NewCounters() *Counters {
	return &Counters{counters: make(map[string]CountFunc)}
}

// Register binds entity to fn, replacing any previous binding
func (c *Counters) Register(entity string, fn CountFunc) *Counters {
	c.counters[entity] = fn
	return c
}

// Supports reports whether entity has a registered counter
func (c *Counters) Supports(entity string) bool {
	_, ok := c.counters[entity]
	return ok
}

func (c *Counters) CountEntities(ctx context.Context, companyID, entity string) (int64, error) {
	fn, ok := c.counters[entity]
	if !ok {
		return 0, ErrUnknownEntity
	}
	return fn(ctx, companyID)
}

// Store groups the repositories of one backend
type Store struct {
	Users         UserRepository
	Companies     CompanyRepository
	Accounts      AccountRepository
	Subscriptions SubscriptionRepository
	Counters      *Counters
}

// Purgers returns the purgeable repositories keyed by entity name
func (s *Store) Purgers() map[string]Purger {
	return map[string]Purger{
		"users":         s.Users,
		"companies":     s.Companies,
		"accounts":      s.Accounts,
		"subscriptions": s.Subscriptions,
	}
}

func newStore(users UserRepository, companies CompanyRepository, accounts AccountRepository, subscriptions SubscriptionRepository) *Store {
	return &Store{
		Users:         users,
		Companies:     companies,
		Accounts:      accounts,
		Subscriptions: subscriptions,
		Counters:      NewCounters().Register("users", users.CountByCompany),
	}
}

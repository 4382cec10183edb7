package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"maintenance-service/internal/model"
	"maintenance-service/prometheus"

	"gorm.io/gorm"
)

// gormTable holds the operations shared by all soft-deletable tables
type gormTable[T any] struct {
	db *gorm.DB
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	}
	return err
}

func (t gormTable[T]) create(ctx context.Context, record *T) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translate(t.db.WithContext(ctx).Create(record).Error)
}

func (t gormTable[T]) first(ctx context.Context, query string, args ...interface{}) (*T, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var record T
	if err := t.db.WithContext(ctx).Where(query, args...).First(&record).Error; err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

func (t gormTable[T]) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	defer prometheus.TrackDBOperation("count")(time.Now())
	var count int64
	if err := t.db.WithContext(ctx).Model(new(T)).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t gormTable[T]) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	defer prometheus.TrackDBOperation("count")(time.Now())
	var count int64
	err := t.db.WithContext(ctx).Model(new(T)).Where(query, args...).Count(&count).Error
	return count, err
}

func (t gormTable[T]) update(ctx context.Context, record *T, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	defer prometheus.TrackDBOperation("update")(time.Now())
	columns = append(columns, "updated_at")
	result := t.db.WithContext(ctx).Model(record).Select(columns).Updates(record)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (t gormTable[T]) updateColumns(ctx context.Context, id string, values map[string]interface{}) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	result := t.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// softDelete stamps delete_at on a live record and returns it with the stamp
func (t gormTable[T]) softDelete(ctx context.Context, id, companyID string) (*T, error) {
	record, err := t.first(ctx, "id = ? AND company_id = ?", id, companyID)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := t.db.WithContext(ctx).Delete(record).Error; err != nil {
		return nil, translate(err)
	}

	var deleted T
	if err := t.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&deleted).Error; err != nil {
		return nil, translate(err)
	}
	return &deleted, nil
}

// restore clears delete_at on a deleted record
func (t gormTable[T]) restore(ctx context.Context, id, companyID string) (*T, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())
	result := t.db.WithContext(ctx).Unscoped().Model(new(T)).
		Where("id = ? AND company_id = ? AND delete_at IS NOT NULL", id, companyID).
		Update("delete_at", nil)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return t.first(ctx, "id = ?", id)
}

func (t gormTable[T]) deleted(ctx context.Context, companyID string) ([]T, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var records []T
	err := t.db.WithContext(ctx).Unscoped().
		Where("company_id = ? AND delete_at IS NOT NULL", companyID).
		Order("delete_at desc").
		Find(&records).Error
	return records, err
}

func (t gormTable[T]) purge(ctx context.Context, before time.Time) (int64, error) {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := t.db.WithContext(ctx).Unscoped().
		Where("delete_at IS NOT NULL AND delete_at < ?", before).
		Delete(new(T))
	return result.RowsAffected, result.Error
}

// list applies search, sort and paging on top of scope
func (t gormTable[T]) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB, q model.PageQuery, keys model.SortKeys, searchColumns ...string) ([]T, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q = q.Normalize(keys)

	query := scope(t.db.WithContext(ctx).Model(new(T)))
	if q.Search != "" && len(searchColumns) > 0 {
		term := "%" + strings.ToLower(q.Search) + "%"
		clauses := make([]string, len(searchColumns))
		args := make([]interface{}, len(searchColumns))
		for i, column := range searchColumns {
			clauses[i] = "LOWER(" + column + ") LIKE ?"
			args[i] = term
		}
		query = query.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []T
	err := query.Order(q.OrderClause()).Offset(q.Offset()).Limit(q.Limit).Find(&records).Error
	return records, total, err
}

// NewGormStore builds the SQL-backed repositories
func NewGormStore(db *gorm.DB) *Store {
	return newStore(
		&gormUserRepository{table: gormTable[model.User]{db: db}},
		&gormCompanyRepository{table: gormTable[model.Company]{db: db}},
		&gormAccountRepository{table: gormTable[model.Account]{db: db}},
		&gormSubscriptionRepository{table: gormTable[model.Subscription]{db: db}},
	)
}

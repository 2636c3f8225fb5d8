package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no live row.
	ErrNotFound = errors.New("record not found")
	// ErrDataAccess wraps any statement failure. The driver error is logged
	// for the operator and never surfaced to handlers or responses.
	ErrDataAccess = errors.New("data access failure")
)

// fillable is implemented by models that accept untrusted input. Fields
// outside the returned set are dropped before any write.
type fillable interface {
	Fillable() []string
}

// Repository is a generic table gateway over GORM. Models carrying a
// gorm.DeletedAt field get soft-delete semantics on every operation:
// reads exclude deleted rows and Delete stamps instead of removing.
type Repository[T any] struct {
	db *gorm.DB
}

func New[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// DB exposes the underlying handle for callers composing transactions.
func (r *Repository[T]) DB() *gorm.DB {
	return r.db
}

// WithTx returns a repository bound to the given transaction handle.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx}
}

func (r *Repository[T]) Find(id uint) (*T, error) {
	var entity T
	err := r.db.First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, r.fail("find", err)
	}
	return &entity, nil
}

func (r *Repository[T]) All(orderBy string) ([]T, error) {
	var entities []T
	q := r.db.Model(new(T))
	if orderBy != "" {
		q = q.Order(orderBy)
	}
	if err := q.Find(&entities).Error; err != nil {
		return nil, r.fail("all", err)
	}
	return entities, nil
}

func (r *Repository[T]) FindBy(field string, value any) ([]T, error) {
	var entities []T
	if err := r.db.Where(field+" = ?", value).Find(&entities).Error; err != nil {
		return nil, r.fail("find_by", err)
	}
	return entities, nil
}

func (r *Repository[T]) FindOneBy(field string, value any) (*T, error) {
	var entity T
	err := r.db.Where(field+" = ?", value).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, r.fail("find_one_by", err)
	}
	return &entity, nil
}

// Create inserts a row from untrusted input. Fields outside the model's
// fillable set are silently dropped, never written.
func (r *Repository[T]) Create(fields map[string]any) (*T, error) {
	entity, err := hydrate[T](fields)
	if err != nil {
		return nil, r.fail("create", err)
	}
	if err := r.db.Create(entity).Error; err != nil {
		return nil, r.fail("create", err)
	}
	return entity, nil
}

// Update applies a filtered partial update and returns the fresh row.
func (r *Repository[T]) Update(id uint, fields map[string]any) (*T, error) {
	filtered := filterFillable[T](fields)
	if len(filtered) > 0 {
		res := r.db.Model(new(T)).Where("id = ?", id).Updates(filtered)
		if res.Error != nil {
			return nil, r.fail("update", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.Find(id)
}

// Delete soft-deletes when the model declares gorm.DeletedAt, otherwise
// removes the row.
func (r *Repository[T]) Delete(id uint) error {
	res := r.db.Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return r.fail("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository[T]) Count(scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	var total int64
	if err := r.db.Model(new(T)).Scopes(scopes...).Count(&total).Error; err != nil {
		return 0, r.fail("count", err)
	}
	return total, nil
}

// Page is the single source of pagination truth; callers must not
// recompute last_page themselves.
type Page[T any] struct {
	Rows        []T   `json:"rows"`
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

func (r *Repository[T]) Paginate(page, perPage int, orderBy string, scopes ...func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}

	total, err := r.Count(scopes...)
	if err != nil {
		return nil, err
	}

	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}

	var rows []T
	q := r.db.Model(new(T)).Scopes(scopes...)
	if orderBy != "" {
		q = q.Order(orderBy)
	}
	if err := q.Limit(perPage).Offset((page - 1) * perPage).Find(&rows).Error; err != nil {
		return nil, r.fail("paginate", err)
	}

	return &Page[T]{
		Rows:        rows,
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    lastPage,
	}, nil
}

func (r *Repository[T]) fail(op string, err error) error {
	log.Printf("[ERROR] repository %T %s: %v", *new(T), op, err)
	return fmt.Errorf("%s: %w", op, ErrDataAccess)
}

// filterFillable drops any key not in the model's fillable set. A model
// without a fillable declaration accepts no untrusted fields at all.
func filterFillable[T any](fields map[string]any) map[string]any {
	var zero T
	f, ok := any(zero).(fillable)
	if !ok {
		return map[string]any{}
	}
	allowed := make(map[string]bool, len(f.Fillable()))
	for _, name := range f.Fillable() {
		allowed[name] = true
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if allowed[k] {
			out[k] = v
		}
	}
	return out
}

// hydrate builds a model value from a filtered field map. Field names are
// the models' json tags, which match their column names.
func hydrate[T any](fields map[string]any) (*T, error) {
	filtered := filterFillable[T](fields)
	raw, err := json.Marshal(filtered)
	if err != nil {
		return nil, err
	}
	entity := new(T)
	if err := json.Unmarshal(raw, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

package repository

import (
	"fmt"
	"testing"

	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// Each pooled connection to :memory: would see its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()
	cat := models.Category{Name: "Obat Bebas"}
	require.NoError(t, db.Create(&cat).Error)
	return &cat
}

func TestCreate_FillableFiltering(t *testing.T) {
	db := setupDB(t)
	cat := seedCategory(t, db)
	repo := New[models.Product](db)

	product, err := repo.Create(map[string]any{
		"name":        "Paracetamol 500mg",
		"category_id": float64(cat.ID),
		"price":       12000.0,
		"stock":       float64(50),
		// Not in the fillable set; must be dropped, not written.
		"id":         float64(999),
		"created_at": "2001-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uint(999), product.ID)
	assert.Equal(t, "Paracetamol 500mg", product.Name)
	assert.Equal(t, 12000.0, product.Price)

	var raw models.Product
	require.NoError(t, db.First(&raw, "id = ?", product.ID).Error)
	assert.NotEqual(t, 2001, raw.CreatedAt.Year())
}

func TestUpdate_FillableFiltering(t *testing.T) {
	db := setupDB(t)
	cat := seedCategory(t, db)
	repo := New[models.Product](db)

	created, err := repo.Create(map[string]any{
		"name": "Vitamin C", "category_id": float64(cat.ID), "price": 5000.0,
	})
	require.NoError(t, err)

	updated, err := repo.Update(created.ID, map[string]any{
		"price": 6000.0,
		"id":    float64(12345),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 6000.0, updated.Price)
	assert.Equal(t, "Vitamin C", updated.Name)
}

func TestUpdate_UnknownID(t *testing.T) {
	db := setupDB(t)
	repo := New[models.Product](db)

	_, err := repo.Update(42, map[string]any{"price": 1.0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_SoftDeleteInvariant(t *testing.T) {
	db := setupDB(t)
	cat := seedCategory(t, db)
	repo := New[models.Product](db)

	product, err := repo.Create(map[string]any{
		"name": "Amoxicillin", "category_id": float64(cat.ID), "price": 25000.0,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(product.ID))

	// Default-scoped reads no longer see the row.
	_, err = repo.Find(product.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.All("")
	require.NoError(t, err)
	assert.Empty(t, all)

	// The row itself persists with the deletion stamp set and all other
	// fields untouched.
	var raw models.Product
	require.NoError(t, db.Unscoped().First(&raw, "id = ?", product.ID).Error)
	assert.True(t, raw.DeletedAt.Valid)
	assert.Equal(t, "Amoxicillin", raw.Name)
	assert.Equal(t, 25000.0, raw.Price)
}

func TestDelete_UnknownID(t *testing.T) {
	db := setupDB(t)
	repo := New[models.Customer](db)
	assert.ErrorIs(t, repo.Delete(77), ErrNotFound)
}

func TestPaginate_Consistency(t *testing.T) {
	db := setupDB(t)
	repo := New[models.Customer](db)

	for i := 0; i < 23; i++ {
		_, err := repo.Create(map[string]any{"name": fmt.Sprintf("Pelanggan %02d", i)})
		require.NoError(t, err)
	}

	page1, err := repo.Paginate(1, 10, "name asc")
	require.NoError(t, err)
	assert.Len(t, page1.Rows, 10)
	assert.Equal(t, int64(23), page1.Total)
	assert.Equal(t, 3, page1.LastPage)
	assert.Equal(t, 1, page1.CurrentPage)
	assert.Equal(t, 10, page1.PerPage)

	page3, err := repo.Paginate(3, 10, "name asc")
	require.NoError(t, err)
	assert.Len(t, page3.Rows, 3)
	assert.Equal(t, int64(23), page3.Total)
	assert.Equal(t, 3, page3.LastPage)
}

func TestPaginate_Empty(t *testing.T) {
	db := setupDB(t)
	repo := New[models.Customer](db)

	page, err := repo.Paginate(1, 10, "")
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, int64(0), page.Total)
	assert.Equal(t, 1, page.LastPage)
}

func TestFindOneBy(t *testing.T) {
	db := setupDB(t)
	repo := New[models.Customer](db)

	created, err := repo.Create(map[string]any{"name": "Budi", "phone": "0812000111"})
	require.NoError(t, err)

	found, err := repo.FindOneBy("phone", "0812000111")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindOneBy("phone", "0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCount_WithScope(t *testing.T) {
	db := setupDB(t)
	cat := seedCategory(t, db)
	repo := New[models.Product](db)

	for i, stock := range []int{0, 5, 20} {
		_, err := repo.Create(map[string]any{
			"name":        fmt.Sprintf("P%d", i),
			"category_id": float64(cat.ID),
			"price":       1000.0,
			"stock":       float64(stock),
		})
		require.NoError(t, err)
	}

	n, err := repo.Count(func(q *gorm.DB) *gorm.DB { return q.Where("stock > 0") })
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

package commission

import (
	"testing"

	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// Each pooled connection to :memory: would see its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return NewService(db), db
}

func ratePtr(v float64) *float64 { return &v }

func TestResolveRate_Precedence(t *testing.T) {
	svc, db := setupService(t)

	category := models.Category{Name: "Obat", CommissionRate: ratePtr(3)}
	require.NoError(t, db.Create(&category).Error)
	bareCategory := models.Category{Name: "Umum"}
	require.NoError(t, db.Create(&bareCategory).Error)
	require.NoError(t, db.Create(&models.Setting{
		Key: models.SettingCommissionRate, Value: "1.5",
	}).Error)

	tests := []struct {
		name    string
		product models.Product
		want    float64
	}{
		{
			name:    "product rate beats category and global",
			product: models.Product{CategoryID: category.ID, CommissionRate: ratePtr(5)},
			want:    5,
		},
		{
			name:    "category rate beats global",
			product: models.Product{CategoryID: category.ID},
			want:    3,
		},
		{
			name:    "global rate when product and category are silent",
			product: models.Product{CategoryID: bareCategory.ID},
			want:    1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.ResolveRate(db, &tt.product))
		})
	}
}

func TestResolveRate_NoRateAnywhere(t *testing.T) {
	svc, db := setupService(t)

	category := models.Category{Name: "Umum"}
	require.NoError(t, db.Create(&category).Error)

	product := models.Product{CategoryID: category.ID}
	assert.Equal(t, 0.0, svc.ResolveRate(db, &product))
}

func TestSummaryAndMarkPaid(t *testing.T) {
	svc, db := setupService(t)

	seed := []models.Commission{
		{SaleID: 1, UserID: 9, Amount: 100, Status: models.CommissionPending},
		{SaleID: 2, UserID: 9, Amount: 50, Status: models.CommissionPending},
		{SaleID: 3, UserID: 9, Amount: 25, Status: models.CommissionPaid},
		{SaleID: 4, UserID: 8, Amount: 999, Status: models.CommissionPending},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	summary, err := svc.SummaryFor(9)
	require.NoError(t, err)
	assert.Equal(t, 150.0, summary.Pending)
	assert.Equal(t, 25.0, summary.Paid)

	total, err := svc.MarkPaid(9)
	require.NoError(t, err)
	assert.Equal(t, 150.0, total)

	after, err := svc.SummaryFor(9)
	require.NoError(t, err)
	assert.Equal(t, 0.0, after.Pending)
	assert.Equal(t, 175.0, after.Paid)

	// Freshly settled rows carry the settlement timestamp.
	var settled []models.Commission
	require.NoError(t, db.Where("user_id = ? AND status = ? AND sale_id IN ?",
		9, models.CommissionPaid, []uint{1, 2}).Find(&settled).Error)
	require.Len(t, settled, 2)
	for _, row := range settled {
		assert.NotNil(t, row.PaidAt)
	}

	// The other user's commissions are untouched.
	other, err := svc.SummaryFor(8)
	require.NoError(t, err)
	assert.Equal(t, 999.0, other.Pending)
}

func TestMarkPaid_NothingPending(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.MarkPaid(42)
	assert.ErrorIs(t, err, ErrNothingPending)
}

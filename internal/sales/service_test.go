package sales

import (
	"testing"
	"time"

	"pos-backend/internal/commission"
	"pos-backend/internal/database"
	"pos-backend/internal/models"
	"pos-backend/internal/notification"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
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

	commissions := commission.NewService(db)
	notifier := notification.NewService(db, notification.NewPublisher(""))
	return NewService(db, commissions, notifier), db
}

func testCtx(t *testing.T) *fiber.Ctx {
	t.Helper()
	app := fiber.New()
	c := app.AcquireCtx(&fasthttp.RequestCtx{})
	t.Cleanup(func() { app.ReleaseCtx(c) })
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int, rate *float64) *models.Product {
	t.Helper()
	category := models.Category{Name: "Kategori " + name}
	require.NoError(t, db.Create(&category).Error)
	product := models.Product{
		CategoryID:     category.ID,
		Name:           name,
		Price:          price,
		Stock:          stock,
		CommissionRate: rate,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func seedCashier(t *testing.T, db *gorm.DB) uint {
	t.Helper()
	user := models.User{
		Username: "kasir", Name: "Kasir", Email: "kasir@toko.id",
		PasswordHash: "x", Role: models.RoleSales, Status: models.UserActive,
	}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func ratePtr(v float64) *float64 { return &v }

func timeDayStart() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func TestRecord_Success(t *testing.T) {
	svc, db := setupService(t)
	cashier := seedCashier(t, db)
	p1 := seedProduct(t, db, "Paracetamol", 10000, 10, ratePtr(2))
	p2 := seedProduct(t, db, "Vitamin C", 5000, 4, nil)

	sale, err := svc.Record(testCtx(t), RecordInput{
		CashierID: cashier,
		Discount:  1000,
		Paid:      50000,
		Items: []ItemInput{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 35000.0, sale.Subtotal)
	assert.Equal(t, 34000.0, sale.Total)
	assert.Equal(t, 16000.0, sale.Change)
	assert.Len(t, sale.Items, 2)
	assert.Regexp(t, `^INV-\d{8}-0001$`, sale.InvoiceNumber)

	// Stock decremented per line.
	var fresh1, fresh2 models.Product
	require.NoError(t, db.First(&fresh1, "id = ?", p1.ID).Error)
	require.NoError(t, db.First(&fresh2, "id = ?", p2.ID).Error)
	assert.Equal(t, 8, fresh1.Stock)
	assert.Equal(t, 1, fresh2.Stock)

	// Commission accrues only on the line with a rate: 2% of 20000.
	var com models.Commission
	require.NoError(t, db.First(&com, "sale_id = ?", sale.ID).Error)
	assert.Equal(t, cashier, com.UserID)
	assert.Equal(t, 400.0, com.Amount)
	assert.Equal(t, models.CommissionPending, com.Status)
}

func TestRecord_OversellRollsBack(t *testing.T) {
	svc, db := setupService(t)
	cashier := seedCashier(t, db)
	p1 := seedProduct(t, db, "Paracetamol", 10000, 10, nil)
	p2 := seedProduct(t, db, "Vitamin C", 5000, 1, nil)

	_, err := svc.Record(testCtx(t), RecordInput{
		CashierID: cashier,
		Paid:      100000,
		Items: []ItemInput{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 5},
		},
	})
	assert.ErrorIs(t, err, ErrOutOfStock)

	// The whole transaction unwound: no sale, no stock change anywhere.
	var saleCount int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&saleCount).Error)
	assert.Equal(t, int64(0), saleCount)

	var fresh1 models.Product
	require.NoError(t, db.First(&fresh1, "id = ?", p1.ID).Error)
	assert.Equal(t, 10, fresh1.Stock)
}

func TestRecord_Validation(t *testing.T) {
	svc, db := setupService(t)
	cashier := seedCashier(t, db)
	p := seedProduct(t, db, "Paracetamol", 10000, 10, nil)

	tests := []struct {
		name    string
		input   RecordInput
		wantErr error
	}{
		{
			name:    "no items",
			input:   RecordInput{CashierID: cashier, Paid: 1000},
			wantErr: ErrEmptySale,
		},
		{
			name: "unknown product",
			input: RecordInput{CashierID: cashier, Paid: 1000,
				Items: []ItemInput{{ProductID: 9999, Quantity: 1}}},
			wantErr: ErrUnknownProduct,
		},
		{
			name: "zero quantity",
			input: RecordInput{CashierID: cashier, Paid: 1000,
				Items: []ItemInput{{ProductID: p.ID, Quantity: 0}}},
			wantErr: ErrUnknownProduct,
		},
		{
			name: "paid below total",
			input: RecordInput{CashierID: cashier, Paid: 5000,
				Items: []ItemInput{{ProductID: p.ID, Quantity: 1}}},
			wantErr: ErrInsufficientPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(testCtx(t), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRecord_InvoiceNumbersIncrement(t *testing.T) {
	svc, db := setupService(t)
	cashier := seedCashier(t, db)
	p := seedProduct(t, db, "Paracetamol", 10000, 10, nil)

	first, err := svc.Record(testCtx(t), RecordInput{
		CashierID: cashier, Paid: 10000,
		Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	second, err := svc.Record(testCtx(t), RecordInput{
		CashierID: cashier, Paid: 10000,
		Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.InvoiceNumber, second.InvoiceNumber)
	assert.Regexp(t, `-0002$`, second.InvoiceNumber)
}

func TestRecord_LowStockNotifiesAdmins(t *testing.T) {
	svc, db := setupService(t)
	cashier := seedCashier(t, db)

	adminUser := models.User{
		Username: "admin", Name: "Admin", Email: "admin@toko.id",
		PasswordHash: "x", Role: models.RoleAdmin, Status: models.UserActive,
	}
	require.NoError(t, db.Create(&adminUser).Error)

	category := models.Category{Name: "Obat"}
	require.NoError(t, db.Create(&category).Error)
	product := models.Product{
		CategoryID: category.ID, Name: "Amoxicillin",
		Price: 20000, Stock: 6, MinStock: 5,
	}
	require.NoError(t, db.Create(&product).Error)

	_, err := svc.Record(testCtx(t), RecordInput{
		CashierID: cashier, Paid: 40000,
		Items: []ItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	var kinds []models.NotificationKind
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ?", adminUser.ID).
		Order("id asc").Pluck("kind", &kinds).Error)
	assert.Contains(t, kinds, models.NotifySaleRecorded)
	assert.Contains(t, kinds, models.NotifyLowStock)
}

func TestExportXLSX(t *testing.T) {
	svc, db := setupService(t)
	cashier := seedCashier(t, db)
	p := seedProduct(t, db, "Paracetamol", 10000, 10, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Record(testCtx(t), RecordInput{
			CashierID: cashier, Paid: 10000,
			Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	rows, err := svc.Between(timeDayStart(), timeDayStart().AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	book, err := ExportXLSX(rows, timeDayStart(), timeDayStart().AddDate(0, 0, 1))
	require.NoError(t, err)
	// XLSX files are zip archives; PK is the magic header.
	require.Greater(t, len(book), 4)
	assert.Equal(t, []byte{'P', 'K'}, book[:2])
}

package commission

import (
	"errors"
	"strconv"
	"time"

	"pos-backend/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ResolveRate returns the commission percentage for a product: the product's
// own rate wins, then its category's, then the global default from settings.
// No rate anywhere means zero commission. The handle parameter lets callers
// resolve inside their own transaction.
func (s *Service) ResolveRate(db *gorm.DB, product *models.Product) float64 {
	if product.CommissionRate != nil {
		return *product.CommissionRate
	}

	var category models.Category
	if err := db.First(&category, "id = ?", product.CategoryID).Error; err == nil {
		if category.CommissionRate != nil {
			return *category.CommissionRate
		}
	}

	var setting models.Setting
	if err := db.Where("key = ?", models.SettingCommissionRate).First(&setting).Error; err == nil {
		if rate, err := strconv.ParseFloat(setting.Value, 64); err == nil {
			return rate
		}
	}
	return 0
}

// Accrue writes a pending commission row for the cashier of a sale. A zero
// amount is not recorded. Runs inside the sale's transaction handle.
func (s *Service) Accrue(tx *gorm.DB, sale *models.Sale, amount float64) error {
	if amount <= 0 {
		return nil
	}
	row := models.Commission{
		SaleID: sale.ID,
		UserID: sale.UserID,
		Amount: amount,
		Status: models.CommissionPending,
	}
	return tx.Create(&row).Error
}

// Summary aggregates one user's commissions by status.
type Summary struct {
	UserID  uint    `json:"user_id"`
	Pending float64 `json:"pending"`
	Paid    float64 `json:"paid"`
}

func (s *Service) SummaryFor(userID uint) (*Summary, error) {
	out := &Summary{UserID: userID}

	type row struct {
		Status models.CommissionStatus
		Total  float64
	}
	var rows []row
	err := s.db.Model(&models.Commission{}).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		switch r.Status {
		case models.CommissionPending:
			out.Pending = r.Total
		case models.CommissionPaid:
			out.Paid = r.Total
		}
	}
	return out, nil
}

var ErrNothingPending = errors.New("no pending commissions")

// MarkPaid settles every pending commission of the user in one transaction
// and returns the settled total.
func (s *Service) MarkPaid(userID uint) (float64, error) {
	var total float64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Commission{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("user_id = ? AND status = ?", userID, models.CommissionPending).
			Scan(&total).Error
		if err != nil {
			return err
		}
		if total == 0 {
			return ErrNothingPending
		}
		return tx.Model(&models.Commission{}).
			Where("user_id = ? AND status = ?", userID, models.CommissionPending).
			Updates(map[string]any{
				"status":  models.CommissionPaid,
				"paid_at": time.Now(),
			}).Error
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

package sales

import (
	"errors"
	"fmt"
	"time"

	"pos-backend/internal/commission"
	"pos-backend/internal/models"
	"pos-backend/internal/notification"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	ErrEmptySale        = errors.New("sale has no items")
	ErrInsufficientPaid = errors.New("paid amount below total")
	ErrOutOfStock       = errors.New("insufficient stock")
	ErrUnknownProduct   = errors.New("unknown product")
)

type Service struct {
	db          *gorm.DB
	commissions *commission.Service
	notifier    *notification.Service
}

func NewService(db *gorm.DB, commissions *commission.Service, notifier *notification.Service) *Service {
	return &Service{db: db, commissions: commissions, notifier: notifier}
}

type ItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type RecordInput struct {
	CashierID  uint
	CustomerID *uint
	Discount   float64
	Paid       float64
	Items      []ItemInput
}

// Record persists a sale atomically: stock is decremented per line with an
// oversell check, totals are computed server-side, and the cashier's
// commission accrues in the same transaction. A failure on any line rolls
// the whole sale back.
func (s *Service) Record(c *fiber.Ctx, in RecordInput) (*models.Sale, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptySale
	}

	var sale *models.Sale
	var lowStock []models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var subtotal float64
		var commissionTotal float64
		items := make([]models.SaleItem, 0, len(in.Items))

		for _, item := range in.Items {
			if item.Quantity < 1 {
				return fmt.Errorf("%w: product %d", ErrUnknownProduct, item.ProductID)
			}

			var product models.Product
			if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
				return fmt.Errorf("%w: product %d", ErrUnknownProduct, item.ProductID)
			}
			if product.Stock < item.Quantity {
				return fmt.Errorf("%w: %s", ErrOutOfStock, product.Name)
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: %s", ErrOutOfStock, product.Name)
			}

			lineTotal := product.Price * float64(item.Quantity)
			subtotal += lineTotal
			commissionTotal += lineTotal * s.commissions.ResolveRate(tx, &product) / 100

			items = append(items, models.SaleItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
				LineTotal: lineTotal,
			})

			if product.MinStock > 0 && product.Stock-item.Quantity <= product.MinStock {
				product.Stock -= item.Quantity
				lowStock = append(lowStock, product)
			}
		}

		total := subtotal - in.Discount
		if total < 0 {
			total = 0
		}
		if in.Paid < total {
			return ErrInsufficientPaid
		}

		sale = &models.Sale{
			InvoiceNumber: newInvoiceNumber(tx),
			UserID:        in.CashierID,
			CustomerID:    in.CustomerID,
			Subtotal:      subtotal,
			Discount:      in.Discount,
			Total:         total,
			Paid:          in.Paid,
			Change:        in.Paid - total,
			Items:         items,
		}
		if err := tx.Create(sale).Error; err != nil {
			return fmt.Errorf("sale persist failed: %w", err)
		}

		return s.commissions.Accrue(tx, sale, commissionTotal)
	})
	if err != nil {
		return nil, err
	}

	// Notifications ride outside the transaction; their failure never
	// unwinds a committed sale.
	ctx := c.Context()
	_ = s.notifier.NotifyAdmins(ctx, models.NotifySaleRecorded,
		"Penjualan baru",
		fmt.Sprintf("Invoice %s senilai %.2f", sale.InvoiceNumber, sale.Total))
	for _, p := range lowStock {
		_ = s.notifier.NotifyAdmins(ctx, models.NotifyLowStock,
			"Stok menipis",
			fmt.Sprintf("Stok %s tersisa %d", p.Name, p.Stock))
	}

	return sale, nil
}

// newInvoiceNumber derives INV-YYYYMMDD-NNNN from the day's sale count.
// The invoice column is unique, so a rare collision between concurrent
// requests fails the losing transaction instead of issuing a duplicate.
func newInvoiceNumber(tx *gorm.DB) string {
	today := time.Now().Format("20060102")
	var count int64
	tx.Model(&models.Sale{}).
		Where("invoice_number LIKE ?", "INV-"+today+"-%").
		Count(&count)
	return fmt.Sprintf("INV-%s-%04d", today, count+1)
}

func (s *Service) Detail(id uint) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.Preload("Items").Preload("Items.Product").
		Preload("Customer").Preload("User").
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// Between returns sales in [from, to) oldest first, items included.
func (s *Service) Between(from, to time.Time) ([]models.Sale, error) {
	var rows []models.Sale
	err := s.db.Preload("Items").Preload("Items.Product").Preload("User").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package sales

import (
	"errors"
	"fmt"
	"time"

	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/repository"
	"pos-backend/internal/session"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateSaleRequest struct {
	CustomerID *uint       `json:"customer_id"`
	Discount   float64     `json:"discount"`
	Paid       float64     `json:"paid"`
	Items      []ItemInput `json:"items"`
}

func CreateSaleHandler(svc *Service, authSvc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}
		if body.Discount < 0 || body.Paid < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Nilai diskon dan pembayaran tidak boleh negatif")
		}

		cashier := authSvc.CurrentUser(c, session.FromCtx(c))
		if cashier == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Belum login")
		}

		sale, err := svc.Record(c, RecordInput{
			CashierID:  cashier.ID,
			CustomerID: body.CustomerID,
			Discount:   body.Discount,
			Paid:       body.Paid,
			Items:      body.Items,
		})
		switch {
		case err == nil:
		case errors.Is(err, ErrEmptySale):
			return fiber.NewError(fiber.StatusBadRequest, "Penjualan harus memiliki minimal satu item")
		case errors.Is(err, ErrUnknownProduct):
			return fiber.NewError(fiber.StatusBadRequest, "Produk tidak ditemukan")
		case errors.Is(err, ErrOutOfStock):
			return fiber.NewError(fiber.StatusBadRequest, "Stok tidak mencukupi")
		case errors.Is(err, ErrInsufficientPaid):
			return fiber.NewError(fiber.StatusBadRequest, "Pembayaran kurang dari total")
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "Penjualan gagal disimpan")
		}

		return c.Status(fiber.StatusCreated).JSON(sale)
	}
}

func ListSalesHandler(db *gorm.DB) fiber.Handler {
	repo := repository.New[models.Sale](db)
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		perPage := c.QueryInt("per_page", 15)

		scopes := []func(*gorm.DB) *gorm.DB{}
		if from := c.Query("from"); from != "" {
			if t, err := time.Parse("2006-01-02", from); err == nil {
				scopes = append(scopes, func(q *gorm.DB) *gorm.DB {
					return q.Where("created_at >= ?", t)
				})
			}
		}
		if to := c.Query("to"); to != "" {
			if t, err := time.Parse("2006-01-02", to); err == nil {
				scopes = append(scopes, func(q *gorm.DB) *gorm.DB {
					return q.Where("created_at < ?", t.AddDate(0, 0, 1))
				})
			}
		}

		result, err := repo.Paginate(page, perPage, "created_at desc", scopes...)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Penjualan gagal dimuat")
		}
		return c.JSON(result)
	}
}

func SaleDetailHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}
		sale, err := svc.Detail(uint(id))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Penjualan tidak ditemukan")
		}
		return c.JSON(sale)
	}
}

// GET /api/sales/export?from=2026-08-01&to=2026-08-31
func ExportSalesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := time.Parse("2006-01-02", c.Query("from"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Parameter from wajib (format 2006-01-02)")
		}
		toDay, err := time.Parse("2006-01-02", c.Query("to"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Parameter to wajib (format 2006-01-02)")
		}
		to := toDay.AddDate(0, 0, 1)
		if !to.After(from) {
			return fiber.NewError(fiber.StatusBadRequest, "Rentang tanggal tidak valid")
		}

		rows, err := svc.Between(from, to)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Data penjualan gagal dimuat")
		}
		book, err := ExportXLSX(rows, from, to)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Laporan gagal dibuat")
		}

		filename := fmt.Sprintf("penjualan_%s_%s.xlsx",
			from.Format("20060102"), toDay.Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		return c.Send(book)
	}
}

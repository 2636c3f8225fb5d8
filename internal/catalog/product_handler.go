package catalog

import (
	"errors"
	"fmt"
	"strings"

	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/repository"
	"pos-backend/internal/session"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProductHandlers struct {
	products   *repository.Repository[models.Product]
	categories *repository.Repository[models.Category]
	audit      *audit.Logger
	auth       *auth.Service
}

func NewProductHandlers(db *gorm.DB, auditLog *audit.Logger, authSvc *auth.Service) *ProductHandlers {
	return &ProductHandlers{
		products:   repository.New[models.Product](db),
		categories: repository.New[models.Category](db),
		audit:      auditLog,
		auth:       authSvc,
	}
}

// GET /api/products?search=&category_id=&low_stock=&page=&per_page=
func (h *ProductHandlers) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scopes := []func(*gorm.DB) *gorm.DB{}

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			scopes = append(scopes, func(q *gorm.DB) *gorm.DB {
				return q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
			})
		}
		if cid := c.QueryInt("category_id", 0); cid > 0 {
			scopes = append(scopes, func(q *gorm.DB) *gorm.DB {
				return q.Where("category_id = ?", cid)
			})
		}
		if c.QueryBool("low_stock", false) {
			scopes = append(scopes, func(q *gorm.DB) *gorm.DB {
				return q.Where("min_stock > 0 AND stock <= min_stock")
			})
		}

		result, err := h.products.Paginate(
			c.QueryInt("page", 1), c.QueryInt("per_page", 15), "name asc", scopes...)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Produk gagal dimuat")
		}
		return c.JSON(result)
	}
}

func (h *ProductHandlers) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}
		product, err := h.products.Find(uint(id))
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Produk tidak ditemukan")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Produk gagal dimuat")
		}
		return c.JSON(product)
	}
}

// Create accepts a raw field map; anything outside the product's fillable
// set is dropped by the repository before it reaches the database.
func (h *ProductHandlers) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fields map[string]any
		if err := c.BodyParser(&fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}
		if err := h.validate(fields, true); err != nil {
			return err
		}

		product, err := h.products.Create(fields)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Produk gagal dibuat")
		}

		h.writeAudit(c, models.ActivityCreate, fmt.Sprintf("Produk #%d: %s", product.ID, product.Name))
		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

func (h *ProductHandlers) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}

		var fields map[string]any
		if err := c.BodyParser(&fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}
		if err := h.validate(fields, false); err != nil {
			return err
		}

		product, err := h.products.Update(uint(id), fields)
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Produk tidak ditemukan")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Produk gagal diperbarui")
		}

		h.writeAudit(c, models.ActivityUpdate, fmt.Sprintf("Produk #%d: %s", product.ID, product.Name))
		return c.JSON(product)
	}
}

func (h *ProductHandlers) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}

		err = h.products.Delete(uint(id))
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Produk tidak ditemukan")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Produk gagal dihapus")
		}

		h.writeAudit(c, models.ActivityDelete, fmt.Sprintf("Produk #%d", id))
		return c.JSON(fiber.Map{"message": "Produk dihapus"})
	}
}

// validate enforces the minimum create/update constraints the database
// cannot express: non-empty name, positive price, existing category.
func (h *ProductHandlers) validate(fields map[string]any, creating bool) error {
	name, hasName := fields["name"].(string)
	if creating && strings.TrimSpace(name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Nama produk wajib diisi")
	}
	if hasName && strings.TrimSpace(name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Nama produk tidak boleh kosong")
	}

	if price, ok := fields["price"].(float64); ok && price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Harga tidak boleh negatif")
	} else if creating && !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Harga wajib diisi")
	}

	cid, hasCategory := fields["category_id"].(float64)
	if creating && !hasCategory {
		return fiber.NewError(fiber.StatusBadRequest, "Kategori wajib diisi")
	}
	if hasCategory {
		if _, err := h.categories.Find(uint(cid)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori tidak ditemukan")
		}
	}
	return nil
}

func (h *ProductHandlers) writeAudit(c *fiber.Ctx, action models.ActivityAction, description string) {
	if user := h.auth.CurrentUser(c, session.FromCtx(c)); user != nil {
		h.audit.WriteFromRequest(c, &user.ID, action, description)
	}
}

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

type CategoryHandlers struct {
	db         *gorm.DB
	categories *repository.Repository[models.Category]
	audit      *audit.Logger
	auth       *auth.Service
}

func NewCategoryHandlers(db *gorm.DB, auditLog *audit.Logger, authSvc *auth.Service) *CategoryHandlers {
	return &CategoryHandlers{
		db:         db,
		categories: repository.New[models.Category](db),
		audit:      auditLog,
		auth:       authSvc,
	}
}

func (h *CategoryHandlers) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		categories, err := h.categories.All("name asc")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori gagal dimuat")
		}
		return c.JSON(categories)
	}
}

func (h *CategoryHandlers) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fields map[string]any
		if err := c.BodyParser(&fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}
		if name, _ := fields["name"].(string); strings.TrimSpace(name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nama kategori wajib diisi")
		}

		category, err := h.categories.Create(fields)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori gagal dibuat")
		}

		h.writeAudit(c, models.ActivityCreate, fmt.Sprintf("Kategori #%d: %s", category.ID, category.Name))
		return c.Status(fiber.StatusCreated).JSON(category)
	}
}

func (h *CategoryHandlers) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}

		var fields map[string]any
		if err := c.BodyParser(&fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}
		if name, ok := fields["name"].(string); ok && strings.TrimSpace(name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nama kategori tidak boleh kosong")
		}

		category, err := h.categories.Update(uint(id), fields)
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Kategori tidak ditemukan")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori gagal diperbarui")
		}

		h.writeAudit(c, models.ActivityUpdate, fmt.Sprintf("Kategori #%d: %s", category.ID, category.Name))
		return c.JSON(category)
	}
}

// Delete refuses while live products still reference the category.
func (h *CategoryHandlers) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}

		var inUse int64
		if err := h.db.Model(&models.Product{}).
			Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori gagal dihapus")
		}
		if inUse > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori masih dipakai produk")
		}

		err = h.categories.Delete(uint(id))
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Kategori tidak ditemukan")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori gagal dihapus")
		}

		h.writeAudit(c, models.ActivityDelete, fmt.Sprintf("Kategori #%d", id))
		return c.JSON(fiber.Map{"message": "Kategori dihapus"})
	}
}

func (h *CategoryHandlers) writeAudit(c *fiber.Ctx, action models.ActivityAction, description string) {
	if user := h.auth.CurrentUser(c, session.FromCtx(c)); user != nil {
		h.audit.WriteFromRequest(c, &user.ID, action, description)
	}
}

package customer

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

type Handlers struct {
	customers *repository.Repository[models.Customer]
	audit     *audit.Logger
	auth      *auth.Service
}

func NewHandlers(db *gorm.DB, auditLog *audit.Logger, authSvc *auth.Service) *Handlers {
	return &Handlers{
		customers: repository.New[models.Customer](db),
		audit:     auditLog,
		auth:      authSvc,
	}
}

func (h *Handlers) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scopes := []func(*gorm.DB) *gorm.DB{}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			scopes = append(scopes, func(q *gorm.DB) *gorm.DB {
				return q.Where("LOWER(name) LIKE ? OR phone LIKE ?", like, like)
			})
		}

		result, err := h.customers.Paginate(
			c.QueryInt("page", 1), c.QueryInt("per_page", 15), "name asc", scopes...)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pelanggan gagal dimuat")
		}
		return c.JSON(result)
	}
}

func (h *Handlers) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}
		customer, err := h.customers.Find(uint(id))
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Pelanggan tidak ditemukan")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pelanggan gagal dimuat")
		}
		return c.JSON(customer)
	}
}

func (h *Handlers) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fields map[string]any
		if err := c.BodyParser(&fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}
		if name, _ := fields["name"].(string); strings.TrimSpace(name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nama pelanggan wajib diisi")
		}

		customer, err := h.customers.Create(fields)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pelanggan gagal dibuat")
		}

		h.writeAudit(c, models.ActivityCreate, fmt.Sprintf("Pelanggan #%d: %s", customer.ID, customer.Name))
		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

func (h *Handlers) Update() fiber.Handler {
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
			return fiber.NewError(fiber.StatusBadRequest, "Nama pelanggan tidak boleh kosong")
		}

		customer, err := h.customers.Update(uint(id), fields)
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Pelanggan tidak ditemukan")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pelanggan gagal diperbarui")
		}

		h.writeAudit(c, models.ActivityUpdate, fmt.Sprintf("Pelanggan #%d: %s", customer.ID, customer.Name))
		return c.JSON(customer)
	}
}

func (h *Handlers) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}

		err = h.customers.Delete(uint(id))
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Pelanggan tidak ditemukan")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pelanggan gagal dihapus")
		}

		h.writeAudit(c, models.ActivityDelete, fmt.Sprintf("Pelanggan #%d", id))
		return c.JSON(fiber.Map{"message": "Pelanggan dihapus"})
	}
}

func (h *Handlers) writeAudit(c *fiber.Ctx, action models.ActivityAction, description string) {
	if user := h.auth.CurrentUser(c, session.FromCtx(c)); user != nil {
		h.audit.WriteFromRequest(c, &user.ID, action, description)
	}
}

package admin

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

type UserHandlers struct {
	db    *gorm.DB
	users *repository.Repository[models.User]
	audit *audit.Logger
	auth  *auth.Service
}

func NewUserHandlers(db *gorm.DB, auditLog *audit.Logger, authSvc *auth.Service) *UserHandlers {
	return &UserHandlers{
		db:    db,
		users: repository.New[models.User](db),
		audit: auditLog,
		auth:  authSvc,
	}
}

type CreateUserRequest struct {
	Username string            `json:"username"`
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Role     models.UserRole   `json:"role"`
	Status   models.UserStatus `json:"status"`
}

type UpdateUserRequest struct {
	Name     *string            `json:"name"`
	Email    *string            `json:"email"`
	Password *string            `json:"password"`
	Role     *models.UserRole   `json:"role"`
	Status   *models.UserStatus `json:"status"`
}

func (h *UserHandlers) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scopes := []func(*gorm.DB) *gorm.DB{}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			scopes = append(scopes, func(q *gorm.DB) *gorm.DB {
				return q.Where("LOWER(username) LIKE ? OR LOWER(name) LIKE ?", like, like)
			})
		}
		if role := c.Query("role"); role != "" {
			scopes = append(scopes, func(q *gorm.DB) *gorm.DB {
				return q.Where("role = ?", role)
			})
		}

		result, err := h.users.Paginate(
			c.QueryInt("page", 1), c.QueryInt("per_page", 15), "username asc", scopes...)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pengguna gagal dimuat")
		}
		return c.JSON(result)
	}
}

// Create takes password, role and status explicitly; they sit outside the
// user model's fillable set on purpose.
func (h *UserHandlers) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}

		body.Username = strings.TrimSpace(strings.ToLower(body.Username))
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Username == "" || body.Name == "" || body.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Username, nama dan email wajib diisi")
		}
		if len(body.Password) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "Password minimal 8 karakter")
		}
		if !models.ValidRole(body.Role) {
			return fiber.NewError(fiber.StatusBadRequest, "Role tidak dikenal")
		}
		if body.Status == "" {
			body.Status = models.UserActive
		}

		if _, err := h.users.FindOneBy("username", body.Username); err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Username sudah dipakai")
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pengguna gagal dibuat")
		}

		user := models.User{
			Username:     body.Username,
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         body.Role,
			Status:       body.Status,
		}
		if err := h.db.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pengguna gagal dibuat")
		}

		h.writeAudit(c, models.ActivityCreate, fmt.Sprintf("Pengguna #%d: %s", user.ID, user.Username))
		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

func (h *UserHandlers) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}

		user, err := h.users.Find(uint(id))
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Pengguna tidak ditemukan")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pengguna gagal dimuat")
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}

		updates := map[string]any{}
		if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
			updates["name"] = *body.Name
		}
		if body.Email != nil && strings.TrimSpace(*body.Email) != "" {
			updates["email"] = strings.TrimSpace(strings.ToLower(*body.Email))
		}
		if body.Password != nil {
			if len(*body.Password) < 8 {
				return fiber.NewError(fiber.StatusBadRequest, "Password minimal 8 karakter")
			}
			hash, err := auth.HashPassword(*body.Password)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Pengguna gagal diperbarui")
			}
			updates["password_hash"] = hash
		}
		if body.Role != nil {
			if !models.ValidRole(*body.Role) {
				return fiber.NewError(fiber.StatusBadRequest, "Role tidak dikenal")
			}
			updates["role"] = *body.Role
		}
		if body.Status != nil {
			if *body.Status != models.UserActive && *body.Status != models.UserInactive {
				return fiber.NewError(fiber.StatusBadRequest, "Status tidak dikenal")
			}
			updates["status"] = *body.Status
		}

		// Demoting or deactivating the last active admin would lock
		// everyone out of user management.
		losesAdmin := user.Role == models.RoleAdmin &&
			((body.Role != nil && *body.Role != models.RoleAdmin) ||
				(body.Status != nil && *body.Status != models.UserActive))
		if losesAdmin {
			if last, err := h.isLastActiveAdmin(user.ID); err != nil || last {
				return fiber.NewError(fiber.StatusBadRequest, "Admin aktif terakhir tidak dapat diubah")
			}
		}

		if len(updates) > 0 {
			if err := h.db.Model(user).Updates(updates).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Pengguna gagal diperbarui")
			}
		}

		fresh, err := h.users.Find(uint(id))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pengguna gagal dimuat")
		}
		h.writeAudit(c, models.ActivityUpdate, fmt.Sprintf("Pengguna #%d: %s", fresh.ID, fresh.Username))
		return c.JSON(fresh)
	}
}

func (h *UserHandlers) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}

		user, err := h.users.Find(uint(id))
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Pengguna tidak ditemukan")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pengguna gagal dimuat")
		}

		if user.Role == models.RoleAdmin {
			if last, err := h.isLastActiveAdmin(user.ID); err != nil || last {
				return fiber.NewError(fiber.StatusBadRequest, "Admin aktif terakhir tidak dapat dihapus")
			}
		}

		if err := h.users.Delete(uint(id)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pengguna gagal dihapus")
		}

		h.writeAudit(c, models.ActivityDelete, fmt.Sprintf("Pengguna #%d: %s", user.ID, user.Username))
		return c.JSON(fiber.Map{"message": "Pengguna dihapus"})
	}
}

func (h *UserHandlers) isLastActiveAdmin(excludeID uint) (bool, error) {
	var others int64
	err := h.db.Model(&models.User{}).
		Where("role = ? AND status = ? AND id <> ?", models.RoleAdmin, models.UserActive, excludeID).
		Count(&others).Error
	return others == 0, err
}

func (h *UserHandlers) writeAudit(c *fiber.Ctx, action models.ActivityAction, description string) {
	if user := h.auth.CurrentUser(c, session.FromCtx(c)); user != nil {
		h.audit.WriteFromRequest(c, &user.ID, action, description)
	}
}

package commission

import (
	"errors"

	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/repository"
	"pos-backend/internal/session"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/commissions/summary — admins may inspect any user via ?user_id,
// sales users always see their own.
func SummaryHandler(svc *Service, authSvc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := authSvc.CurrentUser(c, session.FromCtx(c))
		if user == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Belum login")
		}

		targetID := user.ID
		if user.Role == models.RoleAdmin {
			if qid := c.QueryInt("user_id", 0); qid > 0 {
				targetID = uint(qid)
			}
		}

		summary, err := svc.SummaryFor(targetID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ringkasan komisi gagal dimuat")
		}
		return c.JSON(summary)
	}
}

func ListHandler(db *gorm.DB, authSvc *auth.Service) fiber.Handler {
	repo := repository.New[models.Commission](db)
	return func(c *fiber.Ctx) error {
		user := authSvc.CurrentUser(c, session.FromCtx(c))
		if user == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Belum login")
		}

		targetID := user.ID
		if user.Role == models.RoleAdmin {
			if qid := c.QueryInt("user_id", 0); qid > 0 {
				targetID = uint(qid)
			}
		}

		page := c.QueryInt("page", 1)
		perPage := c.QueryInt("per_page", 15)
		result, err := repo.Paginate(page, perPage, "created_at desc",
			func(q *gorm.DB) *gorm.DB { return q.Where("user_id = ?", targetID) })
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Komisi gagal dimuat")
		}
		return c.JSON(result)
	}
}

// POST /api/commissions/:userId/pay — settles all pending commissions.
func MarkPaidHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := c.ParamsInt("userId")
		if err != nil || userID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}

		total, err := svc.MarkPaid(uint(userID))
		if errors.Is(err, ErrNothingPending) {
			return fiber.NewError(fiber.StatusBadRequest, "Tidak ada komisi tertunda")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pembayaran komisi gagal")
		}
		return c.JSON(fiber.Map{"paid_total": total})
	}
}

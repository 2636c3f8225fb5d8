package admin

import (
	"pos-backend/internal/models"
	"pos-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/activity-logs?user_id=&action=&page=&per_page=
func ListActivityLogsHandler(db *gorm.DB) fiber.Handler {
	logs := repository.New[models.ActivityLog](db)
	return func(c *fiber.Ctx) error {
		scopes := []func(*gorm.DB) *gorm.DB{}
		if uid := c.QueryInt("user_id", 0); uid > 0 {
			scopes = append(scopes, func(q *gorm.DB) *gorm.DB {
				return q.Where("user_id = ?", uid)
			})
		}
		if action := c.Query("action"); action != "" {
			scopes = append(scopes, func(q *gorm.DB) *gorm.DB {
				return q.Where("action = ?", action)
			})
		}

		result, err := logs.Paginate(
			c.QueryInt("page", 1), c.QueryInt("per_page", 25), "created_at desc", scopes...)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Log aktivitas gagal dimuat")
		}
		return c.JSON(result)
	}
}

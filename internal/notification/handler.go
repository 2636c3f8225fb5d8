package notification

import (
	"pos-backend/internal/auth"
	"pos-backend/internal/session"

	"github.com/gofiber/fiber/v2"
)

func ListHandler(svc *Service, authSvc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := authSvc.CurrentUser(c, session.FromCtx(c))
		if user == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Belum login")
		}

		rows, err := svc.ListFor(user.ID, c.QueryBool("unread", false))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Notifikasi gagal dimuat")
		}
		unread, err := svc.UnreadCount(user.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Notifikasi gagal dimuat")
		}
		return c.JSON(fiber.Map{"notifications": rows, "unread": unread})
	}
}

func MarkReadHandler(svc *Service, authSvc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := authSvc.CurrentUser(c, session.FromCtx(c))
		if user == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Belum login")
		}

		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
		}
		if err := svc.MarkRead(user.ID, uint(id)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Notifikasi gagal diperbarui")
		}
		return c.JSON(fiber.Map{"message": "Notifikasi ditandai terbaca"})
	}
}

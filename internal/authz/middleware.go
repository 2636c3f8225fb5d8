package authz

import (
	"pos-backend/internal/auth"
	"pos-backend/internal/session"

	"github.com/gofiber/fiber/v2"
)

// CSRFHeader carries the session token on state-changing requests. Form
// submissions may use the csrf_token field instead.
const CSRFHeader = "X-CSRF-Token"

// Require guards one route with the permission table. Public actions pass
// without a session. For everything else the request needs an authenticated
// user whose role the table allows, and state-changing methods must present
// the session's CSRF token before any handler work runs.
func Require(table *Table, svc *auth.Service, controller, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if table.IsPublic(controller, action) {
			return c.Next()
		}

		sess := session.FromCtx(c)
		user := svc.CurrentUser(c, sess)
		if user == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Silakan login terlebih dahulu")
		}
		if !table.IsPermitted(&user.Role, controller, action) {
			return fiber.NewError(fiber.StatusForbidden, "Anda tidak memiliki akses untuk aksi ini")
		}

		if isMutating(c.Method()) {
			candidate := c.Get(CSRFHeader)
			if candidate == "" {
				candidate = c.FormValue("csrf_token")
			}
			if !sess.VerifyCSRFToken(candidate) {
				return fiber.NewError(fiber.StatusForbidden, "Token CSRF tidak valid")
			}
		}
		return c.Next()
	}
}

func isMutating(method string) bool {
	switch method {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		return true
	}
	return false
}

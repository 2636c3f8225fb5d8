package auth

import (
	"strings"

	"pos-backend/internal/session"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func LoginHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}

		body.Username = strings.TrimSpace(body.Username)
		if body.Username == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Username dan password wajib diisi")
		}

		sess := session.FromCtx(c)
		user, err := svc.Attempt(c, sess, body.Username, body.Password)
		if err != nil {
			// One message for every failure cause.
			return fiber.NewError(fiber.StatusUnauthorized, "Username atau password salah")
		}

		return c.JSON(fiber.Map{
			"user": fiber.Map{
				"id":       user.ID,
				"username": user.Username,
				"name":     user.Name,
				"email":    user.Email,
				"role":     user.Role,
			},
			"csrf_token": sess.CSRFToken(),
		})
	}
}

func LogoutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Logout(c, session.FromCtx(c))
		return c.JSON(fiber.Map{"message": "Logout berhasil"})
	}
}

func MeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := session.FromCtx(c)
		user := svc.CurrentUser(c, sess)
		if user == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Belum login")
		}
		return c.JSON(fiber.Map{
			"id":         user.ID,
			"username":   user.Username,
			"name":       user.Name,
			"email":      user.Email,
			"role":       user.Role,
			"last_login": user.LastLogin,
			"csrf_token": sess.CSRFToken(),
			"flashes":    sess.ConsumeFlashes(),
		})
	}
}

// ForgotPasswordHandler answers identically whether or not the email exists;
// the token reaches the user out of band.
func ForgotPasswordHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ForgotPasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Email wajib diisi")
		}

		if _, err := svc.GenerateResetToken(body.Email); err != nil && err != ErrUnknownEmail {
			return fiber.NewError(fiber.StatusInternalServerError, "Permintaan reset gagal diproses")
		}
		return c.JSON(fiber.Map{
			"message": "Jika email terdaftar, tautan reset telah dikirim",
		})
	}
}

func ResetPasswordHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ResetPasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}
		if body.Token == "" || len(body.Password) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "Token dan password (min. 8 karakter) wajib diisi")
		}

		userID, err := svc.VerifyResetToken(body.Token)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tautan reset tidak valid atau sudah kedaluwarsa")
		}
		if err := svc.ResetPassword(c, userID, body.Password); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reset password gagal")
		}
		return c.JSON(fiber.Map{"message": "Password berhasil direset, silakan login"})
	}
}

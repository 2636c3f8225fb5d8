package bpom

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GET /api/bpom/lookup?number=MD123456789012 — or ?name= for a product
// name search when the registration number is unknown.
func LookupHandler(client *Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		number := strings.TrimSpace(c.Query("number"))
		name := strings.TrimSpace(c.Query("name"))
		if number == "" && name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nomor registrasi atau nama produk wajib diisi")
		}

		if number != "" {
			product, err := client.Lookup(c.Context(), number)
			if errors.Is(err, ErrNotRegistered) {
				return fiber.NewError(fiber.StatusNotFound, "Nomor registrasi tidak terdaftar di BPOM")
			}
			if err != nil {
				return fiber.NewError(fiber.StatusBadGateway, "Layanan BPOM tidak dapat dihubungi")
			}
			return c.JSON(product)
		}

		products, err := client.Search(c.Context(), name)
		if errors.Is(err, ErrNotRegistered) {
			return fiber.NewError(fiber.StatusNotFound, "Produk tidak ditemukan di registri BPOM")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "Layanan BPOM tidak dapat dihubungi")
		}
		return c.JSON(products)
	}
}

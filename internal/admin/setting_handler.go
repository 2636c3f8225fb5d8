package admin

import (
	"strconv"

	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UpdateSettingsRequest struct {
	CommissionRate *float64 `json:"commission_rate"`
}

func GetSettingsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var settings []models.Setting
		if err := db.Order("key asc").Find(&settings).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pengaturan gagal dimuat")
		}
		out := fiber.Map{}
		for _, s := range settings {
			out[s.Key] = s.Value
		}
		return c.JSON(out)
	}
}

// UpdateSettingsHandler upserts the global commission rate; the rate is the
// final fallback of the commission resolution.
func UpdateSettingsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateSettingsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Permintaan tidak valid")
		}
		if body.CommissionRate == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tidak ada pengaturan yang diubah")
		}
		if *body.CommissionRate < 0 || *body.CommissionRate > 100 {
			return fiber.NewError(fiber.StatusBadRequest, "Persentase komisi harus 0-100")
		}

		row := models.Setting{
			Key:   models.SettingCommissionRate,
			Value: strconv.FormatFloat(*body.CommissionRate, 'f', -1, 64),
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pengaturan gagal disimpan")
		}
		return c.JSON(fiber.Map{"message": "Pengaturan disimpan"})
	}
}

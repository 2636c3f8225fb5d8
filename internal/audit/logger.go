package audit

import (
	"log"

	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Logger appends activity_logs rows. The table is append-only; nothing in
// the application updates or deletes entries.
type Logger struct {
	db *gorm.DB
}

func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

type Entry struct {
	UserID      *uint
	Action      models.ActivityAction
	Description string
	IPAddress   string
	UserAgent   string
}

// Write records one entry. A failure must not block the caller's primary
// operation, so it is reported on the operator log and returned for callers
// that want to inspect it.
func (l *Logger) Write(e Entry) error {
	row := models.ActivityLog{
		UserID:      e.UserID,
		Action:      e.Action,
		Description: e.Description,
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
	}
	if err := l.db.Create(&row).Error; err != nil {
		log.Printf("[ERROR] audit: %s entry not recorded: %v", e.Action, err)
		return err
	}
	return nil
}

// WriteFromRequest fills client fields from the request before recording.
func (l *Logger) WriteFromRequest(c *fiber.Ctx, userID *uint, action models.ActivityAction, description string) {
	_ = l.Write(Entry{
		UserID:      userID,
		Action:      action,
		Description: description,
		IPAddress:   c.IP(),
		UserAgent:   c.Get(fiber.HeaderUserAgent),
	})
}

package notification

import (
	"context"
	"time"

	"pos-backend/internal/models"

	"gorm.io/gorm"
)

// Service stores per-user notifications and mirrors them onto the event
// queue. Storage failure is the caller's problem; queue failure never is.
type Service struct {
	db        *gorm.DB
	publisher *Publisher
}

func NewService(db *gorm.DB, publisher *Publisher) *Service {
	return &Service{db: db, publisher: publisher}
}

func (s *Service) Notify(ctx context.Context, userID uint, kind models.NotificationKind, title, body string) error {
	row := models.Notification{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return err
	}

	_ = s.publisher.Publish(ctx, Event{
		Kind:       string(kind),
		UserID:     userID,
		Title:      title,
		Body:       body,
		OccurredAt: time.Now(),
	})
	return nil
}

// NotifyAdmins fans one message out to every active admin.
func (s *Service) NotifyAdmins(ctx context.Context, kind models.NotificationKind, title, body string) error {
	var admins []models.User
	err := s.db.Where("role = ? AND status = ?", models.RoleAdmin, models.UserActive).
		Find(&admins).Error
	if err != nil {
		return err
	}
	for _, admin := range admins {
		if err := s.Notify(ctx, admin.ID, kind, title, body); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) ListFor(userID uint, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.Where("user_id = ?", userID).Order("created_at desc").Limit(100)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var rows []models.Notification
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) UnreadCount(userID uint) (int64, error) {
	var n int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&n).Error
	return n, err
}

func (s *Service) MarkRead(userID, notificationID uint) error {
	return s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", time.Now()).Error
}

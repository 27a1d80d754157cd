package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coriplus/coriplus/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify stores a notification for target. Pass a transaction handle as db
// to tie it to the write that caused it; nil uses the service handle.
func (s *NotificationService) Notify(ctx context.Context, db *gorm.DB, targetID uint, kind string, detail map[string]interface{}) error {
	if db == nil {
		db = s.db
	}
	raw, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to encode notification detail: %w", err)
	}
	n := models.Notification{
		Type:     kind,
		TargetID: targetID,
		Detail:   datatypes.JSON(raw),
		PubDate:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// List returns the newest notifications of a user and how many are unseen.
func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, int64, error) {
	db := s.db.WithContext(ctx)

	var unseen int64
	if err := db.Model(&models.Notification{}).
		Where("target_id = ? AND seen = ?", userID, false).
		Count(&unseen).Error; err != nil {
		return nil, 0, err
	}

	var list []models.Notification
	if err := db.Where("target_id = ?", userID).
		Order("pub_date DESC").Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, unseen, nil
}

func (s *NotificationService) MarkSeen(ctx context.Context, userID uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("target_id = ? AND seen = ?", userID, false).
		Update("seen", true)
	return result.RowsAffected, result.Error
}

package repository

import (
	"context"
	"fmt"

	"github.com/coriplus/coriplus/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).Preload("User").Preload("Uploads").First(&msg, id).Error; err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

func (r *MessageRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// DeleteByID removes a message with its upvotes and upload rows. Deleting a
// message that does not exist is not an error. It returns whether a
// message row was removed.
func (r *MessageRepository) DeleteByID(ctx context.Context, id uint) (bool, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("message_id = ?", id).Delete(&models.MessageUpvote{}).Error; err != nil {
		return false, err
	}
	if err := db.Where("message_id = ?", id).Delete(&models.Upload{}).Error; err != nil {
		return false, err
	}
	result := db.Delete(&models.Message{}, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *MessageRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).Count(&n).Error
	return n, err
}

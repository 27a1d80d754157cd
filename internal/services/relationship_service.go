package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coriplus/coriplus/internal/models"
	"github.com/coriplus/coriplus/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
)

type RelationshipService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewRelationshipService(db *gorm.DB, notifications *NotificationService) *RelationshipService {
	return &RelationshipService{db: db, notifications: notifications}
}

func (s *RelationshipService) lookup(ctx context.Context, username string) (*models.User, error) {
	user, err := repository.NewUserRepository(s.db).FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *RelationshipService) Follow(ctx context.Context, fromID uint, username string) error {
	target, err := s.lookup(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == fromID {
		return ErrSelfFollow
	}

	// The unique pair index decides concurrent follows.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rel := models.Relationship{FromUserID: fromID, ToUserID: target.ID, CreatedDate: time.Now().UTC()}
		if err := tx.Create(&rel).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyFollowing
			}
			return fmt.Errorf("failed to follow: %w", err)
		}
		return s.notifications.Notify(ctx, tx, target.ID, models.NotificationFollow, map[string]interface{}{
			"user": fromID,
		})
	})
}

func (s *RelationshipService) Unfollow(ctx context.Context, fromID uint, username string) error {
	target, err := s.lookup(ctx, username)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", fromID, target.ID).
		Delete(&models.Relationship{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

func (s *RelationshipService) IsFollowing(ctx context.Context, fromID, toID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Relationship{}).
		Where("from_user_id = ? AND to_user_id = ?", fromID, toID).
		Count(&n).Error
	return n > 0, err
}

// Followers lists the users following username, most recent first.
func (s *RelationshipService) Followers(ctx context.Context, username string, limit, offset int) ([]models.User, error) {
	return s.list(ctx, username, "to_user_id", "from_user_id", limit, offset)
}

// Following lists the users username follows, most recent first.
func (s *RelationshipService) Following(ctx context.Context, username string, limit, offset int) ([]models.User, error) {
	return s.list(ctx, username, "from_user_id", "to_user_id", limit, offset)
}

func (s *RelationshipService) list(ctx context.Context, username, matchCol, userCol string, limit, offset int) ([]models.User, error) {
	user, err := s.lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	var users []models.User
	err = s.db.WithContext(ctx).
		Joins("JOIN relationships ON relationships."+userCol+" = users.id").
		Where("relationships."+matchCol+" = ?", user.ID).
		Order("relationships.created_date DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	return users, err
}

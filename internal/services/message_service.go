package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coriplus/coriplus/internal/identity"
	"github.com/coriplus/coriplus/internal/metrics"
	"github.com/coriplus/coriplus/internal/models"
	"github.com/coriplus/coriplus/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotAuthor       = errors.New("only the author can delete this message")
	ErrEmptyMessage    = errors.New("message text is required")
	ErrMessageTooLong  = errors.New("message text is too long")
	ErrInvalidPrivacy  = errors.New("invalid privacy level")
)

const maxMessageLength = 4096

// ContentRejectedError is returned when the content filter refuses a message.
type ContentRejectedError struct {
	Reason  string
	Message string
}

func (e *ContentRejectedError) Error() string {
	return e.Message
}

type MessageService struct {
	db            *gorm.DB
	filter        *ContentFilter
	uploads       *UploadService
	relationships *RelationshipService
	notifications *NotificationService
}

// NewMessageService wires the message service. filter may be nil to publish
// text unchecked.
func NewMessageService(db *gorm.DB, filter *ContentFilter, uploads *UploadService, relationships *RelationshipService, notifications *NotificationService) *MessageService {
	return &MessageService{
		db:            db,
		filter:        filter,
		uploads:       uploads,
		relationships: relationships,
		notifications: notifications,
	}
}

// Create publishes a message, optionally with one image attached.
func (s *MessageService) Create(ctx context.Context, authorID uint, text string, privacy models.Privacy, file *multipart.FileHeader) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, ErrMessageTooLong
	}
	if !privacy.Valid() {
		return nil, ErrInvalidPrivacy
	}
	if s.filter != nil {
		if ok, reason := s.filter.Check(text); !ok {
			metrics.ContentRejectedTotal.WithLabelValues(reason).Inc()
			return nil, &ContentRejectedError{Reason: reason, Message: s.filter.RejectionMessage(reason)}
		}
	}

	msg := models.Message{
		UserID:  authorID,
		Text:    text,
		PubDate: time.Now().UTC(),
		Privacy: privacy,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewMessageRepository(tx).Create(ctx, &msg); err != nil {
			return err
		}
		if file != nil {
			upload, err := s.uploads.Save(ctx, tx, msg.ID, file)
			if err != nil {
				return err
			}
			msg.Uploads = append(msg.Uploads, *upload)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MessagesCreatedTotal.Inc()
	return repository.NewMessageRepository(s.db).FindByID(ctx, msg.ID)
}

// Get returns a message if viewerID may see it. viewerID 0 is anonymous.
// Hidden messages are reported as not found.
func (s *MessageService) Get(ctx context.Context, id, viewerID uint) (*models.Message, error) {
	msg, err := repository.NewMessageRepository(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	following := false
	if viewerID != 0 && msg.Privacy == models.PrivacyFriends {
		if following, err = s.relationships.IsFollowing(ctx, viewerID, msg.UserID); err != nil {
			return nil, err
		}
	}
	if !identity.CanSee(msg, viewerID, following) {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

func (s *MessageService) Delete(ctx context.Context, id, userID uint) error {
	var uploads []models.Upload
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		messages := repository.NewMessageRepository(tx)
		msg, err := messages.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrMessageNotFound
			}
			return err
		}
		if msg.UserID != userID {
			return ErrNotAuthor
		}
		uploads = msg.Uploads
		_, err = messages.DeleteByID(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	s.uploads.Remove(uploads)
	return nil
}

// ListByUser returns the messages of username visible to viewerID, newest
// first.
func (s *MessageService) ListByUser(ctx context.Context, username string, viewerID uint, limit, offset int) ([]models.Message, error) {
	author, err := repository.NewUserRepository(s.db).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var list []models.Message
	err = s.db.WithContext(ctx).
		Scopes(identity.VisibleTo(viewerID)).
		Where("messages.user_id = ?", author.ID).
		Preload("User").Preload("Uploads").
		Order("messages.pub_date DESC").Order("messages.id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// Feed returns messages of userID and of the users they follow, newest
// first. Unlisted messages from others are left out of the feed.
func (s *MessageService) Feed(ctx context.Context, userID uint, limit, offset int) ([]models.Message, error) {
	db := s.db.WithContext(ctx)
	followed := db.Session(&gorm.Session{NewDB: true}).Model(&models.Relationship{}).
		Select("to_user_id").Where("from_user_id = ?", userID)

	var list []models.Message
	err := db.
		Scopes(identity.VisibleTo(userID)).
		Where("messages.user_id = ? OR (messages.user_id IN (?) AND messages.privacy <> ?)", userID, followed, models.PrivacyUnlisted).
		Preload("User").Preload("Uploads").
		Order("messages.pub_date DESC").Order("messages.id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// ToggleUpvote adds or removes the upvote of userID and reports whether the
// message is upvoted afterwards.
func (s *MessageService) ToggleUpvote(ctx context.Context, messageID, userID uint) (bool, error) {
	msg, err := s.Get(ctx, messageID, userID)
	if err != nil {
		return false, err
	}

	upvoted := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("message_id = ? AND user_id = ?", messageID, userID).Delete(&models.MessageUpvote{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		vote := models.MessageUpvote{MessageID: messageID, UserID: userID, CreatedDate: time.Now().UTC()}
		if err := tx.Create(&vote).Error; err != nil {
			return fmt.Errorf("failed to upvote: %w", err)
		}
		upvoted = true
		if msg.UserID == userID {
			return nil
		}
		return s.notifications.Notify(ctx, tx, msg.UserID, models.NotificationUpvote, map[string]interface{}{
			"message": messageID,
			"user":    userID,
		})
	})
	if err != nil {
		slog.Error("upvote failed", "action", "upvote", "message_id", messageID, "error", err)
		return false, err
	}
	return upvoted, nil
}

package identity

import (
	"github.com/coriplus/coriplus/internal/models"
	"gorm.io/gorm"
)

// VisibleTo returns a GORM scope restricting messages to those the viewer
// may read. viewerID 0 means an anonymous viewer.
func VisibleTo(viewerID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == 0 {
			return db.Where("messages.privacy IN ?", []models.Privacy{models.PrivacyPublic, models.PrivacyUnlisted})
		}
		return db.Where(
			"messages.privacy IN ? OR messages.user_id = ? OR (messages.privacy = ? AND messages.user_id IN (?))",
			[]models.Privacy{models.PrivacyPublic, models.PrivacyUnlisted},
			viewerID,
			models.PrivacyFriends,
			db.Session(&gorm.Session{NewDB: true}).Model(&models.Relationship{}).
				Select("to_user_id").Where("from_user_id = ?", viewerID),
		)
	}
}

// CanSee reports whether viewerID may read msg. following tells whether
// the viewer follows the author.
func CanSee(msg *models.Message, viewerID uint, following bool) bool {
	if msg.UserID == viewerID && viewerID != 0 {
		return true
	}
	switch msg.Privacy {
	case models.PrivacyPublic, models.PrivacyUnlisted:
		return true
	case models.PrivacyFriends:
		return following
	}
	return false
}

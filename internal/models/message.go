package models

import "time"

// Privacy controls who can see a message.
type Privacy int

const (
	PrivacyPublic   Privacy = 0
	PrivacyUnlisted Privacy = 1
	PrivacyFriends  Privacy = 2
	PrivacyOnlyMe   Privacy = 3
)

func (p Privacy) Valid() bool {
	return p >= PrivacyPublic && p <= PrivacyOnlyMe
}

type Message struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	UserID  uint      `gorm:"not null;index" json:"user_id"`
	User    User      `gorm:"foreignKey:UserID" json:"user"`
	Text    string    `gorm:"type:text;not null" json:"text"`
	PubDate time.Time `gorm:"not null;index" json:"pub_date"`
	Privacy Privacy   `gorm:"not null;default:0" json:"privacy"`
	Uploads []Upload  `gorm:"foreignKey:MessageID" json:"uploads,omitempty"`
}

type MessageUpvote struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MessageID   uint      `gorm:"not null;uniqueIndex:idx_upvote_message_user" json:"message_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_upvote_message_user" json:"user_id"`
	CreatedDate time.Time `gorm:"not null" json:"created_date"`
}

// Upload is an image attached to a message, stored on disk as <id>.<type>.
type Upload struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Type      string `gorm:"size:10;not null" json:"type"`
	MessageID uint   `gorm:"not null;index" json:"message_id"`
}

func (u *Upload) FileName() string {
	return itoa(u.ID) + "." + u.Type
}

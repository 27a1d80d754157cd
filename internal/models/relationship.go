package models

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// Relationship is a follow edge: FromUser follows ToUser.
type Relationship struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FromUserID  uint      `gorm:"not null;uniqueIndex:idx_relationship_pair" json:"from_user_id"`
	ToUserID    uint      `gorm:"not null;uniqueIndex:idx_relationship_pair;index" json:"to_user_id"`
	CreatedDate time.Time `gorm:"not null" json:"created_date"`
}

const (
	NotificationFollow = "follow"
	NotificationUpvote = "upvote"
)

type Notification struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	Type     string         `gorm:"size:30;not null" json:"type"`
	TargetID uint           `gorm:"not null;index" json:"target_id"`
	Detail   datatypes.JSON `gorm:"type:text" json:"detail"`
	PubDate  time.Time      `gorm:"not null;index" json:"pub_date"`
	Seen     bool           `gorm:"not null;default:false" json:"seen"`
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}

package models

import "time"

// DisabledState is the moderation state of an account. It is a tri-state on
// purpose: a flagged account is re-enabled by its next successful login, a
// permanently disabled one never is.
type DisabledState int

const (
	DisabledStateActive    DisabledState = 0
	DisabledStateFlagged   DisabledState = 1
	DisabledStatePermanent DisabledState = 2
)

func (s DisabledState) String() string {
	switch s {
	case DisabledStateActive:
		return "active"
	case DisabledStateFlagged:
		return "flagged"
	case DisabledStatePermanent:
		return "disabled"
	}
	return "unknown"
}

type User struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Username   string         `gorm:"size:30;not null;uniqueIndex" json:"username"`
	FullName   string         `gorm:"size:80;not null" json:"full_name"`
	Password   string         `gorm:"size:256;not null" json:"-"`
	Email      string         `gorm:"size:256;not null" json:"-"`
	Birthday   time.Time      `gorm:"type:date" json:"-"`
	JoinDate   time.Time      `gorm:"not null;autoCreateTime" json:"join_date"`
	IsDisabled DisabledState  `gorm:"not null;default:0" json:"is_disabled"`
	Biography  string         `gorm:"size:256;not null;default:''" json:"biography"`
	Website    *string        `gorm:"type:text" json:"website,omitempty"`
	Adminship  *UserAdminship `gorm:"foreignKey:UserID" json:"-"`
}

// IsAdmin reports whether the user holds an adminship. Adminship must be
// preloaded for this to be meaningful.
func (u *User) IsAdmin() bool {
	return u.Adminship != nil
}

// UserAdminship marks a user as site administrator.
type UserAdminship struct {
	UserID uint `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
}

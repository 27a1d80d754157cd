package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownMediaType = errors.New("unknown media type")

// MediaType tags what a report points at.
type MediaType int

const (
	MediaTypeUser    MediaType = 1
	MediaTypeMessage MediaType = 2
)

func (t MediaType) String() string {
	switch t {
	case MediaTypeUser:
		return "user"
	case MediaTypeMessage:
		return "message"
	}
	return "unknown"
}

func (t MediaType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *MediaType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "user":
		*t = MediaTypeUser
	case "message":
		*t = MediaTypeMessage
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMediaType, b)
	}
	return nil
}

// ReportStatus is PENDING until an admin reviews the report.
type ReportStatus int

const (
	ReportStatusPending  ReportStatus = 0
	ReportStatusAccepted ReportStatus = 1
	ReportStatusDeclined ReportStatus = 2
)

func (s ReportStatus) String() string {
	switch s {
	case ReportStatusPending:
		return "pending"
	case ReportStatusAccepted:
		return "accepted"
	case ReportStatusDeclined:
		return "declined"
	}
	return "unknown"
}

func (s ReportStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ReportStatus) UnmarshalText(b []byte) error {
	v, ok := ParseReportStatus(string(b))
	if !ok {
		return fmt.Errorf("unknown report status: %q", b)
	}
	*s = v
	return nil
}

// ParseReportStatus maps the textual status used by the API back to its code.
func ParseReportStatus(s string) (ReportStatus, bool) {
	switch s {
	case "pending":
		return ReportStatusPending, true
	case "accepted":
		return ReportStatusAccepted, true
	case "declined":
		return ReportStatusDeclined, true
	}
	return 0, false
}

type ReportReason int

const (
	ReasonSpam ReportReason = iota + 1
	ReasonImpersonation
	ReasonPornography
	ReasonViolence
	ReasonHarassment
	ReasonHateSpeech
	ReasonSelfInjury
	ReasonDrugs
	ReasonFirearms
	ReasonIntellectualProperty
	ReasonOther
)

var reportReasonLabels = map[ReportReason]string{
	ReasonSpam:                 "It's spam",
	ReasonImpersonation:        "This profile is pretending to be someone else",
	ReasonPornography:          "Nudity or pornography",
	ReasonViolence:             "Violence or dangerous organization",
	ReasonHarassment:           "Bullying or harassment",
	ReasonHateSpeech:           "Hate speech or symbols",
	ReasonSelfInjury:           "Self injury",
	ReasonDrugs:                "Sale or promotion of drugs",
	ReasonFirearms:             "Sale or promotion of firearms",
	ReasonIntellectualProperty: "Intellectual property violation",
	ReasonOther:                "I just don't like it",
}

func (r ReportReason) Valid() bool {
	_, ok := reportReasonLabels[r]
	return ok
}

func (r ReportReason) Label() string {
	return reportReasonLabels[r]
}

// ReportReasons returns a copy of the code to label table.
func ReportReasons() map[ReportReason]string {
	out := make(map[ReportReason]string, len(reportReasonLabels))
	for k, v := range reportReasonLabels {
		out[k] = v
	}
	return out
}

// MediaRef is the entity a report is about. It is either a UserRef or a
// MessageRef; the unexported method keeps the set closed.
type MediaRef interface {
	Type() MediaType
	TargetID() uint
	isMediaRef()
}

type UserRef struct{ ID uint }

func (r UserRef) Type() MediaType { return MediaTypeUser }
func (r UserRef) TargetID() uint  { return r.ID }
func (UserRef) isMediaRef()       {}

type MessageRef struct{ ID uint }

func (r MessageRef) Type() MediaType { return MediaTypeMessage }
func (r MessageRef) TargetID() uint  { return r.ID }
func (MessageRef) isMediaRef()       {}

// NewMediaRef builds the reference for a stored (type, id) pair.
func NewMediaRef(t MediaType, id uint) (MediaRef, error) {
	switch t {
	case MediaTypeUser:
		return UserRef{ID: id}, nil
	case MediaTypeMessage:
		return MessageRef{ID: id}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMediaType, t)
}

// Report is a user-submitted flag against a user or a message. The media
// columns are a weak reference: the entity may be gone by review time.
type Report struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	MediaType    MediaType    `gorm:"not null;index:idx_reports_media" json:"media_type"`
	MediaID      uint         `gorm:"not null;index:idx_reports_media" json:"media_id"`
	SenderID     *uint        `gorm:"index" json:"sender_id,omitempty"`
	Reason       ReportReason `gorm:"not null" json:"reason"`
	Status       ReportStatus `gorm:"not null;default:0;index" json:"status"`
	CreatedDate  time.Time    `gorm:"not null;index" json:"created_date"`
	ReviewedByID *uint        `json:"reviewed_by_id,omitempty"`
	ReviewedAt   *time.Time   `json:"reviewed_at,omitempty"`
}

func (r *Report) Media() (MediaRef, error) {
	return NewMediaRef(r.MediaType, r.MediaID)
}

func (r *Report) SetMedia(ref MediaRef) {
	r.MediaType = ref.Type()
	r.MediaID = ref.TargetID()
}

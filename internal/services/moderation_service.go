package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coriplus/coriplus/internal/metrics"
	"github.com/coriplus/coriplus/internal/models"
	"github.com/coriplus/coriplus/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound  = errors.New("report not found")
	ErrInvalidDecision = errors.New("invalid decision: must be accept or decline")
	ErrInvalidReason   = errors.New("invalid report reason")
	ErrMediaNotFound   = errors.New("reported content not found")
)

// Decision is the outcome an administrator picks for a report.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

func (d Decision) status() (models.ReportStatus, bool) {
	switch d {
	case DecisionAccept:
		return models.ReportStatusAccepted, true
	case DecisionDecline:
		return models.ReportStatusDeclined, true
	}
	return 0, false
}

type Dashboard struct {
	Users          int64 `json:"users"`
	Messages       int64 `json:"messages"`
	PendingReports int64 `json:"pending_reports"`
}

type ModerationService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{db: db, now: time.Now}
}

// CreateReport files a report against a user or a message. senderID is nil
// for anonymous reports. The reported entity must exist now, even though it
// may be gone by the time the report is reviewed.
func (s *ModerationService) CreateReport(ctx context.Context, senderID *uint, media models.MediaRef, reason models.ReportReason) (*models.Report, error) {
	if !reason.Valid() {
		return nil, ErrInvalidReason
	}
	if media == nil {
		return nil, ErrMediaNotFound
	}

	var exists bool
	var err error
	switch ref := media.(type) {
	case models.UserRef:
		_, err = repository.NewUserRepository(s.db).FindByID(ctx, ref.ID)
		exists = err == nil
		if errors.Is(err, repository.ErrNotFound) {
			err = nil
		}
	case models.MessageRef:
		exists, err = repository.NewMessageRepository(s.db).Exists(ctx, ref.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reported content: %w", err)
	}
	if !exists {
		return nil, ErrMediaNotFound
	}

	report := models.Report{
		SenderID:    senderID,
		Reason:      reason,
		Status:      models.ReportStatusPending,
		CreatedDate: s.now().UTC(),
	}
	report.SetMedia(media)

	if err := repository.NewReportRepository(s.db).Create(ctx, &report); err != nil {
		return nil, err
	}
	metrics.ReportsCreatedTotal.WithLabelValues(media.Type().String()).Inc()
	return &report, nil
}

// ListReports returns reports newest first.
func (s *ModerationService) ListReports(ctx context.Context, filter repository.ReportFilter) ([]models.Report, int64, error) {
	return repository.NewReportRepository(s.db).ListOrdered(ctx, filter)
}

func (s *ModerationService) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	report, err := repository.NewReportRepository(s.db).FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	return report, err
}

// ReviewReport applies an administrator's decision. All reports about the
// same entity receive the new status; on accept the entity is disabled
// (users) or deleted (messages). Both writes share one transaction. An
// entity that no longer exists does not prevent the status change.
// Reviewing an already reviewed report overwrites its status.
func (s *ModerationService) ReviewReport(ctx context.Context, id uint, decision Decision, reviewerID *uint) (*models.Report, error) {
	status, ok := decision.status()
	if !ok {
		return nil, ErrInvalidDecision
	}

	var reviewed *models.Report
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reports := repository.NewReportRepository(tx)

		report, err := reports.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrReportNotFound
			}
			return err
		}
		media, err := report.Media()
		if err != nil {
			return err
		}

		if _, err := reports.ResolveMedia(ctx, media, status, reviewerID, s.now().UTC()); err != nil {
			return fmt.Errorf("failed to update report status: %w", err)
		}

		if status == models.ReportStatusAccepted {
			if err := s.takeDown(ctx, tx, media); err != nil {
				return err
			}
		}

		reviewed, err = reports.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ModerationReviewsTotal.WithLabelValues(string(decision)).Inc()
	slog.Info("report reviewed",
		"action", "review_report",
		"report_id", id,
		"decision", string(decision),
		"media_type", reviewed.MediaType.String(),
		"media_id", reviewed.MediaID,
	)
	return reviewed, nil
}

func (s *ModerationService) takeDown(ctx context.Context, tx *gorm.DB, media models.MediaRef) error {
	switch ref := media.(type) {
	case models.UserRef:
		err := repository.NewUserRepository(tx).SetDisabled(ctx, ref.ID, models.DisabledStatePermanent)
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("reported user no longer exists", "action", "review_report", "user_id", ref.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to disable user: %w", err)
		}
		if err := repository.NewUserRepository(tx).RevokeRefreshTokens(ctx, ref.ID); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
	case models.MessageRef:
		if _, err := repository.NewMessageRepository(tx).DeleteByID(ctx, ref.ID); err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}
	}
	return nil
}

// Dashboard summarizes the site for the admin homepage.
func (s *ModerationService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	var err error
	if d.Users, err = repository.NewUserRepository(s.db).Count(ctx); err != nil {
		return nil, err
	}
	if d.Messages, err = repository.NewMessageRepository(s.db).Count(ctx); err != nil {
		return nil, err
	}
	if d.PendingReports, err = repository.NewReportRepository(s.db).CountByStatus(ctx, models.ReportStatusPending); err != nil {
		return nil, err
	}
	return &d, nil
}

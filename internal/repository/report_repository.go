package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/coriplus/coriplus/internal/models"
	"gorm.io/gorm"
)

// ReportFilter narrows ListOrdered. A zero Limit means no limit.
type ReportFilter struct {
	Status *models.ReportStatus
	Limit  int
	Offset int
}

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// ListOrdered returns reports newest first. Ties on created_date are broken
// by id so the order is stable.
func (r *ReportRepository) ListOrdered(ctx context.Context, filter ReportFilter) ([]models.Report, int64, error) {
	var reports []models.Report
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Report{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_date DESC").Order("id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := query.Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *ReportRepository) FindByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (r *ReportRepository) UpdateStatus(ctx context.Context, id uint, status models.ReportStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveMedia sets the status of every report about the given entity and
// stamps the reviewer. It returns the number of reports touched.
func (r *ReportRepository) ResolveMedia(ctx context.Context, ref models.MediaRef, status models.ReportStatus, reviewerID *uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("media_type = ? AND media_id = ?", ref.Type(), ref.TargetID()).
		Updates(map[string]interface{}{
			"status":         status,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    at,
		})
	return result.RowsAffected, result.Error
}

func (r *ReportRepository) CountByStatus(ctx context.Context, status models.ReportStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
